package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はプロキシAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandLive はライブ状態アーティファクトを1回生成して終了することを示す。
	CommandLive Command = "live"
	// CommandVideos は動画一覧アーティファクトを1回生成して終了することを示す。
	CommandVideos Command = "videos"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "live":
		return CommandLive
	case "videos":
		return CommandVideos
	case "serve":
		return CommandServe
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
