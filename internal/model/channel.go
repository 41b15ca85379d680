// Package model はドメインモデルを定義する。
package model

import "time"

// PlatformKick はKickプラットフォームのタグ。
const PlatformKick = "kick"

// Channel はロスターに登録された1チャンネルを表す。
// ロスターJSONは歴史的に複数のフィールド名表記が混在しているため、
// 読み込み側（roster パッケージ）でエイリアスを正規化してから生成される。
type Channel struct {
	Slug string // 正規化済みスラッグ（小文字、トリム済み、先頭@除去）
	Name string // 表示名。未設定の場合はSlugを使用する
}

// ChannelStatus は1チャンネルのライブ状態スナップショット。
// 1回の実行ごとに新規生成され、生成後は変更されない。
// Resolverが失敗した場合もlive=false/viewers=0の劣化レコードとして
// Errorフィールド付きで必ず生成される（レコードが欠落することはない）。
type ChannelStatus struct {
	Slug      string    `json:"slug"`
	Platform  string    `json:"platform"`
	Live      bool      `json:"live"`
	Viewers   int       `json:"viewers"`
	Thumbnail string    `json:"thumb,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
	Error     string    `json:"error,omitempty"`
}

// NewDegradedStatus は解決失敗時の劣化レコードを生成する。
// live=false、viewers=0、サムネイルなしでエラーメッセージを保持する。
func NewDegradedStatus(slug string, reason string) ChannelStatus {
	return ChannelStatus{
		Slug:      slug,
		Platform:  PlatformKick,
		Live:      false,
		Viewers:   0,
		UpdatedAt: time.Now().UTC(),
		Error:     reason,
	}
}
