package model

import "time"

// VideoEntry はYouTubeシンジケーションフィードの1動画を表す。
// videoIdをキーとして重複排除され、先に処理されたエントリが優先される。
type VideoEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Published time.Time `json:"published"`
	Channel   string    `json:"channel"`
	Thumbnail string    `json:"thumb,omitempty"`
}

// FeedChannel はYouTubeフィード取得対象の1チャンネル設定を表す。
type FeedChannel struct {
	ID   string `json:"id"`   // チャンネルID（UC...）
	Name string `json:"name"` // 表示ラベル。未設定の場合はIDを使用する
}
