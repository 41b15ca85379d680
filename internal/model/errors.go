// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError はプロキシAPIの統一エラーフォーマットを表す。
// プロキシはアップストリーム障害でも200を返す規約のため、
// このエラーはバリデーション系の4xx応答にのみ使用される。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: config, validation, upstream, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeSlugRequired    = "SLUG_REQUIRED"
	ErrCodeChannelRequired = "CHANNEL_REQUIRED"
	ErrCodeMissingCreds    = "MISSING_CREDENTIALS"
)

// NewSlugRequiredError はスラッグ未指定エラーを生成する。
func NewSlugRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSlugRequired,
		Message:  "slugパラメータが指定されていません。",
		Category: "validation",
		Action:   "?slug=<チャンネルスラッグ> を指定してください。",
	}
}

// NewChannelRequiredError はチャンネルID未指定エラーを生成する。
func NewChannelRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeChannelRequired,
		Message:  "channelパラメータが指定されていません。",
		Category: "validation",
		Action:   "?channel=<チャンネルID> を指定してください。",
	}
}

// NewMissingCredentialsError はKick API認証情報未設定エラーを生成する。
func NewMissingCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingCreds,
		Message:  "Kick APIの認証情報が設定されていません。",
		Category: "config",
		Action:   "KICK_CLIENT_ID と KICK_CLIENT_SECRET を設定してください。",
	}
}
