package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TitleSanitizerService はフィード由来のテキストのサニタイズ機能を定義する。
// 動画タイトルやチャンネル名はアーティファクト経由でそのままDOMに
// 挿入されるため、マークアップを一切残さないプレーンテキスト化を行う。
type TitleSanitizerService interface {
	// Sanitize は入力からすべてのHTMLタグを除去し、
	// エンティティを復号した上で前後の空白をトリムして返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// titleSanitizer はTitleSanitizerServiceの実装。
// bluemondayのStrictPolicy（全タグ除去）を保持する。
type titleSanitizer struct {
	policy *bluemonday.Policy
}

// NewTitleSanitizer はTitleSanitizerServiceの新しいインスタンスを生成する。
func NewTitleSanitizer() *titleSanitizer {
	return &titleSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力をプレーンテキスト化して返す。
// StrictPolicyはタグ除去後にエンティティエスケープを行うため、
// "A & B" のようなタイトルが二重エスケープされないよう復号する。
func (s *titleSanitizer) Sanitize(raw string) string {
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
