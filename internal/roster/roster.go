// Package roster はポーリング対象チャンネルの一覧の読み込みと正規化を提供する。
//
// ロスターJSONは静的サイト側で手編集されるファイルで、歴史的に
// 同じ概念に複数のフィールド名表記が使われてきた。ここでは認識する
// エイリアスを明示的に列挙し、1つの内部形式に正規化する。
package roster

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/reenz/liveboard/internal/model"
)

// slugAliases は識別子として認識するフィールド名。優先順。
var slugAliases = []string{"kick", "slug", "channel", "channel_id", "channelId", "id", "identifier"}

// nameAliases は表示名として認識するフィールド名。優先順。
var nameAliases = []string{"name", "label", "title"}

// NormalizeSlug は識別子を内部形式に正規化する。
// 前後の空白を除去し、小文字化し、先頭の@を1つ剥がす。
func NormalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "@")
	return s
}

// Load はロスターJSONを読み込み、正規化・重複排除済みのチャンネル一覧を返す。
// 重複排除は正規化後の値で行い、先に現れたエントリを残す。
// ファイルが読めない、またはJSONとして不正な場合はエラーを返す
// （呼び出し側が空アーティファクト生成に劣化させる）。
// 配列以外の有効なJSONは過去の挙動に合わせて空の一覧として扱う。
func Load(path string) ([]model.Channel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ロスターの読み込みに失敗しました: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("ロスターのパースに失敗しました: %w", err)
	}

	entries, ok := doc.([]any)
	if !ok {
		return []model.Channel{}, nil
	}

	seen := make(map[string]struct{}, len(entries))
	channels := make([]model.Channel, 0, len(entries))

	for _, e := range entries {
		fields, ok := e.(map[string]any)
		if !ok {
			continue
		}

		slug := NormalizeSlug(firstStringAlias(fields, slugAliases))
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}

		name := strings.TrimSpace(firstStringAlias(fields, nameAliases))
		if name == "" {
			name = slug
		}

		channels = append(channels, model.Channel{Slug: slug, Name: name})
	}

	return channels, nil
}

// Slugs はチャンネル一覧からスラッグのみを取り出す。
func Slugs(channels []model.Channel) []string {
	slugs := make([]string, len(channels))
	for i, ch := range channels {
		slugs[i] = ch.Slug
	}
	return slugs
}

// channelsFile はYouTubeフィード設定ファイルの形式。
type channelsFile struct {
	Channels      []model.FeedChannel `json:"channels"`
	MaxPerChannel int                 `json:"max_per_channel"`
}

// LoadFeedChannels はYouTubeフィード設定を読み込む。
// IDのないエントリは捨てる。max_per_channel未設定時は0を返し、
// 呼び出し側がデフォルトを適用する。
func LoadFeedChannels(path string) ([]model.FeedChannel, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("チャンネル設定の読み込みに失敗しました: %w", err)
	}

	var doc channelsFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, 0, fmt.Errorf("チャンネル設定のパースに失敗しました: %w", err)
	}

	channels := make([]model.FeedChannel, 0, len(doc.Channels))
	for _, ch := range doc.Channels {
		id := strings.TrimSpace(ch.ID)
		if id == "" {
			continue
		}
		name := strings.TrimSpace(ch.Name)
		if name == "" {
			name = id
		}
		channels = append(channels, model.FeedChannel{ID: id, Name: name})
	}

	return channels, doc.MaxPerChannel, nil
}

// firstStringAlias はエイリアス一覧の順に最初に見つかった文字列値を返す。
func firstStringAlias(fields map[string]any, aliases []string) string {
	for _, alias := range aliases {
		if v, ok := fields[alias]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}
