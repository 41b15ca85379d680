// Package youtube はYouTubeシンジケーションフィードの取得とパースを提供する。
package youtube

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/reenz/liveboard/internal/model"
)

// ytVideoPrefix はAtomフィードの<id>要素が持つ動画IDのプレフィックス。
const ytVideoPrefix = "yt:video:"

// TitleSanitizer はタイトルのプレーンテキスト化のインターフェース。
// 実装はsecurity.NewTitleSanitizer。
type TitleSanitizer interface {
	Sanitize(raw string) string
}

// Parser はYouTubeのAtomフィードをVideoEntryの列に変換する。
// I/Oは行わない。個々のエントリの不備はフィード全体の失敗にせず、
// 動画IDを特定できないエントリは黙って捨てる。
type Parser struct {
	sanitizer TitleSanitizer
}

// NewParser はParserの新しいインスタンスを生成する。
func NewParser(sanitizer TitleSanitizer) *Parser {
	return &Parser{sanitizer: sanitizer}
}

// Parse はフィードドキュメントをパースしてVideoEntryの列を返す。
// channelLabelは各エントリのソースチャンネル表示名として設定される。
// ドキュメント自体がパースできない場合のみエラーを返す。
func (p *Parser) Parse(raw []byte, channelLabel string) ([]model.VideoEntry, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("フィードのパースに失敗: %w", err)
	}

	entries := make([]model.VideoEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}

		id := videoID(item)
		if id == "" {
			// 必須の動画IDがないエントリはエラーにせず捨てる
			continue
		}

		entry := model.VideoEntry{
			ID:        id,
			Title:     p.sanitizer.Sanitize(item.Title),
			Published: publishedAt(item),
			Channel:   channelLabel,
			Thumbnail: thumbnailURL(item),
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// videoID はエントリから動画IDを取り出す。
// yt:videoId拡張を優先し、なければ<id>のyt:video:プレフィックスを剥がす。
func videoID(item *gofeed.Item) string {
	if ext, ok := item.Extensions["yt"]["videoId"]; ok && len(ext) > 0 {
		if v := strings.TrimSpace(ext[0].Value); v != "" {
			return v
		}
	}
	if strings.HasPrefix(item.GUID, ytVideoPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(item.GUID, ytVideoPrefix))
	}
	return ""
}

// publishedAt はエントリの公開日時を取り出す。
// publishedがなければupdatedにフォールバックし、どちらもなければゼロ値。
func publishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Time{}
}

// thumbnailURL はmedia:group配下のmedia:thumbnailからURLを取り出す。
func thumbnailURL(item *gofeed.Item) string {
	groups, ok := item.Extensions["media"]["group"]
	if !ok {
		return ""
	}
	for _, group := range groups {
		for _, thumb := range group.Children["thumbnail"] {
			if url := thumb.Attrs["url"]; url != "" {
				return url
			}
		}
	}
	return ""
}
