package youtube

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/reenz/liveboard/internal/model"
)

// defaultFeedBaseURL はYouTubeシンジケーションフィードのエンドポイント。
const defaultFeedBaseURL = "https://www.youtube.com/feeds/videos.xml"

// FeedGetter はフィード取得に使うHTTPフェッチのインターフェース。
// 実装はfetch.Client（リトライ・バックオフ付き）。
type FeedGetter interface {
	Get(ctx context.Context, url string, header http.Header) ([]byte, error)
}

// ParseRecorder はパース済み動画数のメトリクス記録のインターフェース。
type ParseRecorder interface {
	RecordVideosParsed(count int)
}

// FeedFetcher は1チャンネル分のフィードを取得してパースする。
// 1チャンネルの失敗はバッチ全体を中断させず、空の結果に劣化させる。
type FeedFetcher struct {
	client   FeedGetter
	parser   *Parser
	logger   *slog.Logger
	recorder ParseRecorder // nilの場合は記録しない
	baseURL  string        // テスト用にエンドポイントを差し替え可能
}

// NewFeedFetcher はFeedFetcherの新しいインスタンスを生成する。
func NewFeedFetcher(client FeedGetter, parser *Parser, logger *slog.Logger, recorder ParseRecorder) *FeedFetcher {
	return &FeedFetcher{
		client:   client,
		parser:   parser,
		logger:   logger,
		recorder: recorder,
		baseURL:  defaultFeedBaseURL,
	}
}

// FeedURL はチャンネルIDからフィードURLを組み立てる。
func (f *FeedFetcher) FeedURL(channelID string) string {
	return f.baseURL + "?channel_id=" + url.QueryEscape(channelID)
}

// Fetch はチャンネルのフィードを取得し、先頭max件のVideoEntryを返す。
// 取得またはパースの失敗は空スライスに劣化させ、エラーはログのみに残す。
func (f *FeedFetcher) Fetch(ctx context.Context, channelID, label string, max int) []model.VideoEntry {
	entries, err := f.FetchEntries(ctx, channelID, label, max)
	if err != nil {
		return nil
	}
	return entries
}

// FetchEntries はFetchと同じ取得を行い、失敗をエラーとして返す。
// プロキシAPIのようにエラー内容を応答に含めたい呼び出し側が使う。
func (f *FeedFetcher) FetchEntries(ctx context.Context, channelID, label string, max int) ([]model.VideoEntry, error) {
	header := http.Header{}
	header.Set("Accept", "application/atom+xml, application/rss+xml, application/xml, text/xml, */*")

	raw, err := f.client.Get(ctx, f.FeedURL(channelID), header)
	if err != nil {
		f.logger.Warn("フィードの取得に失敗しました",
			slog.String("channel_id", channelID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	entries, err := f.parser.Parse(raw, label)
	if err != nil {
		f.logger.Warn("フィードのパースに失敗しました",
			slog.String("channel_id", channelID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if f.recorder != nil {
		f.recorder.RecordVideosParsed(len(entries))
	}

	if max > 0 && len(entries) > max {
		entries = entries[:max]
	}
	return entries, nil
}
