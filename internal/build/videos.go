package build

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reenz/liveboard/internal/aggregate"
	"github.com/reenz/liveboard/internal/model"
	"github.com/reenz/liveboard/internal/poll"
	"github.com/reenz/liveboard/internal/roster"
)

// VideoFetcher は1チャンネル分のフィード取得のインターフェース。
// 実装はyoutube.FeedFetcher（チャンネル単位で全域）。
type VideoFetcher interface {
	Fetch(ctx context.Context, channelID, label string, max int) []model.VideoEntry
}

// VideosConfig はVideosBuilderの設定を保持する。
type VideosConfig struct {
	ChannelsPath      string
	OutputPath        string
	Concurrency       int
	DefaultPerChannel int // 設定ファイルにmax_per_channelがない場合の件数
}

// VideosBuilder は動画一覧アーティファクトを生成する。
type VideosBuilder struct {
	fetcher VideoFetcher
	logger  *slog.Logger
	config  VideosConfig
}

// NewVideosBuilder はVideosBuilderの新しいインスタンスを生成する。
func NewVideosBuilder(fetcher VideoFetcher, logger *slog.Logger, config VideosConfig) *VideosBuilder {
	return &VideosBuilder{
		fetcher: fetcher,
		logger:  logger,
		config:  config,
	}
}

// Run は動画一覧アーティファクトを1回生成する。
// チャンネル設定が読めない場合は空アーティファクトを書いてエラーを返す。
func (b *VideosBuilder) Run(ctx context.Context) error {
	start := time.Now()
	runID := uuid.New().String()

	channels, perChannel, err := roster.LoadFeedChannels(b.config.ChannelsPath)
	if err != nil {
		b.logger.Error("チャンネル設定の読み込みに失敗しました。空のアーティファクトを生成します",
			slog.String("run_id", runID),
			slog.String("channels_path", b.config.ChannelsPath),
			slog.String("error", err.Error()),
		)
		if writeErr := aggregate.WriteEmpty(b.config.OutputPath); writeErr != nil {
			return writeErr
		}
		return err
	}

	if perChannel <= 0 {
		perChannel = b.config.DefaultPerChannel
	}

	b.logger.Info("動画一覧のビルドを開始します",
		slog.String("run_id", runID),
		slog.Int("channel_count", len(channels)),
		slog.Int("per_channel", perChannel),
	)

	// スケジューラは文字列キーで動くため、ラベルは事前に引けるようにしておく
	ids := make([]string, len(channels))
	labels := make(map[string]string, len(channels))
	for i, ch := range channels {
		ids[i] = ch.ID
		labels[ch.ID] = ch.Name
	}

	perSource := poll.RunAll(ctx, ids, b.config.Concurrency, func(ctx context.Context, id string) []model.VideoEntry {
		return b.fetcher.Fetch(ctx, id, labels[id], perChannel)
	})

	// スロット順（=設定ファイル順）で平坦化してから重複排除する。
	// 先勝ちの重複排除を決定的にするための順序保証
	merged := make([]model.VideoEntry, 0, len(channels)*perChannel)
	for _, entries := range perSource {
		merged = append(merged, entries...)
	}

	videos := aggregate.DedupeVideos(merged)
	aggregate.SortVideos(videos)

	if err := aggregate.WriteArtifact(b.config.OutputPath, videos); err != nil {
		return fmt.Errorf("動画一覧アーティファクトの出力に失敗しました: %w", err)
	}

	b.logger.Info("動画一覧のビルドが完了しました",
		slog.String("run_id", runID),
		slog.Int("video_count", len(videos)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
