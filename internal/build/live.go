// Package build はアーティファクト生成の1回分の実行を編成する。
// ロスター読み込み、並列解決、整列、出力までの一連の流れを束ねる。
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

// StatusResolver は1チャンネルの状態解決のインターフェース。
// 実装はkick.Resolver（全域関数）。
type StatusResolver interface {
	Resolve(ctx context.Context, slug string) model.ChannelStatus
}

// LiveConfig はLiveBuilderの設定を保持する。
type LiveConfig struct {
	RosterPath  string
	OutputPath  string
	Concurrency int
}

// LiveBuilder はライブ状態アーティファクトを生成する。
//
// 設定クラスの失敗（ロスターが読めない等）は実行全体の失敗として
// 空アーティファクトを書いた上でエラーを返す。個々のチャンネルの
// 失敗はResolverが劣化レコードに畳み込むため、ここには現れない。
type LiveBuilder struct {
	resolver StatusResolver
	logger   *slog.Logger
	config   LiveConfig
}

// NewLiveBuilder はLiveBuilderの新しいインスタンスを生成する。
func NewLiveBuilder(resolver StatusResolver, logger *slog.Logger, config LiveConfig) *LiveBuilder {
	return &LiveBuilder{
		resolver: resolver,
		logger:   logger,
		config:   config,
	}
}

// Run はライブ状態アーティファクトを1回生成する。
func (b *LiveBuilder) Run(ctx context.Context) error {
	start := time.Now()
	runID := uuid.New().String()

	channels, err := roster.Load(b.config.RosterPath)
	if err != nil {
		b.logger.Error("ロスターの読み込みに失敗しました。空のアーティファクトを生成します",
			slog.String("run_id", runID),
			slog.String("roster_path", b.config.RosterPath),
			slog.String("error", err.Error()),
		)
		if writeErr := aggregate.WriteEmpty(b.config.OutputPath); writeErr != nil {
			return writeErr
		}
		return err
	}

	slugs := roster.Slugs(channels)
	b.logger.Info("ライブ状態のビルドを開始します",
		slog.String("run_id", runID),
		slog.Int("channel_count", len(slugs)),
		slog.Int("concurrency", b.config.Concurrency),
	)

	results := poll.RunAll(ctx, slugs, b.config.Concurrency, func(ctx context.Context, slug string) model.ChannelStatus {
		return b.resolver.Resolve(ctx, slug)
	})

	aggregate.SortStatuses(results)

	if err := aggregate.WriteArtifact(b.config.OutputPath, results); err != nil {
		return fmt.Errorf("ライブ状態アーティファクトの出力に失敗しました: %w", err)
	}

	liveCount := 0
	for _, r := range results {
		if r.Live {
			liveCount++
		}
	}

	b.logger.Info("ライブ状態のビルドが完了しました",
		slog.String("run_id", runID),
		slog.Int("channel_count", len(results)),
		slog.Int("live_count", liveCount),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
