// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reenz/liveboard/internal/aggregate"
	"github.com/reenz/liveboard/internal/build"
	"github.com/reenz/liveboard/internal/config"
	"github.com/reenz/liveboard/internal/fetch"
	"github.com/reenz/liveboard/internal/handler"
	"github.com/reenz/liveboard/internal/kick"
	"github.com/reenz/liveboard/internal/logger"
	"github.com/reenz/liveboard/internal/metrics"
	"github.com/reenz/liveboard/internal/middleware"
	"github.com/reenz/liveboard/internal/model"
	"github.com/reenz/liveboard/internal/security"
	"github.com/reenz/liveboard/internal/youtube"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandLive:
		return runLive(cfg)
	case CommandVideos:
		return runVideos(cfg)
	case CommandServe:
		return runServe(cfg)
	default:
		return runServe(cfg)
	}
}

// components はフェッチ系の依存関係をまとめた構造体。
// serveとone-shot系サブコマンドで同じワイヤリングを共有する。
type components struct {
	registry    *prometheus.Registry
	resolver    *kick.Resolver
	feedFetcher *youtube.FeedFetcher
}

// wireComponents はフェッチ・解決系コンポーネントを構築する。
// アウトバウンドHTTPはすべてSSRFガード付きクライアントを経由する。
func wireComponents(cfg *config.Config) *components {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	ssrfGuard := security.NewSSRFGuard()
	httpClient := ssrfGuard.NewSafeClient(cfg.FetchTimeout)

	fetchClient := fetch.NewClient(httpClient, slog.Default(), fetch.ClientConfig{
		Retries:     cfg.FetchRetries,
		BaseDelay:   cfg.FetchBaseDelay,
		MaxDelay:    cfg.FetchMaxDelay,
		MaxBodySize: cfg.FetchMaxSize,
	}, collector)

	tokenSource := kick.NewTokenSource(kick.TokenConfig{
		ClientID:     cfg.KickClientID,
		ClientSecret: cfg.KickClientSecret,
		TokenURL:     cfg.KickTokenURL,
	}, httpClient, slog.Default(), collector)

	resolver := kick.NewResolver(tokenSource, fetchClient, cfg.KickAPIURL, slog.Default(), collector)

	sanitizer := security.NewTitleSanitizer()
	parser := youtube.NewParser(sanitizer)
	feedFetcher := youtube.NewFeedFetcher(fetchClient, parser, slog.Default(), collector)

	return &components{
		registry:    registry,
		resolver:    resolver,
		feedFetcher: feedFetcher,
	}
}

// runServe はプロキシAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	comps := wireComponents(cfg)

	rateLimiter := middleware.NewRateLimiter(
		middleware.DefaultRateLimiterConfig(cfg.RateLimitPerMin),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		Resolver:       comps.resolver,
		Fetcher:        comps.feedFetcher,
		DefaultFeedMax: cfg.ProxyFeedMax,

		MetricsHandler: metrics.Handler(comps.registry),
	}

	router := handler.NewRouter(deps)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runLive はライブ状態アーティファクトを1回生成して終了する。
// 認証情報が未設定の場合は空アーティファクトを書いてエラーを返す
// （後続のデプロイ工程が古いデータを配り続けないようにする）。
func runLive(cfg *config.Config) error {
	if !cfg.HasKickCredentials() {
		apiErr := model.NewMissingCredentialsError()
		slog.Error("Kick APIの認証情報が未設定のため実行できません",
			slog.String("code", apiErr.Code),
		)
		if werr := aggregate.WriteEmpty(cfg.LiveOutput); werr != nil {
			slog.Error("空アーティファクトの書き込みに失敗しました",
				slog.String("error", werr.Error()),
			)
		}
		return apiErr
	}

	comps := wireComponents(cfg)

	builder := build.NewLiveBuilder(comps.resolver, slog.Default(), build.LiveConfig{
		RosterPath:  cfg.RosterPath,
		OutputPath:  cfg.LiveOutput,
		Concurrency: cfg.FetchMaxConcurrent,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return builder.Run(ctx)
}

// runVideos は動画一覧アーティファクトを1回生成して終了する。
func runVideos(cfg *config.Config) error {
	comps := wireComponents(cfg)

	builder := build.NewVideosBuilder(comps.feedFetcher, slog.Default(), build.VideosConfig{
		ChannelsPath:      cfg.ChannelsPath,
		OutputPath:        cfg.VideosOutput,
		Concurrency:       cfg.FetchMaxConcurrent,
		DefaultPerChannel: cfg.VideosPerChannel,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return builder.Run(ctx)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
