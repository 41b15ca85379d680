package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// defaultUserAgent はアウトバウンドリクエストのUser-Agentヘッダー。
const defaultUserAgent = "Liveboard/1.0 (+https://youngyakuza.reenz.site/)"

// ErrEmptyBody は200応答でボディが空だった場合のエラー。
// アップストリームで実際に観測された異常で、成功ではなく
// リトライ対象として扱う。
var ErrEmptyBody = errors.New("empty response body")

// StatusError はリトライ対象外のHTTPステータスによる失敗を表す。
type StatusError struct {
	StatusCode int
	Snippet    string // ボディ先頭の抜粋（ログ・プロキシ応答用）
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// StatusRecorder はフェッチ結果のメトリクス記録のインターフェース。
type StatusRecorder interface {
	RecordHTTPStatus(statusCode int)
	RecordFetchLatency(duration time.Duration)
}

// ClientConfig はClientのリトライ・バックオフ設定を保持する。
type ClientConfig struct {
	Retries     int           // 最大リトライ回数（試行回数は Retries+1）
	BaseDelay   time.Duration // 初回バックオフ遅延
	MaxDelay    time.Duration // バックオフ遅延の上限。0で無制限
	MaxBodySize int64         // レスポンスボディの最大読み込みサイズ
}

// Client はリトライ・バックオフ付きのHTTP GETクライアント。
// トランスポート障害、429、5xx、空ボディの200はリトライ対象、
// それ以外の非2xxステータスは即座にStatusErrorで失敗する。
// リトライを使い切った場合は最後のエラーを返す。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	config     ClientConfig
	recorder   StatusRecorder // nilの場合は記録しない
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientにはSSRFガードが生成した安全なクライアントを渡す想定。
func NewClient(httpClient *http.Client, logger *slog.Logger, config ClientConfig, recorder StatusRecorder) *Client {
	if config.Retries < 0 {
		config.Retries = 0
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 600 * time.Millisecond
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = 2 << 20
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		config:     config,
		recorder:   recorder,
	}
}

// Get はURLをGETし、レスポンスボディを返す。
// リトライ間の遅延はBackoffの指数スケジュールに従い、
// コンテキストのキャンセルで待機を打ち切る。
func (c *Client) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.Retries; attempt++ {
		if attempt > 0 {
			delay := Backoff(c.config.BaseDelay, attempt-1, c.config.MaxDelay)
			c.logger.Warn("フェッチをリトライします",
				slog.String("url", url),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("error", lastErr.Error()),
			)
			if err := sleepContext(ctx, delay); err != nil {
				return nil, err
			}
		}

		body, retryable, err := c.attempt(ctx, url, header)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, lastErr
}

// attempt は1回のフェッチ試行を実行する。
// 戻り値のretryableは失敗がリトライ対象かを示す。
func (c *Client) attempt(ctx context.Context, url string, header http.Header) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	for key, values := range header {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// トランスポート障害（タイムアウト含む）はリトライ対象
		return nil, true, fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	if c.recorder != nil {
		c.recorder.RecordHTTPStatus(resp.StatusCode)
		c.recorder.RecordFetchLatency(time.Since(start))
	}

	switch Classify(resp.StatusCode) {
	case OutcomeRetry:
		return nil, true, &StatusError{StatusCode: resp.StatusCode, Snippet: readSnippet(resp.Body)}
	case OutcomeFatal:
		return nil, false, &StatusError{StatusCode: resp.StatusCode, Snippet: readSnippet(resp.Body)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodySize))
	if err != nil {
		return nil, true, fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}

	// 200で空ボディはアップストリーム異常。成功扱いにしない
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, true, ErrEmptyBody
	}

	return raw, false, nil
}

// readSnippet はエラーレスポンスのボディ先頭を読み取る。
func readSnippet(r io.Reader) string {
	snippet, _ := io.ReadAll(io.LimitReader(r, 300))
	return string(snippet)
}

// sleepContext はコンテキストのキャンセルを考慮してスリープする。
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
