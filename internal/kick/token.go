// Package kick はKick公開APIとの連携を提供する。
// client_credentialsフローのトークンキャッシュと、
// チャンネルのライブ状態を解決するResolverを含む。
package kick

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrMissingCredentials は認証情報が未設定の場合のエラー。
// 設定不備は実行単位の劣化ではなく実行全体の問題として1回だけ報告する。
var ErrMissingCredentials = errors.New("kick client credentials are not configured")

// tokenExpiryMargin はトークン失効判定の安全マージン。
// クロックずれと失効直前のレースを避けるため、実際の失効より早めに
// 再取得する。
const tokenExpiryMargin = 60 * time.Second

// RefreshRecorder はトークン再取得のメトリクス記録のインターフェース。
type RefreshRecorder interface {
	RecordTokenRefresh()
}

// TokenConfig はTokenSourceの設定を保持する。
type TokenConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// TokenSource はclient_credentialsフローのアクセストークンを取得・キャッシュする。
// プロセス内で1インスタンスを共有し、有効期限内はネットワーク呼び出しなしで
// キャッシュ済みトークンを返す。キャッシュミス時の同時呼び出しは
// ミューテックスにより1回の交換リクエストに集約される（single-flight）。
// 401を観測してもトークンは失効させず、期限切れでのみ再取得する。
type TokenSource struct {
	config     TokenConfig
	httpClient *http.Client
	logger     *slog.Logger
	recorder   RefreshRecorder // nilの場合は記録しない

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	now func() time.Time // テスト用に差し替え可能
}

// NewTokenSource はTokenSourceの新しいインスタンスを生成する。
func NewTokenSource(config TokenConfig, httpClient *http.Client, logger *slog.Logger, recorder RefreshRecorder) *TokenSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenSource{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
		recorder:   recorder,
		now:        time.Now,
	}
}

// tokenResponse はトークンエンドポイントのレスポンス。
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token はキャッシュ済みトークンを返す。期限切れの場合は再取得する。
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if s.config.ClientID == "" || s.config.ClientSecret == "" {
		return "", ErrMissingCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, nil
	}

	token, expiresIn, err := s.exchange(ctx)
	if err != nil {
		return "", err
	}

	// 失効マージン: expires_inが極端に短い場合も負の期限にはしない
	margin := tokenExpiryMargin
	if time.Duration(expiresIn)*time.Second < margin {
		margin = 0
	}
	s.token = token
	s.expiresAt = s.now().Add(time.Duration(expiresIn)*time.Second - margin)

	if s.recorder != nil {
		s.recorder.RecordTokenRefresh()
	}
	s.logger.Info("Kickアクセストークンを取得しました",
		slog.Int("expires_in", expiresIn),
	)

	return s.token, nil
}

// exchange はclient_credentialsフローのトークン交換を実行する。
func (s *TokenSource) exchange(ctx context.Context) (string, int, error) {
	data := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.config.ClientID},
		"client_secret": {s.config.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", 0, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return "", 0, fmt.Errorf("empty access token in response")
	}

	return tokenResp.AccessToken, tokenResp.ExpiresIn, nil
}
