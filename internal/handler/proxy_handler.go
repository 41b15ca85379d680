// Package handler はプロキシAPIのHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/reenz/liveboard/internal/model"
	"github.com/reenz/liveboard/internal/roster"
)

// proxyFeedMaxCeiling はフィードプロキシのmaxパラメータ上限。
const proxyFeedMaxCeiling = 20

// StatusResolverInterface はKickステータスプロキシが必要とするインターフェース。
type StatusResolverInterface interface {
	// Resolve は1スラッグのライブ状態を解決する。常に結果を返す（total）。
	Resolve(ctx context.Context, slug string) model.ChannelStatus
}

// FeedFetcherInterface はYouTubeフィードプロキシが必要とするインターフェース。
type FeedFetcherInterface interface {
	// FetchEntries はチャンネルの動画一覧を取得する。失敗はエラーとして返す。
	FetchEntries(ctx context.Context, channelID, label string, max int) ([]model.VideoEntry, error)
}

// ProxyHandler はブラウザ向けの読み取り専用プロキシエンドポイント群。
// アップストリーム障害は200のボディ内errorフィールドとして伝える
// （フロントエンドがHTTPエラーとデータなしを区別しなくて済むようにする規約）。
type ProxyHandler struct {
	resolver       StatusResolverInterface
	fetcher        FeedFetcherInterface
	defaultFeedMax int
}

// NewProxyHandler はProxyHandlerを生成する。
func NewProxyHandler(resolver StatusResolverInterface, fetcher FeedFetcherInterface, defaultFeedMax int) *ProxyHandler {
	if defaultFeedMax < 1 {
		defaultFeedMax = 6
	}
	return &ProxyHandler{
		resolver:       resolver,
		fetcher:        fetcher,
		defaultFeedMax: defaultFeedMax,
	}
}

// kickStatusResponse はKickステータスプロキシのレスポンス。
// 失敗時はLiveがnull、Errorに理由が入る。
type kickStatusResponse struct {
	Slug      string     `json:"slug,omitempty"`
	Live      *bool      `json:"live"`
	Viewers   *int       `json:"viewers,omitempty"`
	Thumbnail string     `json:"thumbnail,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// feedProxyResponse はYouTubeフィードプロキシのレスポンス。
// itemsは失敗時も空配列として必ず含める。
type feedProxyResponse struct {
	Items []model.VideoEntry `json:"items"`
	Error string             `json:"error,omitempty"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// KickStatus は1チャンネルのライブ状態を返す。
// GET /api/kick-status?slug=<slug>
// 400はslug未指定の場合のみ。アップストリーム障害は200で{live:null, error}を返す。
func (h *ProxyHandler) KickStatus(w http.ResponseWriter, r *http.Request) {
	slug := roster.NormalizeSlug(r.URL.Query().Get("slug"))
	if slug == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewSlugRequiredError())
		return
	}

	status := h.resolver.Resolve(r.Context(), slug)

	if status.Error != "" {
		writeJSONResponse(w, http.StatusOK, kickStatusResponse{
			Slug:  status.Slug,
			Live:  nil,
			Error: status.Error,
		})
		return
	}

	live := status.Live
	viewers := status.Viewers
	updatedAt := status.UpdatedAt
	writeJSONResponse(w, http.StatusOK, kickStatusResponse{
		Slug:      status.Slug,
		Live:      &live,
		Viewers:   &viewers,
		Thumbnail: status.Thumbnail,
		UpdatedAt: &updatedAt,
	})
}

// YouTubeFeed はチャンネルの最新動画一覧を返す。
// GET /api/youtube-feed?channel=<id>&max=<n>
// 400はchannel未指定の場合のみ。取得失敗は200で{items:[], error}を返す。
func (h *ProxyHandler) YouTubeFeed(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channel")
	if channelID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewChannelRequiredError())
		return
	}

	max := h.clampFeedMax(r.URL.Query().Get("max"))

	entries, err := h.fetcher.FetchEntries(r.Context(), channelID, channelID, max)
	if err != nil {
		writeJSONResponse(w, http.StatusOK, feedProxyResponse{
			Items: []model.VideoEntry{},
			Error: err.Error(),
		})
		return
	}

	if entries == nil {
		entries = []model.VideoEntry{}
	}
	writeJSONResponse(w, http.StatusOK, feedProxyResponse{Items: entries})
}

// clampFeedMax はmaxパラメータを1..20に丸める。不正値・未指定はデフォルト。
func (h *ProxyHandler) clampFeedMax(raw string) int {
	if raw == "" {
		return h.defaultFeedMax
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return h.defaultFeedMax
	}
	if n < 1 {
		return 1
	}
	if n > proxyFeedMaxCeiling {
		return proxyFeedMaxCeiling
	}
	return n
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSONResponse(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}
