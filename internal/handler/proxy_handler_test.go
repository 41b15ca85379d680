package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reenz/liveboard/internal/model"
)

// mockResolver はStatusResolverInterfaceのテスト用モック。
type mockResolver struct {
	resolveFunc func(ctx context.Context, slug string) model.ChannelStatus
}

func (m *mockResolver) Resolve(ctx context.Context, slug string) model.ChannelStatus {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, slug)
	}
	return model.ChannelStatus{Slug: slug, Platform: "kick", UpdatedAt: time.Now()}
}

// mockFetcher はFeedFetcherInterfaceのテスト用モック。
type mockFetcher struct {
	fetchFunc func(ctx context.Context, channelID, label string, max int) ([]model.VideoEntry, error)
}

func (m *mockFetcher) FetchEntries(ctx context.Context, channelID, label string, max int) ([]model.VideoEntry, error) {
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, channelID, label, max)
	}
	return nil, nil
}

// --- KickStatus のテスト ---

func TestKickStatus_ReturnsLiveStatus(t *testing.T) {
	updatedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	resolver := &mockResolver{
		resolveFunc: func(ctx context.Context, slug string) model.ChannelStatus {
			return model.ChannelStatus{
				Slug:      slug,
				Platform:  "kick",
				Live:      true,
				Viewers:   120,
				Thumbnail: "https://example.com/thumb.jpg",
				UpdatedAt: updatedAt,
			}
		},
	}

	h := NewProxyHandler(resolver, &mockFetcher{}, 6)
	req := httptest.NewRequest(http.MethodGet, "/api/kick-status?slug=alice", nil)
	w := httptest.NewRecorder()

	h.KickStatus(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスはJSONであるべき: %v", err)
	}
	if body["slug"] != "alice" {
		t.Errorf("slug = %v", body["slug"])
	}
	if body["live"] != true {
		t.Errorf("live = %v, want true", body["live"])
	}
	if body["viewers"] != float64(120) {
		t.Errorf("viewers = %v, want 120", body["viewers"])
	}
	if _, hasError := body["error"]; hasError {
		t.Error("成功時にerrorフィールドは含まれない")
	}
}

func TestKickStatus_NormalizesSlug(t *testing.T) {
	var gotSlug string
	resolver := &mockResolver{
		resolveFunc: func(ctx context.Context, slug string) model.ChannelStatus {
			gotSlug = slug
			return model.ChannelStatus{Slug: slug, Platform: "kick", UpdatedAt: time.Now()}
		},
	}

	h := NewProxyHandler(resolver, &mockFetcher{}, 6)
	req := httptest.NewRequest(http.MethodGet, "/api/kick-status?slug=%40Alice%20", nil)
	w := httptest.NewRecorder()

	h.KickStatus(w, req)

	if gotSlug != "alice" {
		t.Errorf("スラッグは正規化されるべき: slug = %q, want alice", gotSlug)
	}
}

func TestKickStatus_MissingSlugReturns400(t *testing.T) {
	h := NewProxyHandler(&mockResolver{}, &mockFetcher{}, 6)
	req := httptest.NewRequest(http.MethodGet, "/api/kick-status", nil)
	w := httptest.NewRecorder()

	h.KickStatus(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}

	var body apiErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("エラーボディはJSONであるべき: %v", err)
	}
	if body.Code != model.ErrCodeSlugRequired {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeSlugRequired)
	}
}

func TestKickStatus_UpstreamFailureReturns200WithNullLive(t *testing.T) {
	resolver := &mockResolver{
		resolveFunc: func(ctx context.Context, slug string) model.ChannelStatus {
			return model.NewDegradedStatus(slug, "HTTP 503")
		},
	}

	h := NewProxyHandler(resolver, &mockFetcher{}, 6)
	req := httptest.NewRequest(http.MethodGet, "/api/kick-status?slug=alice", nil)
	w := httptest.NewRecorder()

	h.KickStatus(w, req)

	// アップストリーム障害でもHTTPレベルでは200
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var body map[string]any
	json.NewDecoder(w.Body).Decode(&body)

	if live, ok := body["live"]; !ok || live != nil {
		t.Errorf("失敗時はlive=nullであるべき: live = %v", live)
	}
	if body["error"] != "HTTP 503" {
		t.Errorf("error = %v", body["error"])
	}
}

// --- YouTubeFeed のテスト ---

func TestYouTubeFeed_ReturnsItems(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, channelID, label string, max int) ([]model.VideoEntry, error) {
			return []model.VideoEntry{
				{ID: "v1", Title: "タイトル", Published: time.Now(), Channel: label},
			}, nil
		},
	}

	h := NewProxyHandler(&mockResolver{}, fetcher, 6)
	req := httptest.NewRequest(http.MethodGet, "/api/youtube-feed?channel=UCaaa", nil)
	w := httptest.NewRecorder()

	h.YouTubeFeed(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	var body struct {
		Items []model.VideoEntry `json:"items"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("レスポンスはJSONであるべき: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].ID != "v1" {
		t.Errorf("items = %+v", body.Items)
	}
}

func TestYouTubeFeed_MissingChannelReturns400(t *testing.T) {
	h := NewProxyHandler(&mockResolver{}, &mockFetcher{}, 6)
	req := httptest.NewRequest(http.MethodGet, "/api/youtube-feed", nil)
	w := httptest.NewRecorder()

	h.YouTubeFeed(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}

	var body apiErrorResponse
	json.NewDecoder(w.Body).Decode(&body)
	if body.Code != model.ErrCodeChannelRequired {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeChannelRequired)
	}
}

func TestYouTubeFeed_FetchFailureReturns200WithEmptyItems(t *testing.T) {
	fetcher := &mockFetcher{
		fetchFunc: func(ctx context.Context, channelID, label string, max int) ([]model.VideoEntry, error) {
			return nil, errors.New("upstream timeout")
		},
	}

	h := NewProxyHandler(&mockResolver{}, fetcher, 6)
	req := httptest.NewRequest(http.MethodGet, "/api/youtube-feed?channel=UCaaa", nil)
	w := httptest.NewRecorder()

	h.YouTubeFeed(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	// itemsはnullではなく空配列としてシリアライズされる
	var body map[string]any
	json.NewDecoder(w.Body).Decode(&body)

	items, ok := body["items"].([]any)
	if !ok {
		t.Fatalf("itemsは配列であるべき: %v", body["items"])
	}
	if len(items) != 0 {
		t.Errorf("失敗時itemsは空: %v", items)
	}
	if body["error"] != "upstream timeout" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestYouTubeFeed_MaxClamping(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantMax int
	}{
		{"未指定はデフォルト", "", 6},
		{"指定値をそのまま使う", "&max=10", 10},
		{"上限20に丸める", "&max=50", 20},
		{"下限1に丸める", "&max=0", 1},
		{"負数は下限1", "&max=-3", 1},
		{"数値以外はデフォルト", "&max=abc", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMax int
			fetcher := &mockFetcher{
				fetchFunc: func(ctx context.Context, channelID, label string, max int) ([]model.VideoEntry, error) {
					gotMax = max
					return nil, nil
				},
			}

			h := NewProxyHandler(&mockResolver{}, fetcher, 6)
			req := httptest.NewRequest(http.MethodGet, "/api/youtube-feed?channel=UCaaa"+tt.query, nil)
			w := httptest.NewRecorder()

			h.YouTubeFeed(w, req)

			if gotMax != tt.wantMax {
				t.Errorf("max = %d, want %d", gotMax, tt.wantMax)
			}
		})
	}
}
