package kick

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/reenz/liveboard/internal/model"
)

// StatusFetcher はチャンネル状態取得に使うHTTPフェッチのインターフェース。
// 実装はfetch.Client（リトライ・バックオフ付き）。
type StatusFetcher interface {
	Get(ctx context.Context, url string, header http.Header) ([]byte, error)
}

// TokenProvider はアクセストークン取得のインターフェース。
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// ResolveRecorder は解決結果のメトリクス記録のインターフェース。
type ResolveRecorder interface {
	RecordResolveSuccess()
	RecordResolveFailure(reason string)
}

// Resolver は1チャンネルのライブ状態をKick APIから解決する。
//
// Resolveは全域関数として振る舞う: 内部で何が失敗しても必ず
// ChannelStatusを返し、エラーはレコードのErrorフィールドに畳み込む。
// 1つの不正なスラッグがバッチ全体を中断させてはならない。
type Resolver struct {
	tokens   TokenProvider
	client   StatusFetcher
	apiURL   string
	logger   *slog.Logger
	recorder ResolveRecorder // nilの場合は記録しない

	now func() time.Time // テスト用に差し替え可能
}

// NewResolver はResolverの新しいインスタンスを生成する。
func NewResolver(tokens TokenProvider, client StatusFetcher, apiURL string, logger *slog.Logger, recorder ResolveRecorder) *Resolver {
	return &Resolver{
		tokens:   tokens,
		client:   client,
		apiURL:   apiURL,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// streamInfo は公開v1 APIのstreamオブジェクト。
type streamInfo struct {
	IsLive      bool   `json:"is_live"`
	ViewerCount int    `json:"viewer_count"`
	Thumbnail   string `json:"thumbnail"`
}

// livestreamInfo は旧v2 APIのlivestreamオブジェクト。
// APIのバージョンにより同じ概念が別の形で返るため両方を受ける。
type livestreamInfo struct {
	Viewers   int `json:"viewers"`
	Thumbnail struct {
		URL string `json:"url"`
	} `json:"thumbnail"`
}

// channelPayload は1チャンネル分のレスポンス。
// streamまたはlivestreamのどちらか（あるいは両方）が欠けることがあり、
// 欠落はオフライン扱いであってエラーではない。
type channelPayload struct {
	Slug       string          `json:"slug"`
	Stream     *streamInfo     `json:"stream"`
	Livestream *livestreamInfo `json:"livestream"`
}

// channelsResponse はchannels検索エンドポイントのレスポンス。
type channelsResponse struct {
	Data []channelPayload `json:"data"`
}

// Resolve はスラッグのライブ状態を解決してChannelStatusを返す。
// 失敗時はlive=false/viewers=0の劣化レコードにエラーを畳み込む。
func (r *Resolver) Resolve(ctx context.Context, slug string) model.ChannelStatus {
	token, err := r.tokens.Token(ctx)
	if err != nil {
		return r.degrade(slug, "token: "+err.Error())
	}

	reqURL := r.apiURL + "/channels?slug=" + url.QueryEscape(slug)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("Accept", "application/json")

	body, err := r.client.Get(ctx, reqURL, header)
	if err != nil {
		return r.degrade(slug, err.Error())
	}

	payload, err := parseChannelPayload(body)
	if err != nil {
		return r.degrade(slug, "invalid json: "+err.Error())
	}

	status := normalizeStatus(slug, payload)
	status.UpdatedAt = r.now().UTC()

	if r.recorder != nil {
		r.recorder.RecordResolveSuccess()
	}
	r.logger.Debug("チャンネル状態を解決しました",
		slog.String("slug", slug),
		slog.Bool("live", status.Live),
		slog.Int("viewers", status.Viewers),
	)

	return status
}

// degrade は劣化レコードを生成し、失敗をログとメトリクスに記録する。
func (r *Resolver) degrade(slug, reason string) model.ChannelStatus {
	if r.recorder != nil {
		r.recorder.RecordResolveFailure(reason)
	}
	r.logger.Warn("チャンネル状態の解決に失敗しました",
		slog.String("slug", slug),
		slog.String("reason", reason),
	)

	status := model.NewDegradedStatus(slug, reason)
	status.UpdatedAt = r.now().UTC()
	return status
}

// parseChannelPayload はレスポンスボディから1チャンネル分のペイロードを取り出す。
// 検索形式（{"data":[...]}）と単一チャンネル形式の両方を受ける。
func parseChannelPayload(body []byte) (*channelPayload, error) {
	var list channelsResponse
	if err := json.Unmarshal(body, &list); err == nil && len(list.Data) > 0 {
		return &list.Data[0], nil
	}

	var single channelPayload
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	return &single, nil
}

// normalizeStatus はAPIレスポンスの差異を吸収してChannelStatusに正規化する。
// ネストしたオブジェクトの欠落はオフライン・0人・サムネイルなしとして扱う。
func normalizeStatus(slug string, payload *channelPayload) model.ChannelStatus {
	status := model.ChannelStatus{
		Slug:     slug,
		Platform: model.PlatformKick,
	}

	switch {
	case payload.Stream != nil:
		status.Live = payload.Stream.IsLive
		if status.Live {
			status.Viewers = payload.Stream.ViewerCount
			status.Thumbnail = payload.Stream.Thumbnail
		}
	case payload.Livestream != nil:
		// livestreamオブジェクトの存在自体が配信中を意味する
		status.Live = true
		status.Viewers = payload.Livestream.Viewers
		status.Thumbnail = payload.Livestream.Thumbnail.URL
	}

	if status.Viewers < 0 {
		status.Viewers = 0
	}

	return status
}
