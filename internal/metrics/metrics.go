// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はポーリングエンジンのPrometheusメトリクスを収集する。
// fetch.StatusRecorder、kick.RefreshRecorder、kick.ResolveRecorder、
// youtube.ParseRecorderの各インターフェースを実装する。
type Collector struct {
	resolveSuccess prometheus.Counter
	resolveFail    prometheus.Counter
	tokenRefresh   prometheus.Counter
	httpStatus     *prometheus.CounterVec
	fetchLatency   prometheus.Histogram
	videosParsed   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		resolveSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liveboard_resolve_success_total",
			Help: "チャンネル状態解決成功の合計数",
		}),
		resolveFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liveboard_resolve_fail_total",
			Help: "チャンネル状態解決失敗（劣化レコード）の合計数",
		}),
		tokenRefresh: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liveboard_token_refresh_total",
			Help: "Kickアクセストークン再取得の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "liveboard_upstream_status_total",
			Help: "アップストリームHTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "liveboard_fetch_latency_seconds",
			Help:    "アップストリームフェッチのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		videosParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "liveboard_videos_parsed_total",
			Help: "フィードからパースされた動画エントリの合計数",
		}),
	}

	reg.MustRegister(
		c.resolveSuccess,
		c.resolveFail,
		c.tokenRefresh,
		c.httpStatus,
		c.fetchLatency,
		c.videosParsed,
	)

	return c
}

// RecordResolveSuccess はチャンネル解決成功を記録する。
func (c *Collector) RecordResolveSuccess() {
	c.resolveSuccess.Inc()
}

// RecordResolveFailure はチャンネル解決失敗を記録する。
func (c *Collector) RecordResolveFailure(reason string) {
	c.resolveFail.Inc()
}

// RecordTokenRefresh はトークン再取得を記録する。
func (c *Collector) RecordTokenRefresh() {
	c.tokenRefresh.Inc()
}

// RecordHTTPStatus はアップストリームのHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFetchLatency はフェッチのレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordVideosParsed はパースされた動画エントリ数を記録する。
func (c *Collector) RecordVideosParsed(count int) {
	c.videosParsed.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
