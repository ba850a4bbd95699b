// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認証コールバックの結果ラベル。
const (
	AuthSuccess      = "success"
	AuthDenied       = "denied"
	AuthInvalidState = "invalid_state"
	AuthError        = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// GitHubクライアント、コンテンツサービス、ハンドラー、ミドルウェアから利用する。
type MetricsCollector interface {
	ObserveGitHubCall(op string, statusCode int, duration time.Duration)
	RecordDraftSaved(prCreated bool)
	RecordUpload(locale string, sizeBytes int)
	RecordAuthCallback(outcome string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	githubRequests *prometheus.CounterVec
	githubLatency  *prometheus.HistogramVec
	draftsSaved    *prometheus.CounterVec
	uploads        *prometheus.CounterVec
	uploadBytes    prometheus.Histogram
	authCallbacks  *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		githubRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bobgcms_github_requests_total",
			Help: "GitHub API呼び出しの合計数（操作・ステータス別、通信エラーは0）",
		}, []string{"op", "status_code"}),
		githubLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bobgcms_github_latency_seconds",
			Help:    "GitHub API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		draftsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bobgcms_drafts_saved_total",
			Help: "下書き保存の合計数（プルリクエストを新規作成したか）",
		}, []string{"pull_request"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bobgcms_uploads_total",
			Help: "画像アップロードの合計数（ロケール別）",
		}, []string{"locale"}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bobgcms_upload_bytes",
			Help:    "アップロード画像のサイズ（バイト）",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 6),
		}),
		authCallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bobgcms_auth_callbacks_total",
			Help: "OAuthコールバックの結果別の合計数",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bobgcms_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.githubRequests,
		c.githubLatency,
		c.draftsSaved,
		c.uploads,
		c.uploadBytes,
		c.authCallbacks,
		c.httpStatus,
	)

	return c
}

// ObserveGitHubCall はGitHub API呼び出しの結果とレイテンシを記録する。
func (c *Collector) ObserveGitHubCall(op string, statusCode int, duration time.Duration) {
	c.githubRequests.WithLabelValues(op, strconv.Itoa(statusCode)).Inc()
	c.githubLatency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordDraftSaved は下書き保存を記録する。
func (c *Collector) RecordDraftSaved(prCreated bool) {
	label := "reused"
	if prCreated {
		label = "created"
	}
	c.draftsSaved.WithLabelValues(label).Inc()
}

// RecordUpload は画像アップロードを記録する。
func (c *Collector) RecordUpload(locale string, sizeBytes int) {
	c.uploads.WithLabelValues(locale).Inc()
	c.uploadBytes.Observe(float64(sizeBytes))
}

// RecordAuthCallback はOAuthコールバックの結果を記録する。
func (c *Collector) RecordAuthCallback(outcome string) {
	c.authCallbacks.WithLabelValues(outcome).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ MetricsCollector = (*Collector)(nil)
