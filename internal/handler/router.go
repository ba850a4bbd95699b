package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hinosalt/bobg-hp/internal/metrics"
	"github.com/hinosalt/bobg-hp/internal/middleware"
	"github.com/hinosalt/bobg-hp/internal/security"
	"github.com/hinosalt/bobg-hp/internal/session"
	"github.com/prometheus/client_golang/prometheus"
)

// SessionManager はルーターが必要とするセッション操作。session.Managerが実装する。
type SessionManager interface {
	middleware.SessionGate
	SessionIssuer
}

var _ SessionManager = (*session.Manager)(nil)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	Sessions          SessionManager
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter // nilならレート制限なし

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig
	Sanitizer   security.TextSanitizer

	// コンテンツ
	ContentService ContentServiceInterface

	// メトリクス（nilなら /metrics を公開しない）
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	// 静的ファイル
	AdminDir string
	SiteDir  string
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → StatusMetrics → SecurityHeaders → CORS
//	/api/content: Session
//	/api/save-draft, /api/upload-image: Session → CSRF → RateLimit
//
// 認証ルート（/api/auth/*）と /api/session はセッション検証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Metrics != nil {
		r.Use(middleware.NewStatusMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.CORSAllowedOrigin != "" {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	}

	var recorder AuthRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}
	authHandler := NewAuthHandler(deps.AuthService, deps.Sessions, deps.Sanitizer, recorder, deps.AuthConfig)
	sessionHandler := NewSessionHandler(deps.Sessions)
	contentHandler := NewContentHandler(deps.ContentService, deps.Sessions.Cookies())

	// --- 運用エンドポイント ---
	r.Get("/health", Health)
	if deps.Metrics != nil && deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewNoStoreMiddleware())

		// --- 認証不要のルート ---
		r.Get("/session", sessionHandler.Get)
		r.Route("/auth", func(r chi.Router) {
			r.Get("/start", authHandler.Start)
			r.Get("/callback", authHandler.Callback)
			r.Get("/logout", authHandler.Logout)
		})

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.Sessions))

			r.Get("/content", contentHandler.Read)

			r.Group(func(r chi.Router) {
				r.Use(middleware.NewCSRFMiddleware(middleware.CSRFConfig{
					AllowedOrigins: []string{deps.CORSAllowedOrigin},
				}))
				if deps.RateLimiter != nil {
					r.Use(deps.RateLimiter.WriteMiddleware())
				}
				r.Post("/save-draft", contentHandler.SaveDraft)
				r.Post("/upload-image", contentHandler.UploadImage)
			})
		})
	})

	// --- 静的ファイル ---
	if deps.AdminDir != "" {
		r.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, adminPath, http.StatusMovedPermanently)
		})
		r.Get("/admin/*", http.StripPrefix("/admin/", http.FileServer(http.Dir(deps.AdminDir))).ServeHTTP)
	}
	if deps.SiteDir != "" {
		// /api 配下の405判定を優先させるため、公開サイトは未一致時のみ配信する
		site := http.FileServer(http.Dir(deps.SiteDir))
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				http.NotFound(w, r)
				return
			}
			site.ServeHTTP(w, r)
		})
	}

	return r
}

// Health はヘルスチェック用のハンドラー。
// GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
