package middleware

import (
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// CSRFConfig はCSRFミドルウェアの設定。
// AllowedOriginsにはリクエストのHost以外に許可するオリジンを指定する。
type CSRFConfig struct {
	AllowedOrigins []string
}

// NewCSRFMiddleware は状態変更リクエストのクロスサイト送信を拒否するミドルウェアを返す。
// 安全なメソッド（GET, HEAD, OPTIONS）は検証をスキップする。
// 状態変更メソッドはapplication/jsonのボディと、同一オリジンまたは許可済みのOriginヘッダーを必須とする。
// フォームからのクロスサイト送信はapplication/jsonを指定できないため、Cookieのみでは書き込めない。
func NewCSRFMiddleware(config CSRFConfig) func(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(config.AllowedOrigins))
	for _, o := range config.AllowedOrigins {
		if o != "" {
			allowed[strings.TrimRight(o, "/")] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if !isJSONContentType(r.Header.Get("Content-Type")) {
				slog.Warn("CSRF validation failed: non-JSON body",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusUnsupportedMediaType, "content type must be application/json")
				return
			}

			if origin := r.Header.Get("Origin"); origin != "" && !allowed[origin] && !sameHost(origin, r) {
				slog.Warn("CSRF validation failed: origin mismatch",
					slog.String("origin", origin),
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusForbidden, "cross-origin request rejected")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func isJSONContentType(v string) bool {
	mediaType, _, err := mime.ParseMediaType(v)
	return err == nil && mediaType == "application/json"
}

// sameHost はOriginのホストがリクエストのHost（プロキシ経由ならX-Forwarded-Host）と一致するかを判定する。
func sameHost(origin string, r *http.Request) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return strings.EqualFold(u.Host, host)
}
