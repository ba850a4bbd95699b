// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hinosalt/bobg-hp/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var sessionContextKey = contextKey("session")

// SessionGate はリクエストからセッションを取り出し、許可リストを判定する。
// session.Managerが実装する。
type SessionGate interface {
	FromRequest(r *http.Request) (*model.Session, bool)
	Allowed(login string) bool
}

// NewSessionMiddleware はセッションCookieを検証し、許可リストに含まれる
// ログインのセッションのみをリクエストコンテキストに注入する。
// 未認証または許可リスト外のリクエストには401を返す。
func NewSessionMiddleware(gate SessionGate) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := gate.FromRequest(r)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !gate.Allowed(sess.Login) {
				slog.Warn("login not in allowlist", slog.String("login", sess.Login))
				WriteErrorResponse(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			setLogLogin(r.Context(), sess.Login)
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
		})
	}
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(*model.Session)
	return sess, ok && sess != nil
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// LoginFromContext はコンテキストのセッションのログインを返す。
func LoginFromContext(ctx context.Context) string {
	if sess, ok := SessionFromContext(ctx); ok {
		return sess.Login
	}
	return ""
}
