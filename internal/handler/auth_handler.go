// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hinosalt/bobg-hp/internal/auth"
	"github.com/hinosalt/bobg-hp/internal/metrics"
	"github.com/hinosalt/bobg-hp/internal/model"
	"github.com/hinosalt/bobg-hp/internal/security"
	"github.com/hinosalt/bobg-hp/internal/session"
)

// adminPath はログイン・ログアウト後のリダイレクト先。
const adminPath = "/admin/"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state, redirectURI string) string
	HandleCallback(ctx context.Context, code, state, redirectURI string) (*auth.Identity, error)
}

// SessionIssuer はセッションの発行とCookie操作を提供する。session.Managerが実装する。
type SessionIssuer interface {
	Issue(w http.ResponseWriter, login, accessToken string) (*model.Session, error)
	Cookies() session.Cookies
}

// AuthRecorder はOAuthコールバックの結果を記録する。
type AuthRecorder interface {
	RecordAuthCallback(outcome string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	// RedirectURI はOAuthのredirect_uri。空ならリクエストのオリジンから組み立てる。
	RedirectURI string
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	sessions  SessionIssuer
	sanitizer security.TextSanitizer
	recorder  AuthRecorder
	config    AuthHandlerConfig

	// テスト用に差し替え可能なstate生成
	generateState func() (string, error)
}

// NewAuthHandler はAuthHandlerを生成する。recorderはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, sessions SessionIssuer, sanitizer security.TextSanitizer, recorder AuthRecorder, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:       service,
		sessions:      sessions,
		sanitizer:     sanitizer,
		recorder:      recorder,
		config:        config,
		generateState: auth.GenerateState,
	}
}

// Start はGitHub OAuthフローを開始する。
// GET /api/auth/start
func (h *AuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	state, err := h.generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "OAuth init failed: %s", err.Error())
		return
	}

	// stateをCookieに保存（CSRF対策）
	h.sessions.Cookies().SetOAuthState(w, state)

	url := h.service.GetLoginURL(state, callbackURI(h.config.RedirectURI, r))
	http.Redirect(w, r, url, http.StatusFound)
}

// Callback はOAuthコールバックを処理する。
// GET /api/auth/callback?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	cookies := h.sessions.Cookies()

	// 1. stateの検証（CSRF対策）
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	stateCookie := session.OAuthStateFromRequest(r)
	if code == "" || state == "" || stateCookie == "" || state != stateCookie {
		slog.Warn("oauth state mismatch",
			slog.Bool("has_code", code != ""),
			slog.Bool("has_cookie", stateCookie != ""),
		)
		h.record(metrics.AuthInvalidState)
		cookies.ClearAll(w)
		writeHTML(w, http.StatusBadRequest, "<h1>Invalid OAuth state</h1>")
		return
	}

	// 2. 認可コードの交換と許可リストの確認
	identity, err := h.service.HandleCallback(r.Context(), code, state, callbackURI(h.config.RedirectURI, r))
	if err != nil {
		var denied *auth.AccessDeniedError
		if errors.As(err, &denied) {
			h.record(metrics.AuthDenied)
			cookies.ClearAll(w)
			writeHTML(w, http.StatusForbidden, fmt.Sprintf(
				"<h1>Access denied</h1><p>%s is not in CMS_ALLOWLIST.</p>",
				h.sanitizer.SanitizeText(denied.Login),
			))
			return
		}
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		h.record(metrics.AuthError)
		h.writeCallbackFailure(w, err)
		return
	}

	// 3. セッションCookieを設定
	if _, err := h.sessions.Issue(w, identity.Login, identity.AccessToken); err != nil {
		slog.Error("failed to issue session", slog.String("error", err.Error()))
		h.record(metrics.AuthError)
		h.writeCallbackFailure(w, err)
		return
	}
	cookies.ClearOAuthState(w)
	h.record(metrics.AuthSuccess)

	http.Redirect(w, r, adminPath, http.StatusFound)
}

// Logout は全てのCMS Cookieを削除して管理画面に戻す。
// GET /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Cookies().ClearAll(w)
	http.Redirect(w, r, adminPath, http.StatusFound)
}

func (h *AuthHandler) writeCallbackFailure(w http.ResponseWriter, err error) {
	writeHTML(w, http.StatusInternalServerError, fmt.Sprintf(
		"<h1>OAuth callback failed</h1><pre>%s</pre>",
		h.sanitizer.SanitizeText(err.Error()),
	))
}

func (h *AuthHandler) record(outcome string) {
	if h.recorder != nil {
		h.recorder.RecordAuthCallback(outcome)
	}
}

func writeHTML(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	w.Write([]byte(body))
}
