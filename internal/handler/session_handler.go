package handler

import (
	"net/http"

	"github.com/hinosalt/bobg-hp/internal/middleware"
	"github.com/hinosalt/bobg-hp/internal/session"
)

// anonymousResponse は未ログイン時のGET /api/sessionのレスポンス。
type anonymousResponse struct {
	Authenticated bool `json:"authenticated"`
}

// sessionResponse はログイン時のGET /api/sessionのレスポンス。
// 下書きブランチが無い場合、branchはnullになる。
type sessionResponse struct {
	Authenticated bool    `json:"authenticated"`
	Login         string  `json:"login"`
	Allowed       bool    `json:"allowed"`
	Branch        *string `json:"branch"`
}

// SessionHandler は管理画面にログイン状態を返すハンドラー。
type SessionHandler struct {
	gate middleware.SessionGate
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(gate middleware.SessionGate) *SessionHandler {
	return &SessionHandler{gate: gate}
}

// Get はログイン状態を返す。未ログインでも401にはしない。
// GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.gate.FromRequest(r)
	if !ok {
		middleware.WriteJSON(w, http.StatusOK, anonymousResponse{Authenticated: false})
		return
	}

	resp := sessionResponse{
		Authenticated: true,
		Login:         sess.Login,
		Allowed:       h.gate.Allowed(sess.Login),
	}
	if branch := session.DraftBranchFromRequest(r); branch != "" {
		resp.Branch = &branch
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}
