package session

import (
	"net/http"
	"net/url"
	"time"
)

// Cookie名
const (
	SessionCookieName     = "bobg_cms_session"
	OAuthStateCookieName  = "bobg_cms_oauth_state"
	DraftBranchCookieName = "bobg_cms_draft_branch"
)

// Cookieの有効期間
const (
	SessionMaxAge     = 8 * time.Hour
	OAuthStateMaxAge  = 10 * time.Minute
	DraftBranchMaxAge = 12 * time.Hour
)

// Cookies はCMSのCookieを書き込む。
// 全CookieはPath=/、HttpOnly、SameSite=Laxで発行する。
// 値はurl.PathEscapeで書き込み、ReadCookieでデコードする。
type Cookies struct {
	Secure bool
}

// SetSession はセッショントークンのCookieを設定する。
func (c Cookies) SetSession(w http.ResponseWriter, token string) {
	c.set(w, SessionCookieName, token, SessionMaxAge)
}

// ClearSession はセッションCookieを削除する。
func (c Cookies) ClearSession(w http.ResponseWriter) {
	c.clear(w, SessionCookieName)
}

// SetOAuthState はOAuth stateのCookieを設定する。
func (c Cookies) SetOAuthState(w http.ResponseWriter, state string) {
	c.set(w, OAuthStateCookieName, state, OAuthStateMaxAge)
}

// ClearOAuthState はOAuth stateのCookieを削除する。
func (c Cookies) ClearOAuthState(w http.ResponseWriter) {
	c.clear(w, OAuthStateCookieName)
}

// SetDraftBranch はドラフトブランチ名のCookieを設定する。
func (c Cookies) SetDraftBranch(w http.ResponseWriter, branch string) {
	c.set(w, DraftBranchCookieName, branch, DraftBranchMaxAge)
}

// ClearDraftBranch はドラフトブランチのCookieを削除する。
func (c Cookies) ClearDraftBranch(w http.ResponseWriter) {
	c.clear(w, DraftBranchCookieName)
}

// ClearAll はCMSの3種類のCookieをすべて削除する。
func (c Cookies) ClearAll(w http.ResponseWriter) {
	c.ClearOAuthState(w)
	c.ClearSession(w)
	c.ClearDraftBranch(w)
}

func (c Cookies) set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.PathEscape(value),
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c Cookies) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadCookie はリクエストからCookie値を読み取る。
// URLエンコードされた値はデコードして返す。存在しない場合は空文字列。
func ReadCookie(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	if v, err := url.PathUnescape(cookie.Value); err == nil {
		return v
	}
	return cookie.Value
}

// OAuthStateFromRequest はOAuth stateのCookie値を返す。
func OAuthStateFromRequest(r *http.Request) string {
	return ReadCookie(r, OAuthStateCookieName)
}

// DraftBranchFromRequest はドラフトブランチのCookie値を返す。
func DraftBranchFromRequest(r *http.Request) string {
	return ReadCookie(r, DraftBranchCookieName)
}
