package session

import (
	"net/http"
	"time"

	"github.com/hinosalt/bobg-hp/internal/model"
)

// ManagerConfig はManagerの設定。
type ManagerConfig struct {
	Secret       string
	CookieSecure bool
	Allowlist    []string

	// テスト用に差し替え可能な現在時刻
	Now func() time.Time
}

// Manager はセッショントークンの発行・検証とCookie操作をまとめる。
type Manager struct {
	codec     *Codec
	cookies   Cookies
	allowlist Allowlist
	now       func() time.Time
}

// NewManager はManagerを生成する。
func NewManager(cfg ManagerConfig) *Manager {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		codec:     NewCodec(cfg.Secret).WithClock(now),
		cookies:   Cookies{Secure: cfg.CookieSecure},
		allowlist: Allowlist(cfg.Allowlist),
		now:       now,
	}
}

// Cookies はCookie操作を返す。
func (m *Manager) Cookies() Cookies {
	return m.cookies
}

// Allowed はloginが許可リストに含まれるかを返す。
func (m *Manager) Allowed(login string) bool {
	return m.allowlist.Allows(login)
}

// Issue は8時間有効なセッションを発行し、Cookieに設定する。
func (m *Manager) Issue(w http.ResponseWriter, login, accessToken string) (*model.Session, error) {
	s := &model.Session{
		Login:       login,
		AccessToken: accessToken,
		Exp:         m.now().Add(SessionMaxAge).UnixMilli(),
	}
	token, err := m.codec.Issue(s)
	if err != nil {
		return nil, err
	}
	m.cookies.SetSession(w, token)
	return s, nil
}

// FromRequest はセッションCookieを検証してペイロードを返す。
// Cookieが無い、または検証に失敗した場合はfalseを返す。
func (m *Manager) FromRequest(r *http.Request) (*model.Session, bool) {
	token := ReadCookie(r, SessionCookieName)
	if token == "" {
		return nil, false
	}

	var s model.Session
	if err := m.codec.Verify(token, &s); err != nil {
		return nil, false
	}
	if s.Login == "" || s.IsExpired(m.now()) {
		return nil, false
	}
	return &s, true
}
