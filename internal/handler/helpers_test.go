package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hinosalt/bobg-hp/internal/auth"
	"github.com/hinosalt/bobg-hp/internal/content"
	"github.com/hinosalt/bobg-hp/internal/model"
	"github.com/hinosalt/bobg-hp/internal/session"
)

const testSecret = "test-auth-secret-32bytes-long!!!"

var testNow = time.Date(2026, 10, 19, 12, 34, 56, 789_000_000, time.UTC)

func newTestSessions() *session.Manager {
	return session.NewManager(session.ManagerConfig{
		Secret:    testSecret,
		Allowlist: []string{"alice"},
		Now:       func() time.Time { return testNow },
	})
}

// sessionCookie はloginのセッションCookieを発行する。
func sessionCookie(t *testing.T, sessions *session.Manager, login string) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	if _, err := sessions.Issue(w, login, "gho_"+login); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return findCookie(t, w.Result().Cookies(), session.SessionCookieName)
}

func findCookie(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not found", name)
	return nil
}

func hasCookie(cookies []*http.Cookie, name string) bool {
	for _, c := range cookies {
		if c.Name == name {
			return true
		}
	}
	return false
}

// validContent は保存前検証を通過する最小のサイトコンテンツを返す。
func validContent() map[string]any {
	locale := func(prefix string) map[string]any {
		texts := make([]any, 94)
		for i := range texts {
			texts[i] = fmt.Sprintf("%s text %d", prefix, i+1)
		}
		images := make([]any, 40)
		for i := range images {
			images[i] = fmt.Sprintf("source/%s/%d.png", prefix, i+1)
		}
		news := make([]any, 3)
		for i := range news {
			news[i] = map[string]any{
				"href":  fmt.Sprintf("https://news.example.com/%s/%d", prefix, i+1),
				"image": fmt.Sprintf("source/news/%s-%d.webp", prefix, i+1),
			}
		}
		members := make([]any, 5)
		for i := range members {
			members[i] = fmt.Sprintf("source/members/%d.webp", i+1)
		}
		advisors := make([]any, 6)
		for i := range advisors {
			advisors[i] = fmt.Sprintf("source/advisors/%d.webp", i+1)
		}
		return map[string]any{
			"texts":            texts,
			"images":           images,
			"brandLogo":        "source/brand/logo.webp",
			"newsAllHref":      "https://news.example.com/" + prefix,
			"newsItems":        news,
			"coreMemberImages": members,
			"advisorImages":    advisors,
		}
	}
	return map[string]any{
		"version": 1,
		"inquiry": map[string]any{
			"endpoint":  "https://formsubmit.co/ajax/info@bobg.xyz",
			"recipient": "info@bobg.xyz",
		},
		"locales": map[string]any{
			"ja": locale("ja"),
			"en": locale("en"),
		},
	}
}

func jsonBody(t *testing.T, v any) *strings.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return strings.NewReader(string(data))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v\nraw: %s", err, w.Body.String())
	}
	return body
}

// --- モック定義 ---

type mockAuthService struct {
	getLoginURLFn    func(state, redirectURI string) string
	handleCallbackFn func(ctx context.Context, code, state, redirectURI string) (*auth.Identity, error)
}

func (m *mockAuthService) GetLoginURL(state, redirectURI string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state, redirectURI)
	}
	return "https://github.com/login/oauth/authorize?state=" + state
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code, state, redirectURI string) (*auth.Identity, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code, state, redirectURI)
	}
	return nil, nil
}

type mockContentService struct {
	readContentFn func(ctx context.Context, sess *model.Session) (*content.ReadResult, error)
	saveDraftFn   func(ctx context.Context, sess *model.Session, in content.SaveDraftInput) (*content.SaveDraftResult, error)
	uploadImageFn func(ctx context.Context, sess *model.Session, in content.UploadInput) (*content.UploadResult, error)
}

func (m *mockContentService) ReadContent(ctx context.Context, sess *model.Session) (*content.ReadResult, error) {
	return m.readContentFn(ctx, sess)
}

func (m *mockContentService) SaveDraft(ctx context.Context, sess *model.Session, in content.SaveDraftInput) (*content.SaveDraftResult, error) {
	return m.saveDraftFn(ctx, sess, in)
}

func (m *mockContentService) UploadImage(ctx context.Context, sess *model.Session, in content.UploadInput) (*content.UploadResult, error) {
	return m.uploadImageFn(ctx, sess, in)
}

type mockAuthRecorder struct {
	outcomes []string
}

func (m *mockAuthRecorder) RecordAuthCallback(outcome string) {
	m.outcomes = append(m.outcomes, outcome)
}
