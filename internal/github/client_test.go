package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// --- テストヘルパー ---

type recordedCall struct {
	op     string
	status int
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (o *recordingObserver) ObserveGitHubCall(op string, statusCode int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, recordedCall{op: op, status: statusCode})
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *recordingObserver) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	observer := &recordingObserver{}
	factory, err := NewFactory(FactoryConfig{
		Owner:      "hinosalt",
		Repo:       "bobg-hp",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Observer:   observer,
	})
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}
	return factory.ForToken("gho_test"), observer
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// --- テスト ---

// TestNewFactory_RequiresOwnerAndRepo はowner/repo未指定でエラーになることを検証する。
func TestNewFactory_RequiresOwnerAndRepo(t *testing.T) {
	if _, err := NewFactory(FactoryConfig{Repo: "bobg-hp"}); err == nil {
		t.Error("expected error for missing owner")
	}
	if _, err := NewFactory(FactoryConfig{Owner: "hinosalt"}); err == nil {
		t.Error("expected error for missing repo")
	}
}

// TestClient_SendsTokenAndUserAgent は認証ヘッダとUser-Agentが送られることを検証する。
func TestClient_SendsTokenAndUserAgent(t *testing.T) {
	var gotAuth, gotUA string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		writeJSON(w, http.StatusOK, map[string]any{"login": "alice"})
	}))

	login, err := client.AuthenticatedLogin(context.Background())
	if err != nil {
		t.Fatalf("AuthenticatedLogin() error = %v", err)
	}
	if login != "alice" {
		t.Errorf("login = %q, want %q", login, "alice")
	}
	if gotAuth != "Bearer gho_test" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer gho_test")
	}
	if gotUA != "bobg-cms" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "bobg-cms")
	}
}

// TestAuthenticatedLogin_EmptyLogin_ReturnsError はログイン名が空のプロフィールを拒否することを検証する。
func TestAuthenticatedLogin_EmptyLogin_ReturnsError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1})
	}))

	if _, err := client.AuthenticatedLogin(context.Background()); err == nil {
		t.Fatal("expected error for empty login")
	}
}

// TestGetBranchSHA_NotFound は存在しないブランチがIsNotFoundで判定できることを検証する。
func TestGetBranchSHA_NotFound(t *testing.T) {
	client, observer := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	}))

	_, err := client.GetBranchSHA(context.Background(), "cms/missing")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false, want true", err)
	}
	if err.Error() != "GitHub API request failed: Not Found" {
		t.Errorf("error = %q", err.Error())
	}
	if len(observer.calls) != 1 || observer.calls[0].op != "get_ref" || observer.calls[0].status != http.StatusNotFound {
		t.Errorf("observer calls = %+v", observer.calls)
	}
}

// TestEnsureBranch_Idempotent は2回呼んでもref作成が1回だけであることを検証する。
func TestEnsureBranch_Idempotent(t *testing.T) {
	var mu sync.Mutex
	refs := map[string]string{"main": "base-sha"}
	createCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/hinosalt/bobg-hp/git/ref/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		branch := strings.TrimPrefix(r.URL.Path, "/repos/hinosalt/bobg-hp/git/ref/heads/")
		sha, ok := refs[branch]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ref":    "refs/heads/" + branch,
			"object": map[string]any{"sha": sha, "type": "commit"},
		})
	})
	mux.HandleFunc("/repos/hinosalt/bobg-hp/git/refs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body struct {
			Ref string `json:"ref"`
			SHA string `json:"sha"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		mu.Lock()
		defer mu.Unlock()
		createCalls++
		refs[strings.TrimPrefix(body.Ref, "refs/heads/")] = body.SHA
		writeJSON(w, http.StatusCreated, map[string]any{
			"ref":    body.Ref,
			"object": map[string]any{"sha": body.SHA},
		})
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		sha, err := client.EnsureBranch(ctx, "main", "cms/20261019T120000Z-alice")
		if err != nil {
			t.Fatalf("EnsureBranch() #%d error = %v", i+1, err)
		}
		if sha != "base-sha" {
			t.Errorf("EnsureBranch() #%d sha = %q, want %q", i+1, sha, "base-sha")
		}
	}

	if createCalls != 1 {
		t.Errorf("create ref calls = %d, want 1", createCalls)
	}
}

// TestEnsureBranch_LookupFailure_DoesNotCreate は404以外の失敗で作成しないことを検証する。
func TestEnsureBranch_LookupFailure_DoesNotCreate(t *testing.T) {
	created := false
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			created = true
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Bad credentials"})
	}))

	_, err := client.EnsureBranch(context.Background(), "main", "cms/x")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if StatusCode(err) != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", StatusCode(err))
	}
	if created {
		t.Error("create ref must not be called")
	}
}

// TestGetRepoFile はファイル取得とデコードを検証する。
func TestGetRepoFile(t *testing.T) {
	raw := []byte("{\n  \"version\": 1\n}\n")
	// GitHubは60文字ごとに改行を入れたbase64を返す
	encoded := base64.StdEncoding.EncodeToString(raw)
	encoded = encoded[:10] + "\n" + encoded[10:]

	var gotRef string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/hinosalt/bobg-hp/contents/content/site-content.json" {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
			return
		}
		gotRef = r.URL.Query().Get("ref")
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"path":     "content/site-content.json",
			"sha":      "file-sha",
			"content":  encoded,
		})
	}))

	file, err := client.GetRepoFile(context.Background(), "content/site-content.json", "main")
	if err != nil {
		t.Fatalf("GetRepoFile() error = %v", err)
	}
	if gotRef != "main" {
		t.Errorf("ref = %q, want %q", gotRef, "main")
	}
	if file == nil {
		t.Fatal("file = nil")
	}
	if file.SHA != "file-sha" {
		t.Errorf("SHA = %q, want %q", file.SHA, "file-sha")
	}
	if string(file.Content) != string(raw) {
		t.Errorf("Content = %q, want %q", file.Content, raw)
	}
}

// TestGetRepoFile_NotFound_ReturnsNil は404でnil, nilを返すことを検証する。
func TestGetRepoFile_NotFound_ReturnsNil(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	}))

	file, err := client.GetRepoFile(context.Background(), "content/site-content.json", "main")
	if err != nil {
		t.Fatalf("GetRepoFile() error = %v", err)
	}
	if file != nil {
		t.Errorf("file = %+v, want nil", file)
	}
}

// TestGetRepoFile_ServerError は404以外の失敗をエラーとして返すことを検証する。
func TestGetRepoFile_ServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.GetRepoFile(context.Background(), "content/site-content.json", "main")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.HasPrefix(err.Error(), "GitHub API request failed: ") {
		t.Errorf("error = %q", err.Error())
	}
	if StatusCode(err) != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", StatusCode(err))
	}
}

// TestPutRepoFile はSHAの有無で作成・更新が切り替わることを検証する。
func TestPutRepoFile(t *testing.T) {
	tests := []struct {
		name    string
		sha     string
		wantSHA string
	}{
		{name: "create without sha", sha: ""},
		{name: "update with sha", sha: "old-sha", wantSHA: "old-sha"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPut {
					t.Errorf("method = %s, want PUT", r.Method)
				}
				if r.URL.Path != "/repos/hinosalt/bobg-hp/contents/source/uploads/ja/hero/a.png" {
					t.Errorf("path = %s", r.URL.Path)
				}
				data, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(data, &body)
				writeJSON(w, http.StatusOK, map[string]any{
					"content": map[string]any{"sha": "new-file-sha"},
					"commit":  map[string]any{"sha": "commit-sha"},
				})
			}))

			result, err := client.PutRepoFile(context.Background(), PutFileInput{
				Path:    "source/uploads/ja/hero/a.png",
				Branch:  "cms/b",
				Message: "cms: upload asset a.png",
				Content: []byte("png-bytes"),
				SHA:     tt.sha,
			})
			if err != nil {
				t.Fatalf("PutRepoFile() error = %v", err)
			}
			if result.CommitSHA != "commit-sha" || result.FileSHA != "new-file-sha" {
				t.Errorf("result = %+v", result)
			}

			if body["branch"] != "cms/b" {
				t.Errorf("branch = %v", body["branch"])
			}
			if body["message"] != "cms: upload asset a.png" {
				t.Errorf("message = %v", body["message"])
			}
			if body["content"] != base64.StdEncoding.EncodeToString([]byte("png-bytes")) {
				t.Errorf("content = %v", body["content"])
			}
			gotSHA, _ := body["sha"].(string)
			if gotSHA != tt.wantSHA {
				t.Errorf("sha = %q, want %q", gotSHA, tt.wantSHA)
			}
		})
	}
}

// TestPutRepoFile_Conflict はSHA不一致の409がエラーになることを検証する。
func TestPutRepoFile_Conflict(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{"message": "is at abc but expected def"})
	}))

	_, err := client.PutRepoFile(context.Background(), PutFileInput{
		Path: "content/site-content.json", Branch: "cms/b", Message: "m", Content: []byte("{}"), SHA: "def",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "GitHub API request failed: is at abc but expected def" {
		t.Errorf("error = %q", err.Error())
	}
}

// TestFindOpenPullRequest はhead/base/stateのクエリと結果の変換を検証する。
func TestFindOpenPullRequest(t *testing.T) {
	var query map[string]string
	open := true
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query = map[string]string{"state": q.Get("state"), "head": q.Get("head"), "base": q.Get("base")}
		if !open {
			writeJSON(w, http.StatusOK, []any{})
			return
		}
		writeJSON(w, http.StatusOK, []any{
			map[string]any{"number": 12, "html_url": "https://github.com/hinosalt/bobg-hp/pull/12"},
			map[string]any{"number": 9, "html_url": "https://github.com/hinosalt/bobg-hp/pull/9"},
		})
	}))

	pr, err := client.FindOpenPullRequest(context.Background(), "cms/b", "main")
	if err != nil {
		t.Fatalf("FindOpenPullRequest() error = %v", err)
	}
	if query["state"] != "open" || query["head"] != "hinosalt:cms/b" || query["base"] != "main" {
		t.Errorf("query = %v", query)
	}
	if pr == nil || pr.Number != 12 || pr.HTMLURL != "https://github.com/hinosalt/bobg-hp/pull/12" {
		t.Errorf("pr = %+v", pr)
	}

	open = false
	pr, err = client.FindOpenPullRequest(context.Background(), "cms/b", "main")
	if err != nil {
		t.Fatalf("FindOpenPullRequest() error = %v", err)
	}
	if pr != nil {
		t.Errorf("pr = %+v, want nil", pr)
	}
}

// TestCreatePullRequest はリクエスト本文とレスポンスの変換を検証する。
func TestCreatePullRequest(t *testing.T) {
	var body map[string]any
	client, observer := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/repos/hinosalt/bobg-hp/pulls" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, map[string]any{
			"number":   3,
			"html_url": "https://github.com/hinosalt/bobg-hp/pull/3",
		})
	}))

	pr, err := client.CreatePullRequest(context.Background(), NewPullRequest{
		Head: "cms/b", Base: "main", Title: "CMS: content update by alice", Body: "## CMS Content Update",
	})
	if err != nil {
		t.Fatalf("CreatePullRequest() error = %v", err)
	}
	if pr.Number != 3 {
		t.Errorf("Number = %d, want 3", pr.Number)
	}
	for key, want := range map[string]string{
		"head": "cms/b", "base": "main", "title": "CMS: content update by alice", "body": "## CMS Content Update",
	} {
		if body[key] != want {
			t.Errorf("%s = %v, want %q", key, body[key], want)
		}
	}
	if len(observer.calls) != 1 || observer.calls[0].op != "create_pull" || observer.calls[0].status != http.StatusCreated {
		t.Errorf("observer calls = %+v", observer.calls)
	}
}

// TestWrapError_NetworkFailure は通信エラー時にステータス0で原因を保持することを検証する。
func TestWrapError_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	factory, err := NewFactory(FactoryConfig{Owner: "o", Repo: "r", BaseURL: baseURL})
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}
	_, err = factory.ForToken("t").GetBranchSHA(context.Background(), "main")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var ghErr *Error
	if !errors.As(err, &ghErr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if ghErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", ghErr.StatusCode)
	}
	if IsNotFound(err) {
		t.Error("IsNotFound = true, want false")
	}
}
