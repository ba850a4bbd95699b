// Package github はCMSが利用するGitHub REST APIの呼び出しを提供する。
// 各クライアントはowner/repoに束縛され、編集者のOAuthアクセストークンで認証する。
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
)

const defaultUserAgent = "bobg-cms"

// Observer はGitHub API呼び出しの結果を受け取る。
// metrics.Collectorが実装する。
type Observer interface {
	ObserveGitHubCall(op string, statusCode int, duration time.Duration)
}

// RepoFile はリポジトリ上のファイル。
// Contentはデコード済みの内容で、APIが内容を返さなかった場合は空になる。
type RepoFile struct {
	Path    string
	SHA     string
	Content []byte
}

// PutFileInput はファイル作成・更新の入力。
// SHAを指定すると楽観的排他制御付きの更新になる。新規パスでは空にする。
type PutFileInput struct {
	Path    string
	Branch  string
	Message string
	Content []byte
	SHA     string
}

// CommitResult はファイル書き込みで作成されたコミット。
type CommitResult struct {
	CommitSHA string
	FileSHA   string
}

// NewPullRequest はプルリクエスト作成の入力。
type NewPullRequest struct {
	Head  string
	Base  string
	Title string
	Body  string
}

// PullRequest はプルリクエストの要約。
type PullRequest struct {
	Number  int
	HTMLURL string
}

// FactoryConfig はFactoryの設定。
type FactoryConfig struct {
	Owner string
	Repo  string

	// BaseURL はAPIのベースURL。空の場合はgo-githubのデフォルト（api.github.com）。
	BaseURL string

	HTTPClient *http.Client
	UserAgent  string
	Observer   Observer
}

// Factory はアクセストークンごとのClientを生成する。
type Factory struct {
	cfg     FactoryConfig
	baseURL *url.URL
}

// NewFactory はFactoryを生成する。
func NewFactory(cfg FactoryConfig) (*Factory, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github owner and repo are required")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	f := &Factory{cfg: cfg}
	if cfg.BaseURL != "" {
		raw := cfg.BaseURL
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid github base url: %w", err)
		}
		f.baseURL = u
	}
	return f, nil
}

// Owner はリポジトリのオーナーを返す。
func (f *Factory) Owner() string { return f.cfg.Owner }

// Repo はリポジトリ名を返す。
func (f *Factory) Repo() string { return f.cfg.Repo }

// ForToken はアクセストークンで認証するClientを返す。
func (f *Factory) ForToken(token string) *Client {
	client := gh.NewClient(f.cfg.HTTPClient).WithAuthToken(token)
	client.UserAgent = f.cfg.UserAgent
	if f.baseURL != nil {
		client.BaseURL = f.baseURL
	}
	return &Client{
		client:   client,
		owner:    f.cfg.Owner,
		repo:     f.cfg.Repo,
		observer: f.cfg.Observer,
	}
}

// Client はowner/repoに束縛されたGitHub APIクライアント。
// 呼び出しは再試行しない。失敗は*Errorとして即座に返す。
type Client struct {
	client   *gh.Client
	owner    string
	repo     string
	observer Observer
}

// call はAPI呼び出しを計測し、失敗時は*Errorに変換する。
func (c *Client) call(op string, fn func() (*gh.Response, error)) error {
	start := time.Now()
	resp, err := fn()

	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	if c.observer != nil {
		c.observer.ObserveGitHubCall(op, status, time.Since(start))
	}

	if err != nil {
		return wrapError(op, resp, err)
	}
	return nil
}

// GetBranchSHA はブランチが指すコミットSHAを返す。
// ブランチが存在しない場合はIsNotFoundで判定できるエラーを返す。
func (c *Client) GetBranchSHA(ctx context.Context, branch string) (string, error) {
	var ref *gh.Reference
	err := c.call("get_ref", func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		ref, resp, err = c.client.Git.GetRef(ctx, c.owner, c.repo, "heads/"+branch)
		return resp, err
	})
	if err != nil {
		return "", err
	}
	return ref.GetObject().GetSHA(), nil
}

// EnsureBranch はbranchが存在しなければbaseの先頭から作成する。
// 既に存在する場合は作成APIを呼ばない。
// 同時作成の競合はGitHub側のref作成の原子性に委ねる。
func (c *Client) EnsureBranch(ctx context.Context, base, branch string) (string, error) {
	sha, err := c.GetBranchSHA(ctx, branch)
	if err == nil && sha != "" {
		return sha, nil
	}
	if err != nil && !IsNotFound(err) {
		return "", err
	}

	baseSHA, err := c.GetBranchSHA(ctx, base)
	if err != nil {
		return "", err
	}

	err = c.call("create_ref", func() (*gh.Response, error) {
		_, resp, err := c.client.Git.CreateRef(ctx, c.owner, c.repo, &gh.Reference{
			Ref:    gh.String("refs/heads/" + branch),
			Object: &gh.GitObject{SHA: gh.String(baseSHA)},
		})
		return resp, err
	})
	if err != nil {
		return "", err
	}
	return baseSHA, nil
}

// GetRepoFile はref上のファイルを取得する。
// ファイルが存在しない（404）場合はnil, nilを返す。
func (c *Client) GetRepoFile(ctx context.Context, path, ref string) (*RepoFile, error) {
	var content *gh.RepositoryContent
	err := c.call("get_contents", func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		content, _, resp, err = c.client.Repositories.GetContents(ctx, c.owner, c.repo, path,
			&gh.RepositoryContentGetOptions{Ref: ref})
		return resp, err
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if content == nil {
		// ディレクトリを指している
		return nil, nil
	}

	file := &RepoFile{
		Path: content.GetPath(),
		SHA:  content.GetSHA(),
	}
	if content.Content != nil && content.GetEncoding() != "none" {
		decoded, err := content.GetContent()
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		file.Content = []byte(decoded)
	}
	return file, nil
}

// PutRepoFile はbranch上のファイルを作成または更新する。
// 内容はgo-githubがbase64エンコードして送信する。
func (c *Client) PutRepoFile(ctx context.Context, in PutFileInput) (*CommitResult, error) {
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(in.Message),
		Content: in.Content,
		Branch:  gh.String(in.Branch),
	}

	var result *gh.RepositoryContentResponse
	var err error
	if in.SHA == "" {
		err = c.call("create_file", func() (*gh.Response, error) {
			var resp *gh.Response
			var err error
			result, resp, err = c.client.Repositories.CreateFile(ctx, c.owner, c.repo, in.Path, opts)
			return resp, err
		})
	} else {
		opts.SHA = gh.String(in.SHA)
		err = c.call("update_file", func() (*gh.Response, error) {
			var resp *gh.Response
			var err error
			result, resp, err = c.client.Repositories.UpdateFile(ctx, c.owner, c.repo, in.Path, opts)
			return resp, err
		})
	}
	if err != nil {
		return nil, err
	}

	return &CommitResult{
		CommitSHA: result.Commit.GetSHA(),
		FileSHA:   result.GetContent().GetSHA(),
	}, nil
}

// FindOpenPullRequest はheadからbaseへのオープンなプルリクエストを1件返す。
// 存在しない場合はnilを返す。
func (c *Client) FindOpenPullRequest(ctx context.Context, head, base string) (*PullRequest, error) {
	var pulls []*gh.PullRequest
	err := c.call("list_pulls", func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		pulls, resp, err = c.client.PullRequests.List(ctx, c.owner, c.repo, &gh.PullRequestListOptions{
			State: "open",
			Head:  c.owner + ":" + head,
			Base:  base,
		})
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	if len(pulls) == 0 {
		return nil, nil
	}
	return convertPullRequest(pulls[0]), nil
}

// CreatePullRequest はプルリクエストを作成する。
func (c *Client) CreatePullRequest(ctx context.Context, in NewPullRequest) (*PullRequest, error) {
	var pull *gh.PullRequest
	err := c.call("create_pull", func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		pull, resp, err = c.client.PullRequests.Create(ctx, c.owner, c.repo, &gh.NewPullRequest{
			Title: gh.String(in.Title),
			Head:  gh.String(in.Head),
			Base:  gh.String(in.Base),
			Body:  gh.String(in.Body),
		})
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return convertPullRequest(pull), nil
}

// AuthenticatedLogin はトークンの持ち主のGitHubログイン名を返す。
func (c *Client) AuthenticatedLogin(ctx context.Context) (string, error) {
	var user *gh.User
	err := c.call("get_user", func() (*gh.Response, error) {
		var resp *gh.Response
		var err error
		user, resp, err = c.client.Users.Get(ctx, "")
		return resp, err
	})
	if err != nil {
		return "", err
	}
	if user.GetLogin() == "" {
		return "", fmt.Errorf("failed to fetch GitHub user profile")
	}
	return user.GetLogin(), nil
}

func convertPullRequest(pr *gh.PullRequest) *PullRequest {
	return &PullRequest{
		Number:  pr.GetNumber(),
		HTMLURL: pr.GetHTMLURL(),
	}
}
