// Package content はCMSのコンテンツ読み込み・下書き保存・画像アップロードの
// ワークフローを提供する。下書きは編集者ごとのブランチとプルリクエストとして
// GitHubリポジトリに保存される。
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hinosalt/bobg-hp/internal/github"
	"github.com/hinosalt/bobg-hp/internal/model"
	"github.com/hinosalt/bobg-hp/internal/sitecontent"
)

// DefaultContentPath はリポジトリ内のコンテンツファイルのパス。
const DefaultContentPath = "content/site-content.json"

const (
	contentCommitMessage = "cms: update site content"
	uploadCommitPrefix   = "cms: upload asset "
	uploadRoot           = "source/uploads"
)

// RepoClient はワークフローが使うGitHub操作。*github.Clientが実装する。
type RepoClient interface {
	EnsureBranch(ctx context.Context, base, branch string) (string, error)
	GetRepoFile(ctx context.Context, path, ref string) (*github.RepoFile, error)
	PutRepoFile(ctx context.Context, in github.PutFileInput) (*github.CommitResult, error)
	FindOpenPullRequest(ctx context.Context, head, base string) (*github.PullRequest, error)
	CreatePullRequest(ctx context.Context, in github.NewPullRequest) (*github.PullRequest, error)
}

var _ RepoClient = (*github.Client)(nil)

// ClientFactory は編集者のアクセストークンからRepoClientを生成する。
type ClientFactory func(accessToken string) RepoClient

// Recorder はワークフローの結果を記録する。metrics.Collectorが実装する。
type Recorder interface {
	RecordDraftSaved(prCreated bool)
	RecordUpload(locale string, sizeBytes int)
}

// ServiceConfig はServiceの設定。
type ServiceConfig struct {
	BaseBranch  string
	ContentPath string
	Clients     ClientFactory
	Recorder    Recorder
	Now         func() time.Time
}

// Service はコンテンツワークフローのサービス層。
type Service struct {
	baseBranch  string
	contentPath string
	clients     ClientFactory
	recorder    Recorder
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		baseBranch:  cfg.BaseBranch,
		contentPath: cfg.ContentPath,
		clients:     cfg.Clients,
		recorder:    cfg.Recorder,
		now:         cfg.Now,
	}
	if s.contentPath == "" {
		s.contentPath = DefaultContentPath
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// BaseBranch はマージ先のブランチ名を返す。
func (s *Service) BaseBranch() string {
	return s.baseBranch
}

// ReadResult はベースブランチ上のコンテンツ。
type ReadResult struct {
	Content *sitecontent.Document
	SHA     string
	Branch  string
	Path    string
}

// ReadContent はベースブランチのコンテンツを読み込む。下書きブランチは参照しない。
func (s *Service) ReadContent(ctx context.Context, sess *model.Session) (*ReadResult, error) {
	if sess == nil {
		return nil, model.NewUnauthorizedError()
	}

	file, err := s.clients(sess.AccessToken).GetRepoFile(ctx, s.contentPath, s.baseBranch)
	if err != nil {
		return nil, model.NewUpstreamError(err)
	}
	if file == nil || len(file.Content) == 0 {
		return nil, model.NewContentNotFoundError()
	}

	doc, err := sitecontent.Decode(file.Content)
	if err != nil {
		return nil, model.NewInternalError(fmt.Errorf("failed to parse %s: %w", s.contentPath, err))
	}

	return &ReadResult{
		Content: doc,
		SHA:     file.SHA,
		Branch:  s.baseBranch,
		Path:    s.contentPath,
	}, nil
}

// SaveDraftInput は下書き保存の入力。
type SaveDraftInput struct {
	// Branch はリクエストで指定されたブランチ（任意）。
	Branch string
	// DraftBranch はCookieに保存されている下書きブランチ（任意）。
	DraftBranch string
	Content     json.RawMessage
	Title       string
}

// SaveDraftResult は下書き保存の結果。
type SaveDraftResult struct {
	Branch    string
	PRNumber  int
	PRURL     string
	PRCreated bool
}

// SaveDraft はコンテンツを検証し、下書きブランチへコミットしてプルリクエストを用意する。
//
// ブランチの用意に成功した後の失敗では、Branchを設定した結果とエラーの両方を返す。
// 呼び出し側はその場合もブランチをCookieに保存し、再実行で同じブランチを使う。
func (s *Service) SaveDraft(ctx context.Context, sess *model.Session, in SaveDraftInput) (*SaveDraftResult, error) {
	if sess == nil {
		return nil, model.NewUnauthorizedError()
	}

	doc, err := sitecontent.Decode(in.Content)
	if err != nil {
		return nil, toValidationError(err)
	}
	if err := doc.Validate(); err != nil {
		return nil, toValidationError(err)
	}

	now := s.now()
	branch := ResolveBranch(in.Branch, in.DraftBranch, sess.Login, now)
	client := s.clients(sess.AccessToken)

	// 1. 下書きブランチを用意
	if _, err := client.EnsureBranch(ctx, s.baseBranch, branch); err != nil {
		return nil, model.NewUpstreamError(err)
	}
	result := &SaveDraftResult{Branch: branch}

	// 2. 更新者情報を付与してシリアライズ
	doc.Stamp(now, sess.Login)
	data, err := doc.Encode()
	if err != nil {
		return result, model.NewInternalError(err)
	}

	// 3. 既存ファイルのSHAを取得してコミット
	existing, err := client.GetRepoFile(ctx, s.contentPath, branch)
	if err != nil {
		return result, model.NewUpstreamError(err)
	}
	var sha string
	if existing != nil {
		sha = existing.SHA
	}
	if _, err := client.PutRepoFile(ctx, github.PutFileInput{
		Path:    s.contentPath,
		Branch:  branch,
		Message: contentCommitMessage,
		Content: data,
		SHA:     sha,
	}); err != nil {
		return result, model.NewUpstreamError(err)
	}

	// 4. オープンなプルリクエストが無ければ作成
	pr, err := client.FindOpenPullRequest(ctx, branch, s.baseBranch)
	if err != nil {
		return result, model.NewUpstreamError(err)
	}
	if pr == nil {
		title := in.Title
		if title == "" {
			title = DefaultPullRequestTitle(sess.Login)
		}
		pr, err = client.CreatePullRequest(ctx, github.NewPullRequest{
			Head:  branch,
			Base:  s.baseBranch,
			Title: title,
			Body:  PullRequestBody(sess.Login, branch, now),
		})
		if err != nil {
			return result, model.NewUpstreamError(err)
		}
		result.PRCreated = true
	}

	result.PRNumber = pr.Number
	result.PRURL = pr.HTMLURL

	if s.recorder != nil {
		s.recorder.RecordDraftSaved(result.PRCreated)
	}
	slog.Info("下書きを保存しました",
		"login", sess.Login,
		"branch", branch,
		"pr_number", result.PRNumber,
		"pr_created", result.PRCreated,
	)

	return result, nil
}

// UploadInput は画像アップロードの入力。
type UploadInput struct {
	Branch      string
	DraftBranch string
	Locale      string
	Section     string
	Filename    string
	FileBase64  string
}

// UploadResult は画像アップロードの結果。
type UploadResult struct {
	Branch string
	Path   string
}

// UploadImage は画像を検証し、下書きブランチの source/uploads 配下にコミットする。
// SaveDraftと同様に、ブランチ用意後の失敗ではBranchを設定した結果も返す。
func (s *Service) UploadImage(ctx context.Context, sess *model.Session, in UploadInput) (*UploadResult, error) {
	if sess == nil {
		return nil, model.NewUnauthorizedError()
	}

	locale := SafeSegment(in.Locale, "ja")
	if !uploadLocales[locale] {
		return nil, model.NewValidationError(MsgInvalidLocale)
	}
	section := SafeSegment(in.Section, "misc")

	filename := in.Filename
	if filename == "" {
		filename = defaultUploadFilename
	}
	ext := FindExtension(filename)
	if !allowedExtensions[ext] {
		return nil, model.NewValidationError(MsgUnsupportedExtension)
	}

	data, err := DecodeBase64Payload(in.FileBase64)
	if err != nil {
		return nil, model.NewValidationError(MsgInvalidBase64)
	}
	if len(data) == 0 {
		return nil, model.NewValidationError(MsgEmptyFile)
	}
	if len(data) > MaxUploadBytes {
		return nil, model.NewValidationError(MsgFileTooLarge)
	}

	now := s.now()
	generated := TimestampTag(now) + "-" + uploadSeed(filename) + ext
	path := strings.Join([]string{uploadRoot, locale, section, generated}, "/")
	branch := ResolveBranch(in.Branch, in.DraftBranch, sess.Login, now)
	client := s.clients(sess.AccessToken)

	if _, err := client.EnsureBranch(ctx, s.baseBranch, branch); err != nil {
		return nil, model.NewUpstreamError(err)
	}
	result := &UploadResult{Branch: branch}

	if _, err := client.PutRepoFile(ctx, github.PutFileInput{
		Path:    path,
		Branch:  branch,
		Message: uploadCommitPrefix + generated,
		Content: data,
	}); err != nil {
		return result, model.NewUpstreamError(err)
	}
	result.Path = path

	if s.recorder != nil {
		s.recorder.RecordUpload(locale, len(data))
	}
	slog.Info("画像をアップロードしました",
		"login", sess.Login,
		"branch", branch,
		"path", path,
		"size", len(data),
	)

	return result, nil
}

func toValidationError(err error) error {
	var vErr *sitecontent.ValidationError
	if errors.As(err, &vErr) {
		return model.NewValidationError(vErr.Message)
	}
	return model.NewInvalidRequestError(err.Error())
}
