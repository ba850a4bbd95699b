package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hinosalt/bobg-hp/internal/content"
	"github.com/hinosalt/bobg-hp/internal/middleware"
	"github.com/hinosalt/bobg-hp/internal/model"
	"github.com/hinosalt/bobg-hp/internal/session"
	"github.com/hinosalt/bobg-hp/internal/sitecontent"
)

// リクエストボディの上限。アップロードはbase64の膨張分を見込む。
const (
	maxDraftBodyBytes  int64 = 2 << 20
	maxUploadBodyBytes int64 = 12 << 20
)

// ContentServiceInterface はコンテンツハンドラーが必要とするサービスインターフェース。
type ContentServiceInterface interface {
	ReadContent(ctx context.Context, sess *model.Session) (*content.ReadResult, error)
	SaveDraft(ctx context.Context, sess *model.Session, in content.SaveDraftInput) (*content.SaveDraftResult, error)
	UploadImage(ctx context.Context, sess *model.Session, in content.UploadInput) (*content.UploadResult, error)
}

// ContentHandler はコンテンツAPIのHTTPハンドラー。
type ContentHandler struct {
	service ContentServiceInterface
	cookies session.Cookies
}

// NewContentHandler はContentHandlerを生成する。
func NewContentHandler(service ContentServiceInterface, cookies session.Cookies) *ContentHandler {
	return &ContentHandler{service: service, cookies: cookies}
}

// contentResponse はGET /api/contentのレスポンス。
type contentResponse struct {
	Content *sitecontent.Document `json:"content"`
	SHA     string                `json:"sha"`
	Branch  string                `json:"branch"`
	Path    string                `json:"path"`
}

// Read はベースブランチのコンテンツを返す。
// GET /api/content
func (h *ContentHandler) Read(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	result, err := h.service.ReadContent(r.Context(), sess)
	if err != nil {
		middleware.WriteAPIError(w, r, model.AsAPIError(err))
		return
	}

	middleware.WriteJSON(w, http.StatusOK, contentResponse{
		Content: result.Content,
		SHA:     result.SHA,
		Branch:  result.Branch,
		Path:    result.Path,
	})
}

// saveDraftRequest はPOST /api/save-draftのリクエストボディ。
type saveDraftRequest struct {
	Branch  string          `json:"branch"`
	Content json.RawMessage `json:"content"`
	Title   string          `json:"title"`
}

// saveDraftResponse はPOST /api/save-draftのレスポンス。
type saveDraftResponse struct {
	OK       bool   `json:"ok"`
	Branch   string `json:"branch"`
	PRNumber int    `json:"prNumber"`
	PRURL    string `json:"prUrl"`
}

// SaveDraft はコンテンツを下書きブランチに保存し、プルリクエストを用意する。
// POST /api/save-draft
func (h *ContentHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	var req saveDraftRequest
	if err := decodeJSONBody(w, r, maxDraftBodyBytes, &req); err != nil {
		middleware.WriteAPIError(w, r, model.NewInvalidRequestError("invalid JSON body"))
		return
	}

	result, err := h.service.SaveDraft(r.Context(), sess, content.SaveDraftInput{
		Branch:      req.Branch,
		DraftBranch: session.DraftBranchFromRequest(r),
		Content:     req.Content,
		Title:       req.Title,
	})
	// ブランチ作成後の失敗でも、再試行で同じブランチを使えるようCookieを残す
	if result != nil && result.Branch != "" {
		h.cookies.SetDraftBranch(w, result.Branch)
	}
	if err != nil {
		middleware.WriteAPIError(w, r, model.AsAPIError(err))
		return
	}

	middleware.WriteJSON(w, http.StatusOK, saveDraftResponse{
		OK:       true,
		Branch:   result.Branch,
		PRNumber: result.PRNumber,
		PRURL:    result.PRURL,
	})
}

// uploadRequest はPOST /api/upload-imageのリクエストボディ。
type uploadRequest struct {
	Branch     string `json:"branch"`
	Locale     string `json:"locale"`
	Section    string `json:"section"`
	Filename   string `json:"filename"`
	FileBase64 string `json:"fileBase64"`
}

// uploadResponse はPOST /api/upload-imageのレスポンス。
type uploadResponse struct {
	OK     bool   `json:"ok"`
	Branch string `json:"branch"`
	Path   string `json:"path"`
}

// UploadImage は画像を下書きブランチにコミットする。
// POST /api/upload-image
func (h *ContentHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFromContext(r.Context())

	var req uploadRequest
	if err := decodeJSONBody(w, r, maxUploadBodyBytes, &req); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			middleware.WriteAPIError(w, r, model.NewValidationError(content.MsgFileTooLarge))
			return
		}
		middleware.WriteAPIError(w, r, model.NewInvalidRequestError("invalid JSON body"))
		return
	}

	result, err := h.service.UploadImage(r.Context(), sess, content.UploadInput{
		Branch:      req.Branch,
		DraftBranch: session.DraftBranchFromRequest(r),
		Locale:      req.Locale,
		Section:     req.Section,
		Filename:    req.Filename,
		FileBase64:  req.FileBase64,
	})
	if result != nil && result.Branch != "" {
		h.cookies.SetDraftBranch(w, result.Branch)
	}
	if err != nil {
		middleware.WriteAPIError(w, r, model.AsAPIError(err))
		return
	}

	middleware.WriteJSON(w, http.StatusOK, uploadResponse{
		OK:     true,
		Branch: result.Branch,
		Path:   result.Path,
	})
}
