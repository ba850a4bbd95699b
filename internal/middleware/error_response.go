package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hinosalt/bobg-hp/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 管理画面は error フィールドのみを参照する。
type ErrorResponseBody struct {
	Error string `json:"error"`
}

// WriteJSON はvをJSONとして書き込む。
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponseBody{Error: message})
}

// StatusForCategory はエラーカテゴリをHTTPステータスに変換する。
func StatusForCategory(category string) int {
	switch category {
	case model.CategoryAuth:
		return http.StatusUnauthorized
	case model.CategoryValidation:
		return http.StatusBadRequest
	case model.CategoryNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteAPIError はAPIErrorをカテゴリに応じたステータスで書き込む。
// Actionはレスポンスに含めず、ログにのみ出力する。
func WriteAPIError(w http.ResponseWriter, r *http.Request, apiErr *model.APIError) {
	status := StatusForCategory(apiErr.Category)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	attrs := []any{
		slog.String("code", apiErr.Code),
		slog.String("category", apiErr.Category),
		slog.String("action", apiErr.Action),
		slog.String("path", r.URL.Path),
	}
	if apiErr.Err != nil {
		attrs = append(attrs, slog.String("error", apiErr.Err.Error()))
	}
	slog.Log(r.Context(), level, apiErr.Message, attrs...)

	WriteErrorResponse(w, status, apiErr.Message)
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, "internal server error")
}
