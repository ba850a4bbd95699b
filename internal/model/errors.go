// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// Messageはクライアントへ返す本文、Actionは運用者向けの対処方法でログにのみ出力する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ（レスポンスの error フィールド）
	Category string // カテゴリ: auth, validation, not_found, upstream, system
	Action   string // 対処方法
	Err      error  // 原因となったエラー
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因エラーを返す。
func (e *APIError) Unwrap() error {
	return e.Err
}

// エラーカテゴリ
const (
	CategoryAuth       = "auth"
	CategoryValidation = "validation"
	CategoryNotFound   = "not_found"
	CategoryUpstream   = "upstream"
	CategorySystem     = "system"
)

// 定義済みエラーコード
const (
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeContentNotFound  = "CONTENT_NOT_FOUND"
	ErrCodeUpstreamFailed   = "UPSTREAM_FAILED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewUnauthorizedError は未認証・許可リスト外のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "unauthorized",
		Category: CategoryAuth,
		Action:   "GitHubで再ログインし、CMS_ALLOWLISTに含まれているか確認してください。",
	}
}

// NewValidationError はコンテンツやアップロード内容の検証エラーを生成する。
// messageはそのままレスポンスに含まれる。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Category: CategoryValidation,
		Action:   "入力内容を修正してから再度保存してください。",
	}
}

// NewInvalidRequestError はリクエストボディが解釈できない場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  reason,
		Category: CategoryValidation,
		Action:   "JSON形式のリクエストボディを送信してください。",
	}
}

// NewContentNotFoundError はベースブランチにコンテンツファイルが存在しない場合のエラーを生成する。
func NewContentNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeContentNotFound,
		Message:  "content file not found",
		Category: CategoryNotFound,
		Action:   "ベースブランチに content/site-content.json が存在するか確認してください。",
	}
}

// NewUpstreamError はGitHubやOAuthプロバイダーの失敗を包むエラーを生成する。
// 上流のメッセージをそのままクライアントへ返す。
func NewUpstreamError(err error) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailed,
		Message:  err.Error(),
		Category: CategoryUpstream,
		Action:   "GitHubの状態とアクセストークンの権限を確認してください。",
		Err:      err,
	}
}

// NewInternalError は想定外のエラーを生成する。
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  err.Error(),
		Category: CategorySystem,
		Action:   "しばらく待ってから再度お試しください。",
		Err:      err,
	}
}

// AsAPIError はerrをAPIErrorとして取り出す。
// APIErrorでない場合はUpstreamErrorとして包む。
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewUpstreamError(err)
}
