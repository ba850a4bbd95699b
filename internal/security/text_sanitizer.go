package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はHTMLページに埋め込む文字列を無害化する。
// OAuthコールバックのエラーページで、ログイン名や上流のエラーメッセージを表示する際に使う。
type TextSanitizer interface {
	// SanitizeText は全てのタグを除去し、テキストをHTMLエスケープして返す。
	SanitizeText(raw string) string
}

// textSanitizer はTextSanitizerの実装。bluemondayのStrictPolicyはスレッドセーフ。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// SanitizeText は全てのタグを除去し、テキストをHTMLエスケープして返す。
func (s *textSanitizer) SanitizeText(raw string) string {
	return s.policy.Sanitize(raw)
}

var _ TextSanitizer = (*textSanitizer)(nil)
