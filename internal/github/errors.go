package github

import (
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v66/github"
)

// Error はGitHub APIの失敗を表す。
// StatusCodeはHTTPステータス（通信エラー時は0）。
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return "GitHub API request failed: " + e.Message
}

// Unwrap は原因エラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound はerrが404のGitHubエラーかどうかを返す。
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode はerrに含まれるHTTPステータスを返す。GitHubエラーでなければ0。
func StatusCode(err error) int {
	var ghErr *Error
	if errors.As(err, &ghErr) {
		return ghErr.StatusCode
	}
	return 0
}

// wrapError はgo-githubのエラーをErrorに変換する。
// レスポンス本文のmessageがあればそれを、無ければ "<status> <text>" を使う。
func wrapError(op string, resp *gh.Response, err error) *Error {
	e := &Error{Op: op, Err: err}
	if resp != nil && resp.Response != nil {
		e.StatusCode = resp.StatusCode
	}

	var errResp *gh.ErrorResponse
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	switch {
	case errors.As(err, &errResp) && errResp.Message != "":
		e.Message = errResp.Message
	case errors.As(err, &rateErr) && rateErr.Message != "":
		e.Message = rateErr.Message
	case errors.As(err, &abuseErr) && abuseErr.Message != "":
		e.Message = abuseErr.Message
	case e.StatusCode != 0:
		e.Message = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	default:
		e.Message = err.Error()
	}
	return e
}
