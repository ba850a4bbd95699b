package content

import (
	"strings"
	"time"

	"github.com/hinosalt/bobg-hp/internal/sitecontent"
)

// DefaultPullRequestTitle はタイトル未指定時のプルリクエストタイトル。
func DefaultPullRequestTitle(login string) string {
	return "CMS: content update by " + login
}

// PullRequestBody は下書きプルリクエストの本文を生成する。
func PullRequestBody(login, branch string, updatedAt time.Time) string {
	return strings.Join([]string{
		"## CMS Content Update",
		"",
		"- Editor: " + login,
		"- Branch: " + branch,
		"- Updated at: " + sitecontent.FormatTimestamp(updatedAt),
		"",
		"This PR was generated from the BOBG CMS admin panel.",
	}, "\n")
}
