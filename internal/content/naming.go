package content

import (
	"regexp"
	"strings"
	"time"
)

const (
	branchPrefix      = "cms/"
	branchOwnerMaxLen = 20
	uploadSeedMaxLen  = 36

	timestampTagLayout = "20060102T150405Z"
)

var unsafeSegmentChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// SafeSegment はvalueをパスやブランチ名に使える1セグメントに正規化する。
// 小文字化し、許可されない文字の連続を "-" に置き換える。結果が空ならfallbackを返す。
func SafeSegment(value, fallback string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = unsafeSegmentChars.ReplaceAllString(normalized, "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return fallback
	}
	return normalized
}

// TimestampTag はブランチ名とアップロードファイル名に使う秒精度のUTCタグを返す。
func TimestampTag(t time.Time) string {
	return t.UTC().Format(timestampTagLayout)
}

// BuildBranchName は編集者ごとの新しい下書きブランチ名を生成する。
func BuildBranchName(login string, now time.Time) string {
	owner := truncate(SafeSegment(login, "editor"), branchOwnerMaxLen)
	return branchPrefix + TimestampTag(now) + "-" + owner
}

// ResolveBranch は下書きブランチを リクエスト指定 → Cookie → 新規生成 の順で決める。
func ResolveBranch(requested, cookieBranch, login string, now time.Time) string {
	if b := strings.TrimSpace(requested); b != "" {
		return b
	}
	if cookieBranch != "" {
		return cookieBranch
	}
	return BuildBranchName(login, now)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
