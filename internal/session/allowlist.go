package session

import "strings"

// Allowlist はCMSの利用を許可するGitHubログインの集合。
// 空の場合は全ログインを許可する。
type Allowlist []string

// Allows はloginが許可されているかを返す。
// 空のloginは常に拒否する。比較は大文字小文字を区別しない。
func (a Allowlist) Allows(login string) bool {
	if login == "" {
		return false
	}
	if len(a) == 0 {
		return true
	}
	lower := strings.ToLower(login)
	for _, allowed := range a {
		if strings.ToLower(allowed) == lower {
			return true
		}
	}
	return false
}
