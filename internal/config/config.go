package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 各コンポーネントには明示的に渡し、グローバル参照はしない。
type Config struct {
	// GitHub リポジトリ
	GitHubOwner      string
	GitHubRepo       string
	GitHubBaseBranch string
	GitHubAPIURL     string

	// OAuth
	GitHubClientID     string
	GitHubClientSecret string
	OAuthRedirectURI   string
	OAuthAuthorizeURL  string
	OAuthTokenURL      string

	// Session
	AuthSecret string
	Allowlist  []string

	// Cookie
	CookieSecure bool

	// Upstream
	UpstreamTimeout time.Duration
	SSRFGuard       bool

	// Rate Limit (req/min/login, 0 で無効)
	RateLimitWrite int

	// Static
	AdminDir string
	SiteDir  string

	// Server
	ServerPort string

	// CORS (空の場合は無効)
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

const (
	defaultOwner        = "hinosalt"
	defaultRepo         = "bobg-hp"
	defaultBaseBranch   = "main"
	defaultAllowlist    = "hinosalt"
	defaultGitHubAPI    = "https://api.github.com/"
	defaultAuthorizeURL = "https://github.com/login/oauth/authorize"
	defaultTokenURL     = "https://github.com/login/oauth/access_token"
)

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はまとめてエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.GitHubClientID = os.Getenv("GITHUB_ID")
	if cfg.GitHubClientID == "" {
		missing = append(missing, "GITHUB_ID")
	}

	cfg.GitHubClientSecret = os.Getenv("GITHUB_SECRET")
	if cfg.GitHubClientSecret == "" {
		missing = append(missing, "GITHUB_SECRET")
	}

	cfg.AuthSecret = os.Getenv("AUTH_SECRET")
	if cfg.AuthSecret == "" {
		missing = append(missing, "AUTH_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.GitHubOwner = getEnvString("GITHUB_OWNER", defaultOwner)
	cfg.GitHubRepo = getEnvString("GITHUB_REPO", defaultRepo)
	cfg.GitHubBaseBranch = getEnvString("GITHUB_BASE_BRANCH", defaultBaseBranch)
	cfg.GitHubAPIURL = getEnvString("GITHUB_API_URL", defaultGitHubAPI)
	cfg.OAuthRedirectURI = getEnvString("CMS_OAUTH_REDIRECT_URI", "")
	cfg.OAuthAuthorizeURL = getEnvString("GITHUB_OAUTH_AUTHORIZE_URL", defaultAuthorizeURL)
	cfg.OAuthTokenURL = getEnvString("GITHUB_OAUTH_TOKEN_URL", defaultTokenURL)
	cfg.Allowlist = ParseAllowlist(getEnvString("CMS_ALLOWLIST", defaultAllowlist))
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", os.Getenv("APP_ENV") == "production")
	cfg.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second)
	cfg.SSRFGuard = getEnvBool("SSRF_GUARD", true)
	cfg.RateLimitWrite = getEnvInt("RATE_LIMIT_WRITE", 0)
	cfg.AdminDir = getEnvString("ADMIN_DIR", "admin")
	cfg.SiteDir = getEnvString("SITE_DIR", "")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// ParseAllowlist はカンマ区切りのログイン一覧を小文字・トリム済みのスライスに変換する。
// 空要素は除外する。
func ParseAllowlist(raw string) []string {
	var logins []string
	for _, part := range strings.Split(raw, ",") {
		login := strings.ToLower(strings.TrimSpace(part))
		if login != "" {
			logins = append(logins, login)
		}
	}
	return logins
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
