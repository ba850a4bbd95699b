// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// upstreamPort はガード有効時に許可する上流のポート。GitHub APIとOAuthはHTTPSのみ。
const upstreamPort = 443

// internalPrefixes は上流として設定できないアドレス範囲。
var internalPrefixes = mustParsePrefixes(
	"0.0.0.0/8",
	"10.0.0.0/8",
	"100.64.0.0/10", // CGNAT
	"127.0.0.0/8",
	"169.254.0.0/16", // クラウドメタデータ (169.254.169.254) を含む
	"172.16.0.0/12",
	"192.168.0.0/16",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
)

func mustParsePrefixes(cidrs ...string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefixes = append(prefixes, netip.MustParsePrefix(cidr))
	}
	return prefixes
}

// NewOutboundClient は上流（GitHub API・OAuth）への送信に使うHTTPクライアントを返す。
// guardが有効な場合、safeurlが接続直前に解決済みIPを検証するため、
// DNSの再バインディングで内部アドレスへ誘導されることもない。
// guardがfalseの場合はタイムアウトのみ設定した通常のクライアントを返す。
// ローカルのモックサーバーに向ける開発環境でのみ無効にする。
func NewOutboundClient(timeout time.Duration, guard bool) *http.Client {
	if !guard {
		return &http.Client{Timeout: timeout}
	}
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("https").
		SetAllowedPorts(upstreamPort).
		Build()
	return safeurl.Client(config).Client
}

// ValidateUpstreamURL は設定された上流URLを起動時に静的に検証する。
// httpsであること、ポートが443であること、ホストが内部アドレスでないことを確認する。
// 名前解決はしない。解決後の検証はNewOutboundClientが行う。
func ValidateUpstreamURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("empty URL")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("scheme %q is not allowed, use https", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("URL %q has no host", rawURL)
	}
	if port := u.Port(); port != "" && port != fmt.Sprint(upstreamPort) {
		return fmt.Errorf("port %s is not allowed", port)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if isInternalAddr(addr) {
			return fmt.Errorf("internal address %s is not allowed", addr)
		}
		return nil
	}
	if isInternalHostname(host) {
		return fmt.Errorf("internal host %s is not allowed", host)
	}
	return nil
}

func isInternalAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range internalPrefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// isInternalHostname はlocalhostと、社内向けの予約TLDを判定する。
func isInternalHostname(host string) bool {
	h := strings.TrimSuffix(strings.ToLower(host), ".")
	if h == "localhost" {
		return true
	}
	for _, suffix := range []string{".localhost", ".internal", ".local"} {
		if strings.HasSuffix(h, suffix) {
			return true
		}
	}
	return false
}
