package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// errBodyTooLarge はリクエストボディが上限を超えたことを表す。
var errBodyTooLarge = errors.New("request body too large")

// decodeJSONBody はJSONボディをdstにデコードする。
// 空のボディは空オブジェクトとして扱う。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		data = []byte("{}")
	}
	return json.Unmarshal(data, dst)
}

// requestOrigin はプロキシヘッダーを考慮したリクエストのオリジンを返す。
// X-Forwarded-Protoが無い場合はhttpsとみなす。
func requestOrigin(r *http.Request) string {
	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "https"
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return proto + "://" + host
}

// callbackURI はOAuthのredirect_uriを返す。設定値があればそれを優先する。
func callbackURI(configured string, r *http.Request) string {
	if configured != "" {
		return configured
	}
	return requestOrigin(r) + "/api/auth/callback"
}
