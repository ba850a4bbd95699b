package content

import (
	"encoding/base64"
	"strings"
)

// MaxUploadBytes はアップロード画像の上限サイズ（デコード後）。
const MaxUploadBytes = 8 * 1024 * 1024

// アップロード検証のエラーメッセージ。APIレスポンスにそのまま載る。
const (
	MsgInvalidLocale        = "invalid locale"
	MsgUnsupportedExtension = "unsupported file extension"
	MsgInvalidBase64        = "invalid base64 payload"
	MsgEmptyFile            = "empty file payload"
	MsgFileTooLarge         = "file size exceeds 8MB limit"
)

const defaultUploadFilename = "upload.png"

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".svg":  true,
}

// uploadLocales はアップロード先として許可するロケール。
var uploadLocales = map[string]bool{"ja": true, "en": true}

// FindExtension はファイル名の最後の "." 以降を小文字で返す。"." が無ければ空文字。
func FindExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx:])
}

// DecodeBase64Payload はアップロードされたbase64文字列をデコードする。
// 空白・改行とdata URLの接頭辞は無視し、パディングの有無はどちらも受け付ける。
func DecodeBase64Payload(payload string) ([]byte, error) {
	if strings.HasPrefix(payload, "data:") {
		if comma := strings.Index(payload, ","); comma >= 0 {
			payload = payload[comma+1:]
		}
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, payload)

	if strings.HasSuffix(payload, "=") {
		return base64.StdEncoding.DecodeString(payload)
	}
	return base64.RawStdEncoding.DecodeString(payload)
}

// uploadSeed はファイル名から拡張子を除いた部分をパス用に正規化する。
func uploadSeed(filename string) string {
	stem := filename
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		stem = filename[:idx]
	}
	return truncate(SafeSegment(stem, "image"), uploadSeedMaxLen)
}
