package render

import "strings"

// normalizeAssetPath は入力ミスの多いパス表記を正規化する。
// soruce/ は source/ に読み替え、先頭の ./ と ../ は1つだけ取り除く。
func normalizeAssetPath(raw string) string {
	url := strings.TrimSpace(raw)
	switch {
	case url == "":
		return ""
	case strings.HasPrefix(url, "soruce/"):
		return "source/" + strings.TrimPrefix(url, "soruce/")
	case strings.HasPrefix(url, "./"):
		return url[2:]
	case strings.HasPrefix(url, "../"):
		return url[3:]
	}
	return url
}

// resolveAssetURL はコンテンツ内のアセットパスをページから参照できるURLに変換する。
// 絶対パスと http(s) URLはそのまま返す。source/ content/ api/ はサイトルート基準とし、
// それ以外はページのbaseからの相対パスとする。
func resolveAssetURL(base, raw string) string {
	url := normalizeAssetPath(raw)
	switch {
	case url == "":
		return ""
	case strings.HasPrefix(url, "/"),
		strings.HasPrefix(url, "http://"),
		strings.HasPrefix(url, "https://"):
		return url
	case strings.HasPrefix(url, "source/"),
		strings.HasPrefix(url, "content/"),
		strings.HasPrefix(url, "api/"):
		return "/" + url
	}
	return base + url
}
