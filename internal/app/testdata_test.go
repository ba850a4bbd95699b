package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hinosalt/bobg-hp/internal/sitecontent"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_ID", "test-client-id")
	t.Setenv("GITHUB_SECRET", "test-client-secret")
	t.Setenv("AUTH_SECRET", "test-auth-secret-32bytes-long!!!")
	t.Setenv("LOG_LEVEL", "")
}

func slotValues(prefix string, n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%d", prefix, i+1)
	}
	return out
}

func keyed(keys []string) map[string]any {
	out := map[string]any{}
	for _, key := range keys {
		out[key] = key + " text"
	}
	return out
}

// siteTree はstrict検証を通過するコンテンツを返す。
func siteTree() map[string]any {
	locale := func(name string) map[string]any {
		news := make([]any, sitecontent.NewsItems)
		for i := range news {
			news[i] = map[string]any{
				"href":  fmt.Sprintf("https://example.com/%s/news/%d", name, i+1),
				"image": fmt.Sprintf("source/news/%s-%d.png", name, i+1),
			}
		}
		return map[string]any{
			"texts":            slotValues(name+"-text", sitecontent.TextSlots),
			"images":           slotValues("source/assets/"+name, sitecontent.ImageSlots),
			"brandLogo":        "source/assets/logo.svg",
			"newsAllHref":      "https://example.com/news",
			"newsItems":        news,
			"coreMemberImages": slotValues("source/members/"+name, sitecontent.CoreMembers),
			"advisorImages":    slotValues("source/advisors/"+name, sitecontent.Advisors),
		}
	}
	metrics := []any{
		map[string]any{"value": "120", "label": "Projects"},
		map[string]any{"value": "35", "label": "Partners"},
	}
	return map[string]any{
		"version":   1,
		"updatedAt": "2026-10-01T00:00:00.000Z",
		"updatedBy": "hinosalt",
		"inquiry": map[string]any{
			"endpoint":  "https://forms.example.com/submit",
			"recipient": "info@example.com",
		},
		"locales":             map[string]any{"ja": locale("ja"), "en": locale("en")},
		"heroMetricsByLocale": map[string]any{"ja": metrics, "en": metrics},
		"materialModalTextByLocale": map[string]any{
			"ja": keyed(sitecontent.MaterialModalKeys),
			"en": keyed(sitecontent.MaterialModalKeys),
		},
		"inquiryCopyByLocale": map[string]any{
			"ja": keyed(sitecontent.InquiryCopyKeys),
			"en": keyed(sitecontent.InquiryCopyKeys),
		},
	}
}

// writeFile はテスト用の一時ファイルを作成してパスを返す。
func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func writeContent(t *testing.T, tree map[string]any) string {
	t.Helper()
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return writeFile(t, "site-content.json", data)
}
