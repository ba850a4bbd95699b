package sitecontent

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func stringSlots(prefix string, n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%d", prefix, i+1)
	}
	return out
}

func validLocale(locale string) map[string]any {
	news := make([]any, NewsItems)
	for i := range news {
		news[i] = map[string]any{
			"href":  fmt.Sprintf("https://example.com/%s/news/%d", locale, i+1),
			"image": fmt.Sprintf("source/news/%s-%d.png", locale, i+1),
		}
	}
	return map[string]any{
		"texts":            stringSlots(locale+"-text", TextSlots),
		"images":           stringSlots("source/assets/"+locale, ImageSlots),
		"brandLogo":        "source/assets/logo.svg",
		"newsAllHref":      "https://example.com/news",
		"newsItems":        news,
		"coreMemberImages": stringSlots("source/members/"+locale, CoreMembers),
		"advisorImages":    stringSlots("source/advisors/"+locale, Advisors),
	}
}

func keyedCopy(keys []string) map[string]any {
	out := map[string]any{}
	for _, key := range keys {
		out[key] = key + " text"
	}
	return out
}

func heroMetrics() []any {
	return []any{
		map[string]any{"value": "120", "label": "Projects"},
		map[string]any{"value": "35", "label": "Partners"},
	}
}

// validTree はstrict検証まで通る完全なコンテンツを返す。
// ロケールごとに別のmapを持つため、片方を書き換えてももう片方に影響しない。
func validTree() map[string]any {
	return map[string]any{
		"version":   1,
		"updatedAt": "2026-10-01T00:00:00.000Z",
		"updatedBy": "hinosalt",
		"inquiry": map[string]any{
			"endpoint":  "https://forms.example.com/submit",
			"recipient": "info@example.com",
		},
		"locales": map[string]any{
			"ja": validLocale("ja"),
			"en": validLocale("en"),
		},
		"heroMetricsByLocale": map[string]any{"ja": heroMetrics(), "en": heroMetrics()},
		"materialModalTextByLocale": map[string]any{
			"ja": keyedCopy(MaterialModalKeys),
			"en": keyedCopy(MaterialModalKeys),
		},
		"inquiryCopyByLocale": map[string]any{
			"ja": keyedCopy(InquiryCopyKeys),
			"en": keyedCopy(InquiryCopyKeys),
		},
	}
}

func mustDocument(t *testing.T, tree map[string]any) *Document {
	t.Helper()
	data, err := json.Marshal(tree)
	require.NoError(t, err)
	doc, err := Decode(data)
	require.NoError(t, err)
	return doc
}

func localeOf(tree map[string]any, locale string) map[string]any {
	return tree["locales"].(map[string]any)[locale].(map[string]any)
}
