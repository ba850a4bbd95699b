package sitecontent

import (
	"fmt"
	"strings"
)

const typoAssetPrefix = "soruce/"

// ValidateStrict はリポジトリに置くファイルとしての完全な検証を行う。
// Validateの条件に加え、更新者情報・アセットパス・ロケール別の文言を確認し、
// 全ての違反を返す。
func (d *Document) ValidateStrict() []error {
	tree, err := d.tree()
	if err != nil {
		return []error{&ValidationError{Message: err.Error()}}
	}

	s := &strictChecker{}
	s.check(tree)
	return s.errs
}

type strictChecker struct {
	errs []error
}

func (s *strictChecker) fail(format string, args ...any) {
	s.errs = append(s.errs, violation(format, args...))
}

func (s *strictChecker) check(content map[string]any) {
	if _, ok := content["version"].(float64); !ok {
		s.fail("version must be numeric")
	}
	s.nonEmpty(content["updatedAt"], "updatedAt")
	s.nonEmpty(content["updatedBy"], "updatedBy")

	inquiry, _ := content["inquiry"].(map[string]any)
	s.nonEmpty(inquiry["endpoint"], "inquiry.endpoint")
	s.nonEmpty(inquiry["recipient"], "inquiry.recipient")

	locales, _ := content["locales"].(map[string]any)
	metrics, _ := content["heroMetricsByLocale"].(map[string]any)
	modal, _ := content["materialModalTextByLocale"].(map[string]any)
	copies, _ := content["inquiryCopyByLocale"].(map[string]any)

	for _, locale := range Locales {
		s.locale(locales[locale], locale)
		s.heroMetrics(metrics[locale], locale)

		m, _ := modal[locale].(map[string]any)
		for _, key := range MaterialModalKeys {
			s.nonEmpty(m[key], fmt.Sprintf("materialModalTextByLocale.%s.%s", locale, key))
		}
		c, _ := copies[locale].(map[string]any)
		for _, key := range InquiryCopyKeys {
			s.nonEmpty(c[key], fmt.Sprintf("inquiryCopyByLocale.%s.%s", locale, key))
		}
	}
}

func (s *strictChecker) locale(v any, locale string) {
	lc, ok := v.(map[string]any)
	if !ok {
		s.fail("locales.%s is missing", locale)
		return
	}
	prefix := "locales." + locale

	if texts, ok := s.array(lc["texts"], TextSlots, prefix+".texts"); ok {
		for i, t := range texts {
			s.nonEmpty(t, fmt.Sprintf("%s.texts[%d]", prefix, i))
		}
	}
	s.assetArray(lc["images"], ImageSlots, prefix+".images")
	s.assetPath(lc["brandLogo"], prefix+".brandLogo")
	s.nonEmpty(lc["newsAllHref"], prefix+".newsAllHref")
	s.assetArray(lc["coreMemberImages"], CoreMembers, prefix+".coreMemberImages")
	s.assetArray(lc["advisorImages"], Advisors, prefix+".advisorImages")

	if news, ok := s.array(lc["newsItems"], NewsItems, prefix+".newsItems"); ok {
		for i, v := range news {
			item, _ := v.(map[string]any)
			label := fmt.Sprintf("%s.newsItems[%d]", prefix, i)
			s.nonEmpty(item["href"], label+".href")
			s.assetPath(item["image"], label+".image")
		}
	}
}

func (s *strictChecker) heroMetrics(v any, locale string) {
	items, ok := v.([]any)
	if !ok || len(items) < MinHeroMetrics {
		s.fail("heroMetricsByLocale.%s must have at least %d items", locale, MinHeroMetrics)
		return
	}
	for i, it := range items {
		item, _ := it.(map[string]any)
		s.nonEmpty(item["value"], fmt.Sprintf("heroMetricsByLocale.%s[%d].value", locale, i))
		s.nonEmpty(item["label"], fmt.Sprintf("heroMetricsByLocale.%s[%d].label", locale, i))
	}
}

func (s *strictChecker) array(v any, length int, label string) ([]any, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) != length {
		s.fail("%s must be an array with length=%d", label, length)
		return nil, false
	}
	return arr, true
}

func (s *strictChecker) assetArray(v any, length int, label string) {
	arr, ok := s.array(v, length, label)
	if !ok {
		return
	}
	for i, item := range arr {
		s.assetPath(item, fmt.Sprintf("%s[%d]", label, i))
	}
}

func (s *strictChecker) assetPath(v any, label string) {
	if !s.nonEmpty(v, label) {
		return
	}
	if strings.HasPrefix(strings.TrimSpace(v.(string)), typoAssetPrefix) {
		s.fail("%s has invalid prefix %q (did you mean \"source/\"?)", label, typoAssetPrefix)
	}
}

func (s *strictChecker) nonEmpty(v any, label string) bool {
	if !isNonEmptyString(v) {
		s.fail("%s must be a non-empty string", label)
		return false
	}
	return true
}
