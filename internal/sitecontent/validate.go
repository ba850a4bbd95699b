package sitecontent

import (
	"fmt"
	"strings"
)

// ValidationError はコンテンツのスキーマ違反を表す。
// MessageはAPIレスポンスにそのまま載る。
type ValidationError struct {
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	return e.Message
}

func violation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Validate は保存前の検証を行い、最初の違反を返す。
// 違反がなければnilを返す。
func (d *Document) Validate() error {
	tree, err := d.tree()
	if err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return validateTree(tree)
}

func validateTree(content map[string]any) error {
	if _, ok := content["version"].(float64); !ok {
		return violation("content.version must be numeric")
	}

	locales, _ := content["locales"].(map[string]any)
	for _, locale := range Locales {
		if err := validateLocale(locales, locale); err != nil {
			return err
		}
	}

	inquiry, ok := content["inquiry"].(map[string]any)
	if !ok {
		return violation("inquiry section must exist")
	}
	if err := requireString(inquiry["endpoint"], "inquiry.endpoint"); err != nil {
		return err
	}
	return requireString(inquiry["recipient"], "inquiry.recipient")
}

func validateLocale(locales map[string]any, locale string) error {
	lc, ok := locales[locale].(map[string]any)
	if !ok {
		return violation("locales.%s must exist", locale)
	}
	prefix := "locales." + locale

	texts, err := requireArray(lc["texts"], TextSlots, prefix+".texts")
	if err != nil {
		return err
	}
	images, err := requireArray(lc["images"], ImageSlots, prefix+".images")
	if err != nil {
		return err
	}
	if err := requireStrings(texts, prefix+".texts"); err != nil {
		return err
	}
	if err := requireStrings(images, prefix+".images"); err != nil {
		return err
	}

	if err := requireString(lc["brandLogo"], prefix+".brandLogo"); err != nil {
		return err
	}
	if err := requireString(lc["newsAllHref"], prefix+".newsAllHref"); err != nil {
		return err
	}

	news, err := requireArray(lc["newsItems"], NewsItems, prefix+".newsItems")
	if err != nil {
		return err
	}
	for i, v := range news {
		item, _ := v.(map[string]any)
		label := fmt.Sprintf("%s.newsItems[%d]", prefix, i)
		if err := requireString(item["href"], label+".href"); err != nil {
			return err
		}
		if err := requireString(item["image"], label+".image"); err != nil {
			return err
		}
	}

	members, err := requireArray(lc["coreMemberImages"], CoreMembers, prefix+".coreMemberImages")
	if err != nil {
		return err
	}
	if err := requireStrings(members, prefix+".coreMemberImages"); err != nil {
		return err
	}

	advisors, err := requireArray(lc["advisorImages"], Advisors, prefix+".advisorImages")
	if err != nil {
		return err
	}
	return requireStrings(advisors, prefix+".advisorImages")
}

func requireArray(v any, length int, label string) ([]any, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, violation("%s must be an array", label)
	}
	if len(arr) != length {
		return nil, violation("%s must have length %d", label, length)
	}
	return arr, nil
}

func requireStrings(values []any, label string) error {
	for i, v := range values {
		if err := requireString(v, fmt.Sprintf("%s[%d]", label, i)); err != nil {
			return err
		}
	}
	return nil
}

func requireString(v any, label string) error {
	if !isNonEmptyString(v) {
		return violation("%s must be a non-empty string", label)
	}
	return nil
}

func isNonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}
