// Package render はサイトコンテンツからロケール別の公開ページを生成する。
// テンプレートHTMLの要素IDに名前付きスロットを流し込む。
package render

import (
	"fmt"

	"github.com/hinosalt/bobg-hp/internal/sitecontent"
)

// Page はテンプレートへ流し込む1ロケール分のページモデル。
// 画像URLは解決済み。
type Page struct {
	Locale string
	Base   string

	BrandLogo      string
	Status         string
	Nav            []Link
	LangEn         string
	LangSlash      string
	LangJa         string
	LangSwitchHref string

	HeroTitle   string
	HeroLeadA   string
	HeroLeadB   string
	HeroMetrics []sitecontent.HeroMetric

	ProjectHeading string
	Projects       []Card
	ListingHeading string
	Listings       []string

	NewsHeading string
	News        []NewsCard
	NewsMore    Link

	ServiceHeading string
	Services       []Service

	MemberHeading  string
	Members        []Member
	AdvisorHeading string
	Advisors       []Advisor

	InvestorHeading string
	Investors       []Card
	PartnerHeading  string
	Partners        []string

	Contact       ContactForm
	MaterialLink  string
	MaterialModal *sitecontent.MaterialModalText

	InquiryEndpoint string
}

// Link はテキストとリンク先の組。
type Link struct {
	Text string
	Href string
}

// Card は画像とキャプションを持つカード。
type Card struct {
	Image   string
	Caption string
}

// NewsCard はニュース一覧の1件。
type NewsCard struct {
	Href  string
	Image string
	Date  string
	Body  string
}

// Service はサービス紹介の1件。
type Service struct {
	Image string
	Title string
	Body  string
}

// Member はコアメンバーの1人。
type Member struct {
	Image string
	Role  string
	Name  string
}

// Advisor はアドバイザーの1人。Linesは段落ごとのテキスト。
type Advisor struct {
	Image string
	Lines []string
}

// ContactForm は問い合わせフォームのラベルと必須表示。
type ContactForm struct {
	Heading         string
	LabelCompany    string
	RequiredCompany string
	LabelName       string
	RequiredName    string
	LabelMail       string
	RequiredMail    string
	LabelBody       string
	RequiredBody    string
	Submit          string
}

// Coverage はページモデルが参照しなかったスロット番号（1始まり）。
type Coverage struct {
	MissingTexts  []int
	MissingImages []int
}

// Empty は未参照スロットがないかを返す。
func (c Coverage) Empty() bool {
	return len(c.MissingTexts) == 0 && len(c.MissingImages) == 0
}

// advisorLines は各アドバイザーのテキストスロット範囲。
var advisorLines = [sitecontent.Advisors][2]int{
	{54, 57}, {58, 61}, {62, 64}, {65, 70}, {71, 74}, {75, 76},
}

// slots は番号付きスロットの読み出しと参照記録を行う。
type slots struct {
	values []string
	used   map[int]bool
}

func newSlots(values []string) *slots {
	return &slots{values: values, used: make(map[int]bool)}
}

// at は1始まりのスロット値を返す。範囲外は空文字。
func (s *slots) at(idx int) string {
	s.used[idx] = true
	if idx < 1 || idx > len(s.values) {
		return ""
	}
	return s.values[idx-1]
}

func (s *slots) missing() []int {
	var out []int
	for i := 1; i <= len(s.values); i++ {
		if !s.used[i] {
			out = append(out, i)
		}
	}
	return out
}

// NewPage はサイトコンテンツから指定ロケールのページモデルを組み立てる。
// baseはページからサイトルートへの相対プレフィックス（ja は ""、en は "../"）。
func NewPage(content *sitecontent.SiteContent, locale, base string) (*Page, Coverage, error) {
	lc, ok := content.Locales[locale]
	if !ok {
		return nil, Coverage{}, fmt.Errorf("locale %q not found in content", locale)
	}

	t := newSlots(lc.Texts)
	i := newSlots(lc.Images)
	img := func(idx int) string { return resolveAssetURL(base, i.at(idx)) }
	asset := func(raw string) string { return resolveAssetURL(base, raw) }

	p := &Page{
		Locale:    locale,
		Base:      base,
		BrandLogo: asset(lc.BrandLogo),
		Status:    t.at(1),
		Nav: []Link{
			{Text: t.at(2), Href: "#projects"},
			{Text: t.at(3), Href: "#news"},
			{Text: t.at(4), Href: "#services"},
			{Text: t.at(5), Href: "#members"},
			{Text: t.at(6), Href: "#contact"},
		},
		LangEn:         t.at(7),
		LangSlash:      t.at(8),
		LangJa:         t.at(9),
		LangSwitchHref: "../",
		HeroTitle:      t.at(10),
		HeroLeadA:      t.at(11),
		HeroLeadB:      t.at(12),
		HeroMetrics:    byLocale(content.HeroMetricsByLocale, locale),
	}
	if locale == "ja" {
		p.LangSwitchHref = "en/"
	}
	// ヒーロー背景はCSSで指定するため参照済みとして扱う
	i.at(1)

	p.ProjectHeading = t.at(13)
	for n := 0; n < 12; n++ {
		p.Projects = append(p.Projects, Card{Caption: t.at(14 + n), Image: img(2 + n)})
	}
	p.ListingHeading = t.at(26)
	for idx := 14; idx <= 21; idx++ {
		p.Listings = append(p.Listings, img(idx))
	}

	p.NewsHeading = t.at(27)
	for n := 0; n < sitecontent.NewsItems; n++ {
		card := NewsCard{Date: t.at(28 + 2*n), Body: t.at(29 + 2*n)}
		if n < len(lc.NewsItems) {
			card.Href = lc.NewsItems[n].Href
			card.Image = asset(lc.NewsItems[n].Image)
		}
		p.News = append(p.News, card)
	}
	p.NewsMore = Link{Text: t.at(34), Href: lc.NewsAllHref}

	p.ServiceHeading = t.at(35)
	for n := 0; n < 3; n++ {
		p.Services = append(p.Services, Service{
			Title: t.at(36 + 2*n),
			Body:  t.at(37 + 2*n),
			Image: img(22 + n),
		})
	}

	p.MemberHeading = t.at(42)
	for n := 0; n < sitecontent.CoreMembers; n++ {
		m := Member{Role: t.at(43 + 2*n), Name: t.at(44 + 2*n)}
		if n < len(lc.CoreMemberImages) {
			m.Image = asset(lc.CoreMemberImages[n])
		}
		p.Members = append(p.Members, m)
	}

	p.AdvisorHeading = t.at(53)
	for n, r := range advisorLines {
		a := Advisor{}
		for idx := r[0]; idx <= r[1]; idx++ {
			a.Lines = append(a.Lines, t.at(idx))
		}
		if n < len(lc.AdvisorImages) {
			a.Image = asset(lc.AdvisorImages[n])
		}
		p.Advisors = append(p.Advisors, a)
	}

	p.InvestorHeading = t.at(77)
	for n := 0; n < 4; n++ {
		p.Investors = append(p.Investors, Card{Caption: t.at(78 + n), Image: img(25 + n)})
	}
	p.PartnerHeading = t.at(82)
	for idx := 29; idx <= sitecontent.ImageSlots; idx++ {
		p.Partners = append(p.Partners, img(idx))
	}

	p.Contact = ContactForm{
		Heading:         t.at(83),
		LabelCompany:    t.at(84),
		RequiredCompany: t.at(85),
		LabelName:       t.at(86),
		RequiredName:    t.at(87),
		LabelMail:       t.at(88),
		RequiredMail:    t.at(89),
		LabelBody:       t.at(90),
		RequiredBody:    t.at(91),
		Submit:          t.at(92),
	}
	p.MaterialLink = t.at(94)

	if modal, ok := lookupLocale(content.MaterialModalTextByLocale, locale); ok {
		p.MaterialModal = &modal
	}
	p.InquiryEndpoint = content.Inquiry.Endpoint

	return p, Coverage{MissingTexts: t.missing(), MissingImages: i.missing()}, nil
}

// lookupLocale はロケールの値を返す。なければjaにフォールバックする。
func lookupLocale[T any](m map[string]T, locale string) (T, bool) {
	if v, ok := m[locale]; ok {
		return v, true
	}
	v, ok := m["ja"]
	return v, ok
}

func byLocale(m map[string][]sitecontent.HeroMetric, locale string) []sitecontent.HeroMetric {
	if v, ok := m[locale]; ok && len(v) > 0 {
		return v
	}
	return m["ja"]
}
