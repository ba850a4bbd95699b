// Package sitecontent はサイトコンテンツJSON（content/site-content.json）の
// 読み込み・検証・書き出しを提供する。
package sitecontent

// コンテンツのスロット数。テンプレートの要素数に対応する。
const (
	TextSlots   = 94
	ImageSlots  = 40
	NewsItems   = 3
	CoreMembers = 5
	Advisors    = 6

	// MinHeroMetrics はヒーロー指標の最小件数（strict検証のみ）。
	MinHeroMetrics = 2
)

// Locales はサポートするロケール。検証はこの順で行う。
var Locales = []string{"ja", "en"}

// MaterialModalKeys は資料請求モーダルの必須キー。
var MaterialModalKeys = []string{
	"lead",
	"labelName",
	"labelMail",
	"labelCompany",
	"placeholderName",
	"placeholderMail",
	"placeholderCompany",
	"submit",
}

// InquiryCopyKeys は問い合わせ結果メッセージの必須キー。
var InquiryCopyKeys = []string{"contactSuccess", "materialSuccess", "sendError"}

// SiteContent はサイトコンテンツの型付きビュー。レンダラーが利用する。
// 未知のキーは含まない。書き戻しにはDocumentを使う。
type SiteContent struct {
	Version                   float64                      `json:"version"`
	UpdatedAt                 string                       `json:"updatedAt"`
	UpdatedBy                 string                       `json:"updatedBy"`
	Inquiry                   Inquiry                      `json:"inquiry"`
	Locales                   map[string]LocaleContent     `json:"locales"`
	HeroMetricsByLocale       map[string][]HeroMetric      `json:"heroMetricsByLocale,omitempty"`
	MaterialModalTextByLocale map[string]MaterialModalText `json:"materialModalTextByLocale,omitempty"`
	InquiryCopyByLocale       map[string]InquiryCopy       `json:"inquiryCopyByLocale,omitempty"`
}

// Inquiry は問い合わせフォームの送信先。
type Inquiry struct {
	Endpoint  string `json:"endpoint"`
	Recipient string `json:"recipient"`
}

// LocaleContent はロケールごとのテキスト・画像スロット。
// Texts[i]はテンプレートのテキストスロットi+1に対応する。
type LocaleContent struct {
	Texts            []string   `json:"texts"`
	Images           []string   `json:"images"`
	BrandLogo        string     `json:"brandLogo"`
	NewsAllHref      string     `json:"newsAllHref"`
	NewsItems        []NewsItem `json:"newsItems"`
	CoreMemberImages []string   `json:"coreMemberImages"`
	AdvisorImages    []string   `json:"advisorImages"`
}

// NewsItem はニュースカードのリンク先と画像。
type NewsItem struct {
	Href  string `json:"href"`
	Image string `json:"image"`
}

// HeroMetric はヒーローに表示する数値と見出し。
type HeroMetric struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// MaterialModalText は資料請求モーダルの文言。
type MaterialModalText struct {
	Lead               string `json:"lead"`
	LabelName          string `json:"labelName"`
	LabelMail          string `json:"labelMail"`
	LabelCompany       string `json:"labelCompany"`
	PlaceholderName    string `json:"placeholderName"`
	PlaceholderMail    string `json:"placeholderMail"`
	PlaceholderCompany string `json:"placeholderCompany"`
	Submit             string `json:"submit"`
}

// InquiryCopy は問い合わせ送信結果の文言。
type InquiryCopy struct {
	ContactSuccess  string `json:"contactSuccess"`
	MaterialSuccess string `json:"materialSuccess"`
	SendError       string `json:"sendError"`
}
