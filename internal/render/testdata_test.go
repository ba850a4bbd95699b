package render

import (
	"fmt"
	"strings"

	"github.com/hinosalt/bobg-hp/internal/sitecontent"
	"golang.org/x/net/html"
)

// newLocale はスロット番号が分かる値で埋めたロケールを返す。
func newLocale(prefix string) sitecontent.LocaleContent {
	lc := sitecontent.LocaleContent{
		BrandLogo:   "source/brand/" + prefix + "-logo.webp",
		NewsAllHref: "https://news.example.com/" + prefix,
	}
	for i := 1; i <= sitecontent.TextSlots; i++ {
		lc.Texts = append(lc.Texts, fmt.Sprintf("%s-t%d", prefix, i))
	}
	for i := 1; i <= sitecontent.ImageSlots; i++ {
		lc.Images = append(lc.Images, fmt.Sprintf("source/%s/i%d.png", prefix, i))
	}
	for i := 1; i <= sitecontent.NewsItems; i++ {
		lc.NewsItems = append(lc.NewsItems, sitecontent.NewsItem{
			Href:  fmt.Sprintf("https://news.example.com/%s/%d", prefix, i),
			Image: fmt.Sprintf("https://img.example.com/%s/news%d.webp", prefix, i),
		})
	}
	for i := 1; i <= sitecontent.CoreMembers; i++ {
		lc.CoreMemberImages = append(lc.CoreMemberImages, fmt.Sprintf("members/%s-%d.webp", prefix, i))
	}
	for i := 1; i <= sitecontent.Advisors; i++ {
		lc.AdvisorImages = append(lc.AdvisorImages, fmt.Sprintf("advisors/%s-%d.webp", prefix, i))
	}
	return lc
}

func newContent() *sitecontent.SiteContent {
	return &sitecontent.SiteContent{
		Version: 1,
		Inquiry: sitecontent.Inquiry{
			Endpoint:  "https://formsubmit.co/ajax/info@bobg.xyz",
			Recipient: "info@bobg.xyz",
		},
		Locales: map[string]sitecontent.LocaleContent{
			"ja": newLocale("ja"),
			"en": newLocale("en"),
		},
		HeroMetricsByLocale: map[string][]sitecontent.HeroMetric{
			"ja": {{Value: "12", Label: "トークン発行数"}, {Value: "22", Label: "トークン上場数"}},
		},
		MaterialModalTextByLocale: map[string]sitecontent.MaterialModalText{
			"ja": {
				Lead:               "資料をお送りします。",
				LabelName:          "お名前",
				LabelMail:          "メールアドレス",
				LabelCompany:       "会社名",
				PlaceholderName:    "山田 太郎",
				PlaceholderMail:    "mail@example.com",
				PlaceholderCompany: "株式会社 Example",
				Submit:             "資料請求する",
			},
		},
	}
}

// testTemplate は公開ページテンプレートの要素IDを持つ最小HTML。
const testTemplate = `<!doctype html>
<html><head><title>BOBG</title></head>
<body data-locale="ja">
<header>
  <img id="brandLogo" src="">
  <span id="statusText">old</span>
  <ul id="globalNav"></ul>
  <a id="langSwitchLink" href="#"><span id="langEn"></span><span id="langSlash"></span><span id="langJa"></span></a>
</header>
<section>
  <h1 id="heroTitle"></h1><p id="heroLeadA"></p><p id="heroLeadB"></p>
  <div id="heroMetrics"></div>
</section>
<h2 id="projectHeading"></h2><div id="projectGrid"></div>
<h2 id="listingHeading"></h2><div id="listingGrid"></div>
<h2 id="newsHeading"></h2><div id="newsRail"></div><a id="newsMore" href="#"></a>
<h2 id="serviceHeading"></h2><div id="serviceCards"></div>
<h2 id="memberHeading"></h2><div id="coreMembers"></div>
<h2 id="advisorHeading"></h2><div id="advisorList"></div>
<h2 id="investorHeading"></h2><div id="investorGrid"></div>
<h2 id="partnerHeading"></h2><div id="partnerGrid"></div>
<h2 id="contactHeading"></h2>
<form>
  <label id="labelCompany"></label><span id="requiredCompany"></span>
  <label id="labelName"></label><span id="requiredName"></span>
  <label id="labelMail"></label><span id="requiredMail"></span>
  <label id="labelBody"></label><span id="requiredBody"></span>
  <button><span id="submitLabel"></span></button>
</form>
<footer><span id="footerIconText">icon</span><a id="materialLink" href="/materials"></a></footer>
<div id="materialModal" hidden>
  <p id="materialModalLead"></p>
  <label id="materialModalLabelName"></label><input id="materialModalInputName">
  <label id="materialModalLabelMail"></label><input id="materialModalInputMail">
  <label id="materialModalLabelCompany"></label><input id="materialModalInputCompany">
  <button id="materialModalSubmit"></button>
</div>
</body></html>`

func parseTemplate(src string) *html.Node {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		panic(err)
	}
	return root
}

func byID(root *html.Node, id string) *html.Node {
	return indexDocument(root).byID[id]
}

// textContent はノード配下のテキストを連結して返す。
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// children は要素の子要素を返す。
func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}
