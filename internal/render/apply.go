package render

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// document はテンプレートのid索引。テンプレートにないidへの書き込みは無視する。
type document struct {
	root *html.Node
	byID map[string]*html.Node
}

func indexDocument(root *html.Node) *document {
	d := &document{root: root, byID: make(map[string]*html.Node)}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := attr(n, "id"); id != "" {
				if _, dup := d.byID[id]; !dup {
					d.byID[id] = n
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return d
}

func (d *document) setText(id, value string) {
	if n, ok := d.byID[id]; ok {
		setTextContent(n, value)
	}
}

func (d *document) setAttr(id, key, value string) {
	if n, ok := d.byID[id]; ok {
		setAttr(n, key, value)
	}
}

func (d *document) appendTo(id string, child node) {
	if n, ok := d.byID[id]; ok {
		n.AppendChild(child.Node)
	}
}

func (d *document) body() *html.Node {
	var find func(n *html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := find(c); found != nil {
				return found
			}
		}
		return nil
	}
	return find(d.root)
}

// Apply はパース済みテンプレートにページモデルを流し込む。
// リストを追加するコンテナは既存の子要素の後ろに追記する。
func (p *Page) Apply(root *html.Node) {
	d := indexDocument(root)

	d.setAttr("brandLogo", "src", p.BrandLogo)
	d.setText("statusText", p.Status)
	d.setText("langEn", p.LangEn)
	d.setText("langSlash", p.LangSlash)
	d.setText("langJa", p.LangJa)
	d.setAttr("langSwitchLink", "href", p.LangSwitchHref)

	for _, item := range p.Nav {
		d.appendTo("globalNav", element("li", "", element("a", "", text(item.Text)).with("href", item.Href)))
	}

	d.setText("heroTitle", p.HeroTitle)
	d.setText("heroLeadA", p.HeroLeadA)
	d.setText("heroLeadB", p.HeroLeadB)
	for _, m := range p.HeroMetrics {
		d.appendTo("heroMetrics", element("article", "hero-metric",
			element("p", "hero-metric-value", text("0")).with("data-target", m.Value),
			element("p", "hero-metric-label", text(m.Label)),
		))
	}

	d.setText("projectHeading", p.ProjectHeading)
	for _, c := range p.Projects {
		d.appendTo("projectGrid", element("article", "project-card",
			lazyImage(c.Image),
			element("p", "", text(c.Caption)),
		))
	}
	d.setText("listingHeading", p.ListingHeading)
	for _, src := range p.Listings {
		d.appendTo("listingGrid", element("article", "listing-card", lazyImage(src)))
	}

	d.setText("newsHeading", p.NewsHeading)
	for _, n := range p.News {
		link := element("a", "news-card-link",
			element("article", "news-card",
				lazyImage(n.Image),
				element("div", "news-meta",
					element("p", "", text(n.Date)),
					element("p", "", text(n.Body)),
				),
			),
		).with("href", n.Href).with("target", "_blank").with("rel", "noopener")
		d.appendTo("newsRail", link)
	}
	d.setText("newsMore", p.NewsMore.Text)
	d.setAttr("newsMore", "href", p.NewsMore.Href)

	d.setText("serviceHeading", p.ServiceHeading)
	for _, s := range p.Services {
		d.appendTo("serviceCards", element("article", "service-card",
			lazyImage(s.Image),
			element("div", "service-copy",
				element("h3", "", text(s.Title)),
				element("p", "", text(s.Body)),
			),
		))
	}

	d.setText("memberHeading", p.MemberHeading)
	for _, m := range p.Members {
		d.appendTo("coreMembers", element("article", "person-card",
			lazyImage(m.Image),
			element("div", "person-copy",
				element("p", "", text(m.Role)),
				element("p", "", text(m.Name)),
			),
		))
	}
	d.setText("advisorHeading", p.AdvisorHeading)
	for _, a := range p.Advisors {
		copyNode := element("div", "advisor-copy")
		for _, line := range a.Lines {
			copyNode.AppendChild(element("p", "", text(line)).Node)
		}
		d.appendTo("advisorList", element("article", "advisor-item", lazyImage(a.Image), copyNode))
	}

	d.setText("investorHeading", p.InvestorHeading)
	for _, c := range p.Investors {
		d.appendTo("investorGrid", element("article", "investor-card",
			lazyImage(c.Image),
			element("p", "", text(c.Caption)),
		))
	}
	d.setText("partnerHeading", p.PartnerHeading)
	for _, src := range p.Partners {
		d.appendTo("partnerGrid", element("article", "partner-item", lazyImage(src)))
	}

	d.setText("contactHeading", p.Contact.Heading)
	d.setText("labelCompany", p.Contact.LabelCompany)
	d.setText("requiredCompany", p.Contact.RequiredCompany)
	d.setText("labelName", p.Contact.LabelName)
	d.setText("requiredName", p.Contact.RequiredName)
	d.setText("labelMail", p.Contact.LabelMail)
	d.setText("requiredMail", p.Contact.RequiredMail)
	d.setText("labelBody", p.Contact.LabelBody)
	d.setText("requiredBody", p.Contact.RequiredBody)
	d.setText("submitLabel", p.Contact.Submit)

	d.setText("footerIconText", "")
	d.setText("materialLink", p.MaterialLink)
	d.setAttr("materialLink", "href", "#")

	_, hasModal := d.byID["materialModal"]
	_, hasTrigger := d.byID["materialLink"]
	if p.MaterialModal != nil && hasModal && hasTrigger {
		m := p.MaterialModal
		d.setText("materialModalLead", m.Lead)
		d.setText("materialModalLabelName", m.LabelName)
		d.setText("materialModalLabelMail", m.LabelMail)
		d.setText("materialModalLabelCompany", m.LabelCompany)
		d.setText("materialModalSubmit", m.Submit)
		d.setAttr("materialModalInputName", "placeholder", m.PlaceholderName)
		d.setAttr("materialModalInputMail", "placeholder", m.PlaceholderMail)
		d.setAttr("materialModalInputCompany", "placeholder", m.PlaceholderCompany)
	}

	if body := d.body(); body != nil && p.InquiryEndpoint != "" {
		setAttr(body, "data-inquiry-endpoint", p.InquiryEndpoint)
	}
}

// Render はテンプレートを読み込み、ページモデルを流し込んだHTMLをwに書き出す。
func (p *Page) Render(w io.Writer, template io.Reader) error {
	root, err := html.Parse(template)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	p.Apply(root)
	if err := html.Render(w, root); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// node は属性を連結して設定できる要素ノード。
type node struct {
	*html.Node
}

func (n node) with(key, value string) node {
	setAttr(n.Node, key, value)
	return n
}

func element(tag, class string, children ...any) node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	if class != "" {
		setAttr(n, "class", class)
	}
	for _, c := range children {
		switch c := c.(type) {
		case node:
			n.AppendChild(c.Node)
		case *html.Node:
			n.AppendChild(c)
		}
	}
	return node{n}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func lazyImage(src string) node {
	return element("img", "").
		with("loading", "lazy").
		with("decoding", "async").
		with("alt", "").
		with("src", src)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func setTextContent(n *html.Node, value string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if value != "" {
		n.AppendChild(text(value))
	}
}
