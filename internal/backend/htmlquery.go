package backend

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/parsebench/parsebench-go/internal/domain"
)

// HTMLQueryBackend extracts features with XPath expressions.
type HTMLQueryBackend struct{}

func NewHTMLQueryBackend() *HTMLQueryBackend { return &HTMLQueryBackend{} }

func (*HTMLQueryBackend) Name() string { return "htmlquery" }

func (*HTMLQueryBackend) Parse(ctx context.Context, content []byte) (domain.Features, error) {
	if err := ctx.Err(); err != nil {
		return domain.Features{}, err
	}
	src, err := decode(content)
	if err != nil {
		return domain.Features{}, err
	}
	doc, err := htmlquery.Parse(strings.NewReader(src))
	if err != nil {
		return domain.Features{}, err
	}

	q := xpathQuerier{root: doc}
	titles := q.all("//title")
	metaNamed := q.all("//meta[@name]")
	metaProps := q.all("//meta[@property]")
	links := q.all("//a[@href]")
	images := q.all("//img[@src]")
	texts := q.all("//text()")
	if q.err != nil {
		return domain.Features{}, q.err
	}

	var f domain.Features
	if len(titles) > 0 {
		f.TitleLength = utf8.RuneCountInString(htmlquery.InnerText(titles[0]))
	}
	for _, n := range metaNamed {
		if strings.EqualFold(strings.TrimSpace(htmlquery.SelectAttr(n, "name")), "description") {
			f.MetaDescriptionLength = utf8.RuneCountInString(htmlquery.SelectAttr(n, "content"))
			break
		}
	}
	for _, n := range metaProps {
		if strings.HasPrefix(strings.ToLower(htmlquery.SelectAttr(n, "property")), "og:") {
			f.OGTagCount++
		}
	}
	f.LinkCount = len(links)
	f.ImageCount = len(images)

	parts := make([]string, 0, len(texts))
	for _, n := range texts {
		if n.Type != html.TextNode || strings.TrimSpace(n.Data) == "" || insideRawText(n) {
			continue
		}
		parts = append(parts, n.Data)
	}
	f.TextLength = utf8.RuneCountInString(strings.Join(parts, " "))

	return f, nil
}

// xpathQuerier keeps the first query error so extraction reads linearly.
type xpathQuerier struct {
	root *html.Node
	err  error
}

func (q *xpathQuerier) all(expr string) []*html.Node {
	if q.err != nil {
		return nil
	}
	nodes, err := htmlquery.QueryAll(q.root, expr)
	if err != nil {
		q.err = fmt.Errorf("xpath %s: %w", expr, err)
		return nil
	}
	return nodes
}

func insideRawText(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && (p.Data == "script" || p.Data == "style") {
			return true
		}
	}
	return false
}
