package backend

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/parsebench/parsebench-go/internal/domain"
)

// GoqueryBackend extracts features with CSS selectors.
type GoqueryBackend struct{}

func NewGoqueryBackend() *GoqueryBackend { return &GoqueryBackend{} }

func (*GoqueryBackend) Name() string { return "goquery" }

func (*GoqueryBackend) Parse(ctx context.Context, content []byte) (domain.Features, error) {
	if err := ctx.Err(); err != nil {
		return domain.Features{}, err
	}
	src, err := decode(content)
	if err != nil {
		return domain.Features{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return domain.Features{}, err
	}

	var f domain.Features
	f.TitleLength = utf8.RuneCountInString(doc.Find("title").First().Text())

	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if !strings.EqualFold(strings.TrimSpace(name), "description") {
			return true
		}
		content, _ := s.Attr("content")
		f.MetaDescriptionLength = utf8.RuneCountInString(content)
		return false
	})

	doc.Find("meta[property]").Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		if strings.HasPrefix(strings.ToLower(prop), "og:") {
			f.OGTagCount++
		}
	})

	f.LinkCount = doc.Find("a[href]").Length()
	f.ImageCount = doc.Find("img[src]").Length()

	body := doc.Find("body").First()
	body.Find("script, style").Remove()
	f.TextLength = utf8.RuneCountInString(strings.Join(strings.Fields(body.Text()), " "))

	return f, nil
}
