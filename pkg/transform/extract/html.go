package extract

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/admariner/wrangles/pkg/project"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

type htmlOptions struct {
	project.Columns `mapstructure:",squash"`
	DataType        string `mapstructure:"data_type" validate:"required,oneof=text links"`
}

// htmlText returns the visible text of a fragment with whitespace runs
// collapsed.
func htmlText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var parts []string
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
		case html.StartTagToken:
			if name, _ := z.TagName(); string(name) == "script" || string(name) == "style" {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); (string(name) == "script" || string(name) == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				parts = append(parts, string(z.Text()))
			}
		}
	}
}

// htmlLinks returns the href of every anchor in document order.
func htmlLinks(s string) []any {
	z := html.NewTokenizer(strings.NewReader(s))
	links := []any{}
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return links
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if string(name) != "a" {
			continue
		}
		for hasAttr {
			var k, v []byte
			k, v, hasAttr = z.TagAttr()
			if string(k) == "href" {
				links = append(links, string(v))
			}
		}
	}
}

// HTML extracts the text or the links of HTML cells.
func HTML(ctx context.Context, f *w.Frame, p registry.Params) (*w.Frame, error) {
	var opts htmlOptions
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	err := project.Apply(f, opts.Spec(project.DefaultSeparator), func(vals []string) ([]any, error) {
		return mapStrings(vals, func(s string) any {
			if opts.DataType == "links" {
				return htmlLinks(s)
			}
			return htmlText(s)
		}), nil
	})
	return f, err
}
