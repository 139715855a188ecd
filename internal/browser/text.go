package browser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// VisibleText renders the human-readable text of an HTML document, one block per line.
// Script, style and template content is dropped so that phrases inside inline
// JavaScript bundles are never mistaken for UI text.
func VisibleText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript, template, head").Remove()

	var b strings.Builder
	doc.Find("body").Each(func(_ int, body *goquery.Selection) {
		collectText(body, &b)
	})
	if b.Len() == 0 {
		collectText(doc.Selection, &b)
	}
	return normalizeLines(b.String())
}

// PageText returns the visible text of the page, or the error from reading its content.
func PageText(p Page) (string, error) {
	html, err := p.Content()
	if err != nil {
		return "", err
	}
	return VisibleText(html), nil
}

var lineBreaks = strings.NewReplacer("\n", " ", "\r", " ")

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "section": true, "table": true, "tr": true,
	"td": true, "th": true, "ul": true, "button": true,
}

func collectText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) == "#text" {
			b.WriteString(lineBreaks.Replace(child.Text()))
			return
		}
		block := blockTags[goquery.NodeName(child)]
		if block {
			b.WriteByte('\n')
		}
		collectText(child, b)
		if block {
			b.WriteByte('\n')
		}
	})
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
