package browser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var whitespace = regexp.MustCompile(`\s+`)

// document is a parsed page snapshot queried with CSS (goquery) and XPath
// (htmlquery).
type document struct {
	root *html.Node
	doc  *goquery.Document
}

func parseDocument(body []byte) (*document, error) {
	root, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &document{root: root, doc: goquery.NewDocumentFromNode(root)}, nil
}

func (d *document) matches(xpath string) (bool, error) {
	nodes, err := htmlquery.QueryAll(d.root, xpath)
	if err != nil {
		return false, fmt.Errorf("xpath %q: %w", xpath, err)
	}
	return len(nodes) > 0, nil
}

func (d *document) findAll(selector string, limit int) []Element {
	return wrapSelection(d.doc.Find(selector), limit)
}

func wrapSelection(sel *goquery.Selection, limit int) []Element {
	out := make([]Element, 0, sel.Length())
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		out = append(out, &domElement{sel: s})
		return limit <= 0 || len(out) < limit
	})
	return out
}

type domElement struct {
	sel *goquery.Selection
}

func (e *domElement) Find(selector string) (Element, error) {
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, fmt.Errorf("%q: %w", selector, ErrNoSuchElement)
	}
	return &domElement{sel: found}, nil
}

func (e *domElement) FindAll(selector string) ([]Element, error) {
	return wrapSelection(e.sel.Find(selector), 0), nil
}

func (e *domElement) Text() (string, error) {
	raw, err := e.InnerText()
	if err != nil {
		return "", err
	}
	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n"), nil
}

func (e *domElement) InnerText() (string, error) {
	var b strings.Builder
	for _, n := range e.sel.Nodes {
		renderText(&b, n)
	}
	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func (e *domElement) Attr(name string) (string, error) {
	value, _ := e.sel.Attr(name)
	return value, nil
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"div": true, "dl": true, "dt": true, "dd": true, "figcaption": true,
	"figure": true, "footer": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "section": true,
	"table": true, "tr": true, "ul": true,
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
}

// renderText approximates innerText: block elements start on a new line and
// runs of whitespace inside text nodes collapse to one space.
func renderText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(whitespace.ReplaceAllString(n.Data, " "))
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
		if n.Data == "br" {
			b.WriteByte('\n')
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}
