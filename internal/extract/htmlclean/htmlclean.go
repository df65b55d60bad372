// Package htmlclean strips script/style/noscript/iframe/svg noise out of a
// page's HTML and collapses whitespace, producing a compact representation
// suitable for handing to an agent as getPageContent's payload.
package htmlclean

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Result is the cleaned output plus the metadata getPageContent surfaces
// alongside it.
type Result struct {
	HTML        string
	Title       string
	Description string
	Truncated   bool
}

// Clean parses rawHTML and walks it, dropping noise elements and comments,
// collapsing whitespace in text nodes, and stopping once maxLength bytes of
// output have been produced. The cut text ends in "..." and the elements
// still open at that point are closed after it, so the result can run a few
// bytes past maxLength.
func Clean(rawHTML string, maxLength int) (*Result, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	result := &Result{
		Title:       extractTitle(doc),
		Description: extractMetaDescription(doc),
	}

	var b strings.Builder
	var length int
	result.Truncated = cleanNode(doc, &b, &length, maxLength, 0)
	result.HTML = b.String()
	return result, nil
}

func cleanNode(n *html.Node, b *strings.Builder, length *int, maxLength, depth int) bool {
	if *length >= maxLength {
		return true
	}
	if n.Type == html.CommentNode {
		return false
	}
	if n.Type == html.ElementNode && skippedElements[strings.ToLower(n.Data)] {
		return false
	}
	if n.Type == html.TextNode {
		return writeText(n, b, length, maxLength)
	}
	if n.Type == html.ElementNode {
		return writeElement(n, b, length, maxLength, depth)
	}
	return writeChildren(n, b, length, maxLength, depth)
}

func writeText(n *html.Node, b *strings.Builder, length *int, maxLength int) bool {
	text := strings.Join(strings.Fields(n.Data), " ")
	if text == "" {
		return false
	}
	if *length+len(text) > maxLength {
		remaining := maxLength - *length
		if remaining < 0 {
			remaining = 0
		}
		b.WriteString(text[:remaining] + "...")
		*length = maxLength
		return true
	}
	b.WriteString(text)
	*length += len(text)
	return false
}

func writeElement(n *html.Node, b *strings.Builder, length *int, maxLength, depth int) bool {
	tag := strings.ToLower(n.Data)

	if depth > 0 && blockElements[tag] {
		b.WriteString("\n")
		b.WriteString(strings.Repeat("  ", depth))
		*length += 1 + 2*depth
	}

	b.WriteString("<")
	b.WriteString(tag)
	for _, attr := range n.Attr {
		if shouldPreserveAttribute(tag, strings.ToLower(attr.Key)) {
			s := fmt.Sprintf(` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
			b.WriteString(s)
			*length += len(s)
		}
	}
	b.WriteString(">")
	*length += len(tag) + 2

	truncated := writeChildren(n, b, length, maxLength, depth+1)

	if !voidElements[tag] {
		if blockElements[tag] {
			b.WriteString("\n")
			b.WriteString(strings.Repeat("  ", depth))
			*length += 1 + 2*depth
		}
		b.WriteString("</")
		b.WriteString(tag)
		b.WriteString(">")
		*length += len(tag) + 3
	}
	return truncated
}

func writeChildren(n *html.Node, b *strings.Builder, length *int, maxLength, depth int) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if cleanNode(c, b, length, maxLength, depth) {
			return true
		}
	}
	return false
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"iframe": true, "embed": true, "object": true, "svg": true,
}

var blockElements = map[string]bool{
	"div": true, "p": true, "section": true, "article": true, "header": true,
	"footer": true, "nav": true, "main": true, "aside": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "table": true, "tr": true, "td": true,
	"th": true, "form": true, "fieldset": true, "blockquote": true, "pre": true,
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

func shouldPreserveAttribute(tag, attr string) bool {
	if globalAttributes[attr] {
		return true
	}
	if strings.HasPrefix(attr, "data-") {
		return true
	}
	switch tag {
	case "a":
		return attr == "href" || attr == "target"
	case "img":
		return attr == "src" || attr == "alt"
	case "input", "textarea", "select":
		return attr == "name" || attr == "type" || attr == "placeholder" || attr == "value"
	case "button":
		return attr == "type" || attr == "name"
	case "form":
		return attr == "action" || attr == "method"
	case "table":
		return attr == "summary"
	}
	return false
}

var globalAttributes = map[string]bool{
	"id": true, "class": true, "role": true,
	"aria-label": true, "aria-describedby": true,
}

func extractTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
			if title != "" {
				return
			}
		}
	}
	walk(doc)
	return title
}

func extractMetaDescription(doc *html.Node) string {
	var desc string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var isDescription bool
			var content string
			for _, attr := range n.Attr {
				if attr.Key == "name" && attr.Val == "description" {
					isDescription = true
				}
				if attr.Key == "content" {
					content = attr.Val
				}
			}
			if isDescription && content != "" {
				desc = strings.TrimSpace(content)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
			if desc != "" {
				return
			}
		}
	}
	walk(doc)
	return desc
}
