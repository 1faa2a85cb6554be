/*
 爬虫通用工具包
*/
package public

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node2html renders x back to html, used when logging markup we could not parse.
func Node2html(x *html.Node) string {
	var b bytes.Buffer
	_ = html.Render(&b, x)
	return b.String()
}

// Selection2html renders the first node of s, or "" for an empty selection.
func Selection2html(s *goquery.Selection) string {
	if s == nil || len(s.Nodes) == 0 {
		return ""
	}
	return Node2html(s.Nodes[0])
}

// OwnText returns the text nodes directly under the first node of s, ignoring
// the text of child elements.
func OwnText(s *goquery.Selection) string {
	if s == nil || len(s.Nodes) == 0 {
		return ""
	}
	var b strings.Builder
	for c := s.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
