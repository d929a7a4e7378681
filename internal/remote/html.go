package remote

import (
	"strings"

	"golang.org/x/net/html"
)

// firstTopLevelText walks an HTML fragment and returns the concatenated
// text content of the first <div> that contains any, mirroring the
// original client's "select the first <div> and fold its text nodes"
// behavior on a MangaDex login-rejection page. With no such <div>, the
// text of <body> is returned instead.
func firstTopLevelText(body string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", false
	}

	var find func(n *html.Node, tag string) (string, bool)
	find = func(n *html.Node, tag string) (string, bool) {
		if n.Type == html.ElementNode && n.Data == tag {
			if text := collectText(n); strings.TrimSpace(text) != "" {
				return text, true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if text, ok := find(c, tag); ok {
				return text, true
			}
		}
		return "", false
	}

	if text, ok := find(doc, "div"); ok {
		return text, true
	}
	return find(doc, "body")
}

func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
