package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NewRoot создает корень редактируемой поверхности.
func NewRoot() *html.Node {
	return NewElement("div", html.Attribute{Key: "contenteditable", Val: "true"})
}

// ParseFragment разбирает разметку так, как если бы она была содержимым <div>.
func ParseFragment(markup string) ([]*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		Detach(n)
	}
	return nodes, nil
}

// Render возвращает разметку узла вместе с ним самим.
func Render(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

// RenderChildren возвращает разметку потомков узла без него самого.
func RenderChildren(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return ""
		}
	}
	return sb.String()
}
