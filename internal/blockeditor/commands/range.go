package commands

import (
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/cursor"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"golang.org/x/net/html"
)

// selectedTexts возвращает текстовые узлы, попадающие в выделение, в порядке документа,
// и концы выделения, приведенные к текстовым узлам.
func (d *Dispatcher) selectedTexts() ([]*html.Node, cursor.Position, cursor.Position) {
	s, e := cursor.Ordered(d.root, d.sel.Selection())
	if s.IsZero() || e.IsZero() {
		return nil, s, e
	}

	type entry struct {
		node *html.Node
		path []int
	}
	var all []entry
	dom.Walk(d.root, func(n *html.Node) bool {
		if n.Type == html.TextNode && !dom.IsWhitespaceText(n) {
			p, _ := dom.Path(n, d.root)
			all = append(all, entry{n, p})
		}
		return false
	})

	boundary := func(p cursor.Position) []int {
		path, ok := dom.Path(p.Node, d.root)
		if !ok {
			return nil
		}
		return append(path, p.Offset)
	}

	from, to := -1, -1
	if s.Node.Type == html.TextNode {
		for i, en := range all {
			if en.node == s.Node {
				from = i
				break
			}
		}
	} else if b := boundary(s); b != nil {
		for i, en := range all {
			if dom.ComparePaths(en.path, b) >= 0 {
				from = i
				s = cursor.Position{Node: en.node}
				break
			}
		}
	}
	if e.Node.Type == html.TextNode {
		for i, en := range all {
			if en.node == e.Node {
				to = i
				break
			}
		}
	} else if b := boundary(e); b != nil {
		for i := len(all) - 1; i >= 0; i-- {
			if dom.ComparePaths(all[i].path, b) < 0 {
				to = i
				e = cursor.Position{Node: all[i].node, Offset: cursor.Length(all[i].node)}
				break
			}
		}
	}
	if from < 0 || to < 0 || from > to {
		return nil, s, e
	}

	texts := make([]*html.Node, 0, to-from+1)
	for _, en := range all[from : to+1] {
		texts = append(texts, en.node)
	}
	return texts, s, e
}

// wrapRange оборачивает выделенную часть каждого текстового узла в новый элемент,
// разрезая крайние узлы по смещениям выделения.
func wrapRange(texts []*html.Node, start, end cursor.Position, mk func() *html.Node) []*html.Node {
	var wrapped []*html.Node
	for _, t := range texts {
		from, to := 0, cursor.Length(t)
		if t == start.Node {
			from = start.Offset
		}
		if t == end.Node {
			to = end.Offset
		}
		if from >= to {
			continue
		}
		w := mk()
		dom.Wrap(splitText(t, from, to), w)
		wrapped = append(wrapped, w)
	}
	return wrapped
}

// splitText оставляет в t только руны [from, to), остаток выносит в соседние текстовые узлы.
func splitText(t *html.Node, from, to int) *html.Node {
	runes := []rune(t.Data)
	if to < len(runes) {
		dom.InsertAfter(dom.NewText(string(runes[to:])), t)
	}
	if from > 0 {
		t.Parent.InsertBefore(dom.NewText(string(runes[:from])), t)
	}
	t.Data = string(runes[from:to])
	return t
}

func (d *Dispatcher) selectWrapped(wrapped []*html.Node) {
	if len(wrapped) == 0 {
		return
	}
	first := wrapped[0].FirstChild
	last := wrapped[len(wrapped)-1].FirstChild
	d.sel.Select(cursor.Selection{
		Anchor: cursor.Position{Node: first},
		Focus:  cursor.Position{Node: last, Offset: cursor.Length(last)},
	})
}

// insertAtCaret вставляет n в позицию p. Текстовый узел при необходимости разрезается.
func insertAtCaret(p cursor.Position, n *html.Node) bool {
	if p.Node == nil || p.Node.Parent == nil && p.Node.Type == html.TextNode {
		return false
	}
	if p.Node.Type == html.TextNode {
		runes := []rune(p.Node.Data)
		switch off := p.Offset; {
		case off <= 0:
			p.Node.Parent.InsertBefore(n, p.Node)
		case off >= len(runes):
			dom.InsertAfter(n, p.Node)
		default:
			dom.InsertAfter(dom.NewText(string(runes[off:])), p.Node)
			p.Node.Data = string(runes[:off])
			dom.InsertAfter(n, p.Node)
		}
		return true
	}
	if c := dom.ChildAt(p.Node, p.Offset); c != nil {
		p.Node.InsertBefore(n, c)
	} else {
		p.Node.AppendChild(n)
	}
	return true
}
