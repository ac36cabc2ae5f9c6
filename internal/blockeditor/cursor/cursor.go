// Пакет реализует модель выделения редактора и примитивы сохранения/восстановления курсора
// при структурных изменениях дерева.
//
// Основные возможности:
//   - Позиция курсора как пара (узел, смещение): для текстового узла смещение в рунах, для элемента - индекс потомка.
//   - Сохранение выделения в токен, который держит и сами узлы, и пути к ним от корня.
//   - Восстановление выделения только если концы выделения все еще разрешаются в дереве.
//   - Установка курсора в начало или конец элемента.
package cursor

import (
	"unicode/utf8"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"golang.org/x/net/html"
)

type Edge int

const (
	Start Edge = iota
	End
)

type Position struct {
	Node   *html.Node
	Offset int
}

func (p Position) IsZero() bool {
	return p.Node == nil
}

type Selection struct {
	Anchor Position
	Focus  Position
}

// Caret создает схлопнутое выделение.
func Caret(node *html.Node, offset int) Selection {
	p := Position{Node: node, Offset: offset}
	return Selection{Anchor: p, Focus: p}
}

func (s Selection) IsZero() bool {
	return s.Anchor.IsZero()
}

func (s Selection) Collapsed() bool {
	return s.Anchor == s.Focus
}

// Token - снимок выделения, возвращаемый SaveCursorPosition.
type Token struct {
	sel        Selection
	anchorPath []int
	focusPath  []int
	resolvable bool
}

// Tracker хранит текущее выделение поверхности.
type Tracker struct {
	sel Selection
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) Selection() Selection {
	return t.sel
}

func (t *Tracker) Select(sel Selection) {
	t.sel = sel
}

func (t *Tracker) SaveCursorPosition(root *html.Node) Token {
	tok := Token{sel: t.sel}
	if t.sel.IsZero() {
		return tok
	}
	anchorPath, ok1 := dom.Path(t.sel.Anchor.Node, root)
	focusPath, ok2 := dom.Path(t.sel.Focus.Node, root)
	if ok1 && ok2 {
		tok.anchorPath, tok.focusPath, tok.resolvable = anchorPath, focusPath, true
	}
	return tok
}

// RestoreCursorPosition восстанавливает выделение. Сначала пробует исходные узлы, если они
// все еще в дереве, затем пути от корня. Возвращает false, если ни то, ни другое не разрешилось;
// в этом случае выделение не меняется.
func (t *Tracker) RestoreCursorPosition(root *html.Node, tok Token) bool {
	if tok.sel.IsZero() {
		return false
	}
	if valid(root, tok.sel.Anchor) && valid(root, tok.sel.Focus) {
		t.sel = tok.sel
		return true
	}
	if !tok.resolvable {
		return false
	}
	anchor := Position{Node: dom.Resolve(root, tok.anchorPath), Offset: tok.sel.Anchor.Offset}
	focus := Position{Node: dom.Resolve(root, tok.focusPath), Offset: tok.sel.Focus.Offset}
	if !valid(root, anchor) || !valid(root, focus) {
		return false
	}
	t.sel = Selection{Anchor: anchor, Focus: focus}
	return true
}

// PositionCursorInElement ставит схлопнутый курсор в начало или конец элемента.
func (t *Tracker) PositionCursorInElement(n *html.Node, edge Edge) {
	if n == nil {
		return
	}
	t.sel = Caret(edgePosition(n, edge))
}

func edgePosition(n *html.Node, edge Edge) (*html.Node, int) {
	var texts []*html.Node
	dom.Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			texts = append(texts, c)
		}
		return false
	})
	if len(texts) == 0 {
		if edge == Start {
			return n, 0
		}
		// курсор перед завершающим <br>, а не после него
		if dom.IsElement(n.LastChild, "br") {
			return n, Length(n) - 1
		}
		if dom.IsElement(n.LastChild, "p", "h1", "h2", "h3", "li") {
			return edgePosition(n.LastChild, edge)
		}
		return n, Length(n)
	}
	if edge == Start {
		return texts[0], 0
	}
	last := texts[len(texts)-1]
	return last, Length(last)
}

// Length возвращает максимальное смещение внутри узла.
func Length(n *html.Node) int {
	if n.Type == html.TextNode {
		return utf8.RuneCountInString(n.Data)
	}
	return len(dom.Children(n))
}

func valid(root *html.Node, p Position) bool {
	return p.Node != nil && dom.IsAttached(p.Node, root) && p.Offset >= 0 && p.Offset <= Length(p.Node)
}

// Ordered возвращает концы выделения в порядке документа.
func Ordered(root *html.Node, sel Selection) (Position, Position) {
	a, ok1 := dom.Path(sel.Anchor.Node, root)
	f, ok2 := dom.Path(sel.Focus.Node, root)
	if !ok1 || !ok2 {
		return sel.Anchor, sel.Focus
	}
	switch c := dom.ComparePaths(a, f); {
	case c > 0:
		return sel.Focus, sel.Anchor
	case c == 0 && sel.Anchor.Offset > sel.Focus.Offset:
		return sel.Focus, sel.Anchor
	}
	return sel.Anchor, sel.Focus
}
