// Пакет содержит низкоуровневые операции над живым деревом редактора, построенным на golang.org/x/net/html.
//
// Основные возможности:
//   - Чтение, установка и удаление атрибутов узлов.
//   - Обход поддерева и поиск узлов по предикату.
//   - Проверка принадлежности узла дереву (узел "прикреплен" к корню).
//   - Перемещение, обертывание и развертывание узлов без нарушения связей.
//   - Разбор HTML-фрагментов и рендеринг поддеревьев обратно в разметку.
package dom

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Zwsp - невидимый символ, который оставляется в пустых пунктах чеклиста, чтобы курсору было куда встать.
const Zwsp = "\u200b"

var renderableTags = []string{"br", "img", "hr", "input", "table", "iframe", "video", "audio", "canvas", "svg", "embed", "object"}

// InlineTags - элементы, которые могут стоять в строке текста.
var InlineTags = []string{"a", "strong", "b", "em", "i", "u", "s", "strike", "del", "code", "span", "mark", "sub", "sup", "br", "img", "input"}

// Walk обходит поддерево в порядке документа. Если f возвращает true, потомки узла не обходятся.
func Walk(node *html.Node, f func(n *html.Node) bool) {
	if node == nil {
		return
	}
	if f(node) {
		return
	}
	for c := node.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, f)
		c = next
	}
}

// Find возвращает первый узел поддерева, удовлетворяющий предикату.
func Find(root *html.Node, pred func(n *html.Node) bool) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if found != nil {
			return true
		}
		if pred(n) {
			found = n
			return true
		}
		return false
	})
	return found
}

// FindAll возвращает все узлы поддерева, удовлетворяющие предикату, в порядке документа.
func FindAll(root *html.Node, pred func(n *html.Node) bool) []*html.Node {
	var res []*html.Node
	Walk(root, func(n *html.Node) bool {
		if pred(n) {
			res = append(res, n)
		}
		return false
	})
	return res
}

func GetAttr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func HasAttr(n *html.Node, key string) bool {
	if n == nil {
		return false
	}
	return slices.ContainsFunc(n.Attr, func(attr html.Attribute) bool {
		return attr.Key == key
	})
}

// SetAttr устанавливает значение атрибута и сообщает, изменилось ли что-нибудь.
func SetAttr(n *html.Node, key, val string) bool {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			if n.Attr[i].Val == val {
				return false
			}
			n.Attr[i].Val = val
			return true
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	return true
}

// RemoveAttr удаляет атрибут и сообщает, был ли он.
func RemoveAttr(n *html.Node, key string) bool {
	before := len(n.Attr)
	n.Attr = slices.DeleteFunc(n.Attr, func(attr html.Attribute) bool {
		return attr.Key == key
	})
	return len(n.Attr) != before
}

// IsElement проверяет, что узел - элемент с одним из указанных тегов. Без тегов проверяет только тип узла.
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return len(tags) == 0 || slices.Contains(tags, n.Data)
}

// IsInline сообщает, является ли узел текстом или строчным элементом.
func IsInline(n *html.Node) bool {
	return n != nil && (n.Type == html.TextNode || IsElement(n, InlineTags...))
}

func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

func NewText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// Placeholder создает пустой параграф с переносом строки - минимальное содержимое блока.
func Placeholder() *html.Node {
	p := NewElement("p")
	p.AppendChild(NewElement("br"))
	return p
}

// Rename меняет тег элемента, сохраняя атрибуты и потомков.
func Rename(n *html.Node, tag string) {
	n.Data = tag
	n.DataAtom = atom.Lookup([]byte(tag))
}

// IsAttached сообщает, достижим ли root из узла по цепочке родителей.
func IsAttached(n, root *html.Node) bool {
	if n == nil || root == nil {
		return false
	}
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// Closest возвращает ближайшего предка (включая сам узел) до stop, удовлетворяющего предикату.
func Closest(n, stop *html.Node, pred func(n *html.Node) bool) *html.Node {
	for p := n; p != nil && p != stop; p = p.Parent {
		if pred(p) {
			return p
		}
	}
	return nil
}

func IsWhitespaceText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode && strings.TrimSpace(strings.ReplaceAll(n.Data, Zwsp, "")) == ""
}

// HasRenderableContent сообщает, есть ли в поддереве что-то видимое: непустой текст или
// "пустой" элемент вроде <br>, <img>, <hr>. Пустой параграф с <br> считается содержимым.
func HasRenderableContent(n *html.Node) bool {
	return Find(n, func(c *html.Node) bool {
		if c == n {
			return false
		}
		switch c.Type {
		case html.TextNode:
			return strings.TrimSpace(c.Data) != ""
		case html.ElementNode:
			return slices.Contains(renderableTags, c.Data)
		}
		return false
	}) != nil
}

// TextContent собирает текст поддерева без разметки.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return false
	})
	return strings.ReplaceAll(sb.String(), Zwsp, "")
}

// Detach отсоединяет узел от родителя, если он есть.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// InsertAfter вставляет узел после ref.
func InsertAfter(n, ref *html.Node) {
	Detach(n)
	if ref.NextSibling != nil {
		ref.Parent.InsertBefore(n, ref.NextSibling)
	} else {
		ref.Parent.AppendChild(n)
	}
}

// Wrap вставляет wrapper на место узла и переносит узел внутрь.
func Wrap(n, wrapper *html.Node) {
	n.Parent.InsertBefore(wrapper, n)
	n.Parent.RemoveChild(n)
	wrapper.AppendChild(n)
}

// Unwrap заменяет узел его потомками.
func Unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

// MoveChildren переносит всех потомков src в конец dst.
func MoveChildren(dst, src *html.Node) {
	for c := src.FirstChild; c != nil; {
		next := c.NextSibling
		src.RemoveChild(c)
		dst.AppendChild(c)
		c = next
	}
}

// ReplaceChildren удаляет потомков parent и добавляет nodes.
func ReplaceChildren(parent *html.Node, nodes []*html.Node) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		parent.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		Detach(n)
		parent.AppendChild(n)
	}
}

// Children возвращает снимок списка непосредственных потомков.
func Children(n *html.Node) []*html.Node {
	var res []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		res = append(res, c)
	}
	return res
}

// Index возвращает позицию узла среди братьев.
func Index(n *html.Node) int {
	i := 0
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		i++
	}
	return i
}

func ChildAt(n *html.Node, i int) *html.Node {
	if i < 0 {
		return nil
	}
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

// Clone делает глубокую копию поддерева. Копия не прикреплена ни к какому дереву.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      slices.Clone(n.Attr),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// Path возвращает индексы потомков от root до узла. ok == false, если узел не в дереве root.
func Path(n, root *html.Node) ([]int, bool) {
	var path []int
	p := n
	for ; p != nil && p != root; p = p.Parent {
		path = append(path, Index(p))
	}
	if p != root {
		return nil, false
	}
	slices.Reverse(path)
	return path, true
}

// Resolve находит узел по пути, полученному из Path.
func Resolve(root *html.Node, path []int) *html.Node {
	n := root
	for _, i := range path {
		n = ChildAt(n, i)
		if n == nil {
			return nil
		}
	}
	return n
}

// ComparePaths сравнивает позиции узлов в порядке документа.
func ComparePaths(a, b []int) int {
	return slices.Compare(a, b)
}
