// Пакет реализует примитивы форматирования, которыми пользуется контроллер редактора:
// строчные стили, формат блока, списки, чеклисты, горизонтальная линия и ссылки.
//
// Каждый примитив сам отвечает за восстановление выделения после своей мутации.
// Примитивы не знают о блоках-контейнерах больше, чем нужно для поиска строки под курсором,
// и не запускают нормализацию - это делает вызывающая сторона.
package commands

import (
	"slices"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/checklist"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/cursor"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	"golang.org/x/net/html"
)

// Selector - доступ к выделению поверхности.
type Selector interface {
	Selection() cursor.Selection
	Select(sel cursor.Selection)
	PositionCursorInElement(n *html.Node, edge cursor.Edge)
}

type Dispatcher struct {
	root *html.Node
	sel  Selector
}

func New(root *html.Node, sel Selector) *Dispatcher {
	return &Dispatcher{root: root, sel: sel}
}

var (
	headingTags   = []string{"h1", "h2", "h3"}
	textBlockTags = []string{"p", "h1", "h2", "h3", "pre"}
)

func isHeading(n *html.Node) bool {
	return dom.IsElement(n, headingTags...)
}

func isInline(n *html.Node) bool {
	return dom.IsInline(n)
}

// block возвращает блок-контейнер, в котором находится курсор.
func (d *Dispatcher) block() *html.Node {
	anchor := d.sel.Selection().Anchor.Node
	if anchor == nil || !dom.IsAttached(anchor, d.root) {
		return nil
	}
	return dom.Closest(anchor, d.root, func(n *html.Node) bool {
		return n.Parent == d.root && dom.HasAttr(n, edtypes.AttrBlock)
	})
}

// anchorNode возвращает узел под курсором; для позиции внутри элемента - потомка по смещению.
func (d *Dispatcher) anchorNode() *html.Node {
	a := d.sel.Selection().Anchor
	if a.Node == nil {
		return nil
	}
	if a.Node.Type == html.ElementNode && a.Node.FirstChild != nil {
		if c := dom.ChildAt(a.Node, a.Offset); c != nil {
			return c
		}
		return a.Node.LastChild
	}
	return a.Node
}

// line возвращает непосредственного потомка блока, содержащего курсор.
func (d *Dispatcher) line(block *html.Node) *html.Node {
	n := d.anchorNode()
	if n == nil || n == block {
		return block.FirstChild
	}
	return dom.Closest(n, d.root, func(c *html.Node) bool { return c.Parent == block })
}

// textBlock возвращает ближайший к курсору p/h1-h3/pre. Если строчное содержимое лежит
// прямо в блоке, оно сначала оборачивается в параграф.
func (d *Dispatcher) textBlock(block *html.Node) *html.Node {
	n := d.anchorNode()
	if n == nil {
		return nil
	}
	if tb := dom.Closest(n, block, func(c *html.Node) bool { return dom.IsElement(c, textBlockTags...) }); tb != nil {
		return tb
	}
	if dom.Closest(n, block, func(c *html.Node) bool { return dom.IsElement(c, "li", "table") }) != nil {
		return nil
	}
	line := d.line(block)
	if line == nil || !isInline(line) {
		return nil
	}
	return wrapInlineRun(line)
}

// wrapInlineRun оборачивает в <p> непрерывную цепочку строчных узлов вокруг n.
func wrapInlineRun(n *html.Node) *html.Node {
	first, last := n, n
	for first.PrevSibling != nil && isInline(first.PrevSibling) {
		first = first.PrevSibling
	}
	for last.NextSibling != nil && isInline(last.NextSibling) {
		last = last.NextSibling
	}
	p := dom.NewElement("p")
	first.Parent.InsertBefore(p, first)
	for c := first; ; {
		next := c.NextSibling
		c.Parent.RemoveChild(c)
		p.AppendChild(c)
		if c == last {
			break
		}
		c = next
	}
	return p
}

// ApplyInlineStyle включает или выключает строчный стиль на выделении.
func (d *Dispatcher) ApplyInlineStyle(tag string) bool {
	block := d.block()
	if block == nil || tag == "" {
		return false
	}
	isTag := func(n *html.Node) bool { return dom.IsElement(n, tag) }

	sel := d.sel.Selection()
	if sel.Collapsed() {
		if styled := dom.Closest(sel.Anchor.Node, block, isTag); styled != nil {
			dom.Unwrap(styled)
			return true
		}
		return false
	}

	texts, start, end := d.selectedTexts()
	if len(texts) == 0 {
		return false
	}

	var styled []*html.Node
	for _, t := range texts {
		s := dom.Closest(t, block, isTag)
		if s == nil {
			styled = nil
			break
		}
		styled = append(styled, s)
	}
	if styled != nil {
		seen := make(map[*html.Node]struct{})
		for _, s := range styled {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			dom.Unwrap(s)
		}
		return true
	}

	wrapped := wrapRange(texts, start, end, func() *html.Node { return dom.NewElement(tag) })
	d.selectWrapped(wrapped)
	return len(wrapped) > 0
}

// ApplyBlockFormat задает формат строки под курсором. Для blockquote работает как переключатель,
// для p/h1-h3/pre просто устанавливает тег: повторное применение ничего не меняет.
func (d *Dispatcher) ApplyBlockFormat(tag string) bool {
	block := d.block()
	if block == nil {
		return false
	}

	if tag == "blockquote" {
		if q := dom.Closest(d.anchorNode(), block, func(n *html.Node) bool { return dom.IsElement(n, "blockquote") }); q != nil {
			dom.Unwrap(q)
			return true
		}
		line := d.line(block)
		if line == nil {
			return false
		}
		if isInline(line) {
			line = wrapInlineRun(line)
		}
		dom.Wrap(line, dom.NewElement("blockquote"))
		return true
	}

	tb := d.textBlock(block)
	if tb == nil || tb.Data == tag {
		return false
	}
	if isHeading(tb) && !slices.Contains(headingTags, tag) {
		dom.RemoveAttr(tb, "id")
	}
	dom.Rename(tb, tag)
	return true
}

// ToggleListType превращает строку в список нужного вида, меняет вид списка или снимает список.
func (d *Dispatcher) ToggleListType(kind string) bool {
	block := d.block()
	if block == nil {
		return false
	}

	if li := dom.Closest(d.anchorNode(), block, func(n *html.Node) bool { return dom.IsElement(n, "li") }); li != nil {
		list := li.Parent
		if list.Data == kind {
			d.unwrapList(list)
		} else {
			dom.Rename(list, kind)
		}
		return true
	}

	tb := d.textBlock(block)
	if tb == nil {
		return false
	}
	list := dom.NewElement(kind)
	item := dom.NewElement("li")
	tb.Parent.InsertBefore(list, tb)
	dom.MoveChildren(item, tb)
	if item.FirstChild == nil {
		item.AppendChild(dom.NewElement("br"))
	}
	list.AppendChild(item)
	dom.Detach(tb)
	d.remapDetached(tb, item)
	return true
}

func (d *Dispatcher) unwrapList(list *html.Node) {
	var firstP *html.Node
	for _, li := range checklist.Items(list) {
		var target *html.Node
		if dom.Find(li, func(n *html.Node) bool { return n != li && dom.IsElement(n, textBlockTags...) }) != nil {
			for c := li.FirstChild; c != nil; {
				next := c.NextSibling
				li.RemoveChild(c)
				if !checklist.IsCheckbox(c) && !dom.IsWhitespaceText(c) {
					list.Parent.InsertBefore(c, list)
					if target == nil {
						target = c
					}
				}
				c = next
			}
		} else {
			p := dom.NewElement("p")
			for c := li.FirstChild; c != nil; {
				next := c.NextSibling
				li.RemoveChild(c)
				if !checklist.IsCheckbox(c) && !(c.Type == html.TextNode && c.Data == dom.Zwsp) {
					p.AppendChild(c)
				}
				c = next
			}
			if p.FirstChild == nil {
				p.AppendChild(dom.NewElement("br"))
			}
			list.Parent.InsertBefore(p, list)
			target = p
		}
		if firstP == nil {
			firstP = target
		}
		d.remapDetached(li, target)
	}
	dom.Detach(list)
	d.remapDetached(list, firstP)
}

// remapDetached переносит курсор, указывавший на удаленный элемент, в его замену.
func (d *Dispatcher) remapDetached(old, replacement *html.Node) {
	sel := d.sel.Selection()
	if replacement == nil || (sel.Anchor.Node != old && sel.Focus.Node != old) {
		return
	}
	d.sel.PositionCursorInElement(replacement, cursor.Start)
}

// ToggleChecklistState превращает список под курсором в чеклист или обратно.
// Если курсор не в списке, строка сначала становится маркированным списком.
func (d *Dispatcher) ToggleChecklistState() bool {
	block := d.block()
	if block == nil {
		return false
	}
	isLi := func(n *html.Node) bool { return dom.IsElement(n, "li") }
	li := dom.Closest(d.anchorNode(), block, isLi)
	if li == nil {
		if !d.ToggleListType("ul") {
			return false
		}
		li = dom.Closest(d.anchorNode(), block, isLi)
		if li == nil {
			return false
		}
	}
	list := li.Parent
	checklist.Convert(list, !checklist.IsChecklist(list))
	if !dom.IsAttached(d.sel.Selection().Anchor.Node, d.root) {
		d.sel.PositionCursorInElement(li, cursor.End)
	}
	return true
}

// InsertHorizontalRule вставляет <hr> после строки под курсором и пустой параграф за ним.
func (d *Dispatcher) InsertHorizontalRule() bool {
	block := d.block()
	if block == nil {
		return false
	}
	line := d.line(block)
	if line == nil {
		return false
	}
	hr := dom.NewElement("hr")
	dom.InsertAfter(hr, line)
	p := dom.Placeholder()
	dom.InsertAfter(p, hr)
	d.sel.PositionCursorInElement(p, cursor.Start)
	return true
}

// ApplyLink ставит, меняет или (при пустом href) снимает ссылку. Возвращает элемент ссылки,
// если он остался в дереве.
func (d *Dispatcher) ApplyLink(href, text string) *html.Node {
	block := d.block()
	if block == nil {
		return nil
	}
	if a := dom.Closest(d.sel.Selection().Anchor.Node, block, func(n *html.Node) bool { return dom.IsElement(n, "a") }); a != nil {
		if href == "" {
			dom.Unwrap(a)
			return nil
		}
		dom.SetAttr(a, "href", href)
		return a
	}
	if href == "" {
		return nil
	}
	newLink := func() *html.Node {
		return dom.NewElement("a", html.Attribute{Key: "href", Val: href})
	}

	sel := d.sel.Selection()
	if sel.Collapsed() {
		if text == "" {
			text = href
		}
		a := newLink()
		a.AppendChild(dom.NewText(text))
		if !insertAtCaret(sel.Anchor, a) {
			return nil
		}
		return a
	}

	texts, start, end := d.selectedTexts()
	wrapped := wrapRange(texts, start, end, newLink)
	if len(wrapped) == 0 {
		return nil
	}
	d.selectWrapped(wrapped)
	return wrapped[0]
}

// InsertAtCaret вставляет узел в позицию курсора, разрезая текст при необходимости.
func (d *Dispatcher) InsertAtCaret(n *html.Node) bool {
	if d.block() == nil {
		return false
	}
	return insertAtCaret(d.sel.Selection().Anchor, n)
}

// GenerateHeadingID строит идентификатор заголовка из его текста.
func (d *Dispatcher) GenerateHeadingID(text string) string {
	return Slug(text)
}
