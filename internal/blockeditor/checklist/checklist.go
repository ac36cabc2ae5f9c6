// Пакет классифицирует списки и пункты списков как обычные или чеклисты.
//
// Единственный источник истины - наличие <input type="checkbox"> среди непосредственных потомков пункта.
// Атрибуты data-type/data-checked выводятся из структуры и никогда не считаются первичными:
// Normalize можно вызывать сколько угодно раз, повторный вызов ничего не меняет.
package checklist

import (
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	"golang.org/x/net/html"
)

func IsCheckbox(n *html.Node) bool {
	return dom.IsElement(n, "input") && dom.GetAttr(n, "type") == "checkbox"
}

func IsList(n *html.Node) bool {
	return dom.IsElement(n, "ul", "ol")
}

// Checkbox возвращает чекбокс пункта списка или nil.
func Checkbox(li *html.Node) *html.Node {
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if IsCheckbox(c) {
			return c
		}
	}
	return nil
}

// Items возвращает пункты списка - только непосредственные <li>.
func Items(list *html.Node) []*html.Node {
	var res []*html.Node
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsElement(c, "li") {
			res = append(res, c)
		}
	}
	return res
}

// IsChecklist сообщает, есть ли в списке хотя бы один пункт с чекбоксом.
func IsChecklist(list *html.Node) bool {
	for _, li := range Items(list) {
		if Checkbox(li) != nil {
			return true
		}
	}
	return false
}

// Normalize приводит классификацию всех списков поддерева в соответствие со структурой.
// Возвращает true, если дерево изменилось.
func Normalize(root *html.Node) bool {
	changed := false
	for _, li := range dom.FindAll(root, func(n *html.Node) bool { return dom.IsElement(n, "li") }) {
		if normalizeItem(li) {
			changed = true
		}
	}
	for _, list := range dom.FindAll(root, IsList) {
		if classifyList(list) {
			changed = true
		}
	}
	return changed
}

func normalizeItem(li *html.Node) bool {
	box := Checkbox(li)
	if box == nil {
		removed := dom.RemoveAttr(li, edtypes.AttrListType)
		return dom.RemoveAttr(li, edtypes.AttrChecked) || removed
	}

	changed := dom.SetAttr(li, edtypes.AttrListType, edtypes.ItemTypeTask)
	checked := "false"
	if dom.HasAttr(box, "checked") {
		checked = "true"
	}
	if dom.SetAttr(li, edtypes.AttrChecked, checked) {
		changed = true
	}

	// после чекбокса должен быть узел с текстом, иначе курсору некуда встать
	hasText := false
	for c := box.NextSibling; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode || (c.Type == html.ElementNode && !IsCheckbox(c)) {
			hasText = true
			break
		}
	}
	if !hasText {
		li.AppendChild(dom.NewText(dom.Zwsp))
		changed = true
	}
	return changed
}

func classifyList(list *html.Node) bool {
	if IsChecklist(list) {
		return dom.SetAttr(list, edtypes.AttrListType, edtypes.ListTypeTask)
	}
	if dom.GetAttr(list, edtypes.AttrListType) == edtypes.ListTypeTask {
		return dom.RemoveAttr(list, edtypes.AttrListType)
	}
	return false
}

// Convert массово превращает список в чеклист (toChecklist) или обратно: каждый пункт получает
// или теряет чекбокс, затем классификация списка выставляется один раз.
func Convert(list *html.Node, toChecklist bool) {
	for _, li := range Items(list) {
		if toChecklist {
			if Checkbox(li) == nil {
				box := dom.NewElement("input", html.Attribute{Key: "type", Val: "checkbox"})
				if li.FirstChild != nil {
					li.InsertBefore(box, li.FirstChild)
				} else {
					li.AppendChild(box)
				}
			}
		} else {
			for c := li.FirstChild; c != nil; {
				next := c.NextSibling
				if IsCheckbox(c) || (c.Type == html.TextNode && c.Data == dom.Zwsp) {
					li.RemoveChild(c)
				}
				c = next
			}
			if li.FirstChild == nil {
				li.AppendChild(dom.NewElement("br"))
			}
		}
		normalizeItem(li)
	}
	classifyList(list)
}

// SetChecked отмечает или снимает отметку пункта чеклиста. Возвращает false, если у пункта нет чекбокса.
func SetChecked(li *html.Node, checked bool) bool {
	box := Checkbox(li)
	if box == nil {
		return false
	}
	if checked {
		dom.SetAttr(box, "checked", "")
	} else {
		dom.RemoveAttr(box, "checked")
	}
	normalizeItem(li)
	return true
}
