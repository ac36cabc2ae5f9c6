// Определяет политику санитизации разметки редактора. Все, что попадает в живое дерево или уходит из
// редактора наружу, проходит через эту политику.
//
// Основные возможности:
//   - UGC-политика bluemonday как основа: строчные стили, заголовки, списки, цитаты, ссылки, таблицы, изображения.
//   - Маркеры блоков: data-block, data-block-id, data-block-type и закодированная полезная нагрузка data-block-payload.
//   - Разметка чеклистов: data-type=taskList/taskItem, data-checked и <input type="checkbox">.
//   - Идентификаторы заголовков h1-h3 с буквами любого алфавита.
//   - Ограничение допустимых значений атрибутов и стилей регулярными выражениями.
package policy

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var StripTagsPolicy *bluemonday.Policy = bluemonday.StrictPolicy()

var (
	blockIDRegexp     = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	blockTypeRegexp   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	payloadRegexp     = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)
	headingIDRegexp   = regexp.MustCompile(`^[\p{L}\p{N}_-]+$`)
	colorRegexp       = regexp.MustCompile(`^(#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})|rgb\((\d+),\s*(\d+),\s*(\d+)\)|inherit)$`)
	sizeRegexp        = regexp.MustCompile(`^(\d+(px|em|rem|pt|vh|vw)?|auto|inherit)$`)
	indentClassRegexp = regexp.MustCompile(`^tt-indent-[1-9]$`)
	alignRegexp       = regexp.MustCompile(`^(right|left)$`)
)

// Sanitizer очищает разметку по политике редактора. Безопасен для конкурентного использования.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func New() *Sanitizer {
	return &Sanitizer{policy: newEditorPolicy()}
}

func newEditorPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	blockElements := []string{"div", "span", "a", "img", "table", "figure"}
	p.AllowAttrs("data-block").OnElements(blockElements...)
	p.AllowAttrs("data-block-id").Matching(blockIDRegexp).OnElements(blockElements...)
	p.AllowAttrs("data-block-type").Matching(blockTypeRegexp).OnElements(blockElements...)
	p.AllowAttrs("data-block-payload").Matching(payloadRegexp).OnElements(blockElements...)
	p.AllowAttrs("contenteditable").Matching(regexp.MustCompile(`^false$`)).OnElements("div", "span")

	p.AllowAttrs("id").Matching(headingIDRegexp).OnElements("h1", "h2", "h3")

	p.AllowAttrs("data-type").Matching(regexp.MustCompile("^taskList$")).OnElements("ul", "ol")
	p.AllowAttrs("data-checked").Matching(regexp.MustCompile("^(true|false)$")).OnElements("li")
	p.AllowAttrs("data-type").Matching(regexp.MustCompile("^taskItem$")).OnElements("li")
	p.AllowAttrs("type").Matching(regexp.MustCompile("^checkbox$")).OnElements("input")
	p.AllowAttrs("checked").OnElements("input")
	p.AllowAttrs("start").Matching(regexp.MustCompile(`^\d+$`)).OnElements("ol")

	p.AllowAttrs("class").Matching(indentClassRegexp).OnElements("p")
	p.AllowAttrs("data-color", "style").OnElements("mark")
	p.AllowAttrs("colwidth").OnElements("td", "th")
	p.AllowAttrs("data-rows", "data-cols").Matching(regexp.MustCompile(`^\d+$`)).OnElements("table")

	p.AllowStyles("color", "background-color").Matching(colorRegexp).Globally()
	p.AllowStyles("width", "height").Matching(sizeRegexp).OnElements("img", "table", "td", "th")
	p.AllowStyles("text-align").Matching(bluemonday.CellAlign).Globally()
	p.AllowStyles("float").Matching(alignRegexp).OnElements("img")

	return p
}

func (s *Sanitizer) Sanitize(markup string) string {
	if markup == "" {
		return ""
	}
	return s.policy.Sanitize(markup)
}

// PlainText удаляет всю разметку, оставляя текст.
func PlainText(markup string) string {
	return StripTagsPolicy.Sanitize(markup)
}
