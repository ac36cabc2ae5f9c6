// Пакет содержит общие типы блочного редактора: команды форматирования, форматы, заголовки,
// описания блоков и пользовательских вставок, а также кодек полезной нагрузки пользовательских блоков.
package edtypes

import (
	"slices"
	"strings"
)

// Атрибуты разметки, которыми редактор помечает блоки и пользовательские вставки.
const (
	AttrBlock        = "data-block"
	AttrBlockID      = "data-block-id"
	AttrBlockType    = "data-block-type"
	AttrBlockPayload = "data-block-payload"

	AttrListType = "data-type"
	AttrChecked  = "data-checked"

	ListTypeTask = "taskList"
	ItemTypeTask = "taskItem"
)

// DefaultBlockType - тип обычного текстового блока.
const DefaultBlockType = "text"

type Command string

const (
	CmdBold       Command = "bold"
	CmdItalic     Command = "italic"
	CmdUnderline  Command = "underline"
	CmdStrike     Command = "strike"
	CmdCode       Command = "code"
	CmdBulletList Command = "ul"
	CmdOrdered    Command = "ol"
	CmdQuote      Command = "blockquote"
	CmdChecklist  Command = "checklist"
	CmdHeading    Command = "heading"
	CmdH1         Command = "h1"
	CmdH2         Command = "h2"
	CmdH3         Command = "h3"
	CmdParagraph  Command = "paragraph"
	CmdUndo       Command = "undo"
	CmdRedo       Command = "redo"
	CmdLink       Command = "link"
	CmdRule       Command = "hr"
	CmdNewBlock   Command = "newBlock"
)

var commands = []Command{
	CmdBold, CmdItalic, CmdUnderline, CmdStrike, CmdCode,
	CmdBulletList, CmdOrdered, CmdQuote, CmdChecklist,
	CmdHeading, CmdH1, CmdH2, CmdH3, CmdParagraph,
	CmdUndo, CmdRedo, CmdLink, CmdRule, CmdNewBlock,
}

// ParseCommand нормализует имя команды. Второе значение false, если команда неизвестна.
func ParseCommand(raw string) (Command, bool) {
	cmd := Command(strings.TrimSpace(raw))
	return cmd, slices.Contains(commands, cmd)
}

// InlineTag возвращает тег для строчного форматирования.
func (c Command) InlineTag() string {
	switch c {
	case CmdBold:
		return "strong"
	case CmdItalic:
		return "em"
	case CmdUnderline:
		return "u"
	case CmdStrike:
		return "s"
	case CmdCode:
		return "code"
	}
	return ""
}

// HeadingLevel возвращает уровень заголовка для команд h1..h3 или 0.
func (c Command) HeadingLevel() int {
	switch c {
	case CmdH1:
		return 1
	case CmdH2:
		return 2
	case CmdH3:
		return 3
	}
	return 0
}

type Format string

const (
	FormatBold       Format = "bold"
	FormatItalic     Format = "italic"
	FormatUnderline  Format = "underline"
	FormatStrike     Format = "strike"
	FormatCode       Format = "code"
	FormatLink       Format = "link"
	FormatH1         Format = "h1"
	FormatH2         Format = "h2"
	FormatH3         Format = "h3"
	FormatBulletList Format = "ul"
	FormatOrdered    Format = "ol"
	FormatChecklist  Format = "checklist"
	FormatQuote      Format = "blockquote"
)

// FormatSet - множество форматов, активных в позиции курсора.
type FormatSet map[Format]struct{}

func (s FormatSet) Has(f Format) bool {
	_, ok := s[f]
	return ok
}

// Sorted возвращает форматы в стабильном порядке.
func (s FormatSet) Sorted() []Format {
	res := make([]Format, 0, len(s))
	for f := range s {
		res = append(res, f)
	}
	slices.Sort(res)
	return res
}

// Format возвращает формат, который включает команда, или пустую строку.
func (c Command) Format() Format {
	switch c {
	case CmdBold, CmdItalic, CmdUnderline, CmdStrike, CmdCode, CmdLink:
		return Format(c)
	case CmdH1, CmdH2, CmdH3:
		return Format(c)
	case CmdBulletList:
		return FormatBulletList
	case CmdOrdered:
		return FormatOrdered
	case CmdChecklist:
		return FormatChecklist
	case CmdQuote:
		return FormatQuote
	}
	return ""
}

type Heading struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
	Text  string `json:"text"`
}

type BlockInfo struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Link - аргумент команды link. Пустой Href снимает ссылку.
type Link struct {
	Href string
	Text string
}
