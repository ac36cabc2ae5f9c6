package editor

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/checklist"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/cursor"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	stack_error "github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/stack-error"
	"golang.org/x/net/html"
)

// recompute пересчитывает активный блок и набор форматов по якорю выделения.
func (e *Editor) recompute() {
	anchor := e.cursor.Selection().Anchor.Node
	e.activeBlock = e.blockOf(anchor)
	e.activeFormats = e.formatsAt(anchor)
}

func (e *Editor) formatsAt(n *html.Node) edtypes.FormatSet {
	set := make(edtypes.FormatSet)
	if !dom.IsAttached(n, e.root) {
		return set
	}
	for p := n; p != nil && p != e.root; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		var f edtypes.Format
		switch p.Data {
		case "strong", "b":
			f = edtypes.FormatBold
		case "em", "i":
			f = edtypes.FormatItalic
		case "u":
			f = edtypes.FormatUnderline
		case "s", "strike", "del":
			f = edtypes.FormatStrike
		case "code":
			f = edtypes.FormatCode
		case "a":
			f = edtypes.FormatLink
		case "h1", "h2", "h3":
			f = edtypes.Format(p.Data)
		case "blockquote":
			f = edtypes.FormatQuote
		case "ul", "ol":
			switch {
			case checklist.IsChecklist(p):
				f = edtypes.FormatChecklist
			case p.Data == "ul":
				f = edtypes.FormatBulletList
			default:
				f = edtypes.FormatOrdered
			}
		}
		if f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}

// SetSelection сообщает редактору о смене выделения.
func (e *Editor) SetSelection(sel cursor.Selection) {
	e.cursor.Select(sel)
	e.recompute()
}

func (e *Editor) Selection() cursor.Selection {
	return e.cursor.Selection()
}

// QueryActiveFormat сообщает, включен ли формат команды в позиции курсора.
// Для heading подходит любой уровень заголовка.
func (e *Editor) QueryActiveFormat(cmd edtypes.Command) bool {
	if cmd == edtypes.CmdHeading {
		return e.activeFormats.Has(edtypes.FormatH1) || e.activeFormats.Has(edtypes.FormatH2) || e.activeFormats.Has(edtypes.FormatH3)
	}
	f := cmd.Format()
	return f != "" && e.activeFormats.Has(f)
}

func (e *Editor) ActiveFormats() []edtypes.Format {
	return e.activeFormats.Sorted()
}

// ActiveBlock возвращает блок под курсором.
func (e *Editor) ActiveBlock() (edtypes.BlockInfo, bool) {
	if e.activeBlock == nil || !dom.IsAttached(e.activeBlock, e.root) {
		return edtypes.BlockInfo{}, false
	}
	return edtypes.BlockInfo{
		ID:   dom.GetAttr(e.activeBlock, edtypes.AttrBlockID),
		Type: dom.GetAttr(e.activeBlock, edtypes.AttrBlockType),
	}, true
}

// GetHeadings возвращает оглавление документа.
func (e *Editor) GetHeadings() []edtypes.Heading {
	var res []edtypes.Heading
	for _, h := range dom.FindAll(e.root, isHeading) {
		level, _ := strconv.Atoi(strings.TrimPrefix(h.Data, "h"))
		res = append(res, edtypes.Heading{
			ID:    dom.GetAttr(h, "id"),
			Level: level,
			Text:  strings.TrimSpace(dom.TextContent(h)),
		})
	}
	return res
}

// ScrollToHeading ставит курсор в начало заголовка с идентификатором id.
func (e *Editor) ScrollToHeading(id string) bool {
	if id == "" {
		return false
	}
	h := dom.Find(e.root, func(n *html.Node) bool {
		return isHeading(n) && dom.GetAttr(n, "id") == id
	})
	if h == nil {
		return false
	}
	e.cursor.PositionCursorInElement(h, cursor.Start)
	e.recompute()
	return true
}

// ApplyInput применяет правку пользователя к живому дереву. fn меняет дерево и возвращает
// затронутые узлы; после нее структура восстанавливается и изменения отправляются хосту.
func (e *Editor) ApplyInput(fn func(root *html.Node) []*html.Node) (err error) {
	if !e.ready() {
		return nil
	}
	defer e.recoverOperation("input", &err)

	touched := fn(e.root)
	e.Enforce(true, false)
	e.markDirty(touched...)
	e.recompute()
	e.emit()
	return nil
}

// Paste вставляет очищенную разметку: строчные узлы - в позицию курсора,
// блочные - отдельными блоками после активного.
func (e *Editor) Paste(markup string) (err error) {
	if !e.ready() {
		return nil
	}
	release, err := e.acquire("paste")
	if err != nil {
		return err
	}
	defer release()
	defer e.recoverOperation("paste", &err)

	nodes, err := dom.ParseFragment(e.sanitizer.Sanitize(markup))
	if err != nil {
		stack_error.LogError(e.log, slog.LevelWarn, "Parse pasted markup", stack_error.TrackErrorStack(err))
		return nil
	}
	active := e.ensureSelectionInBlock()
	if active == nil || len(nodes) == 0 {
		return nil
	}
	// идентификаторы из буфера обмена не переносятся ни на блоки, ни на вложенные вставки
	for _, n := range nodes {
		dropBlockIDs(n)
	}

	inline := true
	for _, n := range nodes {
		if !dom.IsInline(n) {
			inline = false
			break
		}
	}

	if inline {
		for _, n := range nodes {
			if !e.dispatcher.InsertAtCaret(n) {
				break
			}
			e.cursor.PositionCursorInElement(n, cursor.End)
		}
	} else {
		ref := active
		for _, n := range nodes {
			if dom.IsWhitespaceText(n) {
				continue
			}
			dom.InsertAfter(n, ref)
			ref = n
		}
		if isEmptyTextBlock(active) {
			dom.Detach(active)
		}
		e.Enforce(false, false)
		e.cursor.PositionCursorInElement(e.blockOf(ref), cursor.End)
	}

	e.extractPayloads()
	e.Enforce(true, false)
	e.mergeAdjacentLists()
	e.markDirty(nodes...)
	e.recompute()
	e.emit()
	return nil
}

func dropBlockIDs(node *html.Node) {
	dom.Walk(node, func(n *html.Node) bool {
		if dom.IsElement(n) {
			dom.RemoveAttr(n, edtypes.AttrBlockID)
		}
		return false
	})
}
