package editor

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/apierrors"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/checklist"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/cursor"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	policy "github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/redactor-policy"
	stack_error "github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/stack-error"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/utils"
	"golang.org/x/net/html"
)

var headingTags = []string{"h1", "h2", "h3"}

func isHeading(n *html.Node) bool {
	return dom.IsElement(n, headingTags...)
}

// acquire захватывает блокировку команды. Повторный вызов во время синхронной фазы
// другой команды отклоняется.
func (e *Editor) acquire(op string) (func(), error) {
	if !e.commandLock.TryAcquire(1) {
		e.log.Warn("Command dropped: another command is in progress", "command", op)
		return nil, apierrors.ErrCommandInProgress
	}
	return func() { e.commandLock.Release(1) }, nil
}

// recoverOperation превращает панику примитива в ошибку и восстанавливает минимальную структуру.
func (e *Editor) recoverOperation(op string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	te := stack_error.FromPanic(r).AddContext("command", op)
	stack_error.LogError(e.log, slog.LevelError, "Editor operation failed", te)
	e.Enforce(false, true)
	*err = te
}

// Execute выполняет команду форматирования над текущим выделением:
// курсор переносится в блок, разметка блока проходит санитайзер, применяется примитив,
// структура восстанавливается, списки склеиваются, изменения отправляются хосту.
//
// Если редактор выключен или снят со страницы, команда молча пропускается.
func (e *Editor) Execute(command edtypes.Command, arg any) (err error) {
	if !e.ready() {
		e.log.Debug("Skip command: editor is not ready", "command", command)
		return nil
	}
	cmd, ok := edtypes.ParseCommand(string(command))
	if !ok {
		e.log.Warn("Unknown command", "command", command)
		return apierrors.ErrUnknownCommand.WithFormattedMessage(command)
	}

	release, err := e.acquire(string(cmd))
	if err != nil {
		return err
	}
	defer release()
	defer e.recoverOperation(string(cmd), &err)

	switch cmd {
	case edtypes.CmdUndo, edtypes.CmdRedo:
		e.undoRedo(cmd)
		return nil
	}

	block := e.ensureSelectionInBlock()
	if block == nil {
		e.log.Debug("Skip command: no block for selection", "command", cmd)
		return nil
	}
	e.sanitizeBlock(block)

	touched, err := e.dispatch(cmd, arg)
	if err != nil {
		return err
	}

	e.Enforce(true, false)
	e.mergeAdjacentLists()
	e.markDirty(touched, block)
	e.recompute()
	e.emit()
	return nil
}

func (e *Editor) undoRedo(cmd edtypes.Command) {
	e.restoring = true
	defer func() { e.restoring = false }()

	var ok bool
	if cmd == edtypes.CmdUndo {
		ok = e.history.Undo()
	} else {
		ok = e.history.Redo()
	}
	if !ok {
		e.log.Debug("Nothing to restore", "command", cmd)
		return
	}
	e.recompute()
	e.emit()
}

// ensureSelectionInBlock возвращает блок под курсором, при необходимости восстанавливая структуру.
func (e *Editor) ensureSelectionInBlock() *html.Node {
	if b := e.blockOf(e.cursor.Selection().Anchor.Node); b != nil {
		return b
	}
	e.Enforce(false, true)
	return e.blockOf(e.cursor.Selection().Anchor.Node)
}

// sanitizeBlock пропускает разметку блока через санитайзер и заменяет содержимое,
// только если санитайзер что-то убрал.
func (e *Editor) sanitizeBlock(block *html.Node) {
	before := dom.Render(block)
	nodes, err := dom.ParseFragment(e.sanitizer.Sanitize(before))
	if err != nil || len(nodes) != 1 || !dom.IsElement(nodes[0], block.Data) {
		return
	}
	if dom.Render(nodes[0]) == before {
		return
	}

	tok := e.cursor.SaveCursorPosition(e.root)
	dom.ReplaceChildren(block, dom.Children(nodes[0]))
	if !e.cursor.RestoreCursorPosition(e.root, tok) {
		e.cursor.PositionCursorInElement(block, cursor.End)
	}
	e.log.Debug("Block markup sanitized", "block", dom.GetAttr(block, edtypes.AttrBlockID))
}

// dispatch применяет примитив команды и возвращает узел, который нужно проверить нормализатором.
func (e *Editor) dispatch(cmd edtypes.Command, arg any) (*html.Node, error) {
	switch cmd {
	case edtypes.CmdBold, edtypes.CmdItalic, edtypes.CmdUnderline, edtypes.CmdStrike, edtypes.CmdCode:
		e.dispatcher.ApplyInlineStyle(cmd.InlineTag())
	case edtypes.CmdBulletList, edtypes.CmdOrdered:
		e.dispatcher.ToggleListType(string(cmd))
		return e.cursor.Selection().Anchor.Node, nil
	case edtypes.CmdChecklist:
		e.dispatcher.ToggleChecklistState()
		return e.cursor.Selection().Anchor.Node, nil
	case edtypes.CmdQuote:
		e.dispatcher.ApplyBlockFormat("blockquote")
	case edtypes.CmdParagraph:
		e.dispatcher.ApplyBlockFormat("p")
	case edtypes.CmdH1, edtypes.CmdH2, edtypes.CmdH3:
		e.applyHeading(cmd.HeadingLevel())
	case edtypes.CmdHeading:
		level, ok := headingLevel(arg)
		if !ok {
			e.log.Warn("Invalid heading level", "level", arg)
			return nil, apierrors.ErrUnknownCommand.WithFormattedMessage(fmt.Sprintf("heading(%v)", arg))
		}
		e.applyHeading(level)
	case edtypes.CmdRule:
		e.dispatcher.InsertHorizontalRule()
	case edtypes.CmdLink:
		e.applyLink(arg)
	case edtypes.CmdNewBlock:
		e.insertBlockAfter(nil)
	}
	return nil, nil
}

func headingLevel(arg any) (int, bool) {
	var level int
	switch v := arg.(type) {
	case int:
		level = v
	case float64:
		level = int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(v)), "h"))
		if err != nil {
			return 0, false
		}
		level = n
	default:
		return 0, false
	}
	return level, level >= 1 && level <= 3
}

// applyHeading меняет формат строки синхронно, а идентификатор заголовка назначает
// отложенной задачей после того, как курсор займет свое место.
func (e *Editor) applyHeading(level int) {
	e.dispatcher.ApplyBlockFormat("h" + strconv.Itoa(level))

	block := e.blockOf(e.cursor.Selection().Anchor.Node)
	heading := dom.Closest(e.cursor.Selection().Anchor.Node, e.root, isHeading)
	if block == nil || heading == nil || dom.GetAttr(heading, "id") != "" {
		return
	}
	blockID := dom.GetAttr(block, edtypes.AttrBlockID)
	e.sched.Schedule(e.key("heading:"+blockID), e.cfg.HeadingIDDelay(), func() {
		e.assignHeadingID(heading)
	})
}

// assignHeadingID выполняет отложенную фазу: идентификатор пишется, только если редактор
// все еще на странице, узел в дереве, остался заголовком и идентификатора у него нет.
func (e *Editor) assignHeadingID(heading *html.Node) {
	if !e.ready() || !dom.IsAttached(heading, e.root) || !isHeading(heading) || dom.GetAttr(heading, "id") != "" {
		e.log.Debug("Heading id assignment aborted")
		return
	}
	taken := utils.SliceToSet(utils.SliceToSlice(e.GetHeadings(), func(h edtypes.Heading) string { return h.ID }))
	id := utils.UniqueName(e.dispatcher.GenerateHeadingID(dom.TextContent(heading)), taken)
	dom.SetAttr(heading, "id", id)
	e.emit()
}

func linkArg(arg any) (edtypes.Link, bool) {
	switch v := arg.(type) {
	case string:
		return edtypes.Link{Href: v}, true
	case edtypes.Link:
		return v, true
	case *edtypes.Link:
		if v != nil {
			return *v, true
		}
	}
	return edtypes.Link{}, false
}

// safeHref пропускает относительные адреса и схемы http, https, mailto.
func safeHref(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return true
	}
	return false
}

func (e *Editor) applyLink(arg any) {
	link, ok := linkArg(arg)
	if !ok && e.host != nil {
		var v any
		if v, ok = e.host(HostRequest{Command: edtypes.CmdLink}); ok {
			link, ok = linkArg(v)
		}
	}
	if !ok {
		e.log.Debug("Link command canceled")
		return
	}
	link.Href = strings.TrimSpace(link.Href)
	if !safeHref(link.Href) {
		e.log.Warn("Unsafe link rejected", "href", link.Href)
		return
	}

	a := e.dispatcher.ApplyLink(link.Href, policy.PlainText(link.Text))
	if a == nil {
		return
	}
	e.sched.Schedule(e.key("caret:link"), e.cfg.CaretDelay(), func() {
		if e.ready() && dom.IsAttached(a, e.root) {
			e.cursor.PositionCursorInElement(a, cursor.End)
			e.recompute()
		}
	})
}

// mergeAdjacentLists склеивает соседние списки одного вида внутри одного родителя.
func (e *Editor) mergeAdjacentLists() {
	for _, list := range dom.FindAll(e.root, checklist.IsList) {
		if !dom.IsAttached(list, e.root) {
			continue
		}
		for {
			next := list.NextSibling
			for next != nil && dom.IsWhitespaceText(next) {
				next = next.NextSibling
			}
			if !dom.IsElement(next, list.Data) || checklist.IsChecklist(next) != checklist.IsChecklist(list) {
				break
			}
			dom.MoveChildren(list, next)
			dom.Detach(next)
		}
	}
}
