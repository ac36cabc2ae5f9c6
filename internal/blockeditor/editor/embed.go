package editor

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/apierrors"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/cursor"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	stack_error "github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/stack-error"
	"golang.org/x/net/html"
)

// Блочные вставки, после которых в конце документа нужен пустой блок для продолжения ввода.
var trailingBlockTypes = []string{"table", "image", "snapshot"}

// InsertCustomBlock вставляет пользовательский блок типа typ. Если payload == nil, данные
// запрашиваются у хоста; отказ хоста отменяет вставку без ошибки.
//
// Разметка, корень которой помечен data-block, встает отдельным блоком после активного,
// строчная вставка - в позицию курсора, остальное оборачивается в новый блок.
// Пустой активный текстовый блок заменяется вставкой.
func (e *Editor) InsertCustomBlock(typ string, payload any) (err error) {
	desc, ok := e.descriptors[typ]
	if !ok {
		e.log.Warn("No descriptor for custom block", "type", typ)
		return apierrors.ErrNoDescriptor.WithFormattedMessage(typ)
	}
	if !e.ready() {
		e.log.Debug("Skip custom block: editor is not ready", "type", typ)
		return nil
	}

	release, err := e.acquire("insert " + typ)
	if err != nil {
		return err
	}
	defer release()
	defer e.recoverOperation("insert "+typ, &err)

	if payload == nil && e.host != nil {
		v, ok := e.host(HostRequest{BlockType: typ})
		if !ok {
			e.log.Debug("Custom block insert canceled", "type", typ)
			return nil
		}
		payload = v
	}

	markup, err := desc.Render(payload)
	if err != nil {
		te := stack_error.TrackErrorStack(err).AddContext("type", typ)
		stack_error.LogError(e.log, slog.LevelWarn, "Render custom block", te)
		return fmt.Errorf("%w: %w", apierrors.ErrRenderFailed.WithFormattedMessage(typ), err)
	}
	nodes, err := dom.ParseFragment(e.sanitizer.Sanitize(markup))
	if err != nil {
		return fmt.Errorf("%w: %w", apierrors.ErrRenderFailed.WithFormattedMessage(typ), err)
	}
	nodes = slices.DeleteFunc(nodes, func(n *html.Node) bool {
		return n.Type != html.ElementNode && (n.Type != html.TextNode || dom.IsWhitespaceText(n))
	})
	if len(nodes) == 0 {
		return apierrors.ErrRenderFailed.WithFormattedMessage(typ)
	}

	active := e.ensureSelectionInBlock()
	if active == nil {
		return nil
	}

	var top *html.Node
	switch {
	case len(nodes) == 1 && dom.HasAttr(nodes[0], edtypes.AttrBlock):
		top = nodes[0]
		dom.SetAttr(top, edtypes.AttrBlockID, e.nextID())
		e.placeBlock(top, active)
	case desc.Inline:
		top = nodes[0]
		if len(nodes) > 1 || top.Type != html.ElementNode {
			top = dom.NewElement("span")
			for _, n := range nodes {
				top.AppendChild(n)
			}
		}
		dom.SetAttr(top, edtypes.AttrBlockID, e.nextID())
		if !e.dispatcher.InsertAtCaret(top) {
			return apierrors.ErrRenderFailed.WithFormattedMessage(typ)
		}
	default:
		top = e.newBlock(typ)
		for _, n := range nodes {
			top.AppendChild(n)
		}
		e.placeBlock(top, active)
	}
	dom.SetAttr(top, edtypes.AttrBlockType, typ)
	id := dom.GetAttr(top, edtypes.AttrBlockID)

	if payload != nil {
		encoded, err := edtypes.EncodePayload(payload)
		if err != nil {
			stack_error.LogError(e.log, slog.LevelDebug, "Encode custom block payload", stack_error.TrackErrorStack(err).AddContext("type", typ))
		} else {
			e.payloads[id] = encoded
		}
	}

	caretTarget, edge := top, cursor.End
	if e.isBlock(top) {
		if slices.Contains(trailingBlockTypes, typ) && nextBlock(top) == nil {
			trailing := e.newBlock(edtypes.DefaultBlockType)
			trailing.AppendChild(dom.Placeholder())
			dom.InsertAfter(trailing, top)
		}
		if next := nextBlock(top); next != nil {
			caretTarget, edge = next, cursor.Start
		}
	}
	if e.blockOf(e.cursor.Selection().Anchor.Node) == nil {
		e.cursor.PositionCursorInElement(top, cursor.End)
	}
	e.sched.Schedule(e.key("caret:"+id), e.cfg.CaretDelay(), func() {
		if e.ready() && dom.IsAttached(caretTarget, e.root) {
			e.cursor.PositionCursorInElement(caretTarget, edge)
			e.recompute()
		}
	})

	e.Enforce(true, false)
	e.markDirty(top)
	e.recompute()
	e.emit()
	e.log.Debug("Custom block inserted", "type", typ, "id", id)
	return nil
}

// placeBlock ставит блок после активного; пустой текстовый активный блок заменяется.
func (e *Editor) placeBlock(block, active *html.Node) {
	dom.InsertAfter(block, active)
	if isEmptyTextBlock(active) {
		dom.Detach(active)
	}
}

func isEmptyTextBlock(b *html.Node) bool {
	if dom.GetAttr(b, edtypes.AttrBlockType) != edtypes.DefaultBlockType {
		return false
	}
	if strings.TrimSpace(dom.TextContent(b)) != "" {
		return false
	}
	return dom.Find(b, func(n *html.Node) bool {
		return dom.IsElement(n, "img", "hr", "table", "input", "ul", "ol")
	}) == nil
}

func nextBlock(b *html.Node) *html.Node {
	for n := b.NextSibling; n != nil; n = n.NextSibling {
		if dom.IsElement(n) && dom.HasAttr(n, edtypes.AttrBlock) {
			return n
		}
	}
	return nil
}

// ListCustomBlockPayloads возвращает все пользовательские вставки документа в порядке документа.
// Если нагрузку не удалось декодировать, Payload равен nil.
func (e *Editor) ListCustomBlockPayloads() []edtypes.CustomBlockInfo {
	var res []edtypes.CustomBlockInfo
	for _, n := range e.stampedNodes() {
		info := edtypes.CustomBlockInfo{
			ID:   dom.GetAttr(n, edtypes.AttrBlockID),
			Type: dom.GetAttr(n, edtypes.AttrBlockType),
		}
		if encoded, ok := e.payloads[info.ID]; ok {
			raw, err := edtypes.DecodePayload(encoded)
			if err != nil {
				e.log.Debug("Decode custom block payload", "id", info.ID, "err", err)
			} else {
				info.Payload = raw
			}
		}
		res = append(res, info)
	}
	return res
}

// Rehydrate перечитывает полезные нагрузки вставок из разметки через Parse их описаний.
// Ошибки разбора пропускаются, у узла остается прежняя нагрузка.
func (e *Editor) Rehydrate() int {
	n := e.rehydrate()
	if n > 0 {
		e.emit()
	}
	return n
}

func (e *Editor) rehydrate() int {
	updated := 0
	for _, n := range e.stampedNodes() {
		typ := dom.GetAttr(n, edtypes.AttrBlockType)
		desc, ok := e.descriptors[typ]
		if !ok || desc.Parse == nil {
			continue
		}
		id := dom.GetAttr(n, edtypes.AttrBlockID)

		v, err := parseSafe(desc, n)
		if err != nil {
			te := stack_error.TrackErrorStack(err).AddContext("type", typ).AddContext("id", id)
			stack_error.LogError(e.log, slog.LevelDebug, "Parse custom block", te)
			continue
		}
		encoded, err := edtypes.EncodePayload(v)
		if err != nil {
			stack_error.LogError(e.log, slog.LevelDebug, "Encode custom block payload", stack_error.TrackErrorStack(err).AddContext("id", id))
			continue
		}
		if e.payloads[id] != encoded {
			e.payloads[id] = encoded
			updated++
		}
	}
	return updated
}

func parseSafe(desc edtypes.CustomBlockDescriptor, n *html.Node) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = stack_error.FromPanic(r)
		}
	}()
	return desc.Parse(n)
}
