package editor

import (
	"strings"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/apierrors"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/cursor"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/utils"
	"golang.org/x/net/html"
)

// Enforce приводит потомков корня к последовательности блоков:
//   - блокам без идентификатора или с повторным идентификатором выдается новый, пустым блокам - заглушка <p><br></p>;
//   - комментарии и пробельный текст вне блоков удаляются;
//   - каждый остальной узел вне блока оборачивается в свой блок на том же месте,
//     строчный узел дополнительно кладется в параграф;
//   - если блоков не осталось, создается один пустой блок.
//
// preserveSelection восстанавливает выделение, если его концы остались в дереве.
// forceCursorInside ставит курсор в начало первого блока, если он не внутри блока.
// Вызов во время другого Enforce ничего не делает. Возвращает true, если дерево изменилось.
func (e *Editor) Enforce(preserveSelection, forceCursorInside bool) bool {
	if !e.enforceLock.TryAcquire(1) {
		e.log.Debug("Skip nested enforce")
		return false
	}
	defer e.enforceLock.Release(1)

	var tok cursor.Token
	if preserveSelection {
		tok = e.cursor.SaveCursorPosition(e.root)
	}

	e.seedIDs()
	changed := e.wrapOrphans()
	if e.fixBlocks() {
		changed = true
	}
	if e.firstBlock() == nil {
		block := e.newBlock(edtypes.DefaultBlockType)
		block.AppendChild(dom.Placeholder())
		e.root.AppendChild(block)
		changed = true
	}

	if preserveSelection {
		e.cursor.RestoreCursorPosition(e.root, tok)
	}
	if forceCursorInside && e.blockOf(e.cursor.Selection().Anchor.Node) == nil {
		e.cursor.PositionCursorInElement(e.firstBlock(), cursor.Start)
	}
	return changed
}

func (e *Editor) wrapOrphans() bool {
	changed := false
	for _, c := range dom.Children(e.root) {
		switch {
		case e.isBlock(c):
			continue
		case c.Type != html.TextNode && c.Type != html.ElementNode, isBlankText(c):
			dom.Detach(c)
		case dom.IsInline(c):
			block := e.newBlock(edtypes.DefaultBlockType)
			p := dom.NewElement("p")
			e.root.InsertBefore(block, c)
			block.AppendChild(p)
			dom.Detach(c)
			p.AppendChild(c)
		default:
			dom.Wrap(c, e.newBlock(edtypes.DefaultBlockType))
		}
		changed = true
	}
	return changed
}

// isBlankText сообщает о тексте из одних пробельных символов. Невидимые символы вроде U+200B
// пробелами не считаются: на них может стоять курсор.
func isBlankText(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) == ""
}

// fixBlocks проверяет тип, содержимое и уникальность идентификаторов блоков и вставок.
func (e *Editor) fixBlocks() bool {
	changed := false
	for _, b := range e.blocks() {
		if dom.GetAttr(b, edtypes.AttrBlockType) == "" {
			dom.SetAttr(b, edtypes.AttrBlockType, edtypes.DefaultBlockType)
			changed = true
		}
		if !dom.HasRenderableContent(b) {
			b.AppendChild(dom.Placeholder())
			changed = true
		}
	}

	seen := make(map[string]struct{})
	dom.Walk(e.root, func(n *html.Node) bool {
		if !e.isBlock(n) && !isStamped(n) {
			return false
		}
		id := dom.GetAttr(n, edtypes.AttrBlockID)
		if id == "" || utils.CheckInSet(seen, id) {
			newID := e.nextID()
			if payload, ok := e.payloads[id]; ok && id != "" {
				e.payloads[newID] = payload
			}
			dom.SetAttr(n, edtypes.AttrBlockID, newID)
			id = newID
			changed = true
		}
		seen[id] = struct{}{}
		return false
	})
	return changed
}

// EnsureDefaultBlock создает пустой блок, если в корне нет ни одного блока.
func (e *Editor) EnsureDefaultBlock() bool {
	if e.firstBlock() != nil {
		return false
	}
	return e.Enforce(true, e.focused)
}

// Blocks возвращает идентификаторы и типы блоков в порядке документа.
func (e *Editor) Blocks() []edtypes.BlockInfo {
	return utils.SliceToSlice(e.blocks(), func(b *html.Node) edtypes.BlockInfo {
		return edtypes.BlockInfo{
			ID:   dom.GetAttr(b, edtypes.AttrBlockID),
			Type: dom.GetAttr(b, edtypes.AttrBlockType),
		}
	})
}

// DeleteBlock удаляет блок. Если блоков не остается, создается новый пустой блок.
func (e *Editor) DeleteBlock(id string) (err error) {
	if !e.ready() {
		return nil
	}
	release, err := e.acquire("delete")
	if err != nil {
		return err
	}
	defer release()
	defer e.recoverOperation("delete", &err)

	block := e.blockByID(id)
	if block == nil {
		return apierrors.ErrBlockNotFound.WithFormattedMessage(id)
	}

	for _, n := range dom.FindAll(block, isStamped) {
		delete(e.payloads, dom.GetAttr(n, edtypes.AttrBlockID))
	}
	next := block.NextSibling
	dom.Detach(block)

	e.Enforce(true, false)
	if e.blockOf(e.cursor.Selection().Anchor.Node) == nil {
		target := e.firstBlock()
		if e.isBlock(next) {
			target = next
		}
		e.cursor.PositionCursorInElement(target, cursor.Start)
	}
	e.sched.Cancel(e.key("heading:" + id))
	e.sched.Cancel(e.key("caret:" + id))
	e.recompute()
	e.emit()
	return nil
}

// InsertBlockAfter вставляет пустой текстовый блок после блока id и ставит в него курсор.
// Пустой id означает активный блок, а без него - конец документа.
func (e *Editor) InsertBlockAfter(id string) (newID string, err error) {
	if !e.ready() {
		return "", nil
	}
	release, err := e.acquire("insert block")
	if err != nil {
		return "", err
	}
	defer release()
	defer e.recoverOperation("insert block", &err)

	var ref *html.Node
	if id != "" {
		if ref = e.blockByID(id); ref == nil {
			return "", apierrors.ErrBlockNotFound.WithFormattedMessage(id)
		}
	}
	block := e.insertBlockAfter(ref)
	e.recompute()
	e.emit()
	return dom.GetAttr(block, edtypes.AttrBlockID), nil
}

func (e *Editor) insertBlockAfter(ref *html.Node) *html.Node {
	if ref == nil {
		ref = e.blockOf(e.cursor.Selection().Anchor.Node)
	}
	block := e.newBlock(edtypes.DefaultBlockType)
	p := dom.Placeholder()
	block.AppendChild(p)
	if ref != nil {
		dom.InsertAfter(block, ref)
	} else {
		e.root.AppendChild(block)
	}
	e.cursor.PositionCursorInElement(p, cursor.Start)
	return block
}
