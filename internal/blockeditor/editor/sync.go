package editor

import (
	"log/slog"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/edtypes"
	stack_error "github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/stack-error"
	"golang.org/x/net/html"
)

// GetSerializedDocument возвращает очищенную разметку документа с полезными нагрузками вставок.
func (e *Editor) GetSerializedDocument() string {
	return e.serialize()
}

// serialize строит внешнее значение: копия дерева получает атрибуты data-block-payload
// из таблицы нагрузок, при включенной настройке сжимается и проходит санитайзер.
func (e *Editor) serialize() string {
	clone := dom.Clone(e.root)
	for _, n := range dom.FindAll(clone, isStamped) {
		if payload, ok := e.payloads[dom.GetAttr(n, edtypes.AttrBlockID)]; ok {
			dom.SetAttr(n, edtypes.AttrBlockPayload, payload)
		} else {
			dom.RemoveAttr(n, edtypes.AttrBlockPayload)
		}
	}
	markup := dom.RenderChildren(clone)

	if e.minifier != nil {
		minified, err := e.minifier.String("text/html", markup)
		if err != nil {
			stack_error.LogError(e.log, slog.LevelDebug, "Minify document", stack_error.TrackErrorStack(err))
		} else {
			markup = minified
		}
	}
	return e.sanitizer.Sanitize(markup)
}

// emit отправляет хосту новое значение, если оно отличается от последнего отправленного,
// и запрашивает снимок истории.
func (e *Editor) emit() {
	value := e.serialize()
	if value == e.lastEmitted {
		return
	}
	if !e.restoring {
		e.history.Request()
	}
	e.publish(value)
}

// publish запоминает value как согласованное с хостом значение и отправляет его.
func (e *Editor) publish(value string) {
	e.lastEmitted = value
	e.lastValue = value
	if e.onChange != nil {
		e.onChange(value)
	}
}

// SetValue принимает новое внешнее значение документа.
//
// Значение, совпадающее с последним отправленным хосту, игнорируется. Пока редактор в фокусе,
// живое дерево не трогается: запоминается только само значение. Иначе дерево заменяется целиком,
// курсор восстанавливается, если его концы разрешаются, списки нормализуются,
// а полезные нагрузки вставок перечитываются из разметки.
func (e *Editor) SetValue(value string) {
	clean := e.sanitizer.Sanitize(value)
	if clean == e.lastEmitted {
		return
	}

	if e.focused || !e.alive() {
		e.lastValue = clean
		e.log.Debug("External value deferred", "focused", e.focused)
	} else {
		e.replaceTree(clean)
		e.history.Request()
		e.lastValue = clean
		// хост уже знает clean; отправлять нужно, только если редактор его поправил
		e.lastEmitted = clean
		e.recompute()
	}

	if e.alive() {
		e.EnsureDefaultBlock()
		e.emit()
	}
}

// replaceTree заменяет содержимое корня разметкой clean.
func (e *Editor) replaceTree(clean string) {
	tok := e.cursor.SaveCursorPosition(e.root)

	nodes, err := dom.ParseFragment(clean)
	if err != nil {
		stack_error.LogError(e.log, slog.LevelWarn, "Parse document", stack_error.TrackErrorStack(err))
		nodes = nil
	}
	dom.ReplaceChildren(e.root, nodes)
	for id := range e.payloads {
		delete(e.payloads, id)
	}

	e.seedIDs()
	e.extractPayloads()
	e.Enforce(false, false)
	if !e.cursor.RestoreCursorPosition(e.root, tok) && e.focused {
		e.Enforce(false, true)
	}
	e.normalize()
	e.rehydrate()
}

// extractPayloads переносит атрибуты data-block-payload из дерева в таблицу нагрузок.
func (e *Editor) extractPayloads() {
	seen := make(map[string]struct{})
	dom.Walk(e.root, func(n *html.Node) bool {
		if !dom.IsElement(n) || (!isStamped(n) && !dom.HasAttr(n, edtypes.AttrBlockPayload)) {
			return false
		}
		id := dom.GetAttr(n, edtypes.AttrBlockID)
		if _, dup := seen[id]; dup || id == "" {
			id = e.nextID()
			dom.SetAttr(n, edtypes.AttrBlockID, id)
		}
		seen[id] = struct{}{}

		if payload := dom.GetAttr(n, edtypes.AttrBlockPayload); payload != "" {
			e.payloads[id] = payload
		}
		dom.RemoveAttr(n, edtypes.AttrBlockPayload)
		return false
	})
}
