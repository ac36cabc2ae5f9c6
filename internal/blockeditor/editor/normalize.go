package editor

import (
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/checklist"
	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/dom"
	"golang.org/x/net/html"
)

func touchesList(n *html.Node) bool {
	return dom.IsElement(n, "li", "ul", "ol") || checklist.IsCheckbox(n)
}

// markDirty запрашивает нормализацию, если изменение затронуло пункт списка:
// узел сам является или содержит пункт, список или чекбокс, либо лежит внутри пункта.
// Запросы склеиваются в одну отложенную задачу.
func (e *Editor) markDirty(touched ...*html.Node) {
	for _, n := range touched {
		if n == nil {
			continue
		}
		if dom.Find(n, touchesList) == nil && dom.Closest(n, e.root, touchesList) == nil {
			continue
		}
		e.sched.Schedule(e.key("normalize"), e.cfg.NormalizeDebounce(), func() {
			if !e.alive() {
				return
			}
			if e.normalize() {
				e.emit()
			}
		})
		return
	}
}

// Normalize приводит классификацию списков и чеклистов в соответствие со структурой.
// Повторный вызов ничего не меняет. Возвращает true, если дерево изменилось.
func (e *Editor) Normalize() bool {
	e.sched.Cancel(e.key("normalize"))
	if !e.normalize() {
		return false
	}
	e.emit()
	return true
}

func (e *Editor) normalize() bool {
	tok := e.cursor.SaveCursorPosition(e.root)
	changed := checklist.Normalize(e.root)
	if changed {
		e.cursor.RestoreCursorPosition(e.root, tok)
	}
	return changed
}
