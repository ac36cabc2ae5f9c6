// Пакет реализует историю изменений документа на снимках сериализованного значения.
//
// Основные возможности:
//   - Стек снимков с ограничением глубины; новый снимок обрезает ветку повтора.
//   - Одинаковые подряд снимки не дублируются.
//   - Debounced: отложенный захват снимка через планировщик, чтобы серия правок давала одну запись.
package history

import (
	"log/slog"
	"time"

	"github.com/aisa-it/aiplan/blockeditor/internal/blockeditor/schedule"
	"github.com/gofrs/uuid"
)

const DefaultDepth = 100

// Target - то, чью историю ведет менеджер.
type Target interface {
	Snapshot() string
	Restore(value string)
}

type Entry struct {
	ID    uuid.UUID
	Value string
	At    time.Time
}

type Manager struct {
	log     *slog.Logger
	target  Target
	depth   int
	entries []Entry
	// индекс текущего снимка в entries, -1 если истории нет
	cur int
}

func NewManager(target Target, depth int) *Manager {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Manager{log: slog.Default(), target: target, depth: depth, cur: -1}
}

// WithLogger задает логгер менеджера. nil оставляет логгер по умолчанию.
func (m *Manager) WithLogger(logger *slog.Logger) *Manager {
	if logger != nil {
		m.log = logger
	}
	return m
}

// Capture сохраняет текущее состояние цели. Возвращает false, если оно совпадает с текущим снимком.
func (m *Manager) Capture() bool {
	value := m.target.Snapshot()
	if m.cur >= 0 && m.entries[m.cur].Value == value {
		return false
	}

	e := Entry{ID: uuid.Must(uuid.NewV4()), Value: value, At: time.Now()}
	m.entries = append(m.entries[:m.cur+1], e)
	if excess := len(m.entries) - m.depth; excess > 0 {
		m.entries = m.entries[excess:]
	}
	m.cur = len(m.entries) - 1
	m.log.Debug("History snapshot captured", "snapshot", e.ID, "depth", len(m.entries))
	return true
}

func (m *Manager) CanUndo() bool {
	return m.cur > 0
}

func (m *Manager) CanRedo() bool {
	return m.cur >= 0 && m.cur < len(m.entries)-1
}

func (m *Manager) Undo() bool {
	if !m.CanUndo() {
		return false
	}
	m.cur--
	m.target.Restore(m.entries[m.cur].Value)
	return true
}

func (m *Manager) Redo() bool {
	if !m.CanRedo() {
		return false
	}
	m.cur++
	m.target.Restore(m.entries[m.cur].Value)
	return true
}

// Len возвращает число сохраненных снимков.
func (m *Manager) Len() int {
	return len(m.entries)
}

// Debounced откладывает захват снимка: каждый Request переносит захват на delay вперед.
type Debounced struct {
	m       *Manager
	sched   schedule.Scheduler
	key     string
	delay   time.Duration
	pending bool
}

func NewDebounced(m *Manager, sched schedule.Scheduler, key string, delay time.Duration) *Debounced {
	return &Debounced{m: m, sched: sched, key: key, delay: delay}
}

func (d *Debounced) Request() {
	d.pending = true
	d.sched.Schedule(d.key, d.delay, func() {
		d.pending = false
		d.m.Capture()
	})
}

// Flush немедленно выполняет отложенный захват, если он есть.
func (d *Debounced) Flush() {
	if !d.pending {
		return
	}
	d.sched.Cancel(d.key)
	d.pending = false
	d.m.Capture()
}

// Capture сохраняет снимок сразу, отменяя отложенный.
func (d *Debounced) Capture() {
	d.sched.Cancel(d.key)
	d.pending = false
	d.m.Capture()
}

func (d *Debounced) Undo() bool {
	d.Flush()
	return d.m.Undo()
}

func (d *Debounced) Redo() bool {
	d.Flush()
	return d.m.Redo()
}

// Cancel отбрасывает отложенный захват.
func (d *Debounced) Cancel() {
	d.sched.Cancel(d.key)
	d.pending = false
}

func (d *Debounced) Manager() *Manager {
	return d.m
}
