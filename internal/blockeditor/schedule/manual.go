package schedule

import (
	"slices"
	"strings"
	"sync"
	"time"
)

type manualTask struct {
	key string
	at  time.Duration
	seq uint64
	fn  func()
}

// Manual - планировщик с виртуальным временем. Время двигается только вызовами Advance и Flush,
// задачи выполняются в горутине вызывающего.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   uint64
	tasks map[string]*manualTask
}

func NewManual() *Manual {
	return &Manual{tasks: make(map[string]*manualTask)}
}

// Now возвращает виртуальное время с момента создания планировщика.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Schedule(key string, delay time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.tasks[key] = &manualTask{key: key, at: m.now + max(delay, 0), seq: m.seq, fn: fn}
}

func (m *Manual) Cancel(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, key)
}

func (m *Manual) CancelPrefix(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.tasks {
		if strings.HasPrefix(key, prefix) {
			delete(m.tasks, key)
		}
	}
}

// Pending возвращает отсортированные ключи запланированных задач.
func (m *Manual) Pending() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.tasks))
	for key := range m.tasks {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Advance сдвигает время на d и выполняет все задачи, срок которых наступил, включая
// задачи, запланированные другими задачами в пределах того же окна. Возвращает число выполненных задач.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	ran := 0
	for m.runNext(target) {
		ran++
	}

	m.mu.Lock()
	m.now = max(m.now, target)
	m.mu.Unlock()
	return ran
}

// Flush выполняет все задачи независимо от срока, сдвигая время до последней из них.
func (m *Manual) Flush() int {
	ran := 0
	for m.runNext(time.Duration(1<<63 - 1)) {
		ran++
	}
	return ran
}

func (m *Manual) runNext(until time.Duration) bool {
	m.mu.Lock()
	var next *manualTask
	for _, t := range m.tasks {
		if t.at > until {
			continue
		}
		if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
			next = t
		}
	}
	if next == nil {
		m.mu.Unlock()
		return false
	}
	delete(m.tasks, next.key)
	m.now = max(m.now, next.at)
	m.mu.Unlock()

	next.fn()
	return true
}
