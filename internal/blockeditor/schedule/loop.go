package schedule

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var ErrLoopStopped = errors.New("event loop stopped")

type loopTimer struct {
	timer *time.Timer
	seq   uint64
}

// Loop - однопоточный цикл событий. Таймеры и Post только ставят задачи в очередь,
// выполняет их Run в своей горутине по одной.
type Loop struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once

	mu       sync.Mutex
	seq      uint64
	timers   map[string]*loopTimer
	inflight int
	waiters  []chan struct{}
}

func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		queue:  make(chan func(), buffer),
		done:   make(chan struct{}),
		timers: make(map[string]*loopTimer),
	}
}

// Run выполняет задачи до отмены контекста. После выхода все таймеры остановлены,
// новые задачи не принимаются.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

func (l *Loop) stop() {
	l.once.Do(func() {
		close(l.done)
		l.mu.Lock()
		defer l.mu.Unlock()
		for key, t := range l.timers {
			t.timer.Stop()
			delete(l.timers, key)
		}
		l.inflight = 0
		l.wakeLocked()
	})
}

// Post ставит задачу в очередь цикла.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	l.inflight++
	l.mu.Unlock()
	if !l.enqueue(func() {
		defer l.finish()
		fn()
	}) {
		l.finish()
		return ErrLoopStopped
	}
	return nil
}

// Call выполняет fn в цикле и ждет завершения.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	res := make(chan struct{})
	if err := l.Post(func() {
		defer close(res)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-res:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) enqueue(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

func (l *Loop) Schedule(key string, delay time.Duration, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-l.done:
		return
	default:
	}

	if prev, ok := l.timers[key]; ok && prev.timer.Stop() {
		l.inflight--
	}

	l.seq++
	seq := l.seq
	l.inflight++
	l.timers[key] = &loopTimer{
		seq: seq,
		timer: time.AfterFunc(delay, func() {
			if !l.enqueue(func() { l.fire(key, seq, fn) }) {
				l.finish()
			}
		}),
	}
}

// fire выполняет задачу таймера, если ее не заменили и не отменили.
func (l *Loop) fire(key string, seq uint64, fn func()) {
	defer l.finish()
	l.mu.Lock()
	cur, ok := l.timers[key]
	if !ok || cur.seq != seq {
		l.mu.Unlock()
		return
	}
	delete(l.timers, key)
	l.mu.Unlock()
	fn()
}

func (l *Loop) Cancel(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelLocked(key)
}

func (l *Loop) CancelPrefix(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.timers {
		if strings.HasPrefix(key, prefix) {
			l.cancelLocked(key)
		}
	}
}

func (l *Loop) cancelLocked(key string) {
	t, ok := l.timers[key]
	if !ok {
		return
	}
	delete(l.timers, key)
	if t.timer.Stop() {
		l.inflight--
		l.wakeLocked()
	}
}

func (l *Loop) finish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inflight > 0 {
		l.inflight--
	}
	l.wakeLocked()
}

func (l *Loop) wakeLocked() {
	if l.inflight > 0 {
		return
	}
	for _, w := range l.waiters {
		close(w)
	}
	l.waiters = nil
}

// WaitIdle ждет, пока в цикле не останется ни запланированных, ни поставленных в очередь задач.
func (l *Loop) WaitIdle(ctx context.Context) error {
	l.mu.Lock()
	if l.inflight == 0 {
		l.mu.Unlock()
		return nil
	}
	w := make(chan struct{})
	l.waiters = append(l.waiters, w)
	l.mu.Unlock()

	select {
	case <-w:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
