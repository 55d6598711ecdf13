// Package asynchook moves poolcache hook calls off the cache critical section.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{EvictEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := poolcache.New(poolcache.Options{
//	    Bounds: bounds,
//	    Hooks:  hooks,
//	})
//
// Events are dropped when the queue is full; Dropped reports how many.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/poolcache"
)

type Hooks struct {
	inner   poolcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
}

var _ poolcache.Hooks = (*Hooks)(nil)

func New(inner poolcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.closed.Store(true)
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped returns the number of events discarded because the queue was full
// or the hooks were closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	defer func() {
		// send on a queue closed concurrently by Close
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) LineEvicted(oid int, r string) { h.try(func() { h.inner.LineEvicted(oid, r) }) }
func (h *Hooks) LineDirtied(oid int, r string) { h.try(func() { h.inner.LineDirtied(oid, r) }) }
func (h *Hooks) BlockEvicted(req, ev, sc int) {
	h.try(func() { h.inner.BlockEvicted(req, ev, sc) })
}
func (h *Hooks) ModeChanged(m poolcache.Mode, capacity int) {
	h.try(func() { h.inner.ModeChanged(m, capacity) })
}
func (h *Hooks) BoundError(name string, err error) {
	h.try(func() { h.inner.BoundError(name, err) })
}
