package asynchook

import (
	"sync"
	"testing"

	"github.com/unkn0wn-root/poolcache"
)

type countHooks struct {
	poolcache.NopHooks
	mu      sync.Mutex
	evicted int
	modes   []poolcache.Mode
	block   chan struct{}
}

func (h *countHooks) LineEvicted(int, string) {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	h.evicted++
	h.mu.Unlock()
}

func (h *countHooks) ModeChanged(m poolcache.Mode, _ int) {
	h.mu.Lock()
	h.modes = append(h.modes, m)
	h.mu.Unlock()
}

func TestDeliversAndDrainsOnClose(t *testing.T) {
	inner := &countHooks{}
	h := New(inner, 2, 100)
	for i := 0; i < 50; i++ {
		h.LineEvicted(i, poolcache.ReasonBlock)
	}
	h.ModeChanged(poolcache.ModePressure, 3)
	h.Close()

	if inner.evicted != 50 {
		t.Fatalf("evicted=%d want 50", inner.evicted)
	}
	if len(inner.modes) != 1 || inner.modes[0] != poolcache.ModePressure {
		t.Fatalf("modes=%v", inner.modes)
	}
	if h.Dropped() != 0 {
		t.Fatalf("dropped=%d want 0", h.Dropped())
	}
}

func TestDropsWhenFull(t *testing.T) {
	inner := &countHooks{block: make(chan struct{})}
	h := New(inner, 1, 1)

	// one event may be in the worker, one in the queue; the rest drop
	for i := 0; i < 10; i++ {
		h.LineEvicted(i, poolcache.ReasonBlock)
	}
	if h.Dropped() < 8 {
		t.Fatalf("dropped=%d want >= 8", h.Dropped())
	}
	close(inner.block)
	h.Close()
	if got := uint64(inner.evicted) + h.Dropped(); got != 10 {
		t.Fatalf("delivered+dropped=%d want 10", got)
	}
}

func TestSendAfterCloseDrops(t *testing.T) {
	h := New(&countHooks{}, 1, 4)
	h.Close()
	h.Close()
	h.BoundError(poolcache.BoundSize, nil)
	if h.Dropped() != 1 {
		t.Fatalf("dropped=%d want 1", h.Dropped())
	}
}
