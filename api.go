package poolcache

import (
	"sync"
	"sync/atomic"
)

// Bound names queried from Bounds.
const (
	BoundSize     = "POOL_CACHE_SIZE"     // capacity in full mode
	BoundPressure = "POOL_CACHE_PRESSURE" // capacity in pressure mode
)

// Object is a persistent object as seen by the cache.
// Lock is exclusive and not reentrant.
type Object interface {
	OID() int
	Lock()
	TryLock() bool
	Unlock()
	// IsDeleted reports whether the object was removed from the backing store.
	IsDeleted() bool
}

// Releaser is implemented by objects that hold resources beyond their memory.
// The cache calls Release exactly once, with the object lock held, when it
// destroys the owning line.
type Releaser interface {
	Release()
}

// Bounds supplies capacity bounds by name. It is queried at construction and
// on every mode transition.
type Bounds interface {
	Bound(name string) (int, error)
}

// BoundsFunc adapts a function to Bounds.
type BoundsFunc func(name string) (int, error)

func (f BoundsFunc) Bound(name string) (int, error) { return f(name) }

// Status is the outcome of a lookup.
type Status uint8

const (
	Miss       Status = iota // not resident, or discarded: reload from the backing store
	Hit                      // resident and trusted
	HitDeleted               // resident but removed from the backing store; do not reload
)

func (s Status) String() string {
	switch s {
	case Miss:
		return "miss"
	case Hit:
		return "hit"
	case HitDeleted:
		return "hit_deleted"
	default:
		return "unknown"
	}
}

// Mode is the operating mode of the cache.
type Mode uint8

const (
	ModeFull     Mode = iota // read-through cache bounded by POOL_CACHE_SIZE
	ModePressure             // registry of in-use objects bounded by POOL_CACHE_PRESSURE
)

func (m Mode) String() string {
	if m == ModePressure {
		return "pressure"
	}
	return "full"
}

// Options configure a Cache. Only Bounds is required.
type Options struct {
	Bounds     Bounds
	OnlyActive bool   // start in pressure mode
	Logger     Logger // nil => NopLogger
	Hooks      Hooks  // nil => NopHooks
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Lines    int    `json:"lines"`
	Dirty    int    `json:"dirty"`
	Queued   int    `json:"queued"` // FIFO entries, stale ones included
	Capacity int    `json:"capacity"`
	Mode     Mode   `json:"-"`
	ModeName string `json:"mode"`
}

// Base is an embeddable Object implementation.
//
//	type VM struct {
//	    poolcache.Base
//	    Name string
//	}
type Base struct {
	ID int

	mu      sync.Mutex
	deleted atomic.Bool
}

var _ Object = (*Base)(nil)

func (b *Base) OID() int        { return b.ID }
func (b *Base) Lock()           { b.mu.Lock() }
func (b *Base) TryLock() bool   { return b.mu.TryLock() }
func (b *Base) Unlock()         { b.mu.Unlock() }
func (b *Base) IsDeleted() bool { return b.deleted.Load() }

// MarkDeleted flags the object as removed from the backing store. A cache
// holding it reports HitDeleted on the next lookup.
func (b *Base) MarkDeleted() { b.deleted.Store(true) }
