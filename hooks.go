package poolcache

// Eviction and dirtying reasons passed to Hooks.
const (
	ReasonFlush      = "flush"      // mode transition or pressure overflow
	ReasonBlock      = "block"      // full-mode FIFO block
	ReasonDirty      = "dirty"      // lookup found a dirty line
	ReasonPressure   = "pressure"   // lookup in pressure mode
	ReasonDeleted    = "deleted"    // object reported itself deleted
	ReasonReplaced   = "replaced"   // duplicate insert for a resident oid
	ReasonBusy       = "busy"       // flush could not lock the object
	ReasonInvalidate = "invalidate" // explicit Invalidate call
)

// Hooks are lightweight callbacks for cache events.
// Implementations MUST be cheap and non-blocking: they run with the
// coarse cache lock held.
type Hooks interface {
	// A line was destroyed.
	LineEvicted(oid int, reason string)

	// A line was kept but marked dirty. reason ∈ {"busy", "invalidate"}
	LineDirtied(oid int, reason string)

	// A full-mode block eviction finished.
	BlockEvicted(requested, evicted, scanned int)

	// The cache started, switched mode, or re-flushed in the same mode.
	ModeChanged(mode Mode, capacity int)

	// Bounds returned an error or an invalid value.
	BoundError(name string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) LineEvicted(int, string)    {}
func (NopHooks) LineDirtied(int, string)    {}
func (NopHooks) BlockEvicted(int, int, int) {}
func (NopHooks) ModeChanged(Mode, int)      {}
func (NopHooks) BoundError(string, error)   {}
