package poolcache

import (
	"container/list"
	"context"
	"sync"
)

// line owns one resident object.
type line struct {
	obj      Object
	dirty    bool // content is stale; discard on next lookup
	deleted  bool // set by SetDeleted; report HitDeleted on next lookup
	released bool
}

// release destroys the object. The object lock must be held.
func (l *line) release() {
	if l.released {
		return
	}
	l.released = true
	if r, ok := l.obj.(Releaser); ok {
		r.Release()
	}
}

// Cache stores active references to pool objects and, in full mode, caches
// them so their state is not reloaded from the backing store.
//
// Lookup and Insert must run inside the critical section guarded by
// Lock/Unlock. Every other method takes the lock itself.
type Cache struct {
	mu sync.Mutex

	bounds Bounds
	log    Logger
	hooks  Hooks

	mode     Mode
	capacity int

	lines map[int]*line
	fifo  *list.List // of int oids, oldest at Front
}

func New(opts Options) (*Cache, error) {
	if opts.Bounds == nil {
		return nil, ErrNoBounds
	}
	opts = opts.withDefaults()

	c := &Cache{
		bounds: opts.Bounds,
		log:    opts.Logger,
		hooks:  opts.Hooks,
		lines:  make(map[int]*line),
		fifo:   list.New(),
	}

	if opts.OnlyActive {
		c.mode = ModePressure
	}
	capacity, err := c.readBound(c.mode)
	if err != nil {
		return nil, err
	}
	c.capacity = capacity

	c.hooks.ModeChanged(c.mode, c.capacity)
	return c, nil
}

// Lock enters the cache critical section. Hold it from a Miss through the
// reload and the matching Insert.
func (c *Cache) Lock() { c.mu.Lock() }

// Unlock leaves the cache critical section.
func (c *Cache) Unlock() { c.mu.Unlock() }

// Lookup returns the resident object for oid. The cache lock must be held.
//
// Dirty lines, and every line while in pressure mode, are evicted and reported
// as Miss. When lock is true the object lock is acquired before returning.
// An object that reports itself deleted is evicted and HitDeleted is returned
// with a nil object.
func (c *Cache) Lookup(oid int, lock bool) (Object, Status) {
	l, ok := c.lines[oid]
	if !ok {
		return nil, Miss
	}

	switch {
	case l.dirty:
		c.evictLine(oid, ReasonDirty)
		return nil, Miss
	case c.mode == ModePressure:
		c.evictLine(oid, ReasonPressure)
		return nil, Miss
	case l.deleted:
		c.evictLine(oid, ReasonDeleted)
		return nil, HitDeleted
	}

	obj := l.obj
	if lock {
		obj.Lock()
	}
	if obj.IsDeleted() {
		if lock {
			c.destroyLine(oid, l, ReasonDeleted)
		} else {
			c.evictLine(oid, ReasonDeleted)
		}
		return nil, HitDeleted
	}
	return obj, Hit
}

// Insert adds a freshly loaded object. The cache lock must be held
// continuously since the Miss that led to the reload.
//
// Insert never fails. Over capacity it first flushes (pressure mode) or evicts
// a FIFO block of 15% of capacity (full mode); busy objects are skipped, so the
// cache may stay over capacity.
func (c *Cache) Insert(obj Object) {
	oid := obj.OID()

	if _, dup := c.lines[oid]; dup {
		c.log.Warn("insert for resident oid; replacing line", Fields{"oid": oid})
		c.evictLine(oid, ReasonReplaced)
	}

	if len(c.lines) >= c.capacity {
		if c.mode == ModePressure {
			c.flushLines()
		} else {
			c.evictBlock(blockSize(c.capacity))
		}
	}

	c.lines[oid] = &line{obj: obj}
	c.fifo.PushBack(oid)

	if c.fifo.Len() > fifoSlack*(len(c.lines)+c.capacity) {
		c.compactFIFO()
	}
}

// LoadFunc reloads an object from the backing store after a Miss.
type LoadFunc func(ctx context.Context, oid int) (Object, error)

// Fetch looks oid up and, on Miss, reloads it with load and inserts the result,
// all under the cache lock. With lock set the returned object is locked.
// After a reload the status is Miss and the object is the inserted one.
// On HitDeleted the object is nil and load is not called.
func (c *Cache) Fetch(ctx context.Context, oid int, lock bool, load LoadFunc) (Object, Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	obj, st := c.Lookup(oid, lock)
	if st != Miss {
		return obj, st, nil
	}

	obj, err := load(ctx, oid)
	if err != nil {
		return nil, Miss, err
	}
	if lock {
		obj.Lock()
	}
	c.Insert(obj)
	return obj, Miss, nil
}

// Invalidate marks the line for oid dirty so the next lookup reloads it.
// Reports whether a line was resident.
func (c *Cache) Invalidate(oid int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.lines[oid]
	if !ok {
		return false
	}
	l.dirty = true
	c.hooks.LineDirtied(oid, ReasonInvalidate)
	c.log.Debug("cache line invalidated", Fields{"oid": oid})
	return true
}

// SetDeleted records that oid was removed from the backing store. The next
// lookup evicts the line and returns HitDeleted.
// Reports whether a line was resident.
func (c *Cache) SetDeleted(oid int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.lines[oid]
	if !ok {
		return false
	}
	l.deleted = true
	return true
}

// Enable flushes the cache and switches to full mode with the POOL_CACHE_SIZE
// bound. If the bound cannot be read the previous capacity is kept and the
// error is returned.
func (c *Cache) Enable() error { return c.setMode(ModeFull) }

// Disable flushes the cache and switches to pressure mode with the
// POOL_CACHE_PRESSURE bound. Objects in use stay resident but dirty.
func (c *Cache) Disable() error { return c.setMode(ModePressure) }

func (c *Cache) setMode(m Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.flushLines()
	c.mode = m

	capacity, err := c.readBound(m)
	if err == nil {
		c.capacity = capacity
	}

	c.hooks.ModeChanged(m, c.capacity)
	c.log.Info("cache mode changed", Fields{"mode": m.String(), "capacity": c.capacity, "lines": len(c.lines)})
	return err
}

func (c *Cache) readBound(m Mode) (int, error) {
	name := BoundSize
	if m == ModePressure {
		name = BoundPressure
	}

	v, err := c.bounds.Bound(name)
	if err == nil && v < 0 {
		err = &BoundError{Name: name, Value: v}
	} else if err != nil {
		err = &BoundError{Name: name, Err: err}
	}
	if err != nil {
		c.hooks.BoundError(name, err)
		c.log.Warn("cache bound read failed", Fields{"name": name, "err": err})
		return 0, err
	}
	return v, nil
}

// Stats returns a snapshot of the cache state.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	dirty := 0
	for _, l := range c.lines {
		if l.dirty {
			dirty++
		}
	}
	return Stats{
		Lines:    len(c.lines),
		Dirty:    dirty,
		Queued:   c.fifo.Len(),
		Capacity: c.capacity,
		Mode:     c.mode,
		ModeName: c.mode.String(),
	}
}

// Len returns the number of resident lines.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cache) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Cache) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}
