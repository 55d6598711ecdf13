package poolcache

const (
	// blockPercent of capacity is evicted when a full-mode insert overflows.
	blockPercent = 15
	// fifoSlack bounds stale FIFO entries relative to lines+capacity.
	fifoSlack = 2
)

// All functions below require the cache lock.

// flushLines destroys every line whose object can be locked without waiting.
// Busy lines stay resident but dirty, so the next lookup reloads them.
func (c *Cache) flushLines() {
	removed, busy := 0, 0
	for oid, l := range c.lines {
		if !l.obj.TryLock() {
			if !l.dirty {
				l.dirty = true
				c.hooks.LineDirtied(oid, ReasonBusy)
			}
			busy++
			continue
		}
		c.destroyLine(oid, l, ReasonFlush)
		removed++
	}
	c.compactFIFO()

	if removed > 0 || busy > 0 {
		c.log.Debug("cache flushed", Fields{"removed": removed, "busy": busy})
	}
}

// evictBlock destroys up to n lines, oldest first, in at most one pass over
// the FIFO. Stale entries are dropped; busy objects go to the back of the
// queue. It never blocks and returns the number of lines destroyed.
func (c *Cache) evictBlock(n int) int {
	if n <= 0 {
		return 0
	}

	qs := c.fifo.Len()
	evicted, scanned := 0, 0
	for ; scanned < qs && evicted < n; scanned++ {
		front := c.fifo.Front()
		oid := c.fifo.Remove(front).(int)

		l, ok := c.lines[oid]
		if !ok {
			continue // stale
		}
		if !l.obj.TryLock() {
			c.fifo.PushBack(oid)
			continue
		}
		c.destroyLine(oid, l, ReasonBlock)
		evicted++
	}

	c.hooks.BlockEvicted(n, evicted, scanned)
	c.log.Debug("cache block evicted", Fields{"requested": n, "evicted": evicted, "scanned": scanned})
	return evicted
}

// evictLine waits for the object lock of oid and destroys its line.
// Used only where the line is discarded unconditionally.
func (c *Cache) evictLine(oid int, reason string) {
	l, ok := c.lines[oid]
	if !ok {
		return
	}
	l.obj.Lock()
	c.destroyLine(oid, l, reason)
}

// destroyLine removes the line and releases its object. The object lock must
// be held; it is released on return so goroutines still queued on it wake up.
// The FIFO entry is left behind and dropped lazily.
func (c *Cache) destroyLine(oid int, l *line, reason string) {
	delete(c.lines, oid)
	l.release()
	l.obj.Unlock()

	c.hooks.LineEvicted(oid, reason)
}

// compactFIFO drops stale entries and keeps only the newest entry of each
// resident oid, preserving order.
func (c *Cache) compactFIFO() {
	seen := make(map[int]struct{}, len(c.lines))
	for e := c.fifo.Back(); e != nil; {
		prev := e.Prev()
		oid := e.Value.(int)
		_, live := c.lines[oid]
		if _, dup := seen[oid]; !live || dup {
			c.fifo.Remove(e)
		} else {
			seen[oid] = struct{}{}
		}
		e = prev
	}
}
