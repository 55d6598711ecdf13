// Package poolcache implements an in-memory cache of persistent objects keyed by
// a numeric object id (oid). It hands out references to resident objects
// without re-reading the backing store, keeps at most one live copy per oid and
// never destroys an object while another goroutine may hold its lock.
//
// Components:
//   - Object: the cached entity. Exposes its oid, an exclusive lock with a
//     non-blocking TryLock, and a self-reported IsDeleted predicate.
//   - Bounds: supplies the capacity for each operating mode
//     (POOL_CACHE_SIZE, POOL_CACHE_PRESSURE). Re-read on every mode change.
//   - Cache: oid -> line map plus a FIFO of oids, guarded by one coarse mutex.
//
// Modes:
//
//	full      - lookups hit; overflow evicts a FIFO block of 15% of capacity
//	pressure  - every lookup hit is discarded and reported as Miss;
//	            overflow flushes every line that is not in use
//
// Bulk eviction never blocks on an object lock: busy lines are marked dirty
// (flush) or requeued (block). Only the targeted single-line eviction done by
// Lookup waits for the object's lock.
//
// Miss pattern (coarse lock held across the reload):
//
//	c.Lock()
//	obj, st := c.Lookup(oid, true)
//	if st == poolcache.Miss {
//	    obj = loadFromDB(oid) // locked by the loader
//	    c.Insert(obj)
//	}
//	c.Unlock()
//
// Fetch wraps the same sequence.
package poolcache
