// Package pool persists typed objects in a provider and serves them through a
// poolcache.Cache.
//
// An object returned locked must be unlocked by the caller. While holding an
// object lock do not call into the pool for another object whose lock another
// goroutine may hold while waiting on the pool; the cache lock is held while
// Get waits on object locks.
package pool

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/unkn0wn-root/poolcache"
	c "github.com/unkn0wn-root/poolcache/codec"
	"github.com/unkn0wn-root/poolcache/internal/keys"
	"github.com/unkn0wn-root/poolcache/internal/wire"
	pr "github.com/unkn0wn-root/poolcache/provider"
)

var (
	// ErrNotFound is returned for oids that were never allocated or were dropped.
	ErrNotFound = errors.New("pool: object not found")
	// ErrCodecMismatch is returned when a record was written with another codec.
	ErrCodecMismatch = errors.New("pool: record codec mismatch")
)

const lastOIDName = "last_oid"

// Object is a pool object with a body of type V.
// Body may be read or modified only while the object lock is held.
type Object[V any] struct {
	poolcache.Base
	Body V
}

// Options configure a Pool. Namespace, Provider, Codec and Bounds are required.
type Options[V any] struct {
	Namespace  string // e.g. "vm", "host", "image"
	Provider   pr.Provider
	Codec      c.Codec[V]
	Bounds     poolcache.Bounds
	OnlyActive bool // start the cache in pressure mode
	Logger     poolcache.Logger
	Hooks      poolcache.Hooks
}

// Pool is a typed object pool. Safe for concurrent use.
type Pool[V any] struct {
	ns       string
	provider pr.Provider
	codec    c.Codec[V]
	cache    *poolcache.Cache
	log      poolcache.Logger

	allocMu sync.Mutex // serializes oid allocation
}

func New[V any](opts Options[V]) (*Pool[V], error) {
	if opts.Namespace == "" {
		return nil, errors.New("pool: namespace is required")
	}
	if opts.Provider == nil {
		return nil, errors.New("pool: provider is required")
	}
	if opts.Codec == nil {
		return nil, errors.New("pool: codec is required")
	}

	cache, err := poolcache.New(poolcache.Options{
		Bounds:     opts.Bounds,
		OnlyActive: opts.OnlyActive,
		Logger:     opts.Logger,
		Hooks:      opts.Hooks,
	})
	if err != nil {
		return nil, err
	}

	p := &Pool[V]{
		ns:       opts.Namespace,
		provider: opts.Provider,
		codec:    opts.Codec,
		cache:    cache,
		log:      opts.Logger,
	}
	if p.log == nil {
		p.log = poolcache.NopLogger{}
	}
	return p, nil
}

// Cache exposes the underlying cache (mode control, stats).
func (p *Pool[V]) Cache() *poolcache.Cache { return p.cache }

// Allocate persists body under the next free oid and returns the new object,
// unlocked and not yet cached.
//
// Oids are never reused. The last_oid record is a hint only: volatile
// providers may lose it, so oids that already hold a record are skipped.
func (p *Pool[V]) Allocate(ctx context.Context, body V) (*Object[V], error) {
	p.allocMu.Lock()
	defer p.allocMu.Unlock()

	last, err := p.lastOID(ctx)
	if err != nil {
		return nil, err
	}
	id, err := p.nextFree(ctx, last+1)
	if err != nil {
		return nil, err
	}
	obj := &Object[V]{Body: body}
	obj.ID = id

	if err := p.write(ctx, obj); err != nil {
		return nil, err
	}
	metaKey := keys.Meta(p.ns, lastOIDName)
	if err := p.provider.Set(ctx, metaKey, []byte(strconv.Itoa(obj.ID))); err != nil {
		k := keys.Object(p.ns, obj.ID)
		if derr := p.provider.Del(ctx, k); derr != nil {
			p.log.Error("orphan record left after failed allocation", poolcache.Fields{"key": k, "err": derr})
		}
		return nil, fmt.Errorf("pool: store %s: %w", metaKey, err)
	}
	// a line for this oid can only be left over from a lost record
	p.cache.Invalidate(obj.ID)

	p.log.Debug("object allocated", poolcache.Fields{"ns": p.ns, "oid": obj.ID})
	return obj, nil
}

// nextFree returns the first oid >= from with no stored record.
func (p *Pool[V]) nextFree(ctx context.Context, from int) (int, error) {
	for id := from; ; id++ {
		k := keys.Object(p.ns, id)
		_, ok, err := p.provider.Get(ctx, k)
		if err != nil {
			return 0, fmt.Errorf("pool: load %s: %w", k, err)
		}
		if !ok {
			if id != from {
				p.log.Warn("last_oid behind stored records; skipped used oids", poolcache.Fields{"ns": p.ns, "from": from, "oid": id})
			}
			return id, nil
		}
	}
}

// Get returns the object for oid, reloading it from the provider on a cache
// miss. With lock set the object is returned locked.
func (p *Pool[V]) Get(ctx context.Context, oid int, lock bool) (*Object[V], error) {
	o, st, err := p.cache.Fetch(ctx, oid, lock, p.load)
	if err != nil {
		return nil, err
	}
	if st == poolcache.HitDeleted {
		return nil, ErrNotFound
	}
	obj, ok := o.(*Object[V])
	if !ok {
		if lock {
			o.Unlock()
		}
		return nil, fmt.Errorf("pool: unexpected object type %T for oid %d", o, oid)
	}
	return obj, nil
}

// Update persists the body of obj. The caller must hold the object lock.
func (p *Pool[V]) Update(ctx context.Context, obj *Object[V]) error {
	if obj.IsDeleted() {
		return ErrNotFound
	}
	return p.write(ctx, obj)
}

// Drop removes obj from the pool. The caller must hold the object lock and
// release it afterwards; the cache discards the line on its next lookup.
func (p *Pool[V]) Drop(ctx context.Context, obj *Object[V]) error {
	if obj.IsDeleted() {
		return ErrNotFound
	}
	k := keys.Object(p.ns, obj.ID)
	tomb := wire.Encode(wire.Record{OID: obj.ID, Codec: p.codec.ID(), Tombstone: true})
	if err := p.provider.Set(ctx, k, tomb); err != nil {
		return fmt.Errorf("pool: drop %s: %w", k, err)
	}
	obj.MarkDeleted()
	p.log.Debug("object dropped", poolcache.Fields{"ns": p.ns, "oid": obj.ID})
	return nil
}

// Invalidate forces the next Get of oid to reload it, e.g. after another
// process changed the stored record.
func (p *Pool[V]) Invalidate(oid int) bool { return p.cache.Invalidate(oid) }

// Forget records that oid was removed from the store by someone else.
func (p *Pool[V]) Forget(oid int) bool { return p.cache.SetDeleted(oid) }

// Enable switches the cache to full mode.
func (p *Pool[V]) Enable() error { return p.cache.Enable() }

// Disable switches the cache to pressure mode.
func (p *Pool[V]) Disable() error { return p.cache.Disable() }

// Close closes the provider.
func (p *Pool[V]) Close(ctx context.Context) error { return p.provider.Close(ctx) }

func (p *Pool[V]) load(ctx context.Context, oid int) (poolcache.Object, error) {
	k := keys.Object(p.ns, oid)
	raw, ok, err := p.provider.Get(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("pool: load %s: %w", k, err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	rec, err := wire.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("pool: load %s: %w", k, err)
	}
	if rec.Tombstone {
		return nil, ErrNotFound
	}
	if rec.OID != oid {
		return nil, fmt.Errorf("pool: load %s: record holds oid %d: %w", k, rec.OID, wire.ErrCorrupt)
	}
	if rec.Codec != p.codec.ID() {
		return nil, fmt.Errorf("pool: load %s: codec %#x, want %#x: %w", k, rec.Codec, p.codec.ID(), ErrCodecMismatch)
	}

	body, err := p.codec.Decode(rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("pool: decode %s: %w", k, err)
	}
	obj := &Object[V]{Body: body}
	obj.ID = oid
	return obj, nil
}

func (p *Pool[V]) write(ctx context.Context, obj *Object[V]) error {
	payload, err := p.codec.Encode(obj.Body)
	if err != nil {
		return fmt.Errorf("pool: encode oid %d: %w", obj.ID, err)
	}
	k := keys.Object(p.ns, obj.ID)
	rec := wire.Encode(wire.Record{OID: obj.ID, Codec: p.codec.ID(), Payload: payload})
	if err := p.provider.Set(ctx, k, rec); err != nil {
		return fmt.Errorf("pool: store %s: %w", k, err)
	}
	return nil
}

func (p *Pool[V]) lastOID(ctx context.Context) (int, error) {
	k := keys.Meta(p.ns, lastOIDName)
	raw, ok, err := p.provider.Get(ctx, k)
	if err != nil {
		return 0, fmt.Errorf("pool: load %s: %w", k, err)
	}
	if !ok {
		return -1, nil // first oid is 0
	}
	v, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("pool: parse %s: %w", k, err)
	}
	return v, nil
}
