// Package sloghooks reports poolcache events through log/slog.
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/poolcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	EvictEvery uint64
	DirtyEvery uint64
	// Block evictions that freed nothing are logged at Warn when true,
	// at Debug otherwise.
	WarnStuckBlocks bool
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	evictCtr atomic.Uint64
	dirtyCtr atomic.Uint64
}

var _ poolcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) LineEvicted(oid int, reason string) {
	if h.l == nil || !sample(h.opts.EvictEvery, &h.evictCtr) {
		return
	}
	h.l.Debug("poolcache.line_evicted",
		"oid", oid,
		"reason", reason)
}

func (h *Hooks) LineDirtied(oid int, reason string) {
	if h.l == nil || !sample(h.opts.DirtyEvery, &h.dirtyCtr) {
		return
	}
	h.l.Debug("poolcache.line_dirtied",
		"oid", oid,
		"reason", reason)
}

func (h *Hooks) BlockEvicted(requested, evicted, scanned int) {
	if h.l == nil {
		return
	}
	if evicted == 0 && h.opts.WarnStuckBlocks {
		h.l.Warn("poolcache.block_stuck",
			"requested", requested,
			"scanned", scanned)
		return
	}
	h.l.Debug("poolcache.block_evicted",
		"requested", requested,
		"evicted", evicted,
		"scanned", scanned)
}

func (h *Hooks) ModeChanged(mode poolcache.Mode, capacity int) {
	if h.l == nil {
		return
	}
	h.l.Info("poolcache.mode_changed",
		"mode", mode.String(),
		"capacity", capacity)
}

func (h *Hooks) BoundError(name string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("poolcache.bound_error",
		"name", name,
		"err", err)
}
