package poolcache

// coalesce returns def when v is the zero value of T, otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// withDefaults fills the optional fields of o.
func (o Options) withDefaults() Options {
	o.Logger = coalesce[Logger](o.Logger, NopLogger{})
	o.Hooks = coalesce[Hooks](o.Hooks, NopHooks{})
	return o
}

// blockSize is the number of lines a full-mode overflow tries to evict.
// Floors, so capacities below 7 evict nothing and the cache grows past them.
func blockSize(capacity int) int {
	return capacity * blockPercent / 100
}
