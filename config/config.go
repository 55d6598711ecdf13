// Package config provides capacity bound sources for poolcache.
//
// Every source implements poolcache.Bounds. Bounds are looked up by name
// (poolcache.BoundSize, poolcache.BoundPressure) each time the cache changes
// mode, so a File or Env source picks up edits on the next Enable/Disable.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/poolcache"
)

// ErrUnknownBound is returned when a source has no value for a name.
var ErrUnknownBound = errors.New("config: unknown bound")

// Defaults applied when no other source sets a bound.
const (
	DefaultSize     = 5000
	DefaultPressure = 0
)

var (
	_ poolcache.Bounds = Static(nil)
	_ poolcache.Bounds = Env{}
	_ poolcache.Bounds = (*File)(nil)
	_ poolcache.Bounds = Chain(nil)
)

// Static serves bounds from a fixed map.
type Static map[string]int

// Defaults returns a Static holding DefaultSize and DefaultPressure.
func Defaults() Static {
	return Static{
		poolcache.BoundSize:     DefaultSize,
		poolcache.BoundPressure: DefaultPressure,
	}
}

func (s Static) Bound(name string) (int, error) {
	v, ok := s[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownBound, name)
	}
	return v, nil
}

// Env reads bounds from environment variables named Prefix+name,
// e.g. "POOL_CACHE_SIZE" with an empty prefix.
type Env struct {
	Prefix string
}

func (e Env) Bound(name string) (int, error) {
	key := e.Prefix + name
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, fmt.Errorf("%w: %s", ErrUnknownBound, key)
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("config: env %s: %w", key, err)
	}
	return v, nil
}

// fileBounds is the on-disk layout:
//
//	pool_cache:
//	  size: 5000
//	  pressure: 0
type fileBounds struct {
	PoolCache struct {
		Size     *int `yaml:"size"`
		Pressure *int `yaml:"pressure"`
	} `yaml:"pool_cache"`
}

// File reads bounds from a YAML file. The file is parsed on every call so
// edits apply at the next mode transition.
type File struct {
	Path string
}

func NewFile(path string) *File { return &File{Path: path} }

func (f *File) Bound(name string) (int, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return 0, fmt.Errorf("config: read %s: %w", f.Path, err)
	}
	var fb fileBounds
	if err := yaml.Unmarshal(b, &fb); err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", f.Path, err)
	}

	var v *int
	switch name {
	case poolcache.BoundSize:
		v = fb.PoolCache.Size
	case poolcache.BoundPressure:
		v = fb.PoolCache.Pressure
	}
	if v == nil {
		return 0, fmt.Errorf("%w: %s in %s", ErrUnknownBound, name, f.Path)
	}
	return *v, nil
}

// Chain asks each source in order and returns the first value found.
// Errors other than ErrUnknownBound stop the search.
type Chain []poolcache.Bounds

func (c Chain) Bound(name string) (int, error) {
	for _, b := range c {
		v, err := b.Bound(name)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrUnknownBound) {
			return 0, err
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownBound, name)
}
