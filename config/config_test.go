package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/unkn0wn-root/poolcache"
)

func TestStatic(t *testing.T) {
	d := Defaults()
	if v, err := d.Bound(poolcache.BoundSize); err != nil || v != DefaultSize {
		t.Fatalf("size: got %d, %v", v, err)
	}
	if v, err := d.Bound(poolcache.BoundPressure); err != nil || v != DefaultPressure {
		t.Fatalf("pressure: got %d, %v", v, err)
	}
	if _, err := d.Bound("NOPE"); !errors.Is(err, ErrUnknownBound) {
		t.Fatalf("unknown: got %v", err)
	}
}

func TestEnv(t *testing.T) {
	e := Env{Prefix: "TEST_"}
	if _, err := e.Bound(poolcache.BoundSize); !errors.Is(err, ErrUnknownBound) {
		t.Fatalf("unset: got %v", err)
	}

	t.Setenv("TEST_"+poolcache.BoundSize, " 120 ")
	if v, err := e.Bound(poolcache.BoundSize); err != nil || v != 120 {
		t.Fatalf("set: got %d, %v", v, err)
	}

	t.Setenv("TEST_"+poolcache.BoundSize, "lots")
	_, err := e.Bound(poolcache.BoundSize)
	if err == nil || errors.Is(err, ErrUnknownBound) {
		t.Fatalf("malformed: got %v", err)
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "bounds.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFile(t *testing.T) {
	p := writeFile(t, "pool_cache:\n  size: 300\n")
	f := NewFile(p)

	if v, err := f.Bound(poolcache.BoundSize); err != nil || v != 300 {
		t.Fatalf("size: got %d, %v", v, err)
	}
	if _, err := f.Bound(poolcache.BoundPressure); !errors.Is(err, ErrUnknownBound) {
		t.Fatalf("missing key: got %v", err)
	}

	// edits are picked up on the next read
	if err := os.WriteFile(p, []byte("pool_cache:\n  size: 10\n  pressure: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if v, err := f.Bound(poolcache.BoundSize); err != nil || v != 10 {
		t.Fatalf("reloaded size: got %d, %v", v, err)
	}
	if v, err := f.Bound(poolcache.BoundPressure); err != nil || v != 2 {
		t.Fatalf("reloaded pressure: got %d, %v", v, err)
	}
}

func TestFileErrors(t *testing.T) {
	if _, err := NewFile(filepath.Join(t.TempDir(), "missing.yaml")).Bound(poolcache.BoundSize); err == nil {
		t.Fatalf("expected read error")
	}
	p := writeFile(t, "pool_cache: [1, 2")
	if _, err := NewFile(p).Bound(poolcache.BoundSize); err == nil || errors.Is(err, ErrUnknownBound) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestChain(t *testing.T) {
	c := Chain{
		Static{poolcache.BoundPressure: 7},
		Defaults(),
	}
	if v, err := c.Bound(poolcache.BoundPressure); err != nil || v != 7 {
		t.Fatalf("first source: got %d, %v", v, err)
	}
	if v, err := c.Bound(poolcache.BoundSize); err != nil || v != DefaultSize {
		t.Fatalf("fallback: got %d, %v", v, err)
	}
	if _, err := c.Bound("NOPE"); !errors.Is(err, ErrUnknownBound) {
		t.Fatalf("unknown: got %v", err)
	}

	boom := errors.New("boom")
	broken := Chain{
		poolcache.BoundsFunc(func(string) (int, error) { return 0, boom }),
		Defaults(),
	}
	if _, err := broken.Bound(poolcache.BoundSize); !errors.Is(err, boom) {
		t.Fatalf("hard error must stop the chain, got %v", err)
	}
}
