package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/poolcache"
)

func TestFieldsAreTypedAndSorted(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Warn("cache bound read failed", poolcache.Fields{
		"name": poolcache.BoundSize,
		"err":  errors.New("missing"),
		"oid":  7,
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel || e.Message != "cache bound read failed" {
		t.Fatalf("entry %+v", e.Entry)
	}
	ctx := e.ContextMap()
	if ctx["component"] != "poolcache" || ctx["name"] != poolcache.BoundSize || ctx["oid"] != int64(7) || ctx["err"] != "missing" {
		t.Fatalf("context %v", ctx)
	}

	keys := []string{}
	for _, f := range e.Context[1:] {
		keys = append(keys, f.Key)
	}
	if len(keys) != 3 || keys[0] != "err" || keys[1] != "name" || keys[2] != "oid" {
		t.Fatalf("field order %v", keys)
	}
}
