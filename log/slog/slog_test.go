package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/poolcache"
)

func TestLevelsAndSortedAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: stdslog.New(stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo}))}

	l.Debug("hidden", poolcache.Fields{"oid": 1})
	l.Warn("insert for resident oid; replacing line", poolcache.Fields{"oid": 4, "err": "x"})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry below level was written: %s", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "err=x oid=4") {
		t.Fatalf("unexpected output: %s", out)
	}
}
