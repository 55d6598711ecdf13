// Package zap adapts a *zap.Logger to poolcache.Logger.
package zap

import (
	"sort"

	"github.com/unkn0wn-root/poolcache"
	"go.uber.org/zap"
)

var _ poolcache.Logger = Logger{}

type Logger struct{ L *zap.Logger }

// New returns a Logger that tags every entry with component=poolcache.
func New(l *zap.Logger) Logger {
	return Logger{L: l.With(zap.String("component", "poolcache"))}
}

func (z Logger) Debug(msg string, f poolcache.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f poolcache.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f poolcache.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f poolcache.Fields) { z.L.Error(msg, fields(f)...) }

// fields converts f in key order so output is stable.
func fields(f poolcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		switch v := f[k].(type) {
		case int:
			out = append(out, zap.Int(k, v))
		case string:
			out = append(out, zap.String(k, v))
		case error:
			out = append(out, zap.NamedError(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
