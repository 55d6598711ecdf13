// Package logrus adapts a *logrus.Entry to poolcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/poolcache"
)

var _ poolcache.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New returns a Logger on top of l tagged with component=poolcache.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "poolcache")}
}

func (l Logger) entry(f poolcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	return l.E.WithFields(logrus.Fields(f))
}

func (l Logger) Debug(msg string, f poolcache.Fields) { l.entry(f).Debug(msg) }
func (l Logger) Info(msg string, f poolcache.Fields)  { l.entry(f).Info(msg) }
func (l Logger) Warn(msg string, f poolcache.Fields)  { l.entry(f).Warn(msg) }
func (l Logger) Error(msg string, f poolcache.Fields) { l.entry(f).Error(msg) }
