package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/datacron"
)

var _ datacron.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New returns a Logger tagging every entry with component=datacron.
func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "datacron")}
}

func (l LogrusLogger) Debug(msg string, f datacron.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f datacron.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f datacron.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f datacron.Fields) { l.with(f).Error(msg) }

func (l LogrusLogger) with(f datacron.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	return l.E.WithFields(logrus.Fields(f))
}
