package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	corelogger "github.com/kilianp07/zerowaste/core/logger"
)

// LogrusLogger implements Logger using sirupsen/logrus for deployments that
// ship logs through a logrus formatter pipeline.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger creates a LogrusLogger tagging every entry with component.
// A nil writer means stdout.
func NewLogrusLogger(component string, cfg Config, out io.Writer) Logger {
	if out == nil {
		out = os.Stdout
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrusLevel(cfg.Level))
	if cfg.Format == "console" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return &LogrusLogger{entry: l.WithField("component", component)}
}

func logrusLevel(l corelogger.Level) logrus.Level {
	switch l {
	case corelogger.LevelDebug:
		return logrus.DebugLevel
	case corelogger.LevelWarn:
		return logrus.WarnLevel
	case corelogger.LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func (l *LogrusLogger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }

func (l *LogrusLogger) Debugw(msg string, fields map[string]any) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l *LogrusLogger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *LogrusLogger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *LogrusLogger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }
