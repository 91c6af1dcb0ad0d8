package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/zerowaste/core/logger"
)

// ZerologLogger implements Logger using rs/zerolog.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a ZerologLogger using the APP_ENV environment
// variable to determine the output format. All logs include the provided
// component field.
func NewZerologLogger(component string) Logger {
	cfg := Config{Backend: "zerolog"}
	cfg.SetDefaults()
	return newZerolog(component, cfg, os.Stdout)
}

func newZerolog(component string, cfg Config, out io.Writer) *ZerologLogger {
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	z := zerolog.New(out).Level(zerologLevel(cfg.Level)).
		With().Timestamp().Str("component", component).Logger()
	return &ZerologLogger{log: z}
}

func zerologLevel(l corelogger.Level) zerolog.Level {
	switch l {
	case corelogger.LevelDebug:
		return zerolog.DebugLevel
	case corelogger.LevelWarn:
		return zerolog.WarnLevel
	case corelogger.LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Debugw(msg string, fields map[string]any) {
	l.log.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
