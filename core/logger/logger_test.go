package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var _ Logger = NopLogger{}

func TestNopLoggerDiscards(t *testing.T) {
	var l Logger = NopLogger{}
	assert.NotPanics(t, func() {
		l.Debugf("debug %d", 1)
		l.Debugw("debug", map[string]any{"k": 1})
		l.Infof("info")
		l.Warnf("warn")
		l.Errorf("error %v", nil)
	})
}

func TestLevelValid(t *testing.T) {
	for _, l := range []Level{"", LevelDebug, LevelInfo, LevelWarn, LevelError} {
		assert.True(t, l.Valid(), string(l))
	}
	assert.False(t, Level("trace").Valid())
}
