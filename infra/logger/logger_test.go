package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corelogger "github.com/kilianp07/zerowaste/core/logger"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologJSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := newZerolog("allocation", Config{Format: "json", Level: corelogger.LevelDebug}, &buf)
	l.Debugw("scored", map[string]any{"donation": "d1"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "allocation", entry["component"])
	assert.Equal(t, "d1", entry["donation"])
	assert.Equal(t, "scored", entry["message"])
}

func TestZerologLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := newZerolog("x", Config{Format: "json", Level: corelogger.LevelWarn}, &buf)
	l.Infof("hidden")
	l.Warnf("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogrusLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogrusLogger("notify", Config{Format: "json", Level: corelogger.LevelInfo}, &buf)
	l.Debugf("hidden")
	l.Infof("relay %s", "up")
	l.Debugw("hidden too", map[string]any{"k": 1})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "notify", entry["component"])
	assert.Equal(t, "relay up", entry["msg"])
}

func TestConfigValidate(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	assert.Equal(t, "zerolog", cfg.Backend)
	assert.Equal(t, corelogger.LevelInfo, cfg.Level)
	require.NoError(t, cfg.Validate())

	assert.Error(t, Config{Backend: "zap"}.Validate())
	assert.Error(t, Config{Level: "verbose"}.Validate())
	assert.Error(t, Config{Format: "xml"}.Validate())
}

func TestNewUsesConfiguredBackend(t *testing.T) {
	Configure(Config{Backend: "logrus"})
	defer Configure(Config{})
	_, ok := New("cli").(*LogrusLogger)
	assert.True(t, ok)
}
