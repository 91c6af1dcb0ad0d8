package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `store:
  backend: sqlite
  path: /tmp/zw.db
model:
  artifact_path: configs/model.yaml
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  topic_prefix: "zw"
  use_tls: false
metrics:
  prom_addr: ":9100"
  sinks:
    - type: "nop"
    - type: "influx"
      conf:
        url: "http://influx:8086"
        bucket: "zerowaste"
audit:
  backend: sqlite
  path: /tmp/audit.db
http:
  addr: ":8081"
logging:
  backend: logrus
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"store.backend", cfg.Store.Backend, "sqlite"},
		{"store.path", cfg.Store.Path, "/tmp/zw.db"},
		{"model", cfg.Model.ArtifactPath, "configs/model.yaml"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"username", cfg.MQTT.Username, "user"},
		{"password", cfg.MQTT.Password, "pass"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "zw"},
		{"mqtt retries default", cfg.MQTT.MaxRetries, 3},
		{"use_tls", cfg.MQTT.UseTLS, false},
		{"prom_addr", cfg.Metrics.PromAddr, ":9100"},
		{"metrics_sinks", len(cfg.Metrics.Sinks), 2},
		{"influx bucket", cfg.Metrics.Sinks[1].Conf["bucket"], "zerowaste"},
		{"audit.backend", cfg.Audit.Backend, "sqlite"},
		{"audit rotation default", cfg.Audit.MaxBackups, 5},
		{"http.addr", cfg.HTTP.Addr, ":8081"},
		{"logging.backend", cfg.Logging.Backend, "logrus"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadDefaultsFromEnvOnly(t *testing.T) {
	t.Setenv("K_STORE__BACKEND", "memory")
	t.Setenv("K_MQTT__BROKER", "tcp://broker:1883")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "configs/model.yaml", cfg.Model.ArtifactPath)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "jsonl", cfg.Audit.Backend)
	assert.Equal(t, "zerolog", cfg.Logging.Backend)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "config.json", `{"http": {"addr": ":1"}, "store": {"backend": "memory"}}`)
	t.Setenv("K_HTTP__ADDR", ":2")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":2", cfg.HTTP.Addr)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"store":  "store:\n  backend: postgres\n",
		"audit":  "audit:\n  backend: kafka\n",
		"mqtt":   "mqtt:\n  qos: 5\n",
		"sentry": "sentry:\n  traces_sample_rate: 2\n",
		"log":    "logging:\n  level: loud\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.yaml", data))
			assert.Error(t, err)
		})
	}
	_, err := Load(writeConfig(t, "config.toml", "x = 1"))
	assert.Error(t, err)
}
