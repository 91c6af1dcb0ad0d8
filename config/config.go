package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/zerowaste/core/allocation/audit"
	"github.com/kilianp07/zerowaste/core/metrics"
	infralogger "github.com/kilianp07/zerowaste/infra/logger"
	"github.com/kilianp07/zerowaste/infra/mqtt"
)

// EnvPrefix marks environment overrides. Nested keys use a double
// underscore, e.g. K_MQTT__BROKER.
const EnvPrefix = "K_"

type Config struct {
	Store   StoreConfig        `json:"store"`
	Model   ModelConfig        `json:"model"`
	Metrics metrics.Config     `json:"metrics"`
	Audit   audit.Config       `json:"audit"`
	MQTT    mqtt.Config        `json:"mqtt"`
	Sentry  SentryConfig       `json:"sentry"`
	HTTP    HTTPConfig         `json:"http"`
	Logging infralogger.Config `json:"logging"`
}

// Load reads the file at path, applies environment overrides, fills the
// defaults and validates the result. An empty path loads the environment
// only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Store.SetDefaults()
	c.Model.SetDefaults()
	c.Audit.SetDefaults()
	c.MQTT.SetDefaults()
	c.HTTP.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section and reports all problems at once.
func (c Config) Validate() error {
	return errors.Join(
		c.Store.Validate(),
		c.Model.Validate(),
		c.Audit.Validate(),
		c.MQTT.Validate(),
		c.Sentry.Validate(),
		c.Logging.Validate(),
	)
}
