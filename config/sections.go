package config

import "fmt"

// StoreConfig selects where donations and requests live.
type StoreConfig struct {
	// Backend is "sqlite" (default) or "memory".
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// Fixtures is an optional YAML file seeded at startup.
	Fixtures string `json:"fixtures"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "sqlite"
	}
	if c.Path == "" && c.Backend == "sqlite" {
		c.Path = "data/zerowaste.db"
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	switch c.Backend {
	case "memory":
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("store: path is required for sqlite")
		}
	default:
		return fmt.Errorf("store: unknown backend %s", c.Backend)
	}
	return nil
}

// ModelConfig points at the fitted scoring artifacts.
type ModelConfig struct {
	ArtifactPath string `json:"artifact_path"`
}

func (c *ModelConfig) SetDefaults() {
	if c.ArtifactPath == "" {
		c.ArtifactPath = "configs/model.yaml"
	}
}

func (c ModelConfig) Validate() error {
	if c.ArtifactPath == "" {
		return fmt.Errorf("model: artifact_path is required")
	}
	return nil
}

// HTTPConfig configures the polling API.
type HTTPConfig struct {
	Addr string `json:"addr"`
	// AuditToken guards GET /api/audit when set.
	AuditToken string `json:"audit_token"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
