package plugins

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kilianp07/zerowaste/core/factory"
	"github.com/kilianp07/zerowaste/infra/store"
)

func init() {
	_ = RegisterStore("memory", func(map[string]any) (Backend, error) {
		return store.NewMemoryStore(), nil
	})
	_ = RegisterStore("sqlite", func(conf map[string]any) (Backend, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("path is required")
		}
		if err := EnsureDir(c.Path); err != nil {
			return nil, err
		}
		return store.NewSQLiteStore(c.Path)
	})
}

// EnsureDir creates the parent directory of a database or log file.
func EnsureDir(path string) error {
	if path == ":memory:" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}
