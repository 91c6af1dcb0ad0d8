package plugins

import (
	"github.com/kilianp07/zerowaste/config"
	"github.com/kilianp07/zerowaste/core/allocation"
	"github.com/kilianp07/zerowaste/core/factory"
	"github.com/kilianp07/zerowaste/infra/store"
)

// Backend is a store the engine runs on and fixtures can be seeded into.
// Backends holding a file or connection also implement io.Closer.
type Backend interface {
	allocation.Store
	store.Seeder
}

var stores = factory.NewRegistry[Backend]()

// RegisterStore adds a store backend factory identified by name.
func RegisterStore(name string, f factory.Factory[Backend]) error { return stores.Register(name, f) }

// StoreTypes lists the registered backend names.
func StoreTypes() []string { return stores.Names() }

// OpenStore builds the backend selected by cfg.
func OpenStore(cfg config.StoreConfig) (Backend, error) {
	conf := map[string]any{}
	if cfg.Path != "" {
		conf["path"] = cfg.Path
	}
	return stores.Create(factory.ModuleConfig{Type: cfg.Backend, Conf: conf})
}
