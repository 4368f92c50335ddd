package sqlstore

import (
	"github.com/platinummonkey/aiwu-analytics/pkg/storage"
)

// OpenEventStore returns the store selected by cfg.Driver: a fixture-backed
// storage.MemoryStore for "memory", a database Store otherwise.
func OpenEventStore(cfg storage.Config, opts ...Option) (storage.EventStore, error) {
	if cfg.Driver == "memory" {
		return storage.LoadFixture(cfg.FixturePath)
	}
	return Open(cfg, opts...)
}
