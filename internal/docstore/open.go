package docstore

import (
	"fmt"
	"strings"

	"manualexec/internal/config"
	"manualexec/internal/repository"
)

// Open selects a Store implementation from config.
//
//	store.driver: fs|postgres|memory (default fs)
//	store.root:   directory root when driver=fs
//
// repo is only consulted for the postgres driver.
func Open(cfg config.StoreConfig, repo repository.DocumentRepository) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "fs":
		return NewFileStore(cfg.Root)
	case "postgres":
		if repo == nil {
			return nil, fmt.Errorf("store driver postgres needs a database")
		}
		return NewRepoStore(repo), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %s", cfg.Driver)
	}
}
