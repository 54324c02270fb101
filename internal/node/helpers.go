package node

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Klingon-tech/klingnet-stake/config"
	klog "github.com/Klingon-tech/klingnet-stake/internal/log"
	"github.com/Klingon-tech/klingnet-stake/internal/storage"
)

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// openStorage opens the configured backend. The memory backend loses all
// accounts on exit and is meant for tests and demos.
func openStorage(cfg *config.Config) (storage.DB, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		klog.Storage.Warn().Msg("Using in-memory storage; accounts are not persisted")
		return storage.NewMemory(), nil
	case config.BackendBadger, "":
		path := expandHome(cfg.LedgerDir())
		db, err := storage.NewBadger(path)
		if err != nil {
			return nil, fmt.Errorf("open database at %s: %w", path, err)
		}
		klog.Storage.Info().Str("path", path).Msg("Database opened")
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
