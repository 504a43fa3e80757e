package main

import (
	"fmt"
	"strings"

	"polydros.ai/internal/persistence/indexdb"
)

// openRuntimeIndex opens the card index named by backend (config.IndexBackend).
// A nil index disables card search.
func openRuntimeIndex(backend, path string, disable bool) (*indexdb.SQLiteIndex, error) {
	if disable {
		return nil, nil
	}
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		backend = "sqlite"
	}
	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		if strings.TrimSpace(path) == "" {
			path = indexdb.MemoryPath
		}
		return indexdb.OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported POLYDROS_INDEX_BACKEND: %s", backend)
	}
}
