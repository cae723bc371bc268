// Package localstore implements the synchronous local key-value store that
// holds the board, the trash, and the bookkeeping timestamps between runs.
package localstore

import (
	"errors"
	"fmt"
	"os"

	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// Well-known keys. The names match the keys the browser client wrote to
// localStorage so that exported stores stay interchangeable.
const (
	KeyBoard            = "ru-mega-kanban-data"
	KeyTrash            = "ru-mega-kanban-trash"
	KeyProjectName      = "ru-mega-kanban-project-name"
	KeyLastBackup       = "ru-mega-kanban-last-backup"
	KeyLastEmptiedTrash = "ru-mega-kanban-last-emptied-trash"
	KeyBackupDir        = "ru-mega-kanban-backup-dir"

	// KeyUnsyncedPrefix prefixes the per-kind markers left while a remote
	// write of that kind is outstanding or has failed.
	KeyUnsyncedPrefix = "ru-mega-kanban-unsynced-"
)

// UnsyncedKey returns the marker key for the remote table kind.
func UnsyncedKey(kind string) string { return KeyUnsyncedPrefix + kind }

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("local store is closed")

// Store is a string key-value store. Get reports ok=false for absent keys.
// Implementations are safe for concurrent use.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// Open creates the store selected by cfg.Backend under cfg.DataDir.
// DataDir is created if it does not exist; an empty DataDir means the
// current directory.
func Open(cfg types.Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	switch cfg.Backend {
	case types.BackendSQLite:
		return OpenSQLite(dataDir)
	case types.BackendJSON:
		return OpenFile(dataDir)
	default:
		return nil, types.ErrBackendUnknown
	}
}
