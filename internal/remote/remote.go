// Package remote defines the record store that mirrors the board, the trash,
// and the project name to a shared database. Each kind is a table of rows
// {id, payload, created_at}; readers take the newest row.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Kind names a remote table.
type Kind string

// Remote tables.
const (
	KindProject Kind = "projects"
	KindBoard   Kind = "kanban_data"
	KindTrash   Kind = "kanban_trash"
)

// Kinds lists every kind in load order.
var Kinds = []Kind{KindProject, KindBoard, KindTrash}

// Valid reports whether k names a known table.
func (k Kind) Valid() bool {
	switch k {
	case KindProject, KindBoard, KindTrash:
		return true
	}
	return false
}

// PayloadColumn returns the column holding the payload for k.
func (k Kind) PayloadColumn() string {
	if k == KindProject {
		return "name"
	}
	return "data"
}

// Record is one remote row. For KindProject the payload is a JSON string.
type Record struct {
	ID        string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// Remote store errors.
var (
	ErrPermissionDenied = errors.New("remote permission denied")
	ErrNotFound         = errors.New("remote row not found")
	ErrUnknownKind      = errors.New("unknown remote kind")
)

// Store is the remote record store.
//
// Latest returns nil and no error when the table is empty. Update reports
// ErrPermissionDenied when row-level security rejects the write and
// ErrNotFound when no row matched id.
type Store interface {
	Latest(ctx context.Context, kind Kind) (*Record, error)
	Insert(ctx context.Context, kind Kind, payload json.RawMessage) error
	Update(ctx context.Context, kind Kind, id string, payload json.RawMessage) error
	Close()
}

// IsNotFound reports whether err means the target row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPermissionDenied reports whether err is a permission failure.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}
