package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/remote"
)

// Store implements remote.Store.
type Store struct {
	pool Pool
}

// New connects a pool to dsn.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := newPool(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return NewWithPool(pool), nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool Pool) *Store {
	return &Store{pool: pool}
}

// Latest returns the newest row of kind. The project name column is text and
// is returned as a JSON string so every kind carries a JSON payload.
func (s *Store) Latest(ctx context.Context, kind remote.Kind) (*remote.Record, error) {
	if !kind.Valid() {
		return nil, remote.ErrUnknownKind
	}
	q := fmt.Sprintf(`SELECT id::text, to_jsonb(%s), created_at FROM %s ORDER BY created_at DESC LIMIT 1`,
		kind.PayloadColumn(), kind)

	var (
		rec     remote.Record
		payload []byte
		created time.Time
	)
	err := s.pool.QueryRow(ctx, q).Scan(&rec.ID, &payload, &created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(kind, "select", err)
	}
	rec.Payload = json.RawMessage(payload)
	rec.CreatedAt = created
	return &rec, nil
}

// Insert appends a row.
func (s *Store) Insert(ctx context.Context, kind remote.Kind, payload json.RawMessage) error {
	if !kind.Valid() {
		return remote.ErrUnknownKind
	}
	arg, err := columnValue(kind, payload)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1)`, kind, kind.PayloadColumn())
	if _, err := s.pool.Exec(ctx, q, arg); err != nil {
		return wrap(kind, "insert", err)
	}
	return nil
}

// Update overwrites the payload of row id. It reports remote.ErrNotFound
// when no row was changed.
func (s *Store) Update(ctx context.Context, kind remote.Kind, id string, payload json.RawMessage) error {
	if !kind.Valid() {
		return remote.ErrUnknownKind
	}
	arg, err := columnValue(kind, payload)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE id::text = $2`, kind, kind.PayloadColumn())
	tag, err := s.pool.Exec(ctx, q, arg, id)
	if err != nil {
		return wrap(kind, "update", err)
	}
	// Row-level security filters rows out of UPDATE silently.
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s: row %s: %w", kind, id, remote.ErrNotFound)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() { s.pool.Close() }

// columnValue converts a payload to the bound parameter for kind: the
// decoded string for the text name column, the JSON text for jsonb columns.
func columnValue(kind remote.Kind, payload json.RawMessage) (any, error) {
	if kind != remote.KindProject {
		return string(payload), nil
	}
	var name string
	if err := json.Unmarshal(payload, &name); err != nil {
		return nil, fmt.Errorf("project payload must be a JSON string: %w", err)
	}
	return name, nil
}

func wrap(kind remote.Kind, op string, err error) error {
	if isPermissionDenied(err) {
		return fmt.Errorf("%s %s: %w: %v", op, kind, remote.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%s %s: %w", op, kind, err)
}
