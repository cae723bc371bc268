// Package remotetest provides an in-memory remote.Store for tests.
package remotetest

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/remote"
)

// Call records one mutating call.
type Call struct {
	Op      string // "insert" or "update"
	Kind    remote.Kind
	ID      string
	Payload json.RawMessage
}

// Store is an in-memory remote.Store. Rows are kept per kind in insertion
// order; Latest returns the last one. Update of an unknown id reports
// remote.ErrNotFound. Fail* fields inject errors.
type Store struct {
	mu     sync.Mutex
	rows   map[remote.Kind][]remote.Record
	calls  []Call
	nextID int
	now    func() time.Time
	closed bool

	FailLatest map[remote.Kind]error
	FailInsert map[remote.Kind]error
	FailUpdate map[remote.Kind]error

	// Block, when non-nil, is received from before each mutating call
	// proceeds. Tests use it to hold the mirror worker.
	Block chan struct{}
}

// New returns an empty store.
func New() *Store {
	return &Store{
		rows:       make(map[remote.Kind][]remote.Record),
		now:        time.Now,
		FailLatest: make(map[remote.Kind]error),
		FailInsert: make(map[remote.Kind]error),
		FailUpdate: make(map[remote.Kind]error),
	}
}

// Seed appends a row and returns its id.
func (s *Store) Seed(kind remote.Kind, payload string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(kind, json.RawMessage(payload))
}

func (s *Store) appendLocked(kind remote.Kind, payload json.RawMessage) string {
	s.nextID++
	id := strconv.Itoa(s.nextID)
	s.rows[kind] = append(s.rows[kind], remote.Record{
		ID:        id,
		Payload:   append(json.RawMessage(nil), payload...),
		CreatedAt: s.now(),
	})
	return id
}

func (s *Store) Latest(ctx context.Context, kind remote.Kind) (*remote.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailLatest[kind]; err != nil {
		return nil, err
	}
	rows := s.rows[kind]
	if len(rows) == 0 {
		return nil, nil
	}
	rec := rows[len(rows)-1]
	return &rec, nil
}

func (s *Store) Insert(ctx context.Context, kind remote.Kind, payload json.RawMessage) error {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "insert", Kind: kind, Payload: payload})
	if err := s.FailInsert[kind]; err != nil {
		return err
	}
	s.appendLocked(kind, payload)
	return nil
}

func (s *Store) Update(ctx context.Context, kind remote.Kind, id string, payload json.RawMessage) error {
	s.wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "update", Kind: kind, ID: id, Payload: payload})
	if err := s.FailUpdate[kind]; err != nil {
		return err
	}
	rows := s.rows[kind]
	for i := range rows {
		if rows[i].ID == id {
			rows[i].Payload = append(json.RawMessage(nil), payload...)
			return nil
		}
	}
	return remote.ErrNotFound
}

func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Store) wait() {
	if s.Block != nil {
		<-s.Block
	}
}

// Calls returns a copy of the recorded mutating calls.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Rows returns a copy of the rows of kind.
func (s *Store) Rows(kind remote.Kind) []remote.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]remote.Record(nil), s.rows[kind]...)
}

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SetFailLatest, SetFailInsert, and SetFailUpdate inject errors safely while
// a worker may be running.
func (s *Store) SetFailLatest(kind remote.Kind, err error) { s.set(s.FailLatest, kind, err) }

func (s *Store) SetFailInsert(kind remote.Kind, err error) { s.set(s.FailInsert, kind, err) }

func (s *Store) SetFailUpdate(kind remote.Kind, err error) { s.set(s.FailUpdate, kind, err) }

func (s *Store) set(m map[remote.Kind]error, kind remote.Kind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(m, kind)
		return
	}
	m[kind] = err
}
