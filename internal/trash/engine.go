// Package trash holds soft-deleted columns and blocks, restores them, and
// expires old items once per calendar day.
package trash

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/localstore"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// RetentionDays is how long an item stays in the trash before cleanup
// removes it.
const RetentionDays = 30

// dayLayout renders a calendar day the way the browser client's
// Date.toDateString did, so last-run keys written by either match.
const dayLayout = "Mon Jan 02 2006"

// Engine is the trash engine. Observers registered with OnChange receive a
// copy of the bin after every mutation; they run with the engine lock held
// and must not call back into the engine.
type Engine struct {
	mu        sync.Mutex
	bin       types.TrashBin
	store     localstore.Store
	now       func() time.Time
	logger    *zap.Logger
	observers []func(types.TrashBin)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an engine holding bin. store keeps the cleanup day key.
func New(store localstore.Store, bin types.TrashBin, opts ...Option) *Engine {
	e := &Engine{
		bin:    bin.Normalize(),
		store:  store,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnChange registers an observer.
func (e *Engine) OnChange(fn func(types.TrashBin)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

func (e *Engine) notifyLocked() {
	for _, fn := range e.observers {
		fn(e.bin.Clone())
	}
}

// Bin returns a copy of the trash.
func (e *Engine) Bin() types.TrashBin {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bin.Clone()
}

// Len returns the number of trashed items.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bin.Len()
}

// Replace installs a bin loaded from elsewhere without notifying observers.
func (e *Engine) Replace(bin types.TrashBin) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bin = bin.Clone().Normalize()
}

// AddTrashedColumn stamps the column with the current time and puts it at
// the front of the column list.
func (e *Engine) AddTrashedColumn(col types.Column) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	tc := types.TrashedColumn{Column: col.Clone(), DeletedAt: &now}
	e.bin.Columns = append([]types.TrashedColumn{tc}, e.bin.Columns...)
	e.notifyLocked()
}

// AddTrashedBlock stamps the block with the current time and its source
// column and puts it at the front of the block list.
func (e *Engine) AddTrashedBlock(block types.Block, columnID types.ID, columnTitle string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	tb := types.TrashedBlock{
		Block:             block.Clone(),
		DeletedAt:         &now,
		SourceColumnID:    columnID,
		SourceColumnTitle: columnTitle,
	}
	e.bin.Blocks = append([]types.TrashedBlock{tb}, e.bin.Blocks...)
	e.notifyLocked()
}

// RestoreColumn removes the column from the trash and returns its entry.
func (e *Engine) RestoreColumn(id types.ID) (types.TrashedColumn, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, tc := range e.bin.Columns {
		if tc.ID != id {
			continue
		}
		e.bin.Columns = append(e.bin.Columns[:i:i], e.bin.Columns[i+1:]...)
		e.notifyLocked()
		return tc, true
	}
	return types.TrashedColumn{}, false
}

// RestoreBlock removes the block from the trash and returns its entry,
// which names the column the block came from.
func (e *Engine) RestoreBlock(id types.ID) (types.TrashedBlock, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, tb := range e.bin.Blocks {
		if tb.ID != id {
			continue
		}
		e.bin.Blocks = append(e.bin.Blocks[:i:i], e.bin.Blocks[i+1:]...)
		e.notifyLocked()
		return tb, true
	}
	return types.TrashedBlock{}, false
}

// PutBackColumn returns an entry taken by RestoreColumn whose restore could
// not complete. The deletion time is kept, so expiry is unaffected.
func (e *Engine) PutBackColumn(tc types.TrashedColumn) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bin.Columns = insertByAge(e.bin.Columns, tc, func(c types.TrashedColumn) *time.Time { return c.DeletedAt })
	e.notifyLocked()
}

// PutBackBlock is PutBackColumn for blocks.
func (e *Engine) PutBackBlock(tb types.TrashedBlock) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bin.Blocks = insertByAge(e.bin.Blocks, tb, func(b types.TrashedBlock) *time.Time { return b.DeletedAt })
	e.notifyLocked()
}

// insertByAge keeps the newest-first order. Entries without a deletion time
// sort last.
func insertByAge[T any](items []T, item T, deletedAt func(T) *time.Time) []T {
	at := deletedAt(item)
	i := len(items)
	if at != nil {
		for j, it := range items {
			if d := deletedAt(it); d == nil || d.Before(*at) {
				i = j
				break
			}
		}
	}
	out := make([]T, 0, len(items)+1)
	out = append(out, items[:i]...)
	out = append(out, item)
	return append(out, items[i:]...)
}

// DeleteItemPermanently removes an item of the given kind. Unknown kinds
// and missing ids return false.
func (e *Engine) DeleteItemPermanently(id types.ID, kind types.TrashKind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch kind {
	case types.TrashKindColumn:
		for i, tc := range e.bin.Columns {
			if tc.ID == id {
				e.bin.Columns = append(e.bin.Columns[:i:i], e.bin.Columns[i+1:]...)
				e.notifyLocked()
				return true
			}
		}
	case types.TrashKindBlock:
		for i, tb := range e.bin.Blocks {
			if tb.ID == id {
				e.bin.Blocks = append(e.bin.Blocks[:i:i], e.bin.Blocks[i+1:]...)
				e.notifyLocked()
				return true
			}
		}
	}
	return false
}

// ClearTrash empties both lists.
func (e *Engine) ClearTrash() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bin = types.NewTrashBin()
	e.notifyLocked()
}
