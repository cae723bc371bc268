// Package board holds the ordered columns of the board and the operations
// that edit them. Deletes go through the trash engine; every mutation is
// announced to observers so the caller can persist it.
package board

import (
	"sync"

	"go.uber.org/zap"

	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// Trasher receives deleted columns and blocks.
type Trasher interface {
	AddTrashedColumn(col types.Column)
	AddTrashedBlock(block types.Block, columnID types.ID, columnTitle string)
}

// Engine is the board engine. It is safe for concurrent use. Observers run
// with the engine lock held and must not call back into the engine.
type Engine struct {
	mu          sync.Mutex
	columns     []types.Column
	projectName string
	loading     bool
	lastError   string

	trash  Trasher
	newID  func() types.ID
	logger *zap.Logger

	observers     []func([]types.Column)
	nameObservers []func(string)
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator replaces types.NewID.
func WithIDGenerator(fn func() types.ID) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an engine over columns. An empty projectName becomes
// types.DefaultProjectName.
func New(trash Trasher, columns []types.Column, projectName string, opts ...Option) *Engine {
	if projectName == "" {
		projectName = types.DefaultProjectName
	}
	e := &Engine{
		columns:     types.Normalize(types.CloneColumns(columns)),
		projectName: projectName,
		trash:       trash,
		newID:       types.NewID,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnChange registers an observer that receives a copy of the columns after
// every mutation.
func (e *Engine) OnChange(fn func([]types.Column)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// OnProjectNameChange registers an observer for project renames.
func (e *Engine) OnProjectNameChange(fn func(string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nameObservers = append(e.nameObservers, fn)
}

func (e *Engine) notifyLocked() {
	for _, fn := range e.observers {
		fn(types.CloneColumns(e.columns))
	}
}

// Columns returns a copy of the board.
func (e *Engine) Columns() []types.Column {
	e.mu.Lock()
	defer e.mu.Unlock()
	return types.CloneColumns(e.columns)
}

// Column returns a copy of the column with the given id.
func (e *Engine) Column(id types.ID) (types.Column, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.columnIndex(id); i >= 0 {
		return e.columns[i].Clone(), true
	}
	return types.Column{}, false
}

// HasColumn reports whether the board has a column with the given id.
func (e *Engine) HasColumn(id types.ID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.columnIndex(id) >= 0
}

// Replace installs columns loaded from elsewhere without notifying
// observers.
func (e *Engine) Replace(columns []types.Column) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.columns = types.Normalize(types.CloneColumns(columns))
}

func (e *Engine) columnIndex(id types.ID) int {
	for i := range e.columns {
		if e.columns[i].ID == id {
			return i
		}
	}
	return -1
}

// block returns the indices of a block, or -1s.
func (e *Engine) block(columnID, blockID types.ID) (int, int) {
	ci := e.columnIndex(columnID)
	if ci < 0 {
		return -1, -1
	}
	return ci, e.columns[ci].BlockIndex(blockID)
}
