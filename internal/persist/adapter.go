// Package persist writes board state to the local store synchronously and
// mirrors it to the remote store on a background worker. Remote failures
// are logged and reported but never roll back or block local state.
package persist

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/localstore"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/remote"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// Op names the remote operation that failed.
type Op string

// Remote operations.
const (
	OpLoad Op = "load"
	OpSave Op = "save"
)

// ErrorReporter receives remote failures.
type ErrorReporter func(op Op, kind remote.Kind, err error)

type job struct {
	kind    remote.Kind
	payload json.RawMessage
	seq     uint64
}

// Adapter is the persistence adapter. The zero value is not usable; call New.
type Adapter struct {
	local       localstore.Store
	remote      remote.Store
	logger      *zap.Logger
	timeout     time.Duration
	projectName string

	queue     chan job
	startOnce sync.Once
	done      chan struct{}

	mu        sync.RWMutex
	closed    bool
	reporters []ErrorReporter

	// syncMu guards seq and the unsynced markers in the local store.
	syncMu sync.Mutex
	seq    map[remote.Kind]uint64
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithQueueSize sets the remote queue capacity.
func WithQueueSize(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.queue = make(chan job, n)
		}
	}
}

// WithTimeout bounds each background remote save.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithDefaultProjectName sets the name LoadProjectName falls back to.
func WithDefaultProjectName(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.projectName = name
		}
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// New returns an adapter over local and, if non-nil, remote.
func New(local localstore.Store, rs remote.Store, opts ...Option) *Adapter {
	a := &Adapter{
		local:       local,
		remote:      rs,
		logger:      zap.NewNop(),
		timeout:     types.DefaultRemoteTimeout,
		projectName: types.DefaultProjectName,
		queue:       make(chan job, types.DefaultQueueSize),
		done:        make(chan struct{}),
		seq:         make(map[remote.Kind]uint64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HasRemote reports whether a remote store is configured.
func (a *Adapter) HasRemote() bool { return a.remote != nil }

// OnRemoteError registers a reporter for remote failures.
func (a *Adapter) OnRemoteError(fn ErrorReporter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reporters = append(a.reporters, fn)
}

func (a *Adapter) report(op Op, kind remote.Kind, err error) {
	a.mu.RLock()
	reporters := append([]ErrorReporter(nil), a.reporters...)
	a.mu.RUnlock()
	for _, fn := range reporters {
		fn(op, kind, err)
	}
}

// Start launches the mirror worker. It is a no-op without a remote and on
// repeated calls.
func (a *Adapter) Start() {
	if a.remote == nil {
		return
	}
	a.startOnce.Do(func() {
		go a.run()
	})
}

func (a *Adapter) run() {
	defer close(a.done)
	for j := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.SaveRemote(ctx, j.kind, j.payload)
		cancel()
		if err == nil {
			a.markSynced(j.kind, j.seq)
		}
	}
}

// Close stops accepting mirror writes and waits for queued ones to finish
// or for ctx to expire. Writes still queued when ctx expires stay marked
// unsynced. The remote store itself is not closed.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	if a.remote == nil {
		return nil
	}
	a.Start()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		a.logger.Warn("remote queue not drained before shutdown", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// Mirror enqueues a remote save. It never blocks; when the queue is full the
// write is dropped. Kind is marked unsynced in the local store until a save
// of its newest payload succeeds, so dropped and failed writes survive a
// restart.
func (a *Adapter) Mirror(kind remote.Kind, payload json.RawMessage) {
	if a.remote == nil {
		a.logger.Debug("remote not configured, skipping mirror", zap.String("kind", string(kind)))
		return
	}
	seq := a.markUnsynced(kind)

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.logger.Debug("adapter closed, dropping mirror", zap.String("kind", string(kind)))
		return
	}
	select {
	case a.queue <- job{kind: kind, payload: payload, seq: seq}:
	default:
		a.logger.Warn("remote queue full, dropping write", zap.String("kind", string(kind)))
	}
}

// Unsynced reports whether the local copy of kind holds changes the remote
// has not acknowledged, possibly from an earlier run.
func (a *Adapter) Unsynced(kind remote.Kind) bool {
	_, ok, err := a.local.Get(localstore.UnsyncedKey(string(kind)))
	if err != nil {
		a.logger.Warn("reading unsynced marker", zap.String("kind", string(kind)), zap.Error(err))
		return false
	}
	return ok
}

// ResyncLocal mirrors the local copy of kind to the remote again.
func (a *Adapter) ResyncLocal(kind remote.Kind) {
	var v any
	switch kind {
	case remote.KindProject:
		v = a.LoadProjectName()
	case remote.KindBoard:
		v = a.LoadBoard()
	case remote.KindTrash:
		v = a.LoadTrash()
	default:
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		a.logger.Error("encoding local state for resync", zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	a.Mirror(kind, payload)
}

func (a *Adapter) markUnsynced(kind remote.Kind) uint64 {
	a.syncMu.Lock()
	defer a.syncMu.Unlock()
	a.seq[kind]++
	if err := a.local.Set(localstore.UnsyncedKey(string(kind)), "1"); err != nil {
		a.logger.Warn("setting unsynced marker", zap.String("kind", string(kind)), zap.Error(err))
	}
	return a.seq[kind]
}

// markSynced clears the marker unless a newer write of kind was mirrored
// after seq.
func (a *Adapter) markSynced(kind remote.Kind, seq uint64) {
	a.syncMu.Lock()
	defer a.syncMu.Unlock()
	if a.seq[kind] != seq {
		return
	}
	if err := a.local.Remove(localstore.UnsyncedKey(string(kind))); err != nil {
		a.logger.Warn("clearing unsynced marker", zap.String("kind", string(kind)), zap.Error(err))
	}
}
