// Package app wires the local store, the remote mirror, and the engines into
// one service and runs its start and shutdown lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/backup"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/board"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/localstore"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/paths"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/persist"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/remote"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/remote/postgres"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/remote/postgrest"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/trash"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// User-visible messages for remote failures.
const (
	loadErrorFormat = "Failed to load data from server: %v. Using local data instead."
	saveErrorFormat = "Failed to save data to server: %v. Data saved locally only."
)

// App holds the wired services. Fields are exported for the CLI host and are
// not meant to be replaced after Open.
type App struct {
	Config  types.Config
	Logger  *zap.Logger
	Local   localstore.Store
	Remote  remote.Store
	Persist *persist.Adapter
	Trash   *trash.Engine
	Board   *board.Engine
	Backup  *backup.Scheduler
}

type options struct {
	local    localstore.Store
	remote   remote.Store
	download backup.Exporter
	now      func() time.Time
	offline  bool
}

// Option configures Open.
type Option func(*options)

// WithLocalStore uses store instead of opening one from the config.
func WithLocalStore(store localstore.Store) Option {
	return func(o *options) { o.local = store }
}

// WithRemote uses rs instead of connecting the configured driver.
func WithRemote(rs remote.Store) Option {
	return func(o *options) { o.remote = rs }
}

// WithDownloadExporter replaces the downloads directory exporter.
func WithDownloadExporter(e backup.Exporter) Option {
	return func(o *options) { o.download = e }
}

// WithClock replaces time.Now for the trash and backup clocks.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithOffline skips connecting the configured remote driver.
func WithOffline() Option {
	return func(o *options) { o.offline = true }
}

// Open builds the service graph from cfg. Local state is loaded
// synchronously; nothing is fetched from the remote until Start or Pull.
func Open(ctx context.Context, cfg types.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	local := o.local
	if local == nil {
		var err error
		local, err = localstore.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("opening local store: %w", err)
		}
	}

	rs := o.remote
	if rs == nil && !o.offline {
		var err error
		rs, err = NewRemote(ctx, cfg.Remote)
		if err != nil {
			local.Close()
			return nil, err
		}
	}
	if rs == nil {
		logger.Debug("remote not configured, running local only")
	}

	download := o.download
	if download == nil {
		dir, err := paths.ResolveDownloadDir(cfg.Backup.DownloadDir)
		if err != nil {
			logger.Warn("resolving download directory", zap.Error(err))
		}
		download = backup.DirectoryExporter{Dir: dir, Create: true}
	}

	a := &App{Config: cfg, Logger: logger, Local: local, Remote: rs}

	a.Persist = persist.New(local, rs,
		persist.WithQueueSize(cfg.Remote.QueueSize),
		persist.WithTimeout(cfg.Remote.Timeout),
		persist.WithDefaultProjectName(cfg.ProjectName),
		persist.WithLogger(logger.Named("persist")),
	)
	a.Trash = trash.New(local, a.Persist.LoadTrash(),
		trash.WithClock(o.now),
		trash.WithLogger(logger.Named("trash")),
	)
	a.Board = board.New(a.Trash, a.Persist.LoadBoard(), a.Persist.LoadProjectName(),
		board.WithLogger(logger.Named("board")),
	)
	a.Backup = backup.New(local, download,
		backup.WithClock(o.now),
		backup.WithLogger(logger.Named("backup")),
		backup.WithDefaultProjectName(cfg.ProjectName),
	)

	a.Board.OnChange(a.Persist.SaveBoard)
	a.Board.OnProjectNameChange(a.Persist.SaveProjectName)
	a.Trash.OnChange(a.Persist.SaveTrash)
	a.Persist.OnRemoteError(a.reportRemoteError)

	if cfg.Backup.Dir != "" && !a.Backup.HasBackupDirectory() {
		if err := a.Backup.SetBackupDirectory(cfg.Backup.Dir); err != nil {
			logger.Warn("ignoring configured backup directory", zap.Error(err))
		}
	}

	a.Persist.Start()
	return a, nil
}

// NewRemote connects the remote driver selected by rc. It returns nil and no
// error when no driver is configured.
func NewRemote(ctx context.Context, rc types.RemoteConfig) (remote.Store, error) {
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	switch rc.Driver {
	case types.RemotePostgres:
		s, err := postgres.New(ctx, rc.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case types.RemotePostgREST:
		timeout := rc.Timeout
		if timeout <= 0 {
			timeout = types.DefaultRemoteTimeout
		}
		return postgrest.New(rc.URL, rc.Key, timeout), nil
	default:
		return nil, nil
	}
}

// reportRemoteError turns project and board failures into the board's
// user-visible error. Trash failures are only logged.
func (a *App) reportRemoteError(op persist.Op, kind remote.Kind, err error) {
	if kind == remote.KindTrash {
		return
	}
	switch op {
	case persist.OpLoad:
		a.Board.SetError(fmt.Sprintf(loadErrorFormat, err))
	case persist.OpSave:
		a.Board.SetError(fmt.Sprintf(saveErrorFormat, err))
	}
}

// StartReport summarizes what Start did.
type StartReport struct {
	Pulled  bool          `json:"pulled"`
	Cleaned bool          `json:"cleaned"`
	Backup  backup.Result `json:"backup"`
}

// Start runs the start-of-session lifecycle: pull from the remote when one
// is configured, expire old trash, and take an automatic backup if due.
// Failures are logged; none of them stop the session.
func (a *App) Start(ctx context.Context) StartReport {
	var rep StartReport
	if a.Remote != nil {
		rep.Pulled = a.Pull(ctx)
	}
	rep.Cleaned = a.Trash.CleanupOldTrashItems()
	rep.Backup = a.autoBackup(ctx)
	return rep
}

// Close takes an automatic backup if due, drains pending remote writes
// until ctx expires, and closes both stores.
func (a *App) Close(ctx context.Context) error {
	a.autoBackup(ctx)

	var errs []error
	if err := a.Persist.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("draining remote queue: %w", err))
	}
	if a.Remote != nil {
		a.Remote.Close()
	}
	if err := a.Local.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing local store: %w", err))
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}

func (a *App) autoBackup(ctx context.Context) backup.Result {
	res, err := a.Backup.AttemptAutoBackup(ctx)
	switch {
	case errors.Is(err, backup.ErrNoData):
		a.Logger.Debug("auto-backup: nothing to back up")
	case err != nil:
		a.Logger.Warn("auto-backup failed", zap.Error(err))
	case !res.Skipped:
		a.Logger.Info("auto-backup created", zap.String("location", res.Location))
	}
	return res
}
