// Package backup exports the board snapshot to a JSON file at most once an
// hour, preferring a chosen backup directory and falling back to a
// downloads directory.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/localstore"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// Interval is the minimum time between automatic backups.
const Interval = time.Hour

// ErrNoData is returned when there is no board snapshot to back up.
var ErrNoData = errors.New("no data found in local store to backup")

// ErrNotDirectory is returned by SetBackupDirectory for paths that are not
// existing directories.
var ErrNotDirectory = errors.New("backup directory must be an existing directory")

// Remaining is the time left until the next automatic backup.
type Remaining struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Result describes a backup attempt. Skipped attempts carry Remaining and
// Message; completed ones carry FileName and Location.
type Result struct {
	FileName  string    `json:"fileName,omitempty"`
	Location  string    `json:"location,omitempty"`
	Skipped   bool      `json:"skipped"`
	Remaining Remaining `json:"remaining"`
	Message   string    `json:"message,omitempty"`
}

// Artifact is the content of a backup file.
type Artifact struct {
	Timestamp   string          `json:"timestamp"`
	ProjectName string          `json:"projectName"`
	Data        json.RawMessage `json:"data"`
}

// directory is the persisted backup directory grant.
type directory struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Scheduler gates and produces backups.
type Scheduler struct {
	store       localstore.Store
	download    Exporter
	now         func() time.Time
	interval    time.Duration
	logger      *zap.Logger
	defaultName string
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultProjectName sets the name written when none is stored.
func WithDefaultProjectName(name string) Option {
	return func(s *Scheduler) {
		if name != "" {
			s.defaultName = name
		}
	}
}

// New returns a scheduler reading from store. download is the fallback
// exporter used when no backup directory is set or writing to it fails.
func New(store localstore.Store, download Exporter, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:       store,
		download:    download,
		now:         time.Now,
		interval:    Interval,
		logger:      zap.NewNop(),
		defaultName: types.DefaultProjectName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileName returns the artifact name for a backup taken at t. The date is
// the UTC calendar day while the time of day stays in t's zone, matching
// the names the browser client produced.
func FileName(t time.Time) string {
	return fmt.Sprintf("mega-kanban-backup-%s-%s.json", t.UTC().Format("2006-01-02"), t.Format("15-04-05"))
}

// lastBackup returns the recorded last backup time. Unreadable values count
// as absent.
func (s *Scheduler) lastBackup() (time.Time, bool) {
	v, ok, err := s.store.Get(localstore.KeyLastBackup)
	if err != nil {
		s.logger.Warn("reading last backup time", zap.Error(err))
		return time.Time{}, false
	}
	if !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		s.logger.Warn("ignoring malformed last backup time", zap.String("value", v))
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// ShouldCreateBackup reports whether an automatic backup is due.
func (s *Scheduler) ShouldCreateBackup() bool {
	last, ok := s.lastBackup()
	if !ok {
		return true
	}
	return s.now().Sub(last) >= s.interval
}

// TimeUntilNextBackup returns the time left before the gate opens, floored
// at zero.
func (s *Scheduler) TimeUntilNextBackup() Remaining {
	last, ok := s.lastBackup()
	if !ok {
		return Remaining{}
	}
	left := last.Add(s.interval).Sub(s.now())
	if left < 0 {
		left = 0
	}
	return Remaining{
		Hours:   int(left / time.Hour),
		Minutes: int(left % time.Hour / time.Minute),
		Seconds: int(left % time.Minute / time.Second),
	}
}

// AttemptAutoBackup creates a backup if one is due and otherwise returns a
// skipped result.
func (s *Scheduler) AttemptAutoBackup(ctx context.Context) (Result, error) {
	if s.ShouldCreateBackup() {
		return s.CreateBackup(ctx)
	}
	left := s.TimeUntilNextBackup()
	msg := fmt.Sprintf("Auto-backup skipped. Next backup in %dh %dm", left.Hours, left.Minutes)
	s.logger.Info(msg)
	return Result{Skipped: true, Remaining: left, Message: msg}, nil
}

// CreateBackup writes a backup regardless of the gate. The backup directory
// is tried first; on any failure there the download exporter is used.
// The last backup time is recorded only after a file was written.
func (s *Scheduler) CreateBackup(ctx context.Context) (Result, error) {
	data, ok, err := s.store.Get(localstore.KeyBoard)
	if err != nil {
		return Result{}, fmt.Errorf("reading board: %w", err)
	}
	if !ok || data == "" {
		s.logger.Warn(ErrNoData.Error())
		return Result{}, ErrNoData
	}

	name, ok, err := s.store.Get(localstore.KeyProjectName)
	if err != nil || !ok || name == "" {
		name = s.defaultName
	}

	now := s.now()
	artifact := Artifact{
		Timestamp:   now.UTC().Format("2006-01-02T15:04:05.000Z"),
		ProjectName: name,
		Data:        json.RawMessage(data),
	}
	content, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("encoding backup: %w", err)
	}
	fileName := FileName(now)

	location, err := s.export(ctx, fileName, content)
	if err != nil {
		return Result{}, err
	}

	if err := s.store.Set(localstore.KeyLastBackup, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		s.logger.Warn("recording last backup time", zap.Error(err))
	}
	s.logger.Info("backup created", zap.String("file", fileName), zap.String("location", location))
	return Result{FileName: fileName, Location: location}, nil
}

func (s *Scheduler) export(ctx context.Context, fileName string, content []byte) (string, error) {
	if dir, ok := s.directory(); ok {
		location, err := DirectoryExporter{Dir: dir.Path}.Export(ctx, fileName, content)
		if err == nil {
			return location, nil
		}
		s.logger.Warn("writing to backup directory failed, falling back to download", zap.Error(err))
	}
	if s.download == nil {
		return "", errors.New("no download exporter configured")
	}
	location, err := s.download.Export(ctx, fileName, content)
	if err != nil {
		return "", fmt.Errorf("exporting backup: %w", err)
	}
	return location, nil
}

func (s *Scheduler) directory() (directory, bool) {
	v, ok, err := s.store.Get(localstore.KeyBackupDir)
	if err != nil || !ok || v == "" {
		return directory{}, false
	}
	var d directory
	if err := json.Unmarshal([]byte(v), &d); err != nil {
		s.logger.Warn("ignoring malformed backup directory", zap.Error(err))
		return directory{}, false
	}
	return d, d.Path != ""
}

// SetBackupDirectory grants path as the backup directory. The path must be
// an existing directory.
func (s *Scheduler) SetBackupDirectory(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := (DirectoryExporter{Dir: abs}).check(); err != nil {
		return fmt.Errorf("%w: %v", ErrNotDirectory, err)
	}
	raw, err := json.Marshal(directory{Name: filepath.Base(abs), Path: abs})
	if err != nil {
		return err
	}
	return s.store.Set(localstore.KeyBackupDir, string(raw))
}

// ClearBackupDirectory forgets the backup directory.
func (s *Scheduler) ClearBackupDirectory() error {
	return s.store.Remove(localstore.KeyBackupDir)
}

// HasBackupDirectory reports whether a backup directory is set.
func (s *Scheduler) HasBackupDirectory() bool {
	v, ok, err := s.store.Get(localstore.KeyBackupDir)
	return err == nil && ok && v != ""
}

// BackupDirectoryName returns the base name of the backup directory, or ""
// when none is set.
func (s *Scheduler) BackupDirectoryName() string {
	d, ok := s.directory()
	if !ok {
		return ""
	}
	return d.Name
}

// BackupDirectoryPath returns the full path of the backup directory, or "".
func (s *Scheduler) BackupDirectoryPath() string {
	d, _ := s.directory()
	return d.Path
}
