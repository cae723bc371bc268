package types

import (
	"errors"
	"time"
)

// Config holds backend selection and parameters for the local store, the
// remote mirror, the backup exporter, and logging.
type Config struct {
	Backend     string       `json:"backend" yaml:"backend"`
	DataDir     string       `json:"data_dir" yaml:"data_dir"`
	ProjectName string       `json:"project_name" yaml:"project_name"`
	Remote      RemoteConfig `json:"remote" yaml:"remote"`
	Backup      BackupConfig `json:"backup" yaml:"backup"`
	Log         LogConfig    `json:"log" yaml:"log"`
}

// RemoteConfig selects and parameterizes the remote record store.
type RemoteConfig struct {
	Driver    string        `json:"driver" yaml:"driver"`
	DSN       string        `json:"dsn" yaml:"dsn"`
	URL       string        `json:"url" yaml:"url"`
	Key       string        `json:"key" yaml:"key"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
	QueueSize int           `json:"queue_size" yaml:"queue_size"`
}

// BackupConfig holds the backup exporter directories. Dir seeds the granted
// backup directory; DownloadDir is where the fallback exporter writes.
type BackupConfig struct {
	Dir         string `json:"dir" yaml:"dir"`
	DownloadDir string `json:"download_dir" yaml:"download_dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Supported local store backends.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// Supported remote drivers. An empty driver is the same as RemoteNone.
const (
	RemoteNone      = "none"
	RemotePostgres  = "postgres"
	RemotePostgREST = "postgrest"
)

// Defaults applied by WithDefaults.
const (
	DefaultProjectName   = "Mega Kanban"
	DefaultRemoteTimeout = 30 * time.Second
	DefaultQueueSize     = 64
)

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrRemoteDriverUnknown  = errors.New("unknown remote driver")
	ErrRemoteDSNEmpty       = errors.New("remote dsn must not be empty for the postgres driver")
	ErrRemoteURLEmpty       = errors.New("remote url and key must not be empty for the postgrest driver")
	ErrRemoteTimeoutInvalid = errors.New("remote timeout must be positive")
	ErrQueueSizeInvalid     = errors.New("remote queue size must be positive")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendJSON:   true,
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.ProjectName == "" {
		c.ProjectName = DefaultProjectName
	}
	if c.Remote.Driver == "" {
		c.Remote.Driver = RemoteNone
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = DefaultRemoteTimeout
	}
	if c.Remote.QueueSize == 0 {
		c.Remote.QueueSize = DefaultQueueSize
	}
	return c
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return c.Remote.Validate()
}

// Enabled reports whether a remote driver is configured.
func (r RemoteConfig) Enabled() bool {
	return r.Driver != "" && r.Driver != RemoteNone
}

// Validate checks the remote section. A disabled remote is always valid.
func (r RemoteConfig) Validate() error {
	switch r.Driver {
	case "", RemoteNone:
		return nil
	case RemotePostgres:
		if r.DSN == "" {
			return ErrRemoteDSNEmpty
		}
	case RemotePostgREST:
		if r.URL == "" || r.Key == "" {
			return ErrRemoteURLEmpty
		}
	default:
		return ErrRemoteDriverUnknown
	}
	if r.Timeout < 0 {
		return ErrRemoteTimeoutInvalid
	}
	if r.QueueSize < 0 {
		return ErrQueueSizeInvalid
	}
	return nil
}
