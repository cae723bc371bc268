package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/backup"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/localstore"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// testEnv isolates one CLI run sequence in temp directories.
type testEnv struct {
	t           *testing.T
	ConfigDir   string
	DataDir     string
	DownloadDir string
}

type result struct {
	Stdout string
	Stderr string
	Err    error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		t:           t,
		ConfigDir:   filepath.Join(root, "config"),
		DataDir:     filepath.Join(root, "data"),
		DownloadDir: filepath.Join(root, "downloads"),
	}
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")
	t.Setenv("MEGAKANBAN_BACKUP_DOWNLOAD_DIR", env.DownloadDir)
	return env
}

func (e *testEnv) run(args ...string) result {
	e.t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--config-dir", e.ConfigDir, "--data-dir", e.DataDir, "--offline"}, args...))
	err := root.Execute()
	return result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

func (e *testEnv) mustRun(args ...string) result {
	e.t.Helper()
	res := e.run(args...)
	require.NoError(e.t, res.Err, "megakanban %v\nstderr: %s", args, res.Stderr)
	return res
}

func parseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}

func (e *testEnv) board() boardView {
	e.t.Helper()
	return parseJSON[boardView](e.t, e.mustRun("show", "--json").Stdout)
}

func (e *testEnv) addColumn() types.Column {
	e.t.Helper()
	return parseJSON[types.Column](e.t, e.mustRun("column", "add", "--json").Stdout)
}

func TestInit(t *testing.T) {
	env := newTestEnv(t)

	res := env.mustRun("init")
	assert.Contains(t, res.Stdout, "Mega Kanban initialized successfully")
	assert.FileExists(t, filepath.Join(env.ConfigDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(env.DataDir, localstore.SQLiteFile))

	env.mustRun("init", "--backend", types.BackendJSON)
	cfg := readConfigFile(filepath.Join(env.ConfigDir, "config.yaml"))
	assert.Equal(t, types.BackendSQLite, cfg.Backend, "existing config is kept")

	env.mustRun("init", "--force", "--backend", types.BackendJSON)
	cfg = readConfigFile(filepath.Join(env.ConfigDir, "config.yaml"))
	assert.Equal(t, types.BackendJSON, cfg.Backend)
	assert.Equal(t, env.DataDir, cfg.DataDir)
	assert.FileExists(t, filepath.Join(env.DataDir, localstore.JSONLFile))

	res = env.run("init", "--force", "--backend", "redis")
	assert.ErrorIs(t, res.Err, types.ErrBackendUnknown)
	assert.Equal(t, exitUserError, exitCode(res.Err))
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	res := env.mustRun("version")
	assert.Contains(t, res.Stdout, "megakanban v"+Version)
}

func TestBoardCommands(t *testing.T) {
	env := newTestEnv(t)

	view := env.board()
	assert.Equal(t, types.DefaultProjectName, view.ProjectName)
	assert.Empty(t, view.Columns)

	first := env.addColumn()
	assert.Equal(t, "Column 1", first.Title)
	require.Len(t, first.Blocks, 1)
	second := parseJSON[types.Column](t, env.mustRun("column", "add", "--title", "Done", "--json").Stdout)
	assert.Equal(t, "Done", second.Title)

	added := parseJSON[types.Block](t, env.mustRun("block", "add", first.ID.String(), "--content", "write tests", "--json").Stdout)
	env.mustRun("block", "edit", first.ID.String(), first.Blocks[0].ID.String(), "plan", "work")
	env.mustRun("block", "style", first.ID.String(), added.ID.String(), "color=#ff0000", "bold=true")
	env.mustRun("column", "rename", second.ID.String(), "Shipped")
	env.mustRun("project", "rename", "Roadmap")

	view = env.board()
	assert.Equal(t, "Roadmap", view.ProjectName)
	require.Len(t, view.Columns, 2)
	assert.Equal(t, "Shipped", view.Columns[1].Title)
	blocks := view.Columns[0].Blocks
	require.Len(t, blocks, 2)
	assert.Equal(t, "plan work", blocks[0].Content)
	assert.Equal(t, "write tests", blocks[1].Content)
	assert.Equal(t, "#ff0000", blocks[1].Style["color"])
	assert.Equal(t, true, blocks[1].Style["bold"])

	env.mustRun("block", "move", first.ID.String(), "1", second.ID.String(), "0")
	env.mustRun("column", "move", "1", "0")
	view = env.board()
	assert.Equal(t, second.ID, view.Columns[0].ID)
	require.Len(t, view.Columns[0].Blocks, 2)
	assert.Equal(t, added.ID, view.Columns[0].Blocks[0].ID)

	text := env.mustRun("show").Stdout
	assert.Contains(t, text, "Roadmap")
	assert.Contains(t, text, "write tests")
}

func TestBoardCommandErrors(t *testing.T) {
	env := newTestEnv(t)
	col := env.addColumn()

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"rename missing column", []string{"column", "rename", "nope", "x"}, types.ErrColumnNotFound},
		{"delete missing column", []string{"column", "delete", "nope"}, types.ErrColumnNotFound},
		{"move out of range", []string{"column", "move", "0", "5"}, types.ErrInvalidIndex},
		{"negative index", []string{"column", "move", "--", "-1", "0"}, types.ErrInvalidIndex},
		{"edit missing block", []string{"block", "edit", col.ID.String(), "nope", "x"}, types.ErrBlockNotFound},
		{"delete last block", []string{"block", "delete", col.ID.String(), col.Blocks[0].ID.String()}, types.ErrLastBlock},
		{"block move past end", []string{"block", "move", col.ID.String(), "0", col.ID.String(), "2"}, types.ErrInvalidIndex},
		{"purge bad kind", []string{"trash", "purge", "board", "x"}, types.ErrInvalidKind},
		{"restore missing column", []string{"trash", "restore-column", "nope"}, types.ErrTrashItemNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.run(tt.args...)
			require.Error(t, res.Err)
			assert.ErrorIs(t, res.Err, tt.want)
			assert.Equal(t, exitUserError, exitCode(res.Err))
		})
	}

	res := env.run("block", "style", col.ID.String(), col.Blocks[0].ID.String(), "content=x")
	assert.Error(t, res.Err)
	assert.Equal(t, exitUserError, exitCode(res.Err))
}

func TestTrashCommands(t *testing.T) {
	env := newTestEnv(t)
	col := env.addColumn()
	block := parseJSON[types.Block](t, env.mustRun("block", "add", col.ID.String(), "--json").Stdout)

	env.mustRun("block", "delete", col.ID.String(), block.ID.String())
	bin := parseJSON[types.TrashBin](t, env.mustRun("trash", "list", "--json").Stdout)
	require.Len(t, bin.Blocks, 1)
	assert.Equal(t, col.ID, bin.Blocks[0].SourceColumnID)
	assert.NotNil(t, bin.Blocks[0].DeletedAt)

	res := env.mustRun("trash", "restore-block", block.ID.String())
	assert.Contains(t, res.Stdout, col.ID.String())
	assert.Len(t, env.board().Columns[0].Blocks, 2)

	env.mustRun("column", "delete", col.ID.String())
	assert.Empty(t, env.board().Columns)
	assert.Contains(t, env.mustRun("trash", "list").Stdout, "Column 1")

	env.mustRun("trash", "restore-column", col.ID.String())
	assert.Len(t, env.board().Columns, 1)

	env.mustRun("block", "delete", col.ID.String(), block.ID.String())
	env.mustRun("column", "delete", col.ID.String())
	res = env.run("trash", "restore-block", block.ID.String())
	assert.ErrorIs(t, res.Err, types.ErrColumnNotFound)

	other := env.addColumn()
	env.mustRun("trash", "restore-block", block.ID.String(), "--column", other.ID.String())
	env.mustRun("trash", "purge", "column", col.ID.String())
	assert.Contains(t, env.mustRun("trash", "list").Stdout, "Trash is empty")

	env.mustRun("block", "delete", other.ID.String(), block.ID.String())
	res = env.mustRun("trash", "clear")
	assert.Contains(t, res.Stdout, "Deleted 1 item(s)")

	res = env.mustRun("trash", "cleanup")
	assert.Contains(t, res.Stdout, "Nothing to clean up")
}

func TestBackupCommands(t *testing.T) {
	env := newTestEnv(t)

	res := env.run("backup", "now")
	assert.ErrorIs(t, res.Err, backup.ErrNoData)
	assert.Equal(t, exitUserError, exitCode(res.Err))

	env.addColumn()
	entries, err := os.ReadDir(env.DownloadDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "the shutdown auto-backup lands in downloads")

	status := parseJSON[backupStatus](t, env.mustRun("backup", "status", "--json").Stdout)
	assert.False(t, status.Due)
	assert.Empty(t, status.Directory)

	res = env.run("backup", "dir", "set", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, res.Err, backup.ErrNotDirectory)

	dir := t.TempDir()
	env.mustRun("backup", "dir", "set", dir)
	out := parseJSON[backup.Result](t, env.mustRun("backup", "now", "--json").Stdout)
	assert.FileExists(t, filepath.Join(dir, out.FileName))

	status = parseJSON[backupStatus](t, env.mustRun("backup", "status", "--json").Stdout)
	assert.Equal(t, filepath.Base(dir), status.Directory)

	env.mustRun("backup", "dir", "clear")
	status = parseJSON[backupStatus](t, env.mustRun("backup", "status", "--json").Stdout)
	assert.Empty(t, status.Directory)
}

func TestRemoteCommandsNeedRemote(t *testing.T) {
	env := newTestEnv(t)

	res := env.run("sync", "pull")
	assert.ErrorIs(t, res.Err, errNoRemote)
	assert.Equal(t, exitUserError, exitCode(res.Err))

	res = env.run("remote", "migrate")
	require.Error(t, res.Err)
	assert.Equal(t, exitUserError, exitCode(res.Err))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")
	dir := filepath.Join(t.TempDir(), "cfg")

	v, err := loadConfig(dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, configFileExt))

	cfg := decodeConfig(v, "/data")
	assert.Equal(t, types.BackendSQLite, cfg.Backend)
	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, types.DefaultProjectName, cfg.ProjectName)
	assert.Equal(t, types.DefaultRemoteTimeout, cfg.Remote.Timeout)
	assert.False(t, cfg.Remote.Enabled())
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")
	dir := t.TempDir()
	yaml := "backend: json\nproject_name: Home\nremote:\n  driver: postgres\n  dsn: postgres://localhost/kanban\n  timeout: 5s\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte(yaml), 0o644))

	v, err := loadConfig(dir)
	require.NoError(t, err)
	cfg := decodeConfig(v, "")
	assert.Equal(t, types.BackendJSON, cfg.Backend)
	assert.Equal(t, "Home", cfg.ProjectName)
	assert.Equal(t, types.RemotePostgres, cfg.Remote.Driver)
	assert.Equal(t, "postgres://localhost/kanban", cfg.Remote.DSN)
	assert.Equal(t, "5s", cfg.Remote.Timeout.String())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestSupabaseEnvSelectsPostgREST(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")

	v, err := loadConfig(t.TempDir())
	require.NoError(t, err)
	cfg := decodeConfig(v, "")
	assert.Equal(t, types.RemotePostgREST, cfg.Remote.Driver)
	assert.Equal(t, "https://abc.supabase.co", cfg.Remote.URL)
	assert.Equal(t, "anon", cfg.Remote.Key)
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]any
		wantErr bool
	}{
		{"string", []string{"color=red"}, map[string]any{"color": "red"}, false},
		{"json values", []string{"bold=true", "size=12", `font="Inter"`}, map[string]any{"bold": true, "size": float64(12), "font": "Inter"}, false},
		{"empty value", []string{"note="}, map[string]any{"note": ""}, false},
		{"missing equals", []string{"color"}, nil, true},
		{"empty key", []string{"=red"}, nil, true},
		{"reserved key", []string{"id=1"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStyle(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"domain sentinel", classify(types.ErrColumnNotFound), exitUserError},
		{"wrapped sentinel", classify(errors.Join(errors.New("ctx"), types.ErrLastBlock)), exitUserError},
		{"system failure", classify(errors.New("disk full")), exitSysError},
		{"explicit code kept", classify(sysError(types.ErrInvalidID)), exitSysError},
		{"cobra parse error", errors.New("unknown flag: --nope"), exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
	assert.NoError(t, classify(nil))
}
