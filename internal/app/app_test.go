package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/backup"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/localstore"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/remote"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/remote/remotetest"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

type fixture struct {
	app       *App
	cfg       types.Config
	local     *localstore.MemoryStore
	remote    *remotetest.Store
	downloads string
	now       time.Time
}

func newFixture(t *testing.T, withRemote bool) *fixture {
	t.Helper()
	f := &fixture{
		cfg:       types.Config{Backend: types.BackendSQLite},
		local:     localstore.NewMemoryStore(),
		downloads: filepath.Join(t.TempDir(), "Downloads"),
		now:       time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC),
	}
	if withRemote {
		f.remote = remotetest.New()
	}
	return f
}

func (f *fixture) open(t *testing.T, opts ...Option) *App {
	t.Helper()
	base := []Option{
		WithLocalStore(f.local),
		WithDownloadExporter(backup.DirectoryExporter{Dir: f.downloads, Create: true}),
		WithClock(func() time.Time { return f.now }),
	}
	if f.remote != nil {
		base = append(base, WithRemote(f.remote))
	}
	a, err := Open(context.Background(), f.cfg, zaptest.NewLogger(t), append(base, opts...)...)
	require.NoError(t, err)
	f.app = a
	return a
}

// sharedStore survives App.Close so a second session reopens the same data.
type sharedStore struct {
	*localstore.MemoryStore
}

func (sharedStore) Close() error { return nil }

func localBoard(t *testing.T, store localstore.Store) []types.Column {
	t.Helper()
	raw, ok, err := store.Get(localstore.KeyBoard)
	require.NoError(t, err)
	require.True(t, ok, "board should be persisted")
	var cols []types.Column
	require.NoError(t, json.Unmarshal([]byte(raw), &cols))
	return cols
}

func TestMutationsPersistLocallyAndMirror(t *testing.T) {
	f := newFixture(t, true)
	a := f.open(t)

	col := a.Board.AddColumn()
	a.Board.UpdateBlockContent(col.ID, col.Blocks[0].ID, "hello")
	a.Board.SetProjectName("Roadmap")

	cols := localBoard(t, f.local)
	require.Len(t, cols, 1)
	assert.Equal(t, "hello", cols[0].Blocks[0].Content)
	name, _, _ := f.local.Get(localstore.KeyProjectName)
	assert.Equal(t, "Roadmap", name)

	require.NoError(t, a.Close(context.Background()))

	rows := f.remote.Rows(remote.KindBoard)
	require.Len(t, rows, 1)
	var remoteCols []types.Column
	require.NoError(t, json.Unmarshal(rows[0].Payload, &remoteCols))
	assert.Equal(t, "hello", remoteCols[0].Blocks[0].Content)

	projects := f.remote.Rows(remote.KindProject)
	require.Len(t, projects, 1)
	assert.Equal(t, `"Roadmap"`, string(projects[0].Payload))
	assert.True(t, f.remote.Closed())
}

func TestDeletePersistsTrash(t *testing.T) {
	f := newFixture(t, true)
	a := f.open(t)

	col := a.Board.AddColumn()
	nb, ok := a.Board.AddBlockAfter(col.ID, col.Blocks[0].ID)
	require.True(t, ok)
	require.True(t, a.Board.DeleteBlock(col.ID, nb.ID))
	require.NoError(t, a.Close(context.Background()))

	raw, ok, err := f.local.Get(localstore.KeyTrash)
	require.NoError(t, err)
	require.True(t, ok)
	var bin types.TrashBin
	require.NoError(t, json.Unmarshal([]byte(raw), &bin))
	require.Len(t, bin.Blocks, 1)
	assert.Equal(t, nb.ID, bin.Blocks[0].ID)
	assert.Equal(t, col.ID, bin.Blocks[0].SourceColumnID)

	assert.Len(t, f.remote.Rows(remote.KindTrash), 1)
}

func TestOpenLoadsLocalState(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.local.Set(localstore.KeyBoard, `[{"id":1712000000000,"title":"Column 3","blocks":[{"id":"1712000000000-block","content":"x"}]}]`))
	require.NoError(t, f.local.Set(localstore.KeyProjectName, "Saved"))
	require.NoError(t, f.local.Set(localstore.KeyTrash, `{"columns":[],"blocks":[{"id":"b","content":"gone","sourceColumnId":1712000000000,"sourceColumnTitle":"Column 3"}]}`))

	a := f.open(t)

	assert.Equal(t, "Saved", a.Board.ProjectName())
	assert.True(t, a.Board.HasColumn("1712000000000"))
	assert.Equal(t, 1, a.Trash.Len())
	assert.Equal(t, "Column 4", a.Board.AddColumn().Title)
	require.NoError(t, a.Close(context.Background()))
}

func TestStartPullsRemoteState(t *testing.T) {
	f := newFixture(t, true)
	f.remote.Seed(remote.KindProject, `"From server"`)
	f.remote.Seed(remote.KindBoard, `[{"id":"r1","title":"Column 9","blocks":[{"id":"rb","content":"remote"}]}]`)
	f.remote.Seed(remote.KindTrash, `{"columns":[],"blocks":[{"id":"t1","content":"old"}]}`)
	require.NoError(t, f.local.Set(localstore.KeyBoard, `[{"id":"l1","title":"Column 1","blocks":[]}]`))

	a := f.open(t)
	rep := a.Start(context.Background())

	assert.True(t, rep.Pulled)
	assert.Equal(t, "From server", a.Board.ProjectName())
	assert.True(t, a.Board.HasColumn("r1"))
	assert.False(t, a.Board.HasColumn("l1"))
	assert.Equal(t, 1, a.Trash.Len())
	assert.False(t, a.Board.IsLoading())
	assert.Equal(t, "", a.Board.LastError())

	cols := localBoard(t, f.local)
	assert.Equal(t, types.ID("r1"), cols[0].ID)
	name, _, _ := f.local.Get(localstore.KeyProjectName)
	assert.Equal(t, "From server", name)

	require.NoError(t, a.Close(context.Background()))
	assert.Empty(t, f.remote.Calls(), "pulled state is not mirrored back")
}

func TestPullFailureKeepsLocalData(t *testing.T) {
	f := newFixture(t, true)
	f.remote.SetFailLatest(remote.KindBoard, errors.New("network down"))
	require.NoError(t, f.local.Set(localstore.KeyBoard, `[{"id":"l1","title":"Column 1","blocks":[]}]`))

	a := f.open(t)
	assert.False(t, a.Pull(context.Background()))

	assert.True(t, a.Board.HasColumn("l1"))
	assert.Equal(t, "Failed to load data from server: network down. Using local data instead.", a.Board.LastError())
	require.NoError(t, a.Close(context.Background()))
}

func TestTrashPullFailureIsNotUserVisible(t *testing.T) {
	f := newFixture(t, true)
	f.remote.SetFailLatest(remote.KindTrash, errors.New("rls"))

	a := f.open(t)
	a.Pull(context.Background())

	assert.Equal(t, "", a.Board.LastError())
	require.NoError(t, a.Close(context.Background()))
}

func TestSaveFailureSetsError(t *testing.T) {
	f := newFixture(t, true)
	f.remote.SetFailInsert(remote.KindBoard, errors.New("quota exceeded"))

	a := f.open(t)
	a.Board.AddColumn()
	require.NoError(t, a.Close(context.Background()))

	assert.Equal(t, "Failed to save data to server: quota exceeded. Data saved locally only.", a.Board.LastError())
	assert.Len(t, localBoard(t, f.local), 1, "local write survives remote failure")
}

func TestFailedSaveIsNotOverwrittenOnRestart(t *testing.T) {
	f := newFixture(t, true)
	f.remote.Seed(remote.KindBoard, `[]`)
	f.remote.SetFailUpdate(remote.KindBoard, errors.New("network down"))
	store := sharedStore{f.local}
	ctx := context.Background()

	a := f.open(t, WithLocalStore(store))
	a.Start(ctx)
	a.Board.AddColumn()
	require.NoError(t, a.Close(ctx))
	require.True(t, a.Persist.Unsynced(remote.KindBoard))

	f.remote.SetFailUpdate(remote.KindBoard, nil)
	a = f.open(t, WithLocalStore(store))
	rep := a.Start(ctx)

	assert.False(t, rep.Pulled, "the stale remote board is not installed")
	assert.Len(t, a.Board.Columns(), 1)
	assert.Equal(t, "", a.Board.LastError())
	require.NoError(t, a.Close(ctx))

	assert.Len(t, localBoard(t, f.local), 1)
	rows := f.remote.Rows(remote.KindBoard)
	require.Len(t, rows, 1)
	var remoteCols []types.Column
	require.NoError(t, json.Unmarshal(rows[0].Payload, &remoteCols))
	assert.Len(t, remoteCols, 1, "the local board is pushed instead")
	assert.False(t, a.Persist.Unsynced(remote.KindBoard))
}

func TestDroppedSaveIsNotOverwrittenOnRestart(t *testing.T) {
	f := newFixture(t, true)
	f.cfg.Remote.QueueSize = 1
	f.remote.Block = make(chan struct{})
	store := sharedStore{f.local}
	ctx := context.Background()

	a := f.open(t, WithLocalStore(store))
	a.Start(ctx)
	for range 3 {
		a.Board.AddColumn()
	}
	close(f.remote.Block)
	require.NoError(t, a.Close(ctx))
	require.True(t, a.Persist.Unsynced(remote.KindBoard), "the last write was dropped")

	a = f.open(t, WithLocalStore(store))
	a.Start(ctx)
	assert.Len(t, a.Board.Columns(), 3)
	require.NoError(t, a.Close(ctx))

	rows := f.remote.Rows(remote.KindBoard)
	require.Len(t, rows, 1)
	var remoteCols []types.Column
	require.NoError(t, json.Unmarshal(rows[0].Payload, &remoteCols))
	assert.Len(t, remoteCols, 3)
	assert.False(t, a.Persist.Unsynced(remote.KindBoard))
}

func TestRestoreColumn(t *testing.T) {
	f := newFixture(t, false)
	a := f.open(t)

	col := a.Board.AddColumn()
	require.True(t, a.Board.DeleteColumn(col.ID))
	require.NoError(t, a.RestoreColumn(col.ID))
	assert.True(t, a.Board.HasColumn(col.ID))
	assert.Equal(t, 0, a.Trash.Len())

	assert.ErrorIs(t, a.RestoreColumn(col.ID), types.ErrTrashItemNotFound)
	require.NoError(t, a.Close(context.Background()))
}

func TestRestoreBlock(t *testing.T) {
	f := newFixture(t, false)
	a := f.open(t)

	c1 := a.Board.AddColumn()
	c2 := a.Board.AddColumn()
	nb, _ := a.Board.AddBlockAfter(c1.ID, c1.Blocks[0].ID)
	require.True(t, a.Board.DeleteBlock(c1.ID, nb.ID))

	got, err := a.RestoreBlock(nb.ID, "")
	require.NoError(t, err)
	assert.Equal(t, c1.ID, got)
	col, _ := a.Board.Column(c1.ID)
	assert.Equal(t, nb.ID, col.Blocks[len(col.Blocks)-1].ID)

	require.True(t, a.Board.DeleteBlock(c1.ID, nb.ID))
	require.True(t, a.Board.DeleteColumn(c1.ID))

	_, err = a.RestoreBlock(nb.ID, "")
	assert.ErrorIs(t, err, types.ErrColumnNotFound)
	assert.Equal(t, 2, a.Trash.Len(), "block stays in the trash")

	got, err = a.RestoreBlock(nb.ID, c2.ID)
	require.NoError(t, err)
	assert.Equal(t, c2.ID, got)

	_, err = a.RestoreBlock("missing", "")
	assert.ErrorIs(t, err, types.ErrTrashItemNotFound)
	require.NoError(t, a.Close(context.Background()))
}

func TestRestoreColumnAlreadyOnBoardStaysInTrash(t *testing.T) {
	f := newFixture(t, false)
	a := f.open(t)

	col := a.Board.AddColumn()
	require.True(t, a.Board.DeleteColumn(col.ID))
	deletedAt := a.Trash.Bin().Columns[0].DeletedAt
	a.Board.Replace([]types.Column{col})

	assert.ErrorIs(t, a.RestoreColumn(col.ID), types.ErrColumnExists)
	assert.Len(t, a.Board.Columns(), 1)
	bin := a.Trash.Bin()
	require.Len(t, bin.Columns, 1)
	assert.True(t, deletedAt.Equal(*bin.Columns[0].DeletedAt))
	require.NoError(t, a.Close(context.Background()))
}

func TestRestoreBlockToVanishedColumnStaysInTrash(t *testing.T) {
	f := newFixture(t, false)
	a := f.open(t)

	col := a.Board.AddColumn()
	nb, _ := a.Board.AddBlockAfter(col.ID, col.Blocks[0].ID)
	require.True(t, a.Board.DeleteBlock(col.ID, nb.ID))

	// Drop the column between the column check and the board insert.
	vanish := true
	a.Trash.OnChange(func(types.TrashBin) {
		if vanish {
			vanish = false
			a.Board.Replace([]types.Column{})
		}
	})

	_, err := a.RestoreBlock(nb.ID, "")
	assert.ErrorIs(t, err, types.ErrColumnNotFound)
	bin := a.Trash.Bin()
	require.Len(t, bin.Blocks, 1)
	assert.Equal(t, nb.ID, bin.Blocks[0].ID)
	assert.Equal(t, col.ID, bin.Blocks[0].SourceColumnID)
	require.NoError(t, a.Close(context.Background()))
}

func TestPurgeTrashItem(t *testing.T) {
	f := newFixture(t, false)
	a := f.open(t)

	col := a.Board.AddColumn()
	require.True(t, a.Board.DeleteColumn(col.ID))

	assert.ErrorIs(t, a.PurgeTrashItem(col.ID, types.TrashKind("board")), types.ErrInvalidKind)
	assert.ErrorIs(t, a.PurgeTrashItem(col.ID, types.TrashKindBlock), types.ErrTrashItemNotFound)
	require.NoError(t, a.PurgeTrashItem(col.ID, types.TrashKindColumn))
	assert.Equal(t, 0, a.Trash.Len())
	require.NoError(t, a.Close(context.Background()))
}

func TestLifecycleBackupIsGated(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.local.Set(localstore.KeyBoard, `[]`))

	a := f.open(t)
	rep := a.Start(context.Background())
	assert.False(t, rep.Backup.Skipped)
	assert.Equal(t, backup.FileName(f.now), rep.Backup.FileName)
	require.NoError(t, a.Close(context.Background()))

	entries, err := os.ReadDir(f.downloads)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "start backs up, shutdown within the hour does not")

	f.now = f.now.Add(2 * time.Hour)
	f.local = localstore.NewMemoryStore()
	require.NoError(t, f.local.Set(localstore.KeyBoard, `[]`))
	a = f.open(t)
	require.NoError(t, a.Close(context.Background()))
	entries, err = os.ReadDir(f.downloads)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStartExpiresOldTrash(t *testing.T) {
	f := newFixture(t, false)
	old := f.now.AddDate(0, 0, -40).Format(time.RFC3339)
	require.NoError(t, f.local.Set(localstore.KeyTrash, `{"columns":[{"id":"c","title":"Column 1","blocks":[],"deletedAt":"`+old+`"}],"blocks":[]}`))

	a := f.open(t)
	rep := a.Start(context.Background())

	assert.True(t, rep.Cleaned)
	assert.Equal(t, 0, a.Trash.Len())
	raw, _, _ := f.local.Get(localstore.KeyTrash)
	assert.JSONEq(t, `{"columns":[],"blocks":[]}`, raw)
	require.NoError(t, a.Close(context.Background()))
}

func TestOfflineSkipsConfiguredRemote(t *testing.T) {
	cfg := types.Config{
		Backend: types.BackendSQLite,
		Remote:  types.RemoteConfig{Driver: types.RemotePostgREST, URL: "https://example.supabase.co", Key: "anon"},
	}
	a, err := Open(context.Background(), cfg, zaptest.NewLogger(t),
		WithLocalStore(localstore.NewMemoryStore()), WithOffline())
	require.NoError(t, err)
	assert.Nil(t, a.Remote)
	require.NoError(t, a.Close(context.Background()))
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), types.Config{Backend: "redis"}, nil, WithLocalStore(localstore.NewMemoryStore()))
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestNewRemote(t *testing.T) {
	rs, err := NewRemote(context.Background(), types.RemoteConfig{Driver: types.RemoteNone})
	require.NoError(t, err)
	assert.Nil(t, rs)

	rs, err = NewRemote(context.Background(), types.RemoteConfig{Driver: types.RemotePostgREST, URL: "x.supabase.co", Key: "k"})
	require.NoError(t, err)
	assert.NotNil(t, rs)

	_, err = NewRemote(context.Background(), types.RemoteConfig{Driver: types.RemotePostgres})
	assert.ErrorIs(t, err, types.ErrRemoteDSNEmpty)
}
