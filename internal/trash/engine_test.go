package trash

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/localstore"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newEngine(t *testing.T, bin types.TrashBin) (*Engine, *clock, *localstore.MemoryStore, *[]types.TrashBin) {
	t.Helper()
	c := &clock{t: time.Date(2026, 6, 15, 9, 30, 0, 0, time.Local)}
	store := localstore.NewMemoryStore()
	e := New(store, bin, WithClock(c.now), WithLogger(zaptest.NewLogger(t)))
	var changes []types.TrashBin
	e.OnChange(func(b types.TrashBin) { changes = append(changes, b) })
	return e, c, store, &changes
}

func column(id types.ID, title string, blocks ...types.Block) types.Column {
	if blocks == nil {
		blocks = []types.Block{}
	}
	return types.Column{ID: id, Title: title, Blocks: blocks}
}

func TestAddTrashedColumnPrepends(t *testing.T) {
	e, c, _, changes := newEngine(t, types.NewTrashBin())

	e.AddTrashedColumn(column("1", "Column 1"))
	e.AddTrashedColumn(column("2", "Column 2"))

	bin := e.Bin()
	require.Len(t, bin.Columns, 2)
	assert.Equal(t, types.ID("2"), bin.Columns[0].ID, "newest first")
	require.NotNil(t, bin.Columns[0].DeletedAt)
	assert.True(t, c.t.Equal(*bin.Columns[0].DeletedAt))
	assert.Len(t, *changes, 2)
}

func TestAddTrashedBlockPrepends(t *testing.T) {
	e, _, _, _ := newEngine(t, types.NewTrashBin())

	e.AddTrashedBlock(types.Block{ID: "a", Content: "first"}, "col-1", "Column 1")
	e.AddTrashedBlock(types.Block{ID: "b", Content: "second"}, "col-2", "Column 2")

	bin := e.Bin()
	require.Len(t, bin.Blocks, 2)
	assert.Equal(t, types.ID("b"), bin.Blocks[0].ID)
	assert.Equal(t, types.ID("col-2"), bin.Blocks[0].SourceColumnID)
	assert.Equal(t, "Column 2", bin.Blocks[0].SourceColumnTitle)
	assert.Equal(t, 2, e.Len())
}

func TestRestoreBlockRoundTrip(t *testing.T) {
	e, _, _, _ := newEngine(t, types.NewTrashBin())
	block := types.Block{ID: "a", Content: "x", Style: map[string]any{"color": "red"}}

	e.AddTrashedBlock(block, "c1", "Column 1")
	restored, ok := e.RestoreBlock("a")

	require.True(t, ok)
	assert.Equal(t, block, restored.Block)
	assert.Equal(t, types.ID("c1"), restored.SourceColumnID)
	assert.Equal(t, 0, e.Len())

	_, ok = e.RestoreBlock("a")
	assert.False(t, ok)
}

func TestPutBackKeepsDeletionTimeAndOrder(t *testing.T) {
	e, c, _, changes := newEngine(t, types.NewTrashBin())

	e.AddTrashedBlock(types.Block{ID: "a"}, "c1", "Column 1")
	deleted := c.t
	c.t = c.t.Add(time.Hour)
	e.AddTrashedBlock(types.Block{ID: "b"}, "c1", "Column 1")
	e.AddTrashedColumn(column("c2", "Column 2"))

	tb, ok := e.RestoreBlock("a")
	require.True(t, ok)
	c.t = c.t.Add(time.Hour)
	e.PutBackBlock(tb)

	bin := e.Bin()
	require.Len(t, bin.Blocks, 2)
	assert.Equal(t, types.ID("b"), bin.Blocks[0].ID)
	assert.Equal(t, types.ID("a"), bin.Blocks[1].ID, "older entry goes back behind newer ones")
	assert.True(t, deleted.Equal(*bin.Blocks[1].DeletedAt))
	assert.Equal(t, "Column 1", bin.Blocks[1].SourceColumnTitle)

	tc, ok := e.RestoreColumn("c2")
	require.True(t, ok)
	e.PutBackColumn(tc)
	require.Len(t, e.Bin().Columns, 1)
	assert.True(t, tc.DeletedAt.Equal(*e.Bin().Columns[0].DeletedAt))
	assert.Len(t, *changes, 7)
}

func TestRestoreColumn(t *testing.T) {
	e, _, _, changes := newEngine(t, types.NewTrashBin())
	col := column("c1", "Column 1", types.Block{ID: "a", Content: "x"})

	e.AddTrashedColumn(col)
	restored, ok := e.RestoreColumn("c1")
	require.True(t, ok)
	assert.Equal(t, col, restored.Column)
	assert.NotNil(t, restored.DeletedAt)
	assert.Empty(t, e.Bin().Columns)
	assert.Len(t, *changes, 2)

	_, ok = e.RestoreColumn("missing")
	assert.False(t, ok)
	assert.Len(t, *changes, 2, "failed restore does not notify")
}

func TestDeleteItemPermanently(t *testing.T) {
	tests := []struct {
		name string
		id   types.ID
		kind types.TrashKind
		want bool
		left int
	}{
		{name: "column", id: "c1", kind: types.TrashKindColumn, want: true, left: 1},
		{name: "block", id: "b1", kind: types.TrashKindBlock, want: true, left: 1},
		{name: "wrong kind for id", id: "c1", kind: types.TrashKindBlock, want: false, left: 2},
		{name: "unknown kind", id: "c1", kind: types.TrashKind("board"), want: false, left: 2},
		{name: "missing id", id: "nope", kind: types.TrashKindColumn, want: false, left: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _, _ := newEngine(t, types.NewTrashBin())
			e.AddTrashedColumn(column("c1", "Column 1"))
			e.AddTrashedBlock(types.Block{ID: "b1"}, "c2", "Column 2")

			assert.Equal(t, tt.want, e.DeleteItemPermanently(tt.id, tt.kind))
			assert.Equal(t, tt.left, e.Len())
		})
	}
}

func TestClearTrash(t *testing.T) {
	e, _, _, changes := newEngine(t, types.NewTrashBin())
	e.AddTrashedColumn(column("c1", "Column 1"))
	e.AddTrashedBlock(types.Block{ID: "b1"}, "c2", "Column 2")

	e.ClearTrash()

	assert.Equal(t, types.NewTrashBin(), e.Bin())
	last := (*changes)[len(*changes)-1]
	assert.Equal(t, 0, last.Len())
}

func TestReplaceDoesNotNotify(t *testing.T) {
	e, _, _, changes := newEngine(t, types.NewTrashBin())
	e.Replace(types.TrashBin{Columns: []types.TrashedColumn{{Column: column("c1", "Column 1")}}})

	assert.Equal(t, 1, e.Len())
	assert.NotNil(t, e.Bin().Blocks)
	assert.Empty(t, *changes)
}

func TestBinIsACopy(t *testing.T) {
	e, _, _, _ := newEngine(t, types.NewTrashBin())
	e.AddTrashedBlock(types.Block{ID: "a", Content: "x"}, "c1", "Column 1")

	bin := e.Bin()
	bin.Blocks[0].Content = "changed"

	assert.Equal(t, "x", e.Bin().Blocks[0].Content)
}
