package board

import (
	"fmt"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

var columnNumber = regexp.MustCompile(`Column (\d+)`)

// nextColumnNumber returns one more than the largest "Column N" suffix.
// Titles that do not match count as 0.
func (e *Engine) nextColumnNumber() int {
	highest := 0
	for _, c := range e.columns {
		m := columnNumber.FindStringSubmatch(c.Title)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1
}

// AddColumn appends a column titled "Column N" holding one empty block.
func (e *Engine) AddColumn() types.Column {
	e.mu.Lock()
	defer e.mu.Unlock()

	col := types.Column{
		ID:     e.newID(),
		Title:  fmt.Sprintf("Column %d", e.nextColumnNumber()),
		Blocks: []types.Block{{ID: e.newID()}},
	}
	e.columns = append(e.columns, col)
	e.notifyLocked()
	return col.Clone()
}

// UpdateBlockContent sets a block's text. It returns false if the column or
// block does not exist.
func (e *Engine) UpdateBlockContent(columnID, blockID types.ID, text string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	ci, bi := e.block(columnID, blockID)
	if bi < 0 {
		return false
	}
	b := &e.columns[ci].Blocks[bi]
	if b.Content != text {
		b.Content = text
		e.notifyLocked()
	}
	return true
}

// UpdateBlockStyle merges fields into a block's style attributes. Existing
// keys are overwritten and the reserved keys id and content are ignored.
// It returns false if the column or block does not exist.
func (e *Engine) UpdateBlockStyle(columnID, blockID types.ID, fields map[string]any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	ci, bi := e.block(columnID, blockID)
	if bi < 0 {
		return false
	}
	if e.columns[ci].Blocks[bi].MergeStyle(fields) {
		e.notifyLocked()
	}
	return true
}

// UpdateColumnTitle renames a column. It returns false if the column does
// not exist.
func (e *Engine) UpdateColumnTitle(columnID types.ID, text string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	ci := e.columnIndex(columnID)
	if ci < 0 {
		return false
	}
	if e.columns[ci].Title != text {
		e.columns[ci].Title = text
		e.notifyLocked()
	}
	return true
}

// AddBlockAfter inserts an empty block right after blockID.
func (e *Engine) AddBlockAfter(columnID, blockID types.ID) (types.Block, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ci, bi := e.block(columnID, blockID)
	if bi < 0 {
		return types.Block{}, false
	}
	nb := types.Block{ID: e.newID()}
	e.columns[ci].Blocks = insertAt(e.columns[ci].Blocks, bi+1, nb)
	e.notifyLocked()
	return nb, true
}

// DeleteBlock moves a block to the trash. It refuses to remove the last
// block of a column.
func (e *Engine) DeleteBlock(columnID, blockID types.ID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	ci, bi := e.block(columnID, blockID)
	if bi < 0 {
		return false
	}
	col := &e.columns[ci]
	if len(col.Blocks) <= 1 {
		e.logger.Debug("refusing to delete last block", zap.String("column", col.ID.String()))
		return false
	}
	e.trash.AddTrashedBlock(col.Blocks[bi], col.ID, col.Title)
	col.Blocks = removeAt(col.Blocks, bi)
	e.notifyLocked()
	return true
}

// DeleteColumn moves a column and its blocks to the trash.
func (e *Engine) DeleteColumn(columnID types.ID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	ci := e.columnIndex(columnID)
	if ci < 0 {
		return false
	}
	e.trash.AddTrashedColumn(e.columns[ci])
	e.columns = append(e.columns[:ci:ci], e.columns[ci+1:]...)
	e.notifyLocked()
	return true
}

// ReorderColumns moves the column at source to target. Both indices must be
// in range and distinct.
func (e *Engine) ReorderColumns(source, target int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.columns)
	if source < 0 || source >= n || target < 0 || target >= n || source == target {
		return false
	}
	col := e.columns[source]
	rest := append(e.columns[:source:source], e.columns[source+1:]...)
	e.columns = insertAt(rest, target, col)
	e.notifyLocked()
	return true
}

// ReorderBlocks moves a block between or within columns. srcIndex must be a
// valid block index and dstIndex may equal the destination length. The
// destination index is applied after the block is removed, so a move within
// one column to a later position lands one slot earlier than dstIndex, and
// an index past the end appends.
func (e *Engine) ReorderBlocks(srcColumnID types.ID, srcIndex int, dstColumnID types.ID, dstIndex int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	si := e.columnIndex(srcColumnID)
	di := e.columnIndex(dstColumnID)
	if si < 0 || di < 0 {
		return false
	}
	src := e.columns[si].Blocks
	if srcIndex < 0 || srcIndex >= len(src) || dstIndex < 0 || dstIndex > len(e.columns[di].Blocks) {
		return false
	}

	moved := src[srcIndex]
	e.columns[si].Blocks = removeAt(src, srcIndex)

	dst := e.columns[di].Blocks
	if dstIndex > len(dst) {
		dstIndex = len(dst)
	}
	e.columns[di].Blocks = insertAt(dst, dstIndex, moved)
	e.notifyLocked()
	return true
}

// RestoreColumnFromTrash appends a column taken out of the trash. It
// returns false when a column with the same id is already on the board.
func (e *Engine) RestoreColumnFromTrash(col types.Column) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.columnIndex(col.ID) >= 0 {
		return false
	}
	col = col.Clone()
	e.columns = append(e.columns, col)
	e.notifyLocked()
	return true
}

// RestoreBlockToColumn appends a block taken out of the trash to a column.
func (e *Engine) RestoreBlockToColumn(block types.Block, columnID types.ID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	ci := e.columnIndex(columnID)
	if ci < 0 {
		return false
	}
	e.columns[ci].Blocks = append(e.columns[ci].Blocks, block.Clone())
	e.notifyLocked()
	return true
}

func insertAt[T any](s []T, i int, v T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, v)
	return append(out, s[i:]...)
}

func removeAt[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}
