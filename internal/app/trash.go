package app

import (
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// RestoreColumn moves a column from the trash to the end of the board. A
// column whose id is already on the board stays in the trash.
func (a *App) RestoreColumn(id types.ID) error {
	tc, ok := a.Trash.RestoreColumn(id)
	if !ok {
		return types.ErrTrashItemNotFound
	}
	if !a.Board.RestoreColumnFromTrash(tc.Column) {
		a.Trash.PutBackColumn(tc)
		return types.ErrColumnExists
	}
	return nil
}

// RestoreBlock moves a block from the trash to the end of columnID, or of
// the column it was deleted from when columnID is empty. The target column
// is checked before the block leaves the trash, and the block goes back if
// the column disappears in between. Returns the column the block was
// restored to.
func (a *App) RestoreBlock(id, columnID types.ID) (types.ID, error) {
	if columnID == "" {
		src, ok := a.sourceColumn(id)
		if !ok {
			return "", types.ErrTrashItemNotFound
		}
		columnID = src
	}
	if !a.Board.HasColumn(columnID) {
		return "", types.ErrColumnNotFound
	}

	tb, ok := a.Trash.RestoreBlock(id)
	if !ok {
		return "", types.ErrTrashItemNotFound
	}
	// The column may have been deleted since the check above.
	if !a.Board.RestoreBlockToColumn(tb.Block, columnID) {
		a.Trash.PutBackBlock(tb)
		return "", types.ErrColumnNotFound
	}
	return columnID, nil
}

func (a *App) sourceColumn(blockID types.ID) (types.ID, bool) {
	for _, tb := range a.Trash.Bin().Blocks {
		if tb.ID == blockID {
			return tb.SourceColumnID, true
		}
	}
	return "", false
}

// PurgeTrashItem permanently deletes a trashed column or block.
func (a *App) PurgeTrashItem(id types.ID, kind types.TrashKind) error {
	if !kind.Valid() {
		return types.ErrInvalidKind
	}
	if !a.Trash.DeleteItemPermanently(id, kind) {
		return types.ErrTrashItemNotFound
	}
	return nil
}
