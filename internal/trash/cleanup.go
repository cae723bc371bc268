package trash

import (
	"time"

	"go.uber.org/zap"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/localstore"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// CleanupOldTrashItems removes items deleted more than RetentionDays ago.
// It runs at most once per calendar day: the day of every run is recorded,
// and a later call on the same day returns false without looking at the
// bin. Items with no deletion time are kept. Observers are notified only
// when something was removed. Returns whether anything was removed.
func (e *Engine) CleanupOldTrashItems() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	today := now.Format(dayLayout)

	last, ok, err := e.store.Get(localstore.KeyLastEmptiedTrash)
	if err != nil {
		e.logger.Warn("reading last trash cleanup day", zap.Error(err))
	}
	if ok && last == today {
		return false
	}
	if err := e.store.Set(localstore.KeyLastEmptiedTrash, today); err != nil {
		e.logger.Warn("recording trash cleanup day", zap.Error(err))
	}

	cutoff := now.AddDate(0, 0, -RetentionDays)

	cols := make([]types.TrashedColumn, 0, len(e.bin.Columns))
	for _, tc := range e.bin.Columns {
		if keep(tc.DeletedAt, cutoff) {
			cols = append(cols, tc)
		}
	}
	blocks := make([]types.TrashedBlock, 0, len(e.bin.Blocks))
	for _, tb := range e.bin.Blocks {
		if keep(tb.DeletedAt, cutoff) {
			blocks = append(blocks, tb)
		}
	}

	removed := len(e.bin.Columns) - len(cols) + len(e.bin.Blocks) - len(blocks)
	if removed == 0 {
		return false
	}
	e.bin.Columns = cols
	e.bin.Blocks = blocks
	e.logger.Info("expired trash items", zap.Int("removed", removed))
	e.notifyLocked()
	return true
}

func keep(deletedAt *time.Time, cutoff time.Time) bool {
	return deletedAt == nil || deletedAt.After(cutoff)
}
