package app

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/persist"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/remote"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// Pull loads the newest project name, board, and trash from the remote and
// installs each one that is present, refreshing the local copy without
// mirroring it back. A kind whose local changes never reached the remote is
// not pulled; its local copy is mirrored again instead. The board reports
// loading while it runs. Returns whether anything was installed.
func (a *App) Pull(ctx context.Context) bool {
	a.Board.SetLoading(true)
	a.Board.ClearError()
	defer a.Board.SetLoading(false)

	loaded := false

	if payload, ok := a.loadRemote(ctx, remote.KindProject); ok {
		var name string
		if err := json.Unmarshal(payload, &name); err != nil {
			a.Logger.Warn("ignoring malformed remote project name", zap.Error(err))
		} else if name != "" {
			a.Board.ReplaceProjectName(name)
			a.Persist.SaveLocalProjectName(name)
			loaded = true
		}
	}

	if payload, ok := a.loadRemote(ctx, remote.KindBoard); ok {
		var cols []types.Column
		if err := json.Unmarshal(payload, &cols); err != nil {
			a.Logger.Warn("ignoring malformed remote board", zap.Error(err))
			a.reportRemoteError(persist.OpLoad, remote.KindBoard, err)
		} else {
			cols = types.Normalize(cols)
			a.Board.Replace(cols)
			a.Persist.SaveLocalBoard(cols)
			loaded = true
		}
	}

	if payload, ok := a.loadRemote(ctx, remote.KindTrash); ok {
		var bin types.TrashBin
		if err := json.Unmarshal(payload, &bin); err != nil {
			a.Logger.Warn("ignoring malformed remote trash", zap.Error(err))
		} else {
			bin = bin.Normalize()
			a.Trash.Replace(bin)
			a.Persist.SaveLocalTrash(bin)
			loaded = true
		}
	}

	return loaded
}

func (a *App) loadRemote(ctx context.Context, kind remote.Kind) (json.RawMessage, bool) {
	if a.Persist.Unsynced(kind) {
		a.Logger.Info("local changes not on remote, pushing instead of pulling", zap.String("kind", string(kind)))
		a.Persist.ResyncLocal(kind)
		return nil, false
	}
	return a.Persist.LoadRemote(ctx, kind)
}
