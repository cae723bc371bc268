package persist

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/localstore"
	"github.com/jeffreyruoss/ru-mega-kanban/internal/remote"
	"github.com/jeffreyruoss/ru-mega-kanban/pkg/types"
)

// LoadBoard reads the board snapshot. Missing or malformed data yields an
// empty board.
func (a *Adapter) LoadBoard() []types.Column {
	var cols []types.Column
	if !a.loadJSON(localstore.KeyBoard, &cols) {
		return []types.Column{}
	}
	return types.Normalize(cols)
}

// LoadTrash reads the trash bin. Missing or malformed data yields an empty
// bin.
func (a *Adapter) LoadTrash() types.TrashBin {
	var bin types.TrashBin
	if !a.loadJSON(localstore.KeyTrash, &bin) {
		return types.NewTrashBin()
	}
	return bin.Normalize()
}

// LoadProjectName reads the project name, stored as plain text. Missing or
// empty values yield the default name.
func (a *Adapter) LoadProjectName() string {
	v, ok, err := a.local.Get(localstore.KeyProjectName)
	if err != nil {
		a.logger.Error("reading project name", zap.Error(err))
		return a.projectName
	}
	if !ok || v == "" {
		return a.projectName
	}
	return v
}

func (a *Adapter) loadJSON(key string, dst any) bool {
	v, ok, err := a.local.Get(key)
	if err != nil {
		a.logger.Error("reading local store", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		a.logger.Warn("discarding malformed local data", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SaveBoard writes the board locally and mirrors it.
func (a *Adapter) SaveBoard(cols []types.Column) {
	if payload, ok := a.SaveLocalBoard(cols); ok {
		a.Mirror(remote.KindBoard, payload)
	}
}

// SaveTrash writes the trash locally and mirrors it.
func (a *Adapter) SaveTrash(bin types.TrashBin) {
	if payload, ok := a.SaveLocalTrash(bin); ok {
		a.Mirror(remote.KindTrash, payload)
	}
}

// SaveProjectName writes the project name locally and mirrors it.
func (a *Adapter) SaveProjectName(name string) {
	a.SaveLocalProjectName(name)
	payload, err := json.Marshal(name)
	if err != nil {
		a.logger.Error("encoding project name", zap.Error(err))
		return
	}
	a.Mirror(remote.KindProject, payload)
}

// SaveLocalBoard writes the board locally only. It returns the encoded
// payload and whether encoding succeeded. A failed local write is logged
// and the payload is still returned so the remote mirror proceeds.
func (a *Adapter) SaveLocalBoard(cols []types.Column) (json.RawMessage, bool) {
	return a.saveJSON(localstore.KeyBoard, types.Normalize(types.CloneColumns(cols)))
}

// SaveLocalTrash writes the trash locally only.
func (a *Adapter) SaveLocalTrash(bin types.TrashBin) (json.RawMessage, bool) {
	return a.saveJSON(localstore.KeyTrash, bin.Normalize())
}

// SaveLocalProjectName writes the project name locally only.
func (a *Adapter) SaveLocalProjectName(name string) {
	if err := a.local.Set(localstore.KeyProjectName, name); err != nil {
		a.logger.Error("writing project name", zap.Error(err))
	}
}

func (a *Adapter) saveJSON(key string, v any) (json.RawMessage, bool) {
	payload, err := json.Marshal(v)
	if err != nil {
		a.logger.Error("encoding local data", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if err := a.local.Set(key, string(payload)); err != nil {
		a.logger.Error("writing local store", zap.String("key", key), zap.Error(err))
	}
	return payload, true
}
