package persist

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/jeffreyruoss/ru-mega-kanban/internal/remote"
)

// LoadRemote fetches the most recent record of kind. It returns false when
// no remote is configured, the table is empty, or the fetch fails; failures
// are logged and reported.
func (a *Adapter) LoadRemote(ctx context.Context, kind remote.Kind) (json.RawMessage, bool) {
	if a.remote == nil {
		a.logger.Debug("remote not configured, skipping load", zap.String("kind", string(kind)))
		return nil, false
	}
	rec, err := a.remote.Latest(ctx, kind)
	if err != nil {
		a.logger.Error("loading from remote", zap.String("kind", string(kind)), zap.Error(err))
		a.report(OpLoad, kind, err)
		return nil, false
	}
	if rec == nil || len(rec.Payload) == 0 {
		return nil, false
	}
	return rec.Payload, true
}

// SaveRemote upserts payload as the latest record of kind: the newest row is
// updated if one exists, otherwise a row is inserted. A failed update gets
// one fallback insert when the row has vanished, or on a permission failure
// for the trash kind. Errors are logged, reported, and returned.
func (a *Adapter) SaveRemote(ctx context.Context, kind remote.Kind, payload json.RawMessage) error {
	if a.remote == nil {
		a.logger.Debug("remote not configured, skipping save", zap.String("kind", string(kind)))
		return nil
	}
	log := a.logger.With(zap.String("kind", string(kind)))

	rec, err := a.remote.Latest(ctx, kind)
	if err != nil {
		log.Warn("fetching latest remote record, inserting instead", zap.Error(err))
		rec = nil
	}

	if rec == nil {
		err = a.remote.Insert(ctx, kind, payload)
	} else {
		err = a.remote.Update(ctx, kind, rec.ID, payload)
		if err != nil && insertAfterFailedUpdate(kind, err) {
			log.Warn("updating remote record failed, retrying as insert", zap.Error(err))
			err = a.remote.Insert(ctx, kind, payload)
		}
	}
	if err != nil {
		log.Error("saving to remote", zap.Error(err))
		a.report(OpSave, kind, err)
		return err
	}
	log.Debug("saved to remote")
	return nil
}

func insertAfterFailedUpdate(kind remote.Kind, err error) bool {
	if remote.IsNotFound(err) {
		return true
	}
	return kind == remote.KindTrash && remote.IsPermissionDenied(err)
}
