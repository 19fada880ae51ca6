package relay

import (
	"context"

	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/store"
)

// AddAlert marks a user as pending notification on the thread's next
// reply. Adding an already-present user is a no-op.
func (e *Engine) AddAlert(ctx context.Context, thread *models.Thread, userID string) error {
	if err := store.AddAlert(e.db.WithContext(ctx), thread.ID, userID); err != nil {
		return err
	}
	return e.refreshAlerts(ctx, thread)
}

// RemoveAlert drops a user from the pending alert set. Removing an
// absent user is a no-op.
func (e *Engine) RemoveAlert(ctx context.Context, thread *models.Thread, userID string) error {
	if err := store.RemoveAlert(e.db.WithContext(ctx), thread.ID, userID); err != nil {
		return err
	}
	return e.refreshAlerts(ctx, thread)
}

// DeleteAlerts unconditionally clears the pending alert set. Idempotent.
func (e *Engine) DeleteAlerts(ctx context.Context, thread *models.Thread) error {
	if err := store.ClearAlerts(e.db.WithContext(ctx), thread.ID); err != nil {
		return err
	}
	thread.AlertIDs = nil
	return nil
}

// refreshAlerts re-reads the persisted alert column into the in-memory
// thread record.
func (e *Engine) refreshAlerts(ctx context.Context, thread *models.Thread) error {
	fresh, err := store.ThreadByID(e.db.WithContext(ctx), thread.ID)
	if err != nil {
		return err
	}
	if fresh != nil {
		thread.AlertIDs = fresh.AlertIDs
	}
	return nil
}
