package relay

import (
	"context"
	"log"
	"time"

	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/store"
)

// Close transitions the thread to the terminal CLOSED status and
// removes its staff channel. The status transition is authoritative:
// failure to delete the channel (typically because it is already gone)
// is logged and tolerated, never reported as an engine failure. A
// SUSPENDED thread may be closed directly without passing through OPEN.
// Unless suppressed, a pre-closure notice goes to the staff surface;
// the silent variant uses different wording and is kept out of the
// transcript as a cue to moderators.
func (e *Engine) Close(ctx context.Context, thread *models.Thread, suppressNotice, silent bool) error {
	if !suppressNotice {
		log.Printf("relay: closing thread %s", thread.ID)
		notice, saveToLog := "Closing thread...", true
		if silent {
			notice, saveToLog = "Closing thread silently...", false
		}
		if err := e.PostSystemMessage(ctx, thread, notice, saveToLog); err != nil {
			return err
		}
	}

	// The schedule must be cleared while the thread can still be
	// written; CLOSED rejects scheduling-field updates.
	if thread.HasScheduledClose() {
		if err := e.CancelScheduledClose(ctx, thread); err != nil {
			return err
		}
	}
	if err := store.UpdateThreadStatus(e.db.WithContext(ctx), thread.ID, models.ThreadStatusClosed); err != nil {
		return err
	}
	thread.Status = models.ThreadStatusClosed

	if thread.ChannelID != "" {
		if err := e.client.DeleteChannel(ctx, thread.ChannelID); err != nil {
			log.Printf("relay: delete staff channel %s of thread %s: %v", thread.ChannelID, thread.ID, err)
		}
	}
	return nil
}

// ScheduleClose overwrites the scheduled-close field group. The time is
// stored as given; callers validate that it lies in the future.
func (e *Engine) ScheduleClose(ctx context.Context, thread *models.Thread, at time.Time, actor Actor, silent bool) error {
	if err := store.ScheduleClose(e.db.WithContext(ctx), thread.ID, at, actor.ID, actor.Username, silent); err != nil {
		return err
	}
	thread.ScheduledCloseAt = &at
	thread.ScheduledCloseID = &actor.ID
	thread.ScheduledCloseName = &actor.Username
	thread.ScheduledCloseSilent = &silent
	return nil
}

// CancelScheduledClose clears the scheduled-close field group. Safe to
// call when nothing is scheduled. This is a pure state clear: a close
// that is already executing is not aborted.
func (e *Engine) CancelScheduledClose(ctx context.Context, thread *models.Thread) error {
	if err := store.ClearScheduledClose(e.db.WithContext(ctx), thread.ID); err != nil {
		return err
	}
	thread.ScheduledCloseAt = nil
	thread.ScheduledCloseID = nil
	thread.ScheduledCloseName = nil
	thread.ScheduledCloseSilent = nil
	return nil
}

// Suspend moves the thread to SUSPENDED, clearing any pending scheduled
// suspend in the same write.
func (e *Engine) Suspend(ctx context.Context, thread *models.Thread) error {
	if err := store.SuspendThread(e.db.WithContext(ctx), thread.ID); err != nil {
		return err
	}
	thread.Status = models.ThreadStatusSuspended
	thread.ScheduledSuspendAt = nil
	thread.ScheduledSuspendID = nil
	thread.ScheduledSuspendName = nil
	return nil
}

// Unsuspend returns the thread to OPEN.
func (e *Engine) Unsuspend(ctx context.Context, thread *models.Thread) error {
	if err := store.UnsuspendThread(e.db.WithContext(ctx), thread.ID); err != nil {
		return err
	}
	thread.Status = models.ThreadStatusOpen
	return nil
}

// ScheduleSuspend overwrites the scheduled-suspend field group.
func (e *Engine) ScheduleSuspend(ctx context.Context, thread *models.Thread, at time.Time, actor Actor) error {
	if err := store.ScheduleSuspend(e.db.WithContext(ctx), thread.ID, at, actor.ID, actor.Username); err != nil {
		return err
	}
	thread.ScheduledSuspendAt = &at
	thread.ScheduledSuspendID = &actor.ID
	thread.ScheduledSuspendName = &actor.Username
	return nil
}

// CancelScheduledSuspend clears the scheduled-suspend field group.
// Idempotent.
func (e *Engine) CancelScheduledSuspend(ctx context.Context, thread *models.Thread) error {
	if err := store.ClearScheduledSuspend(e.db.WithContext(ctx), thread.ID); err != nil {
		return err
	}
	thread.ScheduledSuspendAt = nil
	thread.ScheduledSuspendID = nil
	thread.ScheduledSuspendName = nil
	return nil
}
