package relay

import (
	"context"
	"fmt"

	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/store"
)

// EditStaffReply rewrites an already-relayed staff reply on both
// surfaces and updates the stored body. Unless quiet is set, an audit
// notice showing the before/after is posted to the staff surface.
func (e *Engine) EditStaffReply(ctx context.Context, thread *models.Thread, msg *models.ThreadMessage, actor Actor, newBody string, quiet bool) error {
	if msg.MessageType != models.MessageTypeToUser {
		return fmt.Errorf("relay: message %d is not a staff reply", msg.ID)
	}

	updated := *msg
	updated.Body = newBody

	if msg.DMChannelID != nil && msg.DMMessageID != nil {
		dmContent := e.formatter.FormatStaffReplyDM(&updated)
		if err := e.client.EditMessage(ctx, *msg.DMChannelID, *msg.DMMessageID, dmContent); err != nil {
			return fmt.Errorf("relay: edit reply %d on user surface: %w", msg.ID, err)
		}
	}
	if msg.InboxMessageID != nil {
		echo := e.formatter.FormatStaffReplyEcho(&updated)
		if err := e.client.EditMessage(ctx, thread.ChannelID, *msg.InboxMessageID, echo); err != nil {
			return fmt.Errorf("relay: edit reply %d on staff surface: %w", msg.ID, err)
		}
	}

	if !quiet {
		// msg still holds the pre-edit body here.
		notice := e.formatter.FormatEditNotice(msg, newBody, actor)
		if err := e.PostSystemMessage(ctx, thread, notice, true); err != nil {
			return err
		}
	}

	if err := store.UpdateMessage(e.db.WithContext(ctx), msg.ID, map[string]interface{}{
		"body": newBody,
	}); err != nil {
		return err
	}
	msg.Body = newBody
	return nil
}

// DeleteStaffReply removes a relayed staff reply from both surfaces
// and hard-deletes its row. The thread's message counter is not
// rewound; the number stays consumed. Unless quiet is set, an audit
// notice quoting the deleted content is posted to the staff surface.
func (e *Engine) DeleteStaffReply(ctx context.Context, thread *models.Thread, msg *models.ThreadMessage, actor Actor, quiet bool) error {
	if msg.MessageType != models.MessageTypeToUser {
		return fmt.Errorf("relay: message %d is not a staff reply", msg.ID)
	}

	if msg.DMChannelID != nil && msg.DMMessageID != nil {
		if err := e.client.DeleteMessage(ctx, *msg.DMChannelID, *msg.DMMessageID); err != nil {
			return fmt.Errorf("relay: delete reply %d on user surface: %w", msg.ID, err)
		}
	}
	if msg.InboxMessageID != nil {
		if err := e.client.DeleteMessage(ctx, thread.ChannelID, *msg.InboxMessageID); err != nil {
			return fmt.Errorf("relay: delete reply %d on staff surface: %w", msg.ID, err)
		}
	}

	if !quiet {
		notice := e.formatter.FormatDeleteNotice(msg, actor)
		if err := e.PostSystemMessage(ctx, thread, notice, true); err != nil {
			return err
		}
	}

	return store.DeleteMessage(e.db.WithContext(ctx), msg.ID)
}
