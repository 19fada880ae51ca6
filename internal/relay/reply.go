package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/platform"
	"github.com/zulandar/switchboard/internal/store"
)

// ReplyToUser relays a staff reply to the user surface and mirrors it
// to the staff surface. It returns false without error when the user's
// private channel is unavailable (blocked the relay, privacy settings);
// in that case a system notice describing the failure has been posted
// to the staff surface and the thread state is otherwise untouched. On
// success the reply receives the thread's next message number, the row
// carries both surface IDs (staff-side only if the mirror succeeded),
// and any pending scheduled close is cancelled with a single notice.
func (e *Engine) ReplyToUser(ctx context.Context, thread *models.Thread, actor Actor, text string, attachments []platform.Attachment, anonymous bool) (bool, error) {
	name := actor.DisplayName(e.cfg.UseNicknames)
	var roleName *string
	if actor.Role != "" {
		role := actor.Role
		roleName = &role
	}

	files, urls, err := e.prepareReplyAttachments(ctx, attachments)
	if err != nil {
		return false, err
	}

	actorID := actor.ID
	msg := &models.ThreadMessage{
		ThreadID:    thread.ID,
		MessageType: models.MessageTypeToUser,
		UserID:      &actorID,
		UserName:    name,
		Body:        text,
		IsAnonymous: anonymous,
		RoleName:    roleName,
		Attachments: models.JoinAttachments(urls),
	}

	dmContent := e.formatter.FormatStaffReplyDM(msg)
	dmMessage, dmChannelID, err := e.sendDM(ctx, thread, dmContent, files)
	if err != nil {
		if errors.Is(err, platform.ErrUserSurfaceUnavailable) {
			notice := fmt.Sprintf("Error while replying to user: %v", err)
			if postErr := e.PostSystemMessage(ctx, thread, notice, true); postErr != nil {
				return false, postErr
			}
			return false, nil
		}
		return false, fmt.Errorf("relay: send reply to user %s: %w", thread.UserID, err)
	}

	number, err := store.AllocateMessageNumber(e.db.WithContext(ctx), thread.ID)
	if err != nil {
		return false, err
	}
	msg.MessageNumber = &number
	msg.DMMessageID = &dmMessage.ID
	msg.DMChannelID = &dmChannelID
	if err := store.InsertMessage(e.db.WithContext(ctx), msg); err != nil {
		return false, err
	}

	echo := e.formatter.FormatStaffReplyEcho(msg)
	inboxMessage, err := e.postToStaff(ctx, thread, echo, files)
	if err != nil {
		return false, err
	}
	if inboxMessage != nil {
		if err := store.UpdateMessage(e.db.WithContext(ctx), msg.ID, map[string]interface{}{
			"inbox_message_id": inboxMessage.ID,
		}); err != nil {
			return false, err
		}
		msg.InboxMessageID = &inboxMessage.ID
	}

	// New staff activity always interrupts a pending auto-close.
	if thread.HasScheduledClose() {
		if err := e.CancelScheduledClose(ctx, thread); err != nil {
			return false, err
		}
		if err := e.PostSystemMessage(ctx, thread,
			"Cancelling scheduled closing of this thread due to new reply", true); err != nil {
			return false, err
		}
	}

	return true, nil
}

// prepareReplyAttachments converts and stores reply attachments
// concurrently, producing the platform file handles and the stored URL
// list. Both slices are indexed by attachment position; the two
// derivations for one attachment may complete in either order.
func (e *Engine) prepareReplyAttachments(ctx context.Context, attachments []platform.Attachment) ([]platform.File, []string, error) {
	if len(attachments) == 0 {
		return nil, nil, nil
	}

	files := make([]platform.File, len(attachments))
	urls := make([]string, len(attachments))
	errs := make([]error, 2*len(attachments))

	var wg sync.WaitGroup
	for i, att := range attachments {
		wg.Add(2)
		go func(i int, att platform.Attachment) {
			defer wg.Done()
			file, err := e.attachments.ToPlatformFile(ctx, att)
			if err != nil {
				errs[2*i] = err
				return
			}
			files[i] = file
		}(i, att)
		go func(i int, att platform.Attachment) {
			defer wg.Done()
			url, err := e.attachments.SaveAttachment(ctx, att)
			if err != nil {
				errs[2*i+1] = err
				return
			}
			urls[i] = url
		}(i, att)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, nil, fmt.Errorf("relay: prepare attachments: %w", err)
		}
	}
	return files, urls, nil
}
