package relay

import (
	"context"
	"fmt"

	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/platform"
	"github.com/zulandar/switchboard/internal/store"
)

// PostSystemMessage posts a system notice to the thread's staff
// surface. When saveToLog is set, the notice is also recorded in the
// thread log.
func (e *Engine) PostSystemMessage(ctx context.Context, thread *models.Thread, content string, saveToLog bool) error {
	inboxMessage, err := e.postToStaff(ctx, thread, content, nil)
	if err != nil {
		return err
	}
	if !saveToLog {
		return nil
	}

	body := content
	if body == "" {
		body = "<empty message>"
	}
	msg := &models.ThreadMessage{
		ThreadID:    thread.ID,
		MessageType: models.MessageTypeSystem,
		UserName:    "",
		Body:        body,
	}
	if inboxMessage != nil {
		msg.InboxMessageID = &inboxMessage.ID
	}
	return store.InsertMessage(e.db.WithContext(ctx), msg)
}

// PostNonLogMessage posts to the staff surface without recording
// anything in the thread log.
func (e *Engine) PostNonLogMessage(ctx context.Context, thread *models.Thread, content string) error {
	return e.PostSystemMessage(ctx, thread, content, false)
}

// SendSystemMessageToUser delivers a system notice to the user surface
// and records it. Unlike staff replies, a delivery failure here is
// returned to the caller rather than absorbed.
func (e *Engine) SendSystemMessageToUser(ctx context.Context, thread *models.Thread, content string) error {
	dmMessage, dmChannelID, err := e.sendDM(ctx, thread, content, nil)
	if err != nil {
		return fmt.Errorf("relay: send system message to user %s: %w", thread.UserID, err)
	}

	body := content
	if body == "" {
		body = "<empty message>"
	}
	msg := &models.ThreadMessage{
		ThreadID:    thread.ID,
		MessageType: models.MessageTypeSystemToUser,
		UserName:    "",
		Body:        body,
		DMMessageID: &dmMessage.ID,
		DMChannelID: &dmChannelID,
	}
	return store.InsertMessage(e.db.WithContext(ctx), msg)
}

// SaveChatMessageToLogs records a staff-surface chat message that was
// not a command or reply. The staff message ID lands in DMMessageID so
// later edits and deletes on the staff surface can find the row.
func (e *Engine) SaveChatMessageToLogs(ctx context.Context, thread *models.Thread, msg platform.IncomingMessage) error {
	authorID := msg.AuthorID
	return store.InsertMessage(e.db.WithContext(ctx), &models.ThreadMessage{
		ThreadID:    thread.ID,
		MessageType: models.MessageTypeChat,
		UserID:      &authorID,
		UserName:    msg.AuthorName,
		Body:        msg.Body,
		DMMessageID: &msg.ID,
	})
}

// SaveCommandMessageToLogs records an invoked staff command verbatim.
func (e *Engine) SaveCommandMessageToLogs(ctx context.Context, thread *models.Thread, msg platform.IncomingMessage) error {
	authorID := msg.AuthorID
	return store.InsertMessage(e.db.WithContext(ctx), &models.ThreadMessage{
		ThreadID:    thread.ID,
		MessageType: models.MessageTypeCommand,
		UserID:      &authorID,
		UserName:    msg.AuthorName,
		Body:        msg.Body,
		DMMessageID: &msg.ID,
	})
}

// UpdateChatMessageInLogs syncs an edit made to a logged staff chat
// message. Unknown message IDs are ignored.
func (e *Engine) UpdateChatMessageInLogs(ctx context.Context, thread *models.Thread, messageID, newBody string) error {
	return store.UpdateChatMessageBody(e.db.WithContext(ctx), thread.ID, messageID, newBody)
}

// DeleteChatMessageFromLogs removes a logged staff chat message after
// it was deleted on the staff surface. Unknown message IDs are ignored.
func (e *Engine) DeleteChatMessageFromLogs(ctx context.Context, thread *models.Thread, messageID string) error {
	return store.DeleteChatMessage(e.db.WithContext(ctx), thread.ID, messageID)
}

// Transcript returns the thread's messages in log order.
func (e *Engine) Transcript(ctx context.Context, thread *models.Thread) ([]models.ThreadMessage, error) {
	return store.MessagesByThread(e.db.WithContext(ctx), thread.ID)
}

// MessageByNumber resolves a staff reply by its thread-local number.
func (e *Engine) MessageByNumber(ctx context.Context, thread *models.Thread, number int) (*models.ThreadMessage, error) {
	return store.MessageByNumber(e.db.WithContext(ctx), thread.ID, number)
}
