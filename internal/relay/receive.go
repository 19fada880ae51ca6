package relay

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/platform"
	"github.com/zulandar/switchboard/internal/store"
)

// ReceiveUserReply records an inbound user message and mirrors it to
// the staff surface. Attachments are always saved to the attachment
// store for durable links; sufficiently small ones are additionally
// re-uploaded inline when configured. A pending scheduled close is
// cancelled with a mention of whoever scheduled it, and any registered
// alerts are drained into a single notification.
func (e *Engine) ReceiveUserReply(ctx context.Context, thread *models.Thread, incoming platform.IncomingMessage) error {
	body := incoming.Body

	var urls []string
	var smallURLs []string
	var inlineFiles []platform.File
	for _, att := range incoming.Attachments {
		url, err := e.attachments.SaveAttachment(ctx, att)
		if err != nil {
			return fmt.Errorf("relay: save attachment %s: %w", att.Name, err)
		}
		urls = append(urls, url)

		if e.cfg.RelaySmallAttachments && att.Size <= e.cfg.SmallAttachmentLimit {
			file, err := e.attachments.ToPlatformFile(ctx, att)
			if err != nil {
				return fmt.Errorf("relay: fetch attachment %s: %w", att.Name, err)
			}
			inlineFiles = append(inlineFiles, file)
			smallURLs = append(smallURLs, url)
		}
	}

	if incoming.Activity != nil {
		body += activitySuffix(incoming)
	}
	body = strings.TrimSpace(body)

	msg := &models.ThreadMessage{
		ThreadID:         thread.ID,
		MessageType:      models.MessageTypeFromUser,
		UserID:           &thread.UserID,
		UserName:         incoming.AuthorName,
		Body:             body,
		Attachments:      models.JoinAttachments(urls),
		SmallAttachments: models.JoinAttachments(smallURLs),
		DMMessageID:      &incoming.ID,
		DMChannelID:      &incoming.ChannelID,
	}
	if err := store.InsertMessage(e.db.WithContext(ctx), msg); err != nil {
		return err
	}

	echo := e.formatter.FormatUserReplyEcho(msg)
	inboxMessage, err := e.postToStaff(ctx, thread, echo, inlineFiles)
	if err != nil {
		return err
	}
	if inboxMessage != nil {
		if err := store.UpdateMessage(e.db.WithContext(ctx), msg.ID, map[string]interface{}{
			"inbox_message_id": inboxMessage.ID,
		}); err != nil {
			return err
		}
		msg.InboxMessageID = &inboxMessage.ID
	}

	if e.cfg.ReactOnSeen {
		// Receipt reaction is best effort; a failure must not block the relay.
		if err := e.client.AddReaction(ctx, incoming.ChannelID, incoming.ID, e.cfg.ReactOnSeenEmoji); err != nil {
			log.Printf("relay: seen reaction on message %s failed: %v", incoming.ID, err)
		}
	}

	if thread.HasScheduledClose() {
		var mention string
		if thread.ScheduledCloseID != nil {
			mention = fmt.Sprintf("<@!%s> ", *thread.ScheduledCloseID)
		}
		if err := e.CancelScheduledClose(ctx, thread); err != nil {
			return err
		}
		notice := mention + "Thread that was scheduled to be closed got a new reply. Cancelling."
		if err := e.PostSystemMessage(ctx, thread, notice, true); err != nil {
			return err
		}
	}

	if alerts := thread.Alerts(); len(alerts) > 0 {
		if err := e.DeleteAlerts(ctx, thread); err != nil {
			return err
		}
		var sb strings.Builder
		for _, id := range alerts {
			fmt.Fprintf(&sb, "<@!%s> ", id)
		}
		sb.WriteString("New message from " + thread.UserName)
		if err := e.PostSystemMessage(ctx, thread, sb.String(), true); err != nil {
			return err
		}
	}

	return nil
}

// activitySuffix renders a game/listen invite contained in a user DM
// as a textual note, since invites cannot be relayed across surfaces.
func activitySuffix(incoming platform.IncomingMessage) string {
	app := incoming.ApplicationName
	if app == "" {
		if strings.HasPrefix(incoming.Activity.PartyID, "spotify:") {
			app = "Spotify"
		} else {
			app = "Unknown Application"
		}
	}

	var action string
	switch incoming.Activity.Type {
	case platform.ActivityTypeJoin, platform.ActivityTypeJoinRequest:
		action = "join a game"
	case platform.ActivityTypeSpectate:
		action = "spectate"
	case platform.ActivityTypeListen:
		action = "listen along"
	default:
		action = "do something"
	}

	return fmt.Sprintf("\n\n*<This message contains an invite to %s on %s>*", action, app)
}
