package relay

import (
	"context"
	"strings"
	"testing"

	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/platform"
	"github.com/zulandar/switchboard/internal/store"
)

func TestEditStaffReply_SyncsBothSurfaces(t *testing.T) {
	engine, client, gdb := newTestEngine(t, config.RelayConfig{})
	thread := mustCreateThread(t, gdb)
	ctx := context.Background()

	ok, err := engine.ReplyToUser(ctx, thread, Actor{ID: "mod-1", Username: "mod"}, "original", nil, false)
	if err != nil || !ok {
		t.Fatalf("reply failed: ok=%v err=%v", ok, err)
	}
	msg, err := engine.MessageByNumber(ctx, thread, 1)
	if err != nil || msg == nil {
		t.Fatalf("failed to load reply: %v", err)
	}

	actor := Actor{ID: "mod-1", Username: "mod"}
	if err := engine.EditStaffReply(ctx, thread, msg, actor, "corrected", false); err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	edits := client.Edits()
	if len(edits) != 2 {
		t.Fatalf("expected edits on both surfaces, got %d", len(edits))
	}
	var dmEdited, inboxEdited bool
	for _, edit := range edits {
		switch edit.ChannelID {
		case platform.DMChannelID("user-1"):
			dmEdited = true
			if !strings.Contains(edit.Content, "corrected") {
				t.Errorf("DM edit missing new body: %q", edit.Content)
			}
		case "chan-1":
			inboxEdited = true
			if !strings.HasPrefix(edit.Content, "`[1]` ") {
				t.Errorf("inbox edit lost number prefix: %q", edit.Content)
			}
		}
	}
	if !dmEdited || !inboxEdited {
		t.Errorf("expected edits on dm and inbox, got %+v", edits)
	}

	stored, err := store.MessageByID(gdb, msg.ID)
	if err != nil {
		t.Fatalf("failed to load message: %v", err)
	}
	if stored.Body != "corrected" {
		t.Errorf("expected stored body updated, got %q", stored.Body)
	}

	var foundNotice bool
	for _, sent := range client.SentTo("chan-1") {
		if strings.Contains(sent.Content, "edited reply `[1]`") &&
			strings.Contains(sent.Content, "`Before:` original") &&
			strings.Contains(sent.Content, "`After:` corrected") {
			foundNotice = true
		}
	}
	if !foundNotice {
		t.Error("expected before/after audit notice on staff surface")
	}
}

func TestEditStaffReply_QuietSkipsNotice(t *testing.T) {
	engine, client, gdb := newTestEngine(t, config.RelayConfig{})
	thread := mustCreateThread(t, gdb)
	ctx := context.Background()

	ok, err := engine.ReplyToUser(ctx, thread, Actor{ID: "mod-1", Username: "mod"}, "original", nil, false)
	if err != nil || !ok {
		t.Fatalf("reply failed: ok=%v err=%v", ok, err)
	}
	msg, err := engine.MessageByNumber(ctx, thread, 1)
	if err != nil || msg == nil {
		t.Fatalf("failed to load reply: %v", err)
	}

	before := client.SentCount()
	if err := engine.EditStaffReply(ctx, thread, msg, Actor{ID: "mod-1", Username: "mod"}, "corrected", true); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if client.SentCount() != before {
		t.Error("expected no notice for quiet edit")
	}
}

func TestEditStaffReply_RejectsNonReply(t *testing.T) {
	engine, _, gdb := newTestEngine(t, config.RelayConfig{})
	thread := mustCreateThread(t, gdb)
	ctx := context.Background()

	if err := engine.ReceiveUserReply(ctx, thread, incomingDM("from user")); err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	msg, err := engine.MessageByNumber(ctx, thread, 1)
	if err != nil || msg == nil {
		t.Fatalf("failed to load message: %v", err)
	}

	if err := engine.EditStaffReply(ctx, thread, msg, Actor{}, "nope", false); err == nil {
		t.Error("expected error editing a user message")
	}
}

func TestDeleteStaffReply_RemovesBothCopiesAndRow(t *testing.T) {
	engine, client, gdb := newTestEngine(t, config.RelayConfig{})
	thread := mustCreateThread(t, gdb)
	ctx := context.Background()

	ok, err := engine.ReplyToUser(ctx, thread, Actor{ID: "mod-1", Username: "mod"}, "oops", nil, false)
	if err != nil || !ok {
		t.Fatalf("reply failed: ok=%v err=%v", ok, err)
	}
	msg, err := engine.MessageByNumber(ctx, thread, 1)
	if err != nil || msg == nil {
		t.Fatalf("failed to load reply: %v", err)
	}

	if err := engine.DeleteStaffReply(ctx, thread, msg, Actor{ID: "mod-1", Username: "mod"}, false); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	deletes := client.Deletes()
	if len(deletes) != 2 {
		t.Fatalf("expected deletes on both surfaces, got %d", len(deletes))
	}

	stored, err := store.MessageByID(gdb, msg.ID)
	if err != nil {
		t.Fatalf("lookup after delete: %v", err)
	}
	if stored != nil {
		t.Error("expected row hard-deleted")
	}

	// Deleting a reply never rewinds the counter.
	threadRow, err := store.ThreadByID(gdb, thread.ID)
	if err != nil {
		t.Fatalf("failed to load thread: %v", err)
	}
	if threadRow.NextMessageNumber != 2 {
		t.Errorf("expected counter still 2, got %d", threadRow.NextMessageNumber)
	}

	var foundNotice bool
	for _, sent := range client.SentTo("chan-1") {
		if strings.Contains(sent.Content, "deleted reply `[1]`") &&
			strings.Contains(sent.Content, "oops") {
			foundNotice = true
		}
	}
	if !foundNotice {
		t.Error("expected deletion audit notice quoting content")
	}
}

func TestDeleteStaffReply_Quiet(t *testing.T) {
	engine, client, gdb := newTestEngine(t, config.RelayConfig{})
	thread := mustCreateThread(t, gdb)
	ctx := context.Background()

	ok, err := engine.ReplyToUser(ctx, thread, Actor{ID: "mod-1", Username: "mod"}, "oops", nil, false)
	if err != nil || !ok {
		t.Fatalf("reply failed: ok=%v err=%v", ok, err)
	}
	msg, err := engine.MessageByNumber(ctx, thread, 1)
	if err != nil || msg == nil {
		t.Fatalf("failed to load reply: %v", err)
	}

	before := client.SentCount()
	if err := engine.DeleteStaffReply(ctx, thread, msg, Actor{ID: "mod-1", Username: "mod"}, true); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if client.SentCount() != before {
		t.Error("expected no notice for quiet delete")
	}
}

func TestChatMessageLogSync(t *testing.T) {
	engine, _, gdb := newTestEngine(t, config.RelayConfig{})
	thread := mustCreateThread(t, gdb)
	ctx := context.Background()

	chat := platform.IncomingMessage{
		ID:         "inbox-msg-1",
		ChannelID:  "chan-1",
		AuthorID:   "mod-1",
		AuthorName: "mod",
		Body:       "internal discussion",
	}
	if err := engine.SaveChatMessageToLogs(ctx, thread, chat); err != nil {
		t.Fatalf("failed to save chat message: %v", err)
	}

	if err := engine.UpdateChatMessageInLogs(ctx, thread, "inbox-msg-1", "new text"); err != nil {
		t.Fatalf("failed to update chat message: %v", err)
	}
	msgs, err := store.MessagesByThread(gdb, thread.ID)
	if err != nil {
		t.Fatalf("failed to load messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Body != "new text" {
		t.Fatalf("expected updated body, got %+v", msgs)
	}

	// Unknown IDs are ignored without error.
	if err := engine.UpdateChatMessageInLogs(ctx, thread, "no-such-msg", "x"); err != nil {
		t.Fatalf("unknown id update: %v", err)
	}

	if err := engine.DeleteChatMessageFromLogs(ctx, thread, "inbox-msg-1"); err != nil {
		t.Fatalf("failed to delete chat message: %v", err)
	}
	msgs, err = store.MessagesByThread(gdb, thread.ID)
	if err != nil {
		t.Fatalf("failed to load messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected chat message removed, got %d rows", len(msgs))
	}
}
