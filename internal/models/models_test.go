package models

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestThread_Fields(t *testing.T) {
	typ := reflect.TypeOf(Thread{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "size:36")
	assertGormTag(t, typ, "Status", "default:1")
	assertGormTag(t, typ, "Status", "index")
	assertGormTag(t, typ, "UserID", "size:32")
	assertGormTag(t, typ, "UserID", "not null")
	assertGormTag(t, typ, "UserID", "index")
	assertGormTag(t, typ, "UserName", "not null")
	assertGormTag(t, typ, "ChannelID", "size:32")
	assertGormTag(t, typ, "ChannelID", "index")
	assertGormTag(t, typ, "NextMessageNumber", "default:1")
	assertGormTag(t, typ, "AlertIDs", "type:text")

	assertFieldType(t, typ, "ID", "string")
	assertFieldType(t, typ, "ScheduledCloseAt", "*time.Time")
	assertFieldType(t, typ, "ScheduledCloseID", "*string")
	assertFieldType(t, typ, "ScheduledCloseName", "*string")
	assertFieldType(t, typ, "ScheduledCloseSilent", "*bool")
	assertFieldType(t, typ, "ScheduledSuspendAt", "*time.Time")
	assertFieldType(t, typ, "AlertIDs", "*string")
	assertFieldType(t, typ, "CreatedAt", "time.Time")
}

func TestThread_Relations(t *testing.T) {
	typ := reflect.TypeOf(Thread{})

	assertGormTag(t, typ, "Messages", "foreignKey:ThreadID")
	assertFieldType(t, typ, "Messages", "[]models.ThreadMessage")
}

func TestThreadMessage_Fields(t *testing.T) {
	typ := reflect.TypeOf(ThreadMessage{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "autoIncrement")
	assertGormTag(t, typ, "ThreadID", "size:36")
	assertGormTag(t, typ, "ThreadID", "not null")
	assertGormTag(t, typ, "ThreadID", "index")
	assertGormTag(t, typ, "MessageType", "not null")
	assertGormTag(t, typ, "UserID", "size:32")
	assertGormTag(t, typ, "Body", "type:text")
	assertGormTag(t, typ, "IsAnonymous", "default:false")
	assertGormTag(t, typ, "Attachments", "type:text")
	assertGormTag(t, typ, "SmallAttachments", "type:text")
	assertGormTag(t, typ, "DMMessageID", "size:32")
	assertGormTag(t, typ, "InboxMessageID", "size:32")

	assertFieldType(t, typ, "MessageNumber", "*int")
	assertFieldType(t, typ, "UserID", "*string")
	assertFieldType(t, typ, "RoleName", "*string")
	assertFieldType(t, typ, "DMMessageID", "*string")
	assertFieldType(t, typ, "DMChannelID", "*string")
	assertFieldType(t, typ, "InboxMessageID", "*string")
	assertFieldType(t, typ, "CreatedAt", "time.Time")
}

func TestThread_ScheduledGroupHelpers(t *testing.T) {
	var th Thread
	if th.HasScheduledClose() {
		t.Error("HasScheduledClose() = true on zero thread")
	}
	if th.HasScheduledSuspend() {
		t.Error("HasScheduledSuspend() = true on zero thread")
	}

	now := time.Now()
	th.ScheduledCloseAt = &now
	th.ScheduledSuspendAt = &now
	if !th.HasScheduledClose() {
		t.Error("HasScheduledClose() = false with scheduled close set")
	}
	if !th.HasScheduledSuspend() {
		t.Error("HasScheduledSuspend() = false with scheduled suspend set")
	}
}

func TestAlertIDs_Codec(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want *string
	}{
		{name: "empty encodes to nil", ids: nil, want: nil},
		{name: "zero-length encodes to nil", ids: []string{}, want: nil},
		{name: "single", ids: []string{"100"}, want: strptr("100")},
		{name: "multiple", ids: []string{"100", "200", "300"}, want: strptr("100,200,300")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JoinAlertIDs(tt.ids)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("JoinAlertIDs(%v) = %v, want %v", tt.ids, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("JoinAlertIDs(%v) = %q, want %q", tt.ids, *got, *tt.want)
			}
		})
	}
}

func TestAlertIDs_RoundTrip(t *testing.T) {
	ids := []string{"1", "2", "3"}
	col := JoinAlertIDs(ids)
	got := SplitAlertIDs(*col)
	if len(got) != len(ids) {
		t.Fatalf("round trip length = %d, want %d", len(got), len(ids))
	}
	for i := range ids {
		if got[i] != ids[i] {
			t.Errorf("round trip[%d] = %q, want %q", i, got[i], ids[i])
		}
	}
}

func TestThread_Alerts(t *testing.T) {
	var th Thread
	if got := th.Alerts(); got != nil {
		t.Errorf("Alerts() on nil column = %v, want nil", got)
	}

	col := "10,20"
	th.AlertIDs = &col
	got := th.Alerts()
	if len(got) != 2 || got[0] != "10" || got[1] != "20" {
		t.Errorf("Alerts() = %v, want [10 20]", got)
	}
}

func TestAttachments_Codec(t *testing.T) {
	urls := []string{"https://x/a.png", "https://x/b.png"}
	col := JoinAttachments(urls)
	if col == nil {
		t.Fatal("JoinAttachments returned nil for non-empty list")
	}

	msg := ThreadMessage{Attachments: col}
	got := msg.AttachmentURLs()
	if len(got) != 2 || got[0] != urls[0] || got[1] != urls[1] {
		t.Errorf("AttachmentURLs() = %v, want %v", got, urls)
	}

	if JoinAttachments(nil) != nil {
		t.Error("JoinAttachments(nil) should be nil")
	}
	empty := ThreadMessage{}
	if empty.AttachmentURLs() != nil {
		t.Error("AttachmentURLs() on nil column should be nil")
	}
	if empty.SmallAttachmentURLs() != nil {
		t.Error("SmallAttachmentURLs() on nil column should be nil")
	}
}

func strptr(s string) *string { return &s }
