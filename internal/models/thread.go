package models

import (
	"strings"
	"time"
)

// Thread statuses. CLOSED is terminal: once a thread reaches it, no
// further scheduling or message-field mutation is permitted.
const (
	ThreadStatusOpen      = 1
	ThreadStatusSuspended = 2
	ThreadStatusClosed    = 3
)

// Thread is one ongoing conversation between a user and the staff group.
// The scheduled-close fields form a group that is either all-null or
// all-set; the scheduled-suspend fields form a second such group.
type Thread struct {
	ID                string `gorm:"primaryKey;size:36"`
	Status            int    `gorm:"default:1;index"`
	UserID            string `gorm:"size:32;not null;index"`
	UserName          string `gorm:"size:128;not null"`
	ChannelID         string `gorm:"size:32;index"`
	NextMessageNumber int    `gorm:"default:1"`

	ScheduledCloseAt     *time.Time
	ScheduledCloseID     *string `gorm:"size:32"`
	ScheduledCloseName   *string `gorm:"size:128"`
	ScheduledCloseSilent *bool

	ScheduledSuspendAt   *time.Time
	ScheduledSuspendID   *string `gorm:"size:32"`
	ScheduledSuspendName *string `gorm:"size:128"`

	AlertIDs  *string `gorm:"type:text"`
	CreatedAt time.Time

	Messages []ThreadMessage `gorm:"foreignKey:ThreadID"`
}

// HasScheduledClose reports whether a deferred close is pending.
func (t *Thread) HasScheduledClose() bool {
	return t.ScheduledCloseAt != nil
}

// HasScheduledSuspend reports whether a deferred suspend is pending.
func (t *Thread) HasScheduledSuspend() bool {
	return t.ScheduledSuspendAt != nil
}

// Alerts returns the pending alert set as identifiers. A nil or empty
// column yields a nil slice.
func (t *Thread) Alerts() []string {
	if t.AlertIDs == nil {
		return nil
	}
	return SplitAlertIDs(*t.AlertIDs)
}

// SplitAlertIDs decodes the comma-delimited persisted form of the alert
// set into identifiers.
func SplitAlertIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// JoinAlertIDs encodes identifiers into the comma-delimited persisted
// form. An empty set encodes to nil so the column goes back to NULL
// rather than an empty string.
func JoinAlertIDs(ids []string) *string {
	if len(ids) == 0 {
		return nil
	}
	s := strings.Join(ids, ",")
	return &s
}
