package models

import (
	"strings"
	"time"
)

// Thread message types. Only TO_USER messages carry a message number.
const (
	MessageTypeToUser       = 1
	MessageTypeFromUser     = 2
	MessageTypeSystem       = 3
	MessageTypeSystemToUser = 4
	MessageTypeChat         = 5
	MessageTypeCommand      = 6
	MessageTypeLegacy       = 7
)

// ThreadMessage is one logged unit of conversation or system activity.
// DMMessageID/DMChannelID identify the copy on the user surface,
// InboxMessageID the mirror on the staff surface; each stays null until
// the corresponding post succeeds.
type ThreadMessage struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	ThreadID      string `gorm:"size:36;not null;index"`
	MessageType   int    `gorm:"not null;index"`
	MessageNumber *int   `gorm:"index:idx_thread_number"`
	UserID        *string `gorm:"size:32"`
	UserName      string  `gorm:"size:128"`
	Body          string  `gorm:"type:text"`
	IsAnonymous   bool    `gorm:"default:false"`
	RoleName      *string `gorm:"size:128"`

	// Attachment URL lists, newline-delimited in the column. The small
	// list is the subset mirrored inline on the staff surface.
	Attachments      *string `gorm:"type:text"`
	SmallAttachments *string `gorm:"type:text"`

	DMMessageID    *string `gorm:"size:32;index:idx_thread_dm_message"`
	DMChannelID    *string `gorm:"size:32"`
	InboxMessageID *string `gorm:"size:32"`

	CreatedAt time.Time

	Thread Thread `gorm:"foreignKey:ThreadID"`
}

// AttachmentURLs returns the full attachment list in order.
func (m *ThreadMessage) AttachmentURLs() []string {
	return SplitAttachments(m.Attachments)
}

// SmallAttachmentURLs returns the inline-mirrored subset in order.
func (m *ThreadMessage) SmallAttachmentURLs() []string {
	return SplitAttachments(m.SmallAttachments)
}

// SplitAttachments decodes a newline-delimited URL column.
func SplitAttachments(col *string) []string {
	if col == nil || *col == "" {
		return nil
	}
	return strings.Split(*col, "\n")
}

// JoinAttachments encodes ordered URLs into the newline-delimited
// persisted form; an empty list encodes to nil.
func JoinAttachments(urls []string) *string {
	if len(urls) == 0 {
		return nil
	}
	s := strings.Join(urls, "\n")
	return &s
}
