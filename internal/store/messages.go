package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/switchboard/internal/models"
	"gorm.io/gorm"
)

// InsertMessage persists a new thread message and fills in its ID.
func InsertMessage(db *gorm.DB, msg *models.ThreadMessage) error {
	if msg.ThreadID == "" {
		return fmt.Errorf("store: message thread ID is required")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if err := db.Create(msg).Error; err != nil {
		return fmt.Errorf("store: insert message in thread %s: %w", msg.ThreadID, err)
	}
	return nil
}

// MessageByID returns the message with the given ID, or nil when absent.
func MessageByID(db *gorm.DB, id uint) (*models.ThreadMessage, error) {
	var msg models.ThreadMessage
	err := db.Where("id = ?", id).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: message %d: %w", id, err)
	}
	return &msg, nil
}

// UpdateMessage applies a partial update to a message row.
func UpdateMessage(db *gorm.DB, id uint, fields map[string]interface{}) error {
	if err := db.Model(&models.ThreadMessage{}).Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return fmt.Errorf("store: update message %d: %w", id, err)
	}
	return nil
}

// DeleteMessage hard-deletes a message row. The owning thread's counter
// is never touched; sequence numbers are not reused.
func DeleteMessage(db *gorm.DB, id uint) error {
	if err := db.Where("id = ?", id).Delete(&models.ThreadMessage{}).Error; err != nil {
		return fmt.Errorf("store: delete message %d: %w", id, err)
	}
	return nil
}

// MessageByNumber returns the TO_USER message with the given sequence
// number in a thread, or nil when absent.
func MessageByNumber(db *gorm.DB, threadID string, number int) (*models.ThreadMessage, error) {
	var msg models.ThreadMessage
	err := db.Where("thread_id = ? AND message_number = ?", threadID, number).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: message %d in thread %s: %w", number, threadID, err)
	}
	return &msg, nil
}

// MessagesByThread returns a thread's transcript ordered by creation
// time, then insertion order.
func MessagesByThread(db *gorm.DB, threadID string) ([]models.ThreadMessage, error) {
	var msgs []models.ThreadMessage
	if err := db.Where("thread_id = ?", threadID).
		Order("created_at ASC").Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("store: messages in thread %s: %w", threadID, err)
	}
	return msgs, nil
}

// UpdateChatMessageBody updates a logged chat message by its composite
// key (thread, surface message ID); chat rows have no mirror ID to key on.
func UpdateChatMessageBody(db *gorm.DB, threadID, dmMessageID, body string) error {
	if err := db.Model(&models.ThreadMessage{}).
		Where("thread_id = ? AND dm_message_id = ?", threadID, dmMessageID).
		Update("body", body).Error; err != nil {
		return fmt.Errorf("store: update chat message %s in thread %s: %w", dmMessageID, threadID, err)
	}
	return nil
}

// DeleteChatMessage removes a logged chat message by its composite key.
func DeleteChatMessage(db *gorm.DB, threadID, dmMessageID string) error {
	if err := db.Where("thread_id = ? AND dm_message_id = ?", threadID, dmMessageID).
		Delete(&models.ThreadMessage{}).Error; err != nil {
		return fmt.Errorf("store: delete chat message %s in thread %s: %w", dmMessageID, threadID, err)
	}
	return nil
}
