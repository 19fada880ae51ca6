// Package store provides typed access to the thread and thread-message
// collections, including the transactional message-number allocator.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/switchboard/internal/models"
	"gorm.io/gorm"
)

// CreateThread inserts a new OPEN thread for a user with the message
// counter at its base value.
func CreateThread(db *gorm.DB, userID, userName, channelID string) (*models.Thread, error) {
	if userID == "" {
		return nil, fmt.Errorf("store: userID is required")
	}
	th := models.Thread{
		ID:                uuid.NewString(),
		Status:            models.ThreadStatusOpen,
		UserID:            userID,
		UserName:          userName,
		ChannelID:         channelID,
		NextMessageNumber: 1,
		CreatedAt:         time.Now(),
	}
	if err := db.Create(&th).Error; err != nil {
		return nil, fmt.Errorf("store: create thread for %s: %w", userID, err)
	}
	return &th, nil
}

// ThreadByID returns the thread with the given ID, or nil when absent.
func ThreadByID(db *gorm.DB, id string) (*models.Thread, error) {
	var th models.Thread
	err := db.Where("id = ?", id).First(&th).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: thread %s: %w", id, err)
	}
	return &th, nil
}

// OpenThreadByUserID returns the user's open thread, or nil when none.
func OpenThreadByUserID(db *gorm.DB, userID string) (*models.Thread, error) {
	var th models.Thread
	err := db.Where("user_id = ? AND status = ?", userID, models.ThreadStatusOpen).First(&th).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: open thread for user %s: %w", userID, err)
	}
	return &th, nil
}

// ThreadByChannelID returns the thread whose staff surface is the given
// channel, or nil when none.
func ThreadByChannelID(db *gorm.DB, channelID string) (*models.Thread, error) {
	var th models.Thread
	err := db.Where("channel_id = ?", channelID).First(&th).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: thread for channel %s: %w", channelID, err)
	}
	return &th, nil
}

// UpdateThreadStatus sets the thread's status.
func UpdateThreadStatus(db *gorm.DB, id string, status int) error {
	if err := db.Model(&models.Thread{}).Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("store: update status of %s: %w", id, err)
	}
	return nil
}

// notClosed scopes an update to threads that have not reached the
// terminal CLOSED status. Scheduling writes to a closed thread match
// zero rows and become no-ops.
func notClosed(db *gorm.DB, id string) *gorm.DB {
	return db.Model(&models.Thread{}).
		Where("id = ? AND status <> ?", id, models.ThreadStatusClosed)
}

// ScheduleClose overwrites the scheduled-close field group. The time is
// taken as given; validating it lies in the future is the caller's job.
func ScheduleClose(db *gorm.DB, id string, at time.Time, actorID, actorName string, silent bool) error {
	if err := notClosed(db, id).Updates(map[string]interface{}{
		"scheduled_close_at":     at,
		"scheduled_close_id":     actorID,
		"scheduled_close_name":   actorName,
		"scheduled_close_silent": silent,
	}).Error; err != nil {
		return fmt.Errorf("store: schedule close of %s: %w", id, err)
	}
	return nil
}

// ClearScheduledClose nulls the scheduled-close field group. Idempotent.
func ClearScheduledClose(db *gorm.DB, id string) error {
	if err := notClosed(db, id).Updates(map[string]interface{}{
		"scheduled_close_at":     nil,
		"scheduled_close_id":     nil,
		"scheduled_close_name":   nil,
		"scheduled_close_silent": nil,
	}).Error; err != nil {
		return fmt.Errorf("store: clear scheduled close of %s: %w", id, err)
	}
	return nil
}

// ScheduleSuspend overwrites the scheduled-suspend field group.
func ScheduleSuspend(db *gorm.DB, id string, at time.Time, actorID, actorName string) error {
	if err := notClosed(db, id).Updates(map[string]interface{}{
		"scheduled_suspend_at":   at,
		"scheduled_suspend_id":   actorID,
		"scheduled_suspend_name": actorName,
	}).Error; err != nil {
		return fmt.Errorf("store: schedule suspend of %s: %w", id, err)
	}
	return nil
}

// ClearScheduledSuspend nulls the scheduled-suspend field group. Idempotent.
func ClearScheduledSuspend(db *gorm.DB, id string) error {
	if err := notClosed(db, id).Updates(map[string]interface{}{
		"scheduled_suspend_at":   nil,
		"scheduled_suspend_id":   nil,
		"scheduled_suspend_name": nil,
	}).Error; err != nil {
		return fmt.Errorf("store: clear scheduled suspend of %s: %w", id, err)
	}
	return nil
}

// SuspendThread sets the status to SUSPENDED and clears any pending
// scheduled suspend in the same write.
func SuspendThread(db *gorm.DB, id string) error {
	if err := notClosed(db, id).Updates(map[string]interface{}{
		"status":                 models.ThreadStatusSuspended,
		"scheduled_suspend_at":   nil,
		"scheduled_suspend_id":   nil,
		"scheduled_suspend_name": nil,
	}).Error; err != nil {
		return fmt.Errorf("store: suspend %s: %w", id, err)
	}
	return nil
}

// UnsuspendThread returns a non-closed thread to OPEN.
func UnsuspendThread(db *gorm.DB, id string) error {
	if err := notClosed(db, id).
		Update("status", models.ThreadStatusOpen).Error; err != nil {
		return fmt.Errorf("store: unsuspend %s: %w", id, err)
	}
	return nil
}

// ThreadsWithDueClose returns non-closed threads whose scheduled close
// time has passed.
func ThreadsWithDueClose(db *gorm.DB, now time.Time) ([]models.Thread, error) {
	var threads []models.Thread
	if err := db.Where("status <> ? AND scheduled_close_at IS NOT NULL AND scheduled_close_at <= ?",
		models.ThreadStatusClosed, now).Find(&threads).Error; err != nil {
		return nil, fmt.Errorf("store: threads with due close: %w", err)
	}
	return threads, nil
}

// ThreadsWithDueSuspend returns open threads whose scheduled suspend
// time has passed.
func ThreadsWithDueSuspend(db *gorm.DB, now time.Time) ([]models.Thread, error) {
	var threads []models.Thread
	if err := db.Where("status = ? AND scheduled_suspend_at IS NOT NULL AND scheduled_suspend_at <= ?",
		models.ThreadStatusOpen, now).Find(&threads).Error; err != nil {
		return nil, fmt.Errorf("store: threads with due suspend: %w", err)
	}
	return threads, nil
}

// OpenThreads returns all threads currently in the OPEN status.
func OpenThreads(db *gorm.DB) ([]models.Thread, error) {
	var threads []models.Thread
	if err := db.Where("status = ?", models.ThreadStatusOpen).Find(&threads).Error; err != nil {
		return nil, fmt.Errorf("store: open threads: %w", err)
	}
	return threads, nil
}
