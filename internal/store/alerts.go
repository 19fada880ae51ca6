package store

import (
	"fmt"

	"github.com/zulandar/switchboard/internal/models"
	"gorm.io/gorm"
)

// AddAlert appends a user to the thread's alert set. Adding a user that
// is already present is a no-op.
func AddAlert(db *gorm.DB, threadID, userID string) error {
	th, err := ThreadByID(db, threadID)
	if err != nil {
		return err
	}
	if th == nil {
		return fmt.Errorf("store: add alert: thread not found: %s", threadID)
	}

	ids := th.Alerts()
	for _, id := range ids {
		if id == userID {
			return nil
		}
	}
	ids = append(ids, userID)

	if err := db.Model(&models.Thread{}).Where("id = ?", threadID).
		Update("alert_ids", models.JoinAlertIDs(ids)).Error; err != nil {
		return fmt.Errorf("store: add alert %s to %s: %w", userID, threadID, err)
	}
	return nil
}

// RemoveAlert removes a user from the thread's alert set. Removing an
// absent user is a no-op; an emptied set is stored as NULL rather than
// an empty string.
func RemoveAlert(db *gorm.DB, threadID, userID string) error {
	th, err := ThreadByID(db, threadID)
	if err != nil {
		return err
	}
	if th == nil {
		return fmt.Errorf("store: remove alert: thread not found: %s", threadID)
	}

	ids := th.Alerts()
	if len(ids) == 0 {
		return nil
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != userID {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(ids) {
		return nil
	}

	if err := db.Model(&models.Thread{}).Where("id = ?", threadID).
		Update("alert_ids", models.JoinAlertIDs(kept)).Error; err != nil {
		return fmt.Errorf("store: remove alert %s from %s: %w", userID, threadID, err)
	}
	return nil
}

// ClearAlerts unconditionally empties the thread's alert set. Idempotent.
func ClearAlerts(db *gorm.DB, threadID string) error {
	if err := db.Model(&models.Thread{}).Where("id = ?", threadID).
		Update("alert_ids", nil).Error; err != nil {
		return fmt.Errorf("store: clear alerts of %s: %w", threadID, err)
	}
	return nil
}
