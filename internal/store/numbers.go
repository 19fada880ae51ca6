package store

import (
	"fmt"

	"github.com/zulandar/switchboard/internal/models"
	"gorm.io/gorm"
)

// AllocateMessageNumber atomically claims the thread's next outbound
// message number: it reads the counter and writes back counter+1 inside
// one transaction, returning the pre-increment value. Uniqueness under
// concurrent allocation rests entirely on the database's transaction
// isolation; no in-process lock is involved.
func AllocateMessageNumber(db *gorm.DB, threadID string) (int, error) {
	var number int
	err := db.Transaction(func(tx *gorm.DB) error {
		var th models.Thread
		if err := tx.Select("next_message_number").
			Where("id = ?", threadID).First(&th).Error; err != nil {
			return err
		}
		number = th.NextMessageNumber
		return tx.Model(&models.Thread{}).Where("id = ?", threadID).
			Update("next_message_number", number+1).Error
	})
	if err != nil {
		return 0, fmt.Errorf("store: allocate message number for %s: %w", threadID, err)
	}
	return number, nil
}
