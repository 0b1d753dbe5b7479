package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Answer holds the current selection for one (attempt, question) pair.
type Answer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_question"`

	SelectedOptionIDs datatypes.JSON `json:"selected_option_ids" gorm:"type:jsonb"` // []uint, sorted
	TimeSpentSec      int            `json:"time_spent_sec"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Answer) TableName() string {
	return "answers"
}

// SelectedIDs decodes the stored selection. A malformed column reads as empty.
func (a *Answer) SelectedIDs() []uint {
	if len(a.SelectedOptionIDs) == 0 {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(a.SelectedOptionIDs, &ids); err != nil {
		return nil
	}
	return ids
}

// SetSelectedIDs replaces the stored selection with a normalized copy of ids.
func (a *Answer) SetSelectedIDs(ids []uint) {
	normalized := NormalizeIDs(ids)
	data, _ := json.Marshal(normalized)
	a.SelectedOptionIDs = data
}
