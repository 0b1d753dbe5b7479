package models

import (
	"fmt"
	"time"
)

type SelectionMode string

const (
	ModeSingle   SelectionMode = "single"
	ModeMultiple SelectionMode = "multiple"
)

type Orientation string

const (
	OrientationStraight Orientation = "straight"
	OrientationReverse  Orientation = "reverse"
)

type Question struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	TestID      uint          `json:"test_id" gorm:"not null;index"`
	QuestionNo  int           `json:"question_no" gorm:"not null;index"`
	Text        string        `json:"text" gorm:"not null;type:text" validate:"required"`
	ImageURL    *string       `json:"image_url" gorm:"size:500"`
	Points      int           `json:"points" gorm:"not null;default:1" validate:"min=0"`
	Mode        SelectionMode `json:"mode" gorm:"not null;default:single;size:16" validate:"required,selection_mode"`
	Orientation *Orientation  `json:"orientation,omitempty" gorm:"size:16"`
	Dimension   *string       `json:"dimension,omitempty" gorm:"size:100;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Options []Option `json:"options" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (Question) TableName() string {
	return "questions"
}

type Option struct {
	ID         uint     `json:"id" gorm:"primaryKey"`
	QuestionID uint     `json:"question_id" gorm:"not null;index"`
	Text       string   `json:"text" gorm:"not null;type:text"`
	IsCorrect  bool     `json:"is_correct" gorm:"default:false"`
	Score      *float64 `json:"score,omitempty"`
	Position   int      `json:"position" gorm:"default:0"`
}

func (Option) TableName() string {
	return "options"
}

// CorrectOptionIDs returns the ids of the options flagged correct.
func (q *Question) CorrectOptionIDs() []uint {
	ids := make([]uint, 0, 1)
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// HasOption reports whether optionID belongs to the question.
func (q *Question) HasOption(optionID uint) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// Validate checks the correct-subset invariant for the selection mode.
func (q *Question) Validate() error {
	correct := len(q.CorrectOptionIDs())
	switch q.Mode {
	case ModeSingle:
		if correct != 1 {
			return fmt.Errorf("question %d: single mode requires exactly one correct option, has %d", q.ID, correct)
		}
	case ModeMultiple:
		if correct == 0 {
			return fmt.Errorf("question %d: multiple mode requires at least one correct option", q.ID)
		}
	default:
		return fmt.Errorf("question %d: unknown selection mode %q", q.ID, q.Mode)
	}
	return nil
}

// IsReverse reports whether the question is reverse-scored.
func (q *Question) IsReverse() bool {
	return q.Orientation != nil && *q.Orientation == OrientationReverse
}
