package models

import (
	"time"

	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptExpired    AttemptStatus = "expired"
)

// IsTerminal reports whether the status no longer accepts answer writes.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptSubmitted || s == AttemptExpired
}

type TestAttempt struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	TestID       uint          `json:"test_id" gorm:"not null;index"`
	BatteryID    *uint         `json:"battery_id" gorm:"index"`
	AssignmentID *uint         `json:"assignment_id" gorm:"index"`
	UserID       string        `json:"user_id" gorm:"not null;index;size:255"`
	Status       AttemptStatus `json:"status" gorm:"default:in_progress;index;size:16"`

	// Timing
	StartedAt    time.Time  `json:"started_at"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	DurationSec  int        `json:"duration_sec"`
	TimeSpentSec int        `json:"time_spent_sec"`

	// Scoring, authoritative once Status is terminal
	TotalPoints   int `json:"total_points"`
	AwardedPoints int `json:"awarded_points"`
	Percentage    int `json:"percentage"`
	CorrectCount  int `json:"correct_count"`
	QuestionCount int `json:"question_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
}

func (TestAttempt) TableName() string {
	return "test_attempts"
}

// Deadline is when the attempt runs out of time.
func (a *TestAttempt) Deadline() time.Time {
	return a.StartedAt.Add(time.Duration(a.DurationSec) * time.Second)
}
