package engine

import (
	"context"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
)

// Backend is the remote collaborator that owns persistence and entitlements.
type Backend interface {
	StartAttempt(ctx context.Context, req StartAttemptRequest) (*StartAttemptResponse, error)
	SaveAnswer(ctx context.Context, req SaveAnswerRequest) error
	SubmitAttempt(ctx context.Context, req SubmitAttemptRequest) error
	GetAttemptByID(ctx context.Context, attemptID uint) (*models.TestAttempt, error)

	GetAccessibleTests(ctx context.Context, userID string) ([]models.Test, error)
	GetAccessibleBatteries(ctx context.Context, userID string) ([]models.Battery, error)
	GetTest(ctx context.Context, testID uint) (*models.Test, error)
	GetBattery(ctx context.Context, batteryID uint) (*models.Battery, error)
}

// StartAttemptRequest is also the HTTP body of POST /attempts/start. The
// server recomputes DurationSec from the catalog.
type StartAttemptRequest struct {
	TestID       uint   `json:"test_id" validate:"required"`
	BatteryID    *uint  `json:"battery_id,omitempty"`
	AssignmentID *uint  `json:"assignment_id,omitempty"`
	UserID       string `json:"user_id"`
	DurationSec  int    `json:"duration_sec" validate:"min=0"`
}

type StartAttemptResponse struct {
	AttemptID uint `json:"attempt_id"`
}

// SaveAnswerRequest carries the full selection, never a delta. An empty
// selection clears the answer.
type SaveAnswerRequest struct {
	AttemptID             uint   `json:"attempt_id" validate:"required"`
	QuestionID            uint   `json:"question_id" validate:"required"`
	UserID                string `json:"user_id"`
	SelectedOptionIDs     []uint `json:"selected_option_ids"`
	TimeSpentIncrementSec int    `json:"time_spent_increment_sec" validate:"min=0"`
}

type SubmitAttemptRequest struct {
	AttemptID         uint   `json:"attempt_id" validate:"required"`
	FinalTimeSpentSec int    `json:"final_time_spent_sec" validate:"min=0"`
	Reason            Reason `json:"reason" validate:"required,attempt_reason"`
}

// Target names what an attempt is launched for. Exactly one of TestID and
// BatteryID is set.
type Target struct {
	TestID       *uint
	BatteryID    *uint
	AssignmentID *uint
}

func TestTarget(testID uint) Target { return Target{TestID: &testID} }

func BatteryTarget(batteryID uint) Target { return Target{BatteryID: &batteryID} }

func (t Target) validate() error {
	if (t.TestID == nil) == (t.BatteryID == nil) {
		return ErrInvalidTarget
	}
	return nil
}
