package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	eventSource  = "assessment-delivery"
	eventVersion = "1.0"
)

type EventType string

const (
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptSubmitted EventType = "attempt.submitted"
	EventAttemptExpired   EventType = "attempt.expired"
)

// Event is the envelope for every attempt lifecycle message.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Key       string                 `json:"key"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type AttemptStartedData struct {
	AttemptID    uint      `json:"attempt_id"`
	TestID       uint      `json:"test_id"`
	BatteryID    *uint     `json:"battery_id,omitempty"`
	AssignmentID *uint     `json:"assignment_id,omitempty"`
	UserID       string    `json:"user_id"`
	StartedAt    time.Time `json:"started_at"`
	DurationSec  int       `json:"duration_sec"`
}

// AttemptFinishedData is the payload of both attempt.submitted and
// attempt.expired.
type AttemptFinishedData struct {
	AttemptID     uint      `json:"attempt_id"`
	TestID        uint      `json:"test_id"`
	BatteryID     *uint     `json:"battery_id,omitempty"`
	UserID        string    `json:"user_id"`
	Reason        string    `json:"reason"`
	SubmittedAt   time.Time `json:"submitted_at"`
	TimeSpentSec  int       `json:"time_spent_sec"`
	CorrectCount  int       `json:"correct_count"`
	QuestionCount int       `json:"question_count"`
	AwardedPoints int       `json:"awarded_points"`
	TotalPoints   int       `json:"total_points"`
	Percentage    int       `json:"percentage"`
}

func NewAttemptStartedEvent(data AttemptStartedData) *Event {
	return newEvent(EventAttemptStarted, data.AttemptID, data)
}

// NewAttemptFinishedEvent picks attempt.expired for timeout submissions and
// attempt.submitted otherwise.
func NewAttemptFinishedEvent(data AttemptFinishedData) *Event {
	eventType := EventAttemptSubmitted
	if data.Reason == "timeout" {
		eventType = EventAttemptExpired
	}
	return newEvent(eventType, data.AttemptID, data)
}

func newEvent(eventType EventType, attemptID uint, data interface{}) *Event {
	return &Event{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Key:       strconv.FormatUint(uint64(attemptID), 10),
		Data:      data,
	}
}

func GenerateEventID() string {
	return uuid.NewString()
}
