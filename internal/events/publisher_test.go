package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAttemptFinishedEvent_TypeByReason(t *testing.T) {
	submitted := NewAttemptFinishedEvent(AttemptFinishedData{AttemptID: 4, Reason: "manual"})
	expired := NewAttemptFinishedEvent(AttemptFinishedData{AttemptID: 4, Reason: "timeout"})

	assert.Equal(t, EventAttemptSubmitted, submitted.Type)
	assert.Equal(t, EventAttemptExpired, expired.Type)
	assert.Equal(t, "4", expired.Key)
	assert.NotEqual(t, submitted.ID, expired.ID)
	assert.Len(t, submitted.ID, 36)
}

func TestToMessage(t *testing.T) {
	event := NewAttemptStartedEvent(AttemptStartedData{
		AttemptID:   12,
		TestID:      3,
		UserID:      "user-1",
		StartedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		DurationSec: 600,
	})

	msg, err := toMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.ID, msg.UUID)
	assert.Equal(t, "attempt.started", msg.Metadata.Get("event_type"))
	assert.Equal(t, "12", msg.Metadata.Get(partitionKeyHeader))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	data := decoded["data"].(map[string]any)
	assert.Equal(t, "user-1", data["user_id"])
	assert.Equal(t, float64(600), data["duration_sec"])
}

func TestMockEventPublisher(t *testing.T) {
	pub := NewMockEventPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, pub.Publish(context.Background(), NewAttemptStartedEvent(AttemptStartedData{AttemptID: 1})))
	require.NoError(t, pub.Publish(context.Background(), NewAttemptFinishedEvent(AttemptFinishedData{AttemptID: 1, Reason: "manual"})))

	published := pub.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, EventAttemptStarted, published[0].Type)
	assert.Equal(t, EventAttemptSubmitted, published[1].Type)

	pub.ClearEvents()
	assert.Empty(t, pub.GetPublishedEvents())
	assert.NoError(t, pub.Close())
}
