package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
)

type resolvedAttempt struct {
	testID      uint
	durationSec int
	questions   []models.Question
}

func (m *Machine) isEntitled(ctx context.Context, target Target, userID string) (bool, error) {
	if target.BatteryID != nil {
		batteries, err := m.backend.GetAccessibleBatteries(ctx, userID)
		if err != nil {
			return false, fmt.Errorf("failed to get accessible batteries: %w", err)
		}
		for _, b := range batteries {
			if b.ID == *target.BatteryID {
				return true, nil
			}
		}
		return false, nil
	}

	tests, err := m.backend.GetAccessibleTests(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get accessible tests: %w", err)
	}
	for _, t := range tests {
		if t.ID == *target.TestID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Machine) resolve(ctx context.Context, target Target) (*resolvedAttempt, error) {
	if target.BatteryID != nil {
		battery, err := m.backend.GetBattery(ctx, *target.BatteryID)
		if err != nil {
			return nil, fmt.Errorf("failed to get battery: %w", err)
		}
		res := &resolvedAttempt{
			durationSec: battery.DurationSec(),
			questions:   BatteryQuestions(battery),
		}
		if members := orderedMembers(battery); len(members) > 0 {
			res.testID = members[0].TestID
		}
		return res, nil
	}

	test, err := m.backend.GetTest(ctx, *target.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return &resolvedAttempt{
		testID:      test.ID,
		durationSec: test.DurationSec,
		questions:   OrderQuestions(test.Questions),
	}, nil
}

// OrderQuestions returns a copy of questions sorted by QuestionNo.
func OrderQuestions(questions []models.Question) []models.Question {
	out := make([]models.Question, len(questions))
	copy(out, questions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].QuestionNo < out[j].QuestionNo })
	return out
}

// BatteryQuestions concatenates the member tests' questions in battery order,
// each test's questions sorted by QuestionNo.
func BatteryQuestions(b *models.Battery) []models.Question {
	var out []models.Question
	for _, member := range orderedMembers(b) {
		out = append(out, OrderQuestions(member.Test.Questions)...)
	}
	return out
}

func orderedMembers(b *models.Battery) []models.BatteryTest {
	members := make([]models.BatteryTest, len(b.Members))
	copy(members, b.Members)
	sort.SliceStable(members, func(i, j int) bool { return members[i].Position < members[j].Position })
	return members
}
