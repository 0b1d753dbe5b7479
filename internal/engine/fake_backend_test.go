package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
)

var errBackendDown = errors.New("backend unavailable")

type fakeBackend struct {
	mu sync.Mutex

	tests     map[uint]*models.Test
	batteries map[uint]*models.Battery
	entitled  map[uint]bool
	batteryOK map[uint]bool

	nextAttemptID uint
	startErr      error
	saveErr       error
	submitErr     error
	entitleErr    error

	starts  []StartAttemptRequest
	saves   []SaveAnswerRequest
	submits []SubmitAttemptRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		tests:         make(map[uint]*models.Test),
		batteries:     make(map[uint]*models.Battery),
		entitled:      make(map[uint]bool),
		batteryOK:     make(map[uint]bool),
		nextAttemptID: 100,
	}
}

func (f *fakeBackend) addTest(t *models.Test, entitled bool) {
	f.tests[t.ID] = t
	f.entitled[t.ID] = entitled
}

func (f *fakeBackend) StartAttempt(_ context.Context, req StartAttemptRequest) (*StartAttemptResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.starts = append(f.starts, req)
	f.nextAttemptID++
	return &StartAttemptResponse{AttemptID: f.nextAttemptID}, nil
}

func (f *fakeBackend) SaveAnswer(_ context.Context, req SaveAnswerRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, req)
	return f.saveErr
}

func (f *fakeBackend) SubmitAttempt(_ context.Context, req SubmitAttemptRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, req)
	return f.submitErr
}

func (f *fakeBackend) GetAttemptByID(_ context.Context, attemptID uint) (*models.TestAttempt, error) {
	return &models.TestAttempt{ID: attemptID}, nil
}

func (f *fakeBackend) GetAccessibleTests(_ context.Context, _ string) ([]models.Test, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entitleErr != nil {
		return nil, f.entitleErr
	}
	var out []models.Test
	for id, ok := range f.entitled {
		if ok {
			out = append(out, models.Test{ID: id, Title: f.tests[id].Title})
		}
	}
	return out, nil
}

func (f *fakeBackend) GetAccessibleBatteries(_ context.Context, _ string) ([]models.Battery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entitleErr != nil {
		return nil, f.entitleErr
	}
	var out []models.Battery
	for id, ok := range f.batteryOK {
		if ok {
			out = append(out, models.Battery{ID: id})
		}
	}
	return out, nil
}

func (f *fakeBackend) GetTest(_ context.Context, testID uint) (*models.Test, error) {
	t, ok := f.tests[testID]
	if !ok {
		return nil, errors.New("test not found")
	}
	return t, nil
}

func (f *fakeBackend) GetBattery(_ context.Context, batteryID uint) (*models.Battery, error) {
	b, ok := f.batteries[batteryID]
	if !ok {
		return nil, errors.New("battery not found")
	}
	return b, nil
}

func (f *fakeBackend) savesSnapshot() []SaveAnswerRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SaveAnswerRequest, len(f.saves))
	copy(out, f.saves)
	return out
}

func (f *fakeBackend) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submits)
}

// makeQuestion builds a question with four options id*10 .. id*10+3.
func makeQuestion(testID, id uint, no int, mode models.SelectionMode, correct ...uint) models.Question {
	q := models.Question{ID: id, TestID: testID, QuestionNo: no, Mode: mode, Points: 1, Text: "q"}
	isCorrect := make(map[uint]bool)
	for _, c := range correct {
		isCorrect[c] = true
	}
	for opt := id * 10; opt < id*10+4; opt++ {
		q.Options = append(q.Options, models.Option{ID: opt, QuestionID: id, Text: "o", IsCorrect: isCorrect[opt]})
	}
	return q
}

// threeQuestionTest has questions stored out of order to exercise sorting.
func threeQuestionTest(durationSec int) *models.Test {
	return &models.Test{
		ID:          1,
		Title:       "Numeracy",
		DurationSec: durationSec,
		Questions: []models.Question{
			makeQuestion(1, 3, 3, models.ModeSingle, 30),
			makeQuestion(1, 1, 1, models.ModeSingle, 10),
			makeQuestion(1, 2, 2, models.ModeMultiple, 20, 22),
		},
	}
}
