package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/SAP-F-2025/assessment-delivery/internal/engine"
	"github.com/SAP-F-2025/assessment-delivery/internal/handlers"
	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/SAP-F-2025/assessment-delivery/internal/repositories"
	"github.com/SAP-F-2025/assessment-delivery/internal/scoring"
	"github.com/SAP-F-2025/assessment-delivery/internal/services"
	"github.com/SAP-F-2025/assessment-delivery/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryServices is an in-memory delivery backend behind the real handlers.
type memoryServices struct {
	mu       sync.Mutex
	tests    map[uint]*models.Test
	entitled map[string][]uint
	attempts map[uint]*models.TestAttempt
	answers  map[uint]map[uint][]uint
	nextID   uint
}

func newMemoryServices() *memoryServices {
	q1 := models.Question{ID: 1, TestID: 7, QuestionNo: 1, Text: "2+2", Points: 1, Mode: models.ModeSingle,
		Options: []models.Option{{ID: 11, Text: "4", IsCorrect: true}, {ID: 12, Text: "5"}}}
	q2 := models.Question{ID: 2, TestID: 7, QuestionNo: 2, Text: "primes", Points: 1, Mode: models.ModeMultiple,
		Options: []models.Option{{ID: 21, Text: "2", IsCorrect: true}, {ID: 22, Text: "3", IsCorrect: true}, {ID: 23, Text: "4"}}}
	return &memoryServices{
		tests:    map[uint]*models.Test{7: {ID: 7, Title: "Numeracy", DurationSec: 300, Questions: []models.Question{q2, q1}}},
		entitled: map[string][]uint{"u1": {7}},
		attempts: map[uint]*models.TestAttempt{},
		answers:  map[uint]map[uint][]uint{},
	}
}

func (s *memoryServices) Attempt() services.AttemptService { return s }
func (s *memoryServices) Catalog() services.CatalogService { return s }
func (s *memoryServices) Export() services.ExportService   { return s }

func (s *memoryServices) Start(ctx context.Context, req *engine.StartAttemptRequest) (*engine.StartAttemptResponse, error) {
	ok, _ := s.CanAccessTest(ctx, req.UserID, req.TestID)
	if !ok {
		return nil, services.ErrNoEntitlement
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.attempts[s.nextID] = &models.TestAttempt{ID: s.nextID, TestID: req.TestID, UserID: req.UserID, Status: models.AttemptInProgress}
	s.answers[s.nextID] = map[uint][]uint{}
	return &engine.StartAttemptResponse{AttemptID: s.nextID}, nil
}

func (s *memoryServices) SaveAnswer(_ context.Context, req *engine.SaveAnswerRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[req.AttemptID]
	if !ok {
		return services.ErrAttemptNotFound
	}
	if a.Status.IsTerminal() {
		return services.ErrAttemptNotActive
	}
	s.answers[req.AttemptID][req.QuestionID] = append([]uint(nil), req.SelectedOptionIDs...)
	return nil
}

func (s *memoryServices) Submit(_ context.Context, req *engine.SubmitAttemptRequest, userID string) (*models.TestAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[req.AttemptID]
	if !ok {
		return nil, services.ErrAttemptNotFound
	}
	if a.UserID != userID {
		return nil, services.NewPermissionError(userID, a.ID, "attempt", "submit", "not owned by user")
	}
	if !a.Status.IsTerminal() {
		sum := scoring.EvaluateAll(s.tests[a.TestID].Questions, s.answers[a.ID])
		a.Status = models.AttemptSubmitted
		a.CorrectCount = sum.CorrectCount
		a.QuestionCount = sum.QuestionCount
		a.Percentage = sum.Percentage
	}
	return a, nil
}

func (s *memoryServices) GetByID(_ context.Context, id uint, userID string) (*models.TestAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[id]
	if !ok {
		return nil, services.ErrAttemptNotFound
	}
	copied := *a
	return &copied, nil
}

func (s *memoryServices) ListByUser(context.Context, string, repositories.AttemptFilters) ([]*models.TestAttempt, int64, error) {
	return nil, 0, nil
}

func (s *memoryServices) HandleTimeout(context.Context, uint) (*models.TestAttempt, error) {
	return nil, services.ErrNotFound
}

func (s *memoryServices) GetAccessibleTests(_ context.Context, userID string) ([]*models.Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Test
	for _, id := range s.entitled[userID] {
		out = append(out, s.tests[id])
	}
	return out, nil
}

func (s *memoryServices) GetAccessibleBatteries(context.Context, string) ([]*models.Battery, error) {
	return []*models.Battery{}, nil
}

func (s *memoryServices) CanAccessTest(_ context.Context, userID string, testID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.entitled[userID] {
		if id == testID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryServices) CanAccessBattery(context.Context, string, uint) (bool, error) {
	return false, nil
}

func (s *memoryServices) GetTest(_ context.Context, id uint) (*models.Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tests[id]
	if !ok {
		return nil, services.ErrTestNotFound
	}
	return t, nil
}

func (s *memoryServices) GetBattery(context.Context, uint) (*models.Battery, error) {
	return nil, services.ErrBatteryNotFound
}

func (s *memoryServices) AttemptQuestions(ctx context.Context, a *models.TestAttempt) ([]models.Question, error) {
	t, err := s.GetTest(ctx, a.TestID)
	if err != nil {
		return nil, err
	}
	return engine.OrderQuestions(t.Questions), nil
}

func (s *memoryServices) AttemptWorkbook(context.Context, uint, string) ([]byte, string, error) {
	return nil, "", services.ErrNotFound
}

func newServer(t *testing.T, svc *memoryServices) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := handlers.NewHandlerManager(svc, nil, logger).NewRouter()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_MachineRoundTrip(t *testing.T) {
	svc := newMemoryServices()
	srv := newServer(t, svc)
	c := New(srv.URL, WithUserID("u1"), WithLogger(quietLogger()))

	m := engine.NewMachine(c, engine.WithLogger(quietLogger()), engine.WithClockOptions(engine.ManualClock()))
	session, err := m.Start(context.Background(), engine.TestTarget(7), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, session.QuestionCount)
	assert.Equal(t, 300, session.DurationSec)

	require.NoError(t, m.Answer(session.AttemptID, 1, 11))
	require.NoError(t, m.Answer(session.AttemptID, 2, 21))

	results, err := m.Submit(context.Background(), session.AttemptID, engine.ReasonManual)
	require.NoError(t, err)
	assert.NoError(t, results.Warning)
	assert.Equal(t, 1, results.CorrectCount)
	assert.Equal(t, 50, results.Percentage)

	stored, err := c.GetAttemptByID(context.Background(), session.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, stored.Status)
	assert.Equal(t, 50, stored.Percentage)
}

func TestClient_Catalog(t *testing.T) {
	srv := newServer(t, newMemoryServices())
	c := New(srv.URL, WithUserID("u1"))

	tests, err := c.GetAccessibleTests(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "Numeracy", tests[0].Title)

	test, err := c.GetTest(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, test.Questions, 2)

	_, err = c.GetAccessibleTests(context.Background(), "someone-else")
	assert.True(t, IsStatus(err, http.StatusForbidden))
}

func TestClient_Errors(t *testing.T) {
	srv := newServer(t, newMemoryServices())

	anonymous := New(srv.URL)
	_, err := anonymous.GetTest(context.Background(), 7)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	outsider := New(srv.URL, WithUserID("u2"))
	_, err = outsider.StartAttempt(context.Background(), engine.StartAttemptRequest{TestID: 7, UserID: "u2"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "no_entitlement", apiErr.Code)

	member := New(srv.URL, WithUserID("u1"))
	_, err = member.GetAttemptByID(context.Background(), 999)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestClient_NetworkFailureIsNotAPIError(t *testing.T) {
	c := New("http://127.0.0.1:1", WithUserID("u1"))
	err := c.SaveAnswer(context.Background(), engine.SaveAnswerRequest{AttemptID: 1, QuestionID: 1})
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, IsStatus(err, http.StatusInternalServerError))
	assert.NotErrorAs(t, err, &apiErr)
}
