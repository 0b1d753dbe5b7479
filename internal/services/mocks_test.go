package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/SAP-F-2025/assessment-delivery/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockRepository runs transactions inline with a nil tx.
type MockRepository struct {
	attempts    *MockAttemptRepository
	answers     *MockAnswerRepository
	tests       *MockTestRepository
	batteries   *MockBatteryRepository
	assignments *MockAssignmentRepository
	users       *MockUserRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		attempts:    new(MockAttemptRepository),
		answers:     new(MockAnswerRepository),
		tests:       new(MockTestRepository),
		batteries:   new(MockBatteryRepository),
		assignments: new(MockAssignmentRepository),
		users:       new(MockUserRepository),
	}
}

func (m *MockRepository) Attempt() repositories.AttemptRepository       { return m.attempts }
func (m *MockRepository) Answer() repositories.AnswerRepository         { return m.answers }
func (m *MockRepository) Test() repositories.TestRepository             { return m.tests }
func (m *MockRepository) Battery() repositories.BatteryRepository       { return m.batteries }
func (m *MockRepository) Assignment() repositories.AssignmentRepository { return m.assignments }
func (m *MockRepository) User() repositories.UserRepository             { return m.users }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error {
	args := m.Called(ctx, tx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestAttempt, error) {
	args := m.Called(ctx, tx, id)
	return attemptArg(args, 0), args.Error(1)
}

func (m *MockAttemptRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.TestAttempt, error) {
	args := m.Called(ctx, tx, id)
	return attemptArg(args, 0), args.Error(1)
}

func (m *MockAttemptRepository) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.TestAttempt, error) {
	args := m.Called(ctx, tx, id)
	return attemptArg(args, 0), args.Error(1)
}

func (m *MockAttemptRepository) Update(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error {
	args := m.Called(ctx, tx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.AttemptFilters) ([]*models.TestAttempt, int64, error) {
	args := m.Called(ctx, tx, userID, filters)
	return args.Get(0).([]*models.TestAttempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) GetOverdue(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]*models.TestAttempt, error) {
	args := m.Called(ctx, tx, cutoff, limit)
	return args.Get(0).([]*models.TestAttempt), args.Error(1)
}

func attemptArg(args mock.Arguments, i int) *models.TestAttempt {
	if v, ok := args.Get(i).(*models.TestAttempt); ok {
		return v
	}
	return nil
}

// MockAnswerRepository is a mock implementation of AnswerRepository
type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) Upsert(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	args := m.Called(ctx, tx, answer)
	return args.Error(0)
}

func (m *MockAnswerRepository) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.Answer, error) {
	args := m.Called(ctx, tx, attemptID)
	return args.Get(0).([]models.Answer), args.Error(1)
}

type MockTestRepository struct {
	mock.Mock
}

func (m *MockTestRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	args := m.Called(ctx, tx, id)
	if v, ok := args.Get(0).(*models.Test); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTestRepository) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Test, error) {
	args := m.Called(ctx, tx, ids)
	return args.Get(0).([]*models.Test), args.Error(1)
}

type MockBatteryRepository struct {
	mock.Mock
}

func (m *MockBatteryRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Battery, error) {
	args := m.Called(ctx, tx, id)
	if v, ok := args.Get(0).(*models.Battery); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBatteryRepository) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Battery, error) {
	args := m.Called(ctx, tx, ids)
	return args.Get(0).([]*models.Battery), args.Error(1)
}

type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) ListForUser(ctx context.Context, tx *gorm.DB, userID string, companyID *uint, groupIDs []uint) ([]*models.Assignment, error) {
	args := m.Called(ctx, tx, userID, companyID, groupIDs)
	return args.Get(0).([]*models.Assignment), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	args := m.Called(ctx, tx, id)
	if v, ok := args.Get(0).(*models.User); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockCatalogService is a mock implementation of CatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) GetAccessibleTests(ctx context.Context, userID string) ([]*models.Test, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Test), args.Error(1)
}

func (m *MockCatalogService) GetAccessibleBatteries(ctx context.Context, userID string) ([]*models.Battery, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Battery), args.Error(1)
}

func (m *MockCatalogService) CanAccessTest(ctx context.Context, userID string, testID uint) (bool, error) {
	args := m.Called(ctx, userID, testID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCatalogService) CanAccessBattery(ctx context.Context, userID string, batteryID uint) (bool, error) {
	args := m.Called(ctx, userID, batteryID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCatalogService) GetTest(ctx context.Context, testID uint) (*models.Test, error) {
	args := m.Called(ctx, testID)
	if v, ok := args.Get(0).(*models.Test); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalogService) GetBattery(ctx context.Context, batteryID uint) (*models.Battery, error) {
	args := m.Called(ctx, batteryID)
	if v, ok := args.Get(0).(*models.Battery); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalogService) AttemptQuestions(ctx context.Context, attempt *models.TestAttempt) ([]models.Question, error) {
	args := m.Called(ctx, attempt)
	return args.Get(0).([]models.Question), args.Error(1)
}

// ===== FIXTURES =====

func option(id uint, correct bool) models.Option {
	return models.Option{ID: id, Text: "option", IsCorrect: correct}
}

// sampleTest has two single-choice questions worth 1 and 2 points.
// Question 1 is correct with option 11, question 2 with option 21.
func sampleTest() *models.Test {
	return &models.Test{
		ID:          7,
		Title:       "Numeracy",
		DurationSec: 600,
		Questions: []models.Question{
			{ID: 2, TestID: 7, QuestionNo: 2, Text: "Q2", Points: 2, Mode: models.ModeSingle,
				Options: []models.Option{option(21, true), option(22, false)}},
			{ID: 1, TestID: 7, QuestionNo: 1, Text: "Q1", Points: 1, Mode: models.ModeSingle,
				Options: []models.Option{option(11, true), option(12, false)}},
		},
	}
}

func orderedSampleQuestions() []models.Question {
	qs := sampleTest().Questions
	return []models.Question{qs[1], qs[0]}
}
