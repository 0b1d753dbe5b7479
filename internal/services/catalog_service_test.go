package services

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/SAP-F-2025/assessment-delivery/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func uintPtr(v uint) *uint { return &v }

func newCatalogFixture() (*MockRepository, *catalogService) {
	repo := newMockRepository()
	svc := NewCatalogService(repo, nil, validator.New(), time.Minute, discardLogger()).(*catalogService)
	svc.now = func() time.Time { return fixedNow }
	return repo, svc
}

func TestCatalogService_Entitlements(t *testing.T) {
	repo, svc := newCatalogFixture()
	ctx := context.Background()
	company := uintPtr(4)

	user := &models.User{ID: "u1", IsActive: true, CompanyID: company, Groups: []models.Group{{ID: 9}}}
	closed := fixedNow.Add(-time.Hour)
	repo.users.On("GetByID", mock.Anything, mock.Anything, "u1").Return(user, nil)
	repo.assignments.On("ListForUser", mock.Anything, mock.Anything, "u1", company, []uint{9}).Return([]*models.Assignment{
		{ID: 1, TestID: uintPtr(7)},
		{ID: 2, TestID: uintPtr(7)},
		{ID: 3, BatteryID: uintPtr(3)},
		{ID: 4, TestID: uintPtr(8), AvailableUntil: &closed},
	}, nil)

	ok, err := svc.CanAccessTest(ctx, "u1", 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanAccessTest(ctx, "u1", 8)
	require.NoError(t, err)
	assert.False(t, ok, "closed assignment grants nothing")

	ok, err = svc.CanAccessBattery(ctx, "u1", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	repo.tests.On("GetByIDs", mock.Anything, mock.Anything, []uint{7}).Return([]*models.Test{sampleTest()}, nil)
	tests, err := svc.GetAccessibleTests(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, uint(7), tests[0].ID)
}

func TestCatalogService_UserErrors(t *testing.T) {
	repo, svc := newCatalogFixture()
	ctx := context.Background()

	repo.users.On("GetByID", mock.Anything, mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)
	repo.users.On("GetByID", mock.Anything, mock.Anything, "gone").Return(&models.User{ID: "gone", IsActive: false}, nil)

	_, err := svc.GetAccessibleTests(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.GetAccessibleBatteries(ctx, "gone")
	assert.ErrorIs(t, err, ErrUserInactive)
	assert.True(t, IsUnauthorized(err))
}

func TestCatalogService_GetTestNotFound(t *testing.T) {
	repo, svc := newCatalogFixture()
	repo.tests.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(nil, gorm.ErrRecordNotFound)
	repo.batteries.On("GetByID", mock.Anything, mock.Anything, uint(2)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.GetTest(context.Background(), 1)
	assert.ErrorIs(t, err, ErrTestNotFound)

	_, err = svc.GetBattery(context.Background(), 2)
	assert.ErrorIs(t, err, ErrBatteryNotFound)
}

func TestCatalogService_AttemptQuestions(t *testing.T) {
	repo, svc := newCatalogFixture()
	ctx := context.Background()

	second := models.Test{ID: 8, DurationSec: 300, Questions: []models.Question{
		{ID: 5, TestID: 8, QuestionNo: 1, Mode: models.ModeSingle, Options: []models.Option{option(51, true)}},
	}}
	battery := &models.Battery{ID: 3, Members: []models.BatteryTest{
		{BatteryID: 3, TestID: 8, Position: 2, Weight: 40, Test: second},
		{BatteryID: 3, TestID: 7, Position: 1, Weight: 60, Test: *sampleTest()},
	}}
	repo.tests.On("GetByID", mock.Anything, mock.Anything, uint(7)).Return(sampleTest(), nil)
	repo.batteries.On("GetByID", mock.Anything, mock.Anything, uint(3)).Return(battery, nil)

	qs, err := svc.AttemptQuestions(ctx, &models.TestAttempt{TestID: 7})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, questionIDs(qs))

	qs, err = svc.AttemptQuestions(ctx, &models.TestAttempt{TestID: 7, BatteryID: uintPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 5}, questionIDs(qs))
}

func questionIDs(qs []models.Question) []uint {
	ids := make([]uint, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}
