package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/assessment-delivery/internal/cache"
	"github.com/SAP-F-2025/assessment-delivery/internal/engine"
	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/SAP-F-2025/assessment-delivery/internal/repositories"
	"github.com/SAP-F-2025/assessment-delivery/internal/validator"
)

type catalogService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	validator *validator.Validator
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewCatalogService builds the catalog. cacheService may be nil.
func NewCatalogService(repo repositories.Repository, cacheService cache.CacheService, v *validator.Validator, ttl time.Duration, logger *slog.Logger) CatalogService {
	return &catalogService{
		repo:      repo,
		cache:     cacheService,
		validator: v,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// ===== ENTITLEMENTS =====

func (s *catalogService) GetAccessibleTests(ctx context.Context, userID string) ([]*models.Test, error) {
	var tests []*models.Test
	key := cache.UserCatalogKey(userID, "tests")
	if s.fromCache(ctx, key, &tests) {
		return tests, nil
	}

	testIDs, _, err := s.entitlements(ctx, userID)
	if err != nil {
		return nil, err
	}

	tests, err = s.repo.Test().GetByIDs(ctx, nil, testIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get tests: %w", err)
	}

	s.toCache(ctx, key, tests)
	return tests, nil
}

func (s *catalogService) GetAccessibleBatteries(ctx context.Context, userID string) ([]*models.Battery, error) {
	var batteries []*models.Battery
	key := cache.UserCatalogKey(userID, "batteries")
	if s.fromCache(ctx, key, &batteries) {
		return batteries, nil
	}

	_, batteryIDs, err := s.entitlements(ctx, userID)
	if err != nil {
		return nil, err
	}

	batteries, err = s.repo.Battery().GetByIDs(ctx, nil, batteryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get batteries: %w", err)
	}

	s.toCache(ctx, key, batteries)
	return batteries, nil
}

func (s *catalogService) CanAccessTest(ctx context.Context, userID string, testID uint) (bool, error) {
	testIDs, _, err := s.entitlements(ctx, userID)
	if err != nil {
		return false, err
	}
	return containsID(testIDs, testID), nil
}

func (s *catalogService) CanAccessBattery(ctx context.Context, userID string, batteryID uint) (bool, error) {
	_, batteryIDs, err := s.entitlements(ctx, userID)
	if err != nil {
		return false, err
	}
	return containsID(batteryIDs, batteryID), nil
}

// entitlements resolves the open assignments reaching userID directly,
// through a group, or through the company.
func (s *catalogService) entitlements(ctx context.Context, userID string) (testIDs, batteryIDs []uint, err error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	assignments, err := s.repo.Assignment().ListForUser(ctx, nil, userID, user.CompanyID, user.GroupIDs())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	now := s.now()
	for _, a := range assignments {
		if !a.IsOpen(now) {
			continue
		}
		if a.TestID != nil {
			testIDs = append(testIDs, *a.TestID)
		}
		if a.BatteryID != nil {
			batteryIDs = append(batteryIDs, *a.BatteryID)
		}
	}
	return models.NormalizeIDs(testIDs), models.NormalizeIDs(batteryIDs), nil
}

// ===== CONTENT =====

func (s *catalogService) GetTest(ctx context.Context, testID uint) (*models.Test, error) {
	var test models.Test
	key := cache.TestKey(testID)
	if s.fromCache(ctx, key, &test) {
		return &test, nil
	}

	loaded, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	s.checkQuestions(loaded)

	s.toCache(ctx, key, loaded)
	return loaded, nil
}

func (s *catalogService) GetBattery(ctx context.Context, batteryID uint) (*models.Battery, error) {
	var battery models.Battery
	key := cache.BatteryKey(batteryID)
	if s.fromCache(ctx, key, &battery) {
		return &battery, nil
	}

	loaded, err := s.repo.Battery().GetByID(ctx, nil, batteryID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrBatteryNotFound
		}
		return nil, fmt.Errorf("failed to get battery: %w", err)
	}
	if err := loaded.ValidateWeights(); err != nil {
		s.logger.Warn("Battery weights are inconsistent", "battery_id", batteryID, "error", err)
	}
	for i := range loaded.Members {
		s.checkQuestions(&loaded.Members[i].Test)
	}

	s.toCache(ctx, key, loaded)
	return loaded, nil
}

func (s *catalogService) AttemptQuestions(ctx context.Context, attempt *models.TestAttempt) ([]models.Question, error) {
	if attempt.BatteryID != nil {
		battery, err := s.GetBattery(ctx, *attempt.BatteryID)
		if err != nil {
			return nil, err
		}
		return engine.BatteryQuestions(battery), nil
	}

	test, err := s.GetTest(ctx, attempt.TestID)
	if err != nil {
		return nil, err
	}
	return engine.OrderQuestions(test.Questions), nil
}

// checkQuestions logs authoring defects. A question without a valid answer
// key is still delivered and scores as incorrect.
func (s *catalogService) checkQuestions(test *models.Test) {
	for i := range test.Questions {
		q := &test.Questions[i]
		if err := s.validator.ValidateQuestion(q); err != nil {
			s.logger.Warn("Question fails validation",
				"test_id", test.ID,
				"question_id", q.ID,
				"error", err)
		}
	}
}

// ===== CACHE =====

func (s *catalogService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	err := s.cache.Get(ctx, key, dest)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Cache read failed", "key", key, "error", err)
	}
	return err == nil
}

func (s *catalogService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("Cache write failed", "key", key, "error", err)
	}
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
