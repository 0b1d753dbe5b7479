package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/assessment-delivery/internal/cache"
	"github.com/SAP-F-2025/assessment-delivery/internal/engine"
	"github.com/SAP-F-2025/assessment-delivery/internal/events"
	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/SAP-F-2025/assessment-delivery/internal/repositories"
	"github.com/SAP-F-2025/assessment-delivery/internal/scoring"
	"github.com/SAP-F-2025/assessment-delivery/internal/validator"
	"gorm.io/gorm"
)

type AttemptServiceConfig struct {
	// ExpiryGrace is how long past the deadline answers are still accepted,
	// covering network latency of the client's final saves.
	ExpiryGrace time.Duration
	CacheTTL    time.Duration
}

type attemptService struct {
	repo      repositories.Repository
	catalog   CatalogService
	cache     cache.CacheService
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *slog.Logger
	ops       *ServiceLogger
	cfg       AttemptServiceConfig
	now       func() time.Time
}

func NewAttemptService(
	repo repositories.Repository,
	catalog CatalogService,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger *slog.Logger,
	cfg AttemptServiceConfig,
) AttemptService {
	return &attemptService{
		repo:      repo,
		catalog:   catalog,
		cache:     cacheService,
		publisher: publisher,
		validator: v,
		logger:    logger,
		ops:       NewServiceLogger(logger, "attempt"),
		cfg:       cfg,
		now:       time.Now,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, req *engine.StartAttemptRequest) (resp *engine.StartAttemptResponse, err error) {
	op := s.ops.Begin(ctx, "start_attempt", req.UserID, req.TestID)
	defer func() {
		var id uint
		if resp != nil {
			id = resp.AttemptID
		}
		op.End(id, err)
	}()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, ErrUnauthorized
	}

	questions, durationSec, err := s.resolveStart(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if req.DurationSec != 0 && req.DurationSec != durationSec {
		s.logger.Warn("Client duration differs from catalog, using catalog",
			"client_duration_sec", req.DurationSec,
			"duration_sec", durationSec)
	}

	total := 0
	for _, q := range questions {
		total += q.Points
	}

	attempt := &models.TestAttempt{
		TestID:        req.TestID,
		BatteryID:     req.BatteryID,
		AssignmentID:  req.AssignmentID,
		UserID:        req.UserID,
		Status:        models.AttemptInProgress,
		StartedAt:     s.now().UTC(),
		DurationSec:   durationSec,
		QuestionCount: len(questions),
		TotalPoints:   total,
	}
	if err := s.repo.Attempt().Create(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.publish(ctx, events.NewAttemptStartedEvent(events.AttemptStartedData{
		AttemptID:    attempt.ID,
		TestID:       attempt.TestID,
		BatteryID:    attempt.BatteryID,
		AssignmentID: attempt.AssignmentID,
		UserID:       attempt.UserID,
		StartedAt:    attempt.StartedAt,
		DurationSec:  attempt.DurationSec,
	}))

	return &engine.StartAttemptResponse{AttemptID: attempt.ID}, nil
}

// resolveStart checks the entitlement and returns the question list and
// the authoritative duration.
func (s *attemptService) resolveStart(ctx context.Context, req *engine.StartAttemptRequest) ([]models.Question, int, error) {
	if req.BatteryID != nil {
		ok, err := s.catalog.CanAccessBattery(ctx, req.UserID, *req.BatteryID)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			return nil, 0, ErrNoEntitlement
		}
		battery, err := s.catalog.GetBattery(ctx, *req.BatteryID)
		if err != nil {
			return nil, 0, err
		}
		member := false
		for _, m := range battery.Members {
			if m.TestID == req.TestID {
				member = true
				break
			}
		}
		if !member {
			return nil, 0, ErrNotBatteryTest
		}
		return engine.BatteryQuestions(battery), battery.DurationSec(), nil
	}

	ok, err := s.catalog.CanAccessTest(ctx, req.UserID, req.TestID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, ErrNoEntitlement
	}
	test, err := s.catalog.GetTest(ctx, req.TestID)
	if err != nil {
		return nil, 0, err
	}
	return engine.OrderQuestions(test.Questions), test.DurationSec, nil
}

func (s *attemptService) SaveAnswer(ctx context.Context, req *engine.SaveAnswerRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		attempt, err := s.lockAttempt(ctx, tx, req.AttemptID)
		if err != nil {
			return err
		}
		if attempt.UserID != req.UserID {
			return NewPermissionError(req.UserID, req.AttemptID, "attempt", "answer", "not owned by user")
		}
		if attempt.Status.IsTerminal() {
			return ErrAttemptNotActive
		}
		if s.pastGrace(attempt) {
			return ErrAttemptTimeExpired
		}

		question, err := s.findQuestion(ctx, attempt, req.QuestionID)
		if err != nil {
			return err
		}
		for _, id := range req.SelectedOptionIDs {
			if !question.HasOption(id) {
				return fmt.Errorf("option %d: %w", id, ErrOptionNotOwned)
			}
		}

		answer := &models.Answer{
			AttemptID:    req.AttemptID,
			QuestionID:   req.QuestionID,
			TimeSpentSec: req.TimeSpentIncrementSec,
		}
		answer.SetSelectedIDs(req.SelectedOptionIDs)
		if err := s.repo.Answer().Upsert(ctx, tx, answer); err != nil {
			return fmt.Errorf("failed to save answer: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Answer not saved",
			"attempt_id", req.AttemptID,
			"question_id", req.QuestionID,
			"error", err)
		return err
	}

	s.invalidate(ctx, req.AttemptID)
	s.logger.Debug("Answer saved",
		"attempt_id", req.AttemptID,
		"question_id", req.QuestionID,
		"selected", len(req.SelectedOptionIDs),
		"time_spent_increment_sec", req.TimeSpentIncrementSec)
	return nil
}

func (s *attemptService) Submit(ctx context.Context, req *engine.SubmitAttemptRequest, userID string) (attempt *models.TestAttempt, err error) {
	op := s.ops.Begin(ctx, "submit_attempt", userID, req.AttemptID)
	defer func() { op.End(0, err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.finalize(ctx, req.AttemptID, req.Reason, req.FinalTimeSpentSec, &userID)
}

func (s *attemptService) HandleTimeout(ctx context.Context, attemptID uint) (*models.TestAttempt, error) {
	return s.finalize(ctx, attemptID, engine.ReasonTimeout, -1, nil)
}

// finalize moves an in-progress attempt to its terminal state and stores the
// authoritative score. owner is nil for server-initiated expiry; a negative
// timeSpent means the full duration.
func (s *attemptService) finalize(ctx context.Context, attemptID uint, reason engine.Reason, timeSpent int, owner *string) (*models.TestAttempt, error) {
	var (
		attempt  *models.TestAttempt
		finished bool
	)

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		attempt, err = s.lockAttempt(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if owner != nil && attempt.UserID != *owner {
			return NewPermissionError(*owner, attemptID, "attempt", "submit", "not owned by user")
		}
		if attempt.Status.IsTerminal() {
			return nil
		}

		questions, err := s.catalog.AttemptQuestions(ctx, attempt)
		if err != nil {
			return err
		}
		answers, err := s.repo.Answer().GetByAttempt(ctx, tx, attemptID)
		if err != nil {
			return fmt.Errorf("failed to get answers: %w", err)
		}
		summary := scoring.EvaluateAll(questions, scoring.AnswersByQuestion(answers))

		status := models.AttemptSubmitted
		if reason == engine.ReasonTimeout || s.pastGrace(attempt) {
			status = models.AttemptExpired
		}
		if timeSpent < 0 {
			timeSpent = attempt.DurationSec
		}
		if attempt.DurationSec > 0 && timeSpent > attempt.DurationSec {
			timeSpent = attempt.DurationSec
		}

		now := s.now().UTC()
		attempt.Status = status
		attempt.SubmittedAt = &now
		attempt.TimeSpentSec = timeSpent
		attempt.QuestionCount = summary.QuestionCount
		attempt.CorrectCount = summary.CorrectCount
		attempt.TotalPoints = summary.TotalPoints
		attempt.AwardedPoints = summary.AwardedPoints
		attempt.Percentage = summary.Percentage

		if err := s.repo.Attempt().Update(ctx, tx, attempt); err != nil {
			return fmt.Errorf("failed to update attempt: %w", err)
		}
		finished = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !finished {
		s.logger.Info("Attempt already finalized", "attempt_id", attemptID, "status", attempt.Status)
		return attempt, nil
	}

	s.invalidate(ctx, attemptID)
	s.logger.Info("Attempt finalized",
		"attempt_id", attemptID,
		"status", attempt.Status,
		"correct_count", attempt.CorrectCount,
		"question_count", attempt.QuestionCount,
		"percentage", attempt.Percentage)

	eventReason := string(reason)
	if attempt.Status == models.AttemptExpired {
		eventReason = string(engine.ReasonTimeout)
	}
	s.publish(ctx, events.NewAttemptFinishedEvent(events.AttemptFinishedData{
		AttemptID:     attempt.ID,
		TestID:        attempt.TestID,
		BatteryID:     attempt.BatteryID,
		UserID:        attempt.UserID,
		Reason:        eventReason,
		SubmittedAt:   *attempt.SubmittedAt,
		TimeSpentSec:  attempt.TimeSpentSec,
		CorrectCount:  attempt.CorrectCount,
		QuestionCount: attempt.QuestionCount,
		AwardedPoints: attempt.AwardedPoints,
		TotalPoints:   attempt.TotalPoints,
		Percentage:    attempt.Percentage,
	}))
	return attempt, nil
}

// ===== QUERIES =====

func (s *attemptService) GetByID(ctx context.Context, attemptID uint, userID string) (*models.TestAttempt, error) {
	attempt, err := s.loadAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, NewPermissionError(userID, attemptID, "attempt", "read", "not owned by user")
	}
	return attempt, nil
}

func (s *attemptService) ListByUser(ctx context.Context, userID string, filters repositories.AttemptFilters) ([]*models.TestAttempt, int64, error) {
	attempts, total, err := s.repo.Attempt().ListByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, total, nil
}

// loadAttempt reads through the cache.
func (s *attemptService) loadAttempt(ctx context.Context, attemptID uint) (*models.TestAttempt, error) {
	key := cache.AttemptKey(attemptID)
	if s.cache != nil {
		var cached models.TestAttempt
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Cache read failed", "key", key, "error", err)
		}
	}

	attempt, err := s.repo.Attempt().GetByIDWithAnswers(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, attempt, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("Cache write failed", "key", key, "error", err)
		}
	}
	return attempt, nil
}

// ===== HELPERS =====

func (s *attemptService) lockAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.TestAttempt, error) {
	attempt, err := s.repo.Attempt().GetByIDForUpdate(ctx, tx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return attempt, nil
}

func (s *attemptService) findQuestion(ctx context.Context, attempt *models.TestAttempt, questionID uint) (*models.Question, error) {
	questions, err := s.catalog.AttemptQuestions(ctx, attempt)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		if questions[i].ID == questionID {
			return &questions[i], nil
		}
	}
	return nil, fmt.Errorf("question %d: %w", questionID, ErrQuestionNotInTest)
}

// pastGrace reports whether a timed attempt is beyond deadline plus grace.
func (s *attemptService) pastGrace(attempt *models.TestAttempt) bool {
	if attempt.DurationSec <= 0 {
		return false
	}
	return s.now().After(attempt.Deadline().Add(s.cfg.ExpiryGrace))
}

func (s *attemptService) invalidate(ctx context.Context, attemptID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.AttemptKey(attemptID)); err != nil {
		s.logger.Warn("Cache invalidation failed", "attempt_id", attemptID, "error", err)
	}
}

// publish never fails the caller: the attempt row is the source of truth.
func (s *attemptService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt event",
			"event_type", event.Type,
			"key", event.Key,
			"error", err)
	}
}
