package postgres

import (
	"context"
	"time"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/SAP-F-2025/assessment-delivery/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultPageSize = 20

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error {
	return conn(ctx, a.db, tx).Create(attempt).Error
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	if err := conn(ctx, a.db, tx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	if err := conn(ctx, a.db, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	if err := conn(ctx, a.db, tx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("question_id ASC") }).
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) Update(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error {
	return conn(ctx, a.db, tx).Omit("Answers").Save(attempt).Error
}

func (a *AttemptPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.AttemptFilters) ([]*models.TestAttempt, int64, error) {
	var attempts []*models.TestAttempt
	var total int64

	query := conn(ctx, a.db, tx).Model(&models.TestAttempt{}).Where("user_id = ?", userID)
	query = applyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyAttemptPagination(query, filters)
	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a *AttemptPostgreSQL) GetOverdue(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]*models.TestAttempt, error) {
	var attempts []*models.TestAttempt
	query := conn(ctx, a.db, tx).
		Where("status = ?", models.AttemptInProgress).
		Where("duration_sec > 0").
		Where("started_at + duration_sec * interval '1 second' < ?", cutoff).
		Order("started_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func applyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.TestID != nil {
		query = query.Where("test_id = ?", *filters.TestID)
	}
	if filters.BatteryID != nil {
		query = query.Where("battery_id = ?", *filters.BatteryID)
	}
	return query
}

func applyAttemptPagination(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	order := "started_at DESC"
	if filters.SortOrder == "asc" {
		order = "started_at ASC"
	}
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	return query.Order(order).Limit(limit).Offset(filters.Offset)
}
