package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"gorm.io/gorm"
)

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	TestID    *uint                 `json:"test_id"`
	BatteryID *uint                 `json:"battery_id"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortOrder string                `json:"sort_order"` // "asc", "desc" on started_at
}

type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestAttempt, error)
	// GetByIDForUpdate locks the row until tx ends. Requires a transaction.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.TestAttempt, error)
	GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.TestAttempt, error)
	Update(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error

	ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters AttemptFilters) ([]*models.TestAttempt, int64, error)

	// GetOverdue returns timed in-progress attempts whose deadline is before
	// cutoff, oldest first.
	GetOverdue(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]*models.TestAttempt, error)
}

type AnswerRepository interface {
	// Upsert replaces the selection for (attempt, question) and adds
	// TimeSpentSec to the stored total.
	Upsert(ctx context.Context, tx *gorm.DB, answer *models.Answer) error
	GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.Answer, error)
}
