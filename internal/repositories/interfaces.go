package repositories

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"gorm.io/gorm"
)

// Repository groups the per-entity repositories. Every method takes an
// optional tx; nil means the default connection.
type Repository interface {
	Attempt() AttemptRepository
	Answer() AnswerRepository
	Test() TestRepository
	Battery() BatteryRepository
	Assignment() AssignmentRepository
	User() UserRepository

	// WithTransaction runs fn in a database transaction and commits when it
	// returns nil.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type TestRepository interface {
	// GetByID loads the test with its questions ordered by question_no and
	// their options ordered by position.
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Test, error)
}

type BatteryRepository interface {
	// GetByID loads members in position order with their tests and questions.
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Battery, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Battery, error)
}

type AssignmentRepository interface {
	// ListForUser returns assignments targeting the user directly, one of
	// groupIDs, or companyID.
	ListForUser(ctx context.Context, tx *gorm.DB, userID string, companyID *uint, groupIDs []uint) ([]*models.Assignment, error)
}

// UserRepository is read-only: users are owned by the identity provider.
type UserRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
}

// IsNotFoundError reports whether err means the row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
