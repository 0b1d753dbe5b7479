package postgres

import (
	"context"

	"github.com/SAP-F-2025/assessment-delivery/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB

	attempt    repositories.AttemptRepository
	answer     repositories.AnswerRepository
	test       repositories.TestRepository
	battery    repositories.BatteryRepository
	assignment repositories.AssignmentRepository
	user       repositories.UserRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:         db,
		attempt:    NewAttemptPostgreSQL(db),
		answer:     NewAnswerPostgreSQL(db),
		test:       NewTestPostgreSQL(db),
		battery:    NewBatteryPostgreSQL(db),
		assignment: NewAssignmentPostgreSQL(db),
		user:       NewUserPostgreSQL(db),
	}
}

func (r *repository) Attempt() repositories.AttemptRepository       { return r.attempt }
func (r *repository) Answer() repositories.AnswerRepository         { return r.answer }
func (r *repository) Test() repositories.TestRepository             { return r.test }
func (r *repository) Battery() repositories.BatteryRepository       { return r.battery }
func (r *repository) Assignment() repositories.AssignmentRepository { return r.assignment }
func (r *repository) User() repositories.UserRepository             { return r.user }

func (r *repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// conn returns tx when set, otherwise the default connection.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
