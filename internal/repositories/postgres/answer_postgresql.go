package postgres

import (
	"context"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/SAP-F-2025/assessment-delivery/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a *AnswerPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	return conn(ctx, a.db, tx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"selected_option_ids": gorm.Expr("EXCLUDED.selected_option_ids"),
			"time_spent_sec":      gorm.Expr("answers.time_spent_sec + EXCLUDED.time_spent_sec"),
			"updated_at":          gorm.Expr("EXCLUDED.updated_at"),
		}),
	}).Create(answer).Error
}

func (a *AnswerPostgreSQL) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := conn(ctx, a.db, tx).
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}
