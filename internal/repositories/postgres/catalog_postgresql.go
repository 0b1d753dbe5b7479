package postgres

import (
	"context"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/SAP-F-2025/assessment-delivery/internal/repositories"
	"gorm.io/gorm"
)

func orderQuestions(db *gorm.DB) *gorm.DB { return db.Order("question_no ASC, id ASC") }
func orderOptions(db *gorm.DB) *gorm.DB   { return db.Order("position ASC, id ASC") }

type TestPostgreSQL struct {
	db *gorm.DB
}

func NewTestPostgreSQL(db *gorm.DB) repositories.TestRepository {
	return &TestPostgreSQL{db: db}
}

func (t *TestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	var test models.Test
	if err := conn(ctx, t.db, tx).
		Preload("Questions", orderQuestions).
		Preload("Questions.Options", orderOptions).
		First(&test, id).Error; err != nil {
		return nil, err
	}
	fillTestTotals(&test)
	return &test, nil
}

func (t *TestPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Test, error) {
	var tests []*models.Test
	if len(ids) == 0 {
		return tests, nil
	}
	if err := conn(ctx, t.db, tx).
		Where("id IN ?", ids).
		Order("title ASC").
		Find(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

type BatteryPostgreSQL struct {
	db *gorm.DB
}

func NewBatteryPostgreSQL(db *gorm.DB) repositories.BatteryRepository {
	return &BatteryPostgreSQL{db: db}
}

func (b *BatteryPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Battery, error) {
	var battery models.Battery
	if err := conn(ctx, b.db, tx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Members.Test").
		Preload("Members.Test.Questions", orderQuestions).
		Preload("Members.Test.Questions.Options", orderOptions).
		First(&battery, id).Error; err != nil {
		return nil, err
	}
	for i := range battery.Members {
		fillTestTotals(&battery.Members[i].Test)
	}
	return &battery, nil
}

func (b *BatteryPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Battery, error) {
	var batteries []*models.Battery
	if len(ids) == 0 {
		return batteries, nil
	}
	if err := conn(ctx, b.db, tx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id IN ?", ids).
		Order("name ASC").
		Find(&batteries).Error; err != nil {
		return nil, err
	}
	return batteries, nil
}

func fillTestTotals(test *models.Test) {
	test.QuestionsCount = len(test.Questions)
	test.TotalPoints = 0
	for _, q := range test.Questions {
		test.TotalPoints += q.Points
	}
}
