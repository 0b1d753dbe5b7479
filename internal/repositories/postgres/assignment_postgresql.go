package postgres

import (
	"context"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/SAP-F-2025/assessment-delivery/internal/repositories"
	"gorm.io/gorm"
)

type AssignmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssignmentPostgreSQL(db *gorm.DB) repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{db: db}
}

func (a *AssignmentPostgreSQL) ListForUser(ctx context.Context, tx *gorm.DB, userID string, companyID *uint, groupIDs []uint) ([]*models.Assignment, error) {
	db := conn(ctx, a.db, tx)

	target := db.Where("user_id = ?", userID)
	if len(groupIDs) > 0 {
		target = target.Or("group_id IN ?", groupIDs)
	}
	if companyID != nil {
		target = target.Or("company_id = ?", *companyID)
	}

	var assignments []*models.Assignment
	if err := db.Where(target).Order("id ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, u.db, tx).
		Preload("Groups").
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
