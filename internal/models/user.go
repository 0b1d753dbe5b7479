package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        string `json:"id" gorm:"primaryKey;size:255"`
	FullName  string `json:"full_name" gorm:"not null;size:100"`
	Email     string `json:"email" gorm:"uniqueIndex;not null;size:255"`
	CompanyID *uint  `json:"company_id" gorm:"index"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Groups []Group `json:"groups,omitempty" gorm:"many2many:user_groups;"`
}

func (User) TableName() string {
	return "users"
}

// GroupIDs returns the ids of the groups the user belongs to.
func (u *User) GroupIDs() []uint {
	ids := make([]uint, len(u.Groups))
	for i, g := range u.Groups {
		ids[i] = g.ID
	}
	return ids
}

type Group struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	CompanyID uint   `json:"company_id" gorm:"not null;index"`
	Name      string `json:"name" gorm:"not null;size:100"`
}

func (Group) TableName() string {
	return "groups"
}

// Assignment grants a test or a battery to a company, a group or a single user.
// Exactly one of TestID/BatteryID is set.
type Assignment struct {
	ID        uint  `json:"id" gorm:"primaryKey"`
	TestID    *uint `json:"test_id" gorm:"index"`
	BatteryID *uint `json:"battery_id" gorm:"index"`

	CompanyID *uint   `json:"company_id" gorm:"index"`
	GroupID   *uint   `json:"group_id" gorm:"index"`
	UserID    *string `json:"user_id" gorm:"index;size:255"`

	AvailableFrom  *time.Time `json:"available_from"`
	AvailableUntil *time.Time `json:"available_until"`

	CreatedAt time.Time `json:"created_at"`
}

func (Assignment) TableName() string {
	return "assignments"
}

// IsOpen reports whether the assignment window contains now.
func (a *Assignment) IsOpen(now time.Time) bool {
	if a.AvailableFrom != nil && now.Before(*a.AvailableFrom) {
		return false
	}
	if a.AvailableUntil != nil && now.After(*a.AvailableUntil) {
		return false
	}
	return true
}
