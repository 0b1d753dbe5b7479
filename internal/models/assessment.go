package models

import (
	"time"

	"gorm.io/gorm"
)

// BatteryWeightTotal is the sum battery member weights must reach when authored.
const BatteryWeightTotal = 100

type Test struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	DurationSec int     `json:"duration_sec" gorm:"not null" validate:"required,min=1"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:TestID"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
	TotalPoints    int `json:"total_points" gorm:"-"`
}

func (Test) TableName() string {
	return "tests"
}

// Battery is a weighted bundle of tests presented as a single assessment.
type Battery struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Members []BatteryTest `json:"members,omitempty" gorm:"foreignKey:BatteryID"`
}

func (Battery) TableName() string {
	return "batteries"
}

type BatteryTest struct {
	BatteryID uint `json:"battery_id" gorm:"primaryKey"`
	TestID    uint `json:"test_id" gorm:"primaryKey"`
	Position  int  `json:"position" gorm:"not null;default:0"`
	Weight    int  `json:"weight" gorm:"not null" validate:"min=0,max=100"`

	Test Test `json:"test" gorm:"foreignKey:TestID"`
}

func (BatteryTest) TableName() string {
	return "battery_tests"
}

// ValidateWeights checks the authoring rule that member weights sum to 100.
func (b *Battery) ValidateWeights() error {
	total := 0
	for _, m := range b.Members {
		total += m.Weight
	}
	if total != BatteryWeightTotal {
		return &WeightSumError{BatteryID: b.ID, Total: total}
	}
	return nil
}

// DurationSec is the sum of the member tests' durations.
func (b *Battery) DurationSec() int {
	total := 0
	for _, m := range b.Members {
		total += m.Test.DurationSec
	}
	return total
}
