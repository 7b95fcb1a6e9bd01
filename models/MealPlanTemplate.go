package models

import (
	"gorm.io/gorm"
)

// MealPlanTemplate is a reusable, weekday-relative meal pattern.
type MealPlanTemplate struct {
	gorm.Model
	PractitionerID uint                   `gorm:"index;not null" json:"practitioner_id"`
	Name           string                 `gorm:"not null" json:"name"`
	Description    string                 `gorm:"type:text" json:"description"`
	TargetDosha    string                 `json:"target_dosha"`
	Items          []MealPlanTemplateItem `gorm:"foreignKey:TemplateID" json:"items"`
}

type MealPlanTemplateItem struct {
	gorm.Model
	TemplateID    uint    `gorm:"index;not null" json:"template_id"`
	DayOfWeek     int     `gorm:"not null" json:"day_of_week"` // 0 = Monday
	MealType      string  `gorm:"type:varchar(16);not null" json:"meal_type"`
	FoodID        uint    `gorm:"not null" json:"food_id"`
	QuantityGrams float64 `gorm:"not null;default:100" json:"quantity_grams"`
	SortOrder     int     `gorm:"not null;default:0" json:"sort_order"`

	Food *Food `gorm:"foreignKey:FoodID" json:"food,omitempty"`
}
