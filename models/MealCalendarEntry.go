package models

import (
	"gorm.io/gorm"
)

// MealCalendarEntry places a food on a practitioner's weekly calendar. A nil PatientID
// denotes the practitioner's personal plan.
type MealCalendarEntry struct {
	gorm.Model
	PractitionerID uint    `gorm:"index:idx_calendar_owner_date;not null" json:"practitioner_id"`
	PatientID      *uint   `gorm:"index:idx_calendar_owner_date" json:"patient_id"`
	EntryDate      string  `gorm:"type:varchar(10);index:idx_calendar_owner_date;not null" json:"entry_date"`
	MealType       string  `gorm:"type:varchar(16);not null" json:"meal_type"`
	FoodID         uint    `gorm:"not null" json:"food_id"`
	QuantityGrams  float64 `gorm:"not null;default:100" json:"quantity_grams"`
	SortOrder      int     `gorm:"not null;default:0" json:"sort_order"`

	Food *Food `gorm:"foreignKey:FoodID" json:"food,omitempty"`
}
