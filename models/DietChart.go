package models

import (
	"gorm.io/gorm"
)

// DietChart is a dated meal prescription for a patient. TotalCalories is a snapshot taken
// when the chart is created or explicitly recalculated.
type DietChart struct {
	gorm.Model
	PatientID      uint            `gorm:"index;not null" json:"patient_id"`
	PractitionerID uint            `gorm:"index;not null" json:"practitioner_id"`
	ChartDate      string          `gorm:"type:varchar(10);not null" json:"chart_date"`
	Title          string          `gorm:"not null" json:"title"`
	Notes          string          `gorm:"type:text" json:"notes"`
	TotalCalories  *float64        `json:"total_calories"`
	Items          []DietChartItem `gorm:"foreignKey:DietChartID" json:"items"`
}
