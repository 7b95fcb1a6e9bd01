package models

import (
	"strings"

	"gorm.io/gorm"
)

// ChartMealTypes lists the meal tags a diet chart item may carry, in serving order.
var ChartMealTypes = []string{"breakfast", "mid_morning", "lunch", "evening", "dinner", "snacks"}

// NormalizeChartMealType lower-cases value and reports whether it is a known chart meal tag.
func NormalizeChartMealType(value string) (string, bool) {
	tag := strings.ToLower(strings.TrimSpace(value))
	for _, known := range ChartMealTypes {
		if tag == known {
			return tag, true
		}
	}
	return "", false
}

type DietChartItem struct {
	gorm.Model
	DietChartID         uint    `gorm:"index;not null" json:"diet_chart_id"`
	FoodID              uint    `gorm:"not null" json:"food_id"`
	MealType            string  `gorm:"type:varchar(32);not null" json:"meal_type"`
	QuantityGrams       float64 `gorm:"not null;default:100" json:"quantity_grams"`
	MealTime            string  `json:"meal_time"`
	SpecialInstructions string  `gorm:"type:text" json:"special_instructions"`
	SortOrder           int     `gorm:"not null;default:0" json:"sort_order"`

	Food *Food `gorm:"foreignKey:FoodID" json:"food,omitempty"`
}
