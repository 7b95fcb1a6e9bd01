package models

import (
	"strings"

	"gorm.io/gorm"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

const (
	HabitVegetarian    = "vegetarian"
	HabitNonVegetarian = "non_vegetarian"
	HabitVegan         = "vegan"
	HabitEggetarian    = "eggetarian"
)

// Patient is a client of a practitioner.
type Patient struct {
	gorm.Model
	PractitionerID       uint        `gorm:"index;not null" json:"practitioner_id"`
	FullName             string      `gorm:"not null" json:"full_name"`
	Age                  int         `gorm:"not null" json:"age"`
	Gender               string      `gorm:"type:varchar(16);not null" json:"gender"`
	ContactNumber        string      `json:"contact_number"`
	Email                string      `json:"email"`
	DietaryHabit         string      `gorm:"type:varchar(32);not null;default:vegetarian" json:"dietary_habit"`
	MealFrequency        int         `gorm:"not null;default:3" json:"meal_frequency"`
	WaterIntakeLiters    float64     `gorm:"not null;default:2" json:"water_intake_liters"`
	BowelMovementsPerDay int         `gorm:"not null;default:1" json:"bowel_movements_per_day"`
	MedicalHistory       string      `gorm:"type:text" json:"medical_history"`
	Allergies            string      `gorm:"type:text" json:"allergies"`
	CurrentMedications   string      `gorm:"type:text" json:"current_medications"`
	HeightCm             *float64    `json:"height_cm"`
	WeightKg             *float64    `json:"weight_kg"`
	AssessedDosha        string      `json:"assessed_dosha"`
	DietCharts           []DietChart `gorm:"foreignKey:PatientID" json:"-"`
}

// ValidGender reports whether value is an accepted gender tag.
func ValidGender(value string) bool {
	return contains([]string{GenderMale, GenderFemale, GenderOther}, value)
}

// ValidDietaryHabit reports whether value is an accepted dietary habit.
func ValidDietaryHabit(value string) bool {
	return contains([]string{HabitVegetarian, HabitNonVegetarian, HabitVegan, HabitEggetarian}, value)
}

// NormalizeDietaryHabit falls back to vegetarian for blank input.
func NormalizeDietaryHabit(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return HabitVegetarian
	}
	return value
}

// BMI returns the body mass index when both height and weight are known.
func (p Patient) BMI() (float64, bool) {
	if p.HeightCm == nil || p.WeightKg == nil || *p.HeightCm <= 0 || *p.WeightKg <= 0 {
		return 0, false
	}
	meters := *p.HeightCm / 100
	return *p.WeightKg / (meters * meters), true
}
