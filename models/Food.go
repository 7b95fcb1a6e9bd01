package models

import (
	"strings"

	"gorm.io/gorm"
)

// Rasa taste tags.
const (
	TasteSweet      = "sweet"
	TasteSour       = "sour"
	TasteSalty      = "salty"
	TasteBitter     = "bitter"
	TastePungent    = "pungent"
	TasteAstringent = "astringent"
)

// Virya (temperature) tags.
const (
	TemperatureHot     = "hot"
	TemperatureCold    = "cold"
	TemperatureNeutral = "neutral"
)

// Digestibility tags.
const (
	DigestibilityEasy      = "easy"
	DigestibilityModerate  = "moderate"
	DigestibilityDifficult = "difficult"
)

var (
	tastes          = []string{TasteSweet, TasteSour, TasteSalty, TasteBitter, TastePungent, TasteAstringent}
	temperatures    = []string{TemperatureHot, TemperatureCold, TemperatureNeutral}
	digestibilities = []string{DigestibilityEasy, DigestibilityModerate, DigestibilityDifficult}
)

// Food is a catalogue entry with per-100g nutrient values and Ayurvedic properties.
type Food struct {
	gorm.Model
	Name            string        `gorm:"uniqueIndex;not null" json:"name"`
	Category        string        `gorm:"index;not null" json:"category"`
	Description     string        `gorm:"type:text" json:"description"`
	CuisineType     string        `json:"cuisine_type"`
	PrimaryTaste    string        `gorm:"type:varchar(16);not null" json:"primary_taste"`
	SecondaryTastes []string      `gorm:"serializer:json" json:"secondary_tastes"`
	Temperature     string        `gorm:"type:varchar(16);not null;default:neutral" json:"temperature"`
	Digestibility   string        `gorm:"type:varchar(16);not null;default:moderate" json:"digestibility"`
	Vipaka          string        `json:"vipaka"`
	CaloriesPer100g float64       `gorm:"not null;default:0" json:"calories_per_100g"`
	ProteinG        *float64      `json:"protein_g"`
	CarbsG          *float64      `json:"carbs_g"`
	FatG            *float64      `json:"fat_g"`
	FiberG          *float64      `json:"fiber_g"`
	CalciumMg       *float64      `json:"calcium_mg"`
	IronMg          *float64      `json:"iron_mg"`
	VitaminAMcg     *float64      `json:"vitamin_a_mcg"`
	VitaminCMg      *float64      `json:"vitamin_c_mg"`
	DoshaEffects    *DoshaEffects `gorm:"serializer:json" json:"dosha_effects"`
	IsActive        bool          `gorm:"not null" json:"is_active"`
}

// ValidTaste reports whether value is one of the six rasa tags.
func ValidTaste(value string) bool {
	return contains(tastes, value)
}

// ValidTemperature reports whether value is a known virya tag.
func ValidTemperature(value string) bool {
	return contains(temperatures, value)
}

// ValidDigestibility reports whether value is a known digestibility tag.
func ValidDigestibility(value string) bool {
	return contains(digestibilities, value)
}

// Tastes returns the rasa tags in canonical order.
func Tastes() []string {
	return append([]string(nil), tastes...)
}

func contains(values []string, value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}
