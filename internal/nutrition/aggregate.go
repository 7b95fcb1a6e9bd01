// Package nutrition derives nutrient, dosha and property summaries from food records.
package nutrition

import (
	"math"

	"ahara/models"
)

// Portion is a quantity of a food. A nil Food marks an unresolved reference.
type Portion struct {
	Food          *models.Food
	QuantityGrams float64
}

// Totals holds macro nutrient sums.
type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Aggregate scales each food's per-100g values by quantity/100 and sums them.
// Unresolved foods and missing nutrient values contribute zero.
func Aggregate(portions []Portion) Totals {
	var totals Totals
	for _, portion := range portions {
		totals = totals.Add(PortionTotals(portion))
	}
	return totals
}

// PortionTotals returns the contribution of a single portion.
func PortionTotals(portion Portion) Totals {
	if portion.Food == nil {
		return Totals{}
	}
	multiplier := portion.QuantityGrams / 100
	food := portion.Food
	return Totals{
		Calories: multiplier * food.CaloriesPer100g,
		Protein:  multiplier * valueOrZero(food.ProteinG),
		Carbs:    multiplier * valueOrZero(food.CarbsG),
		Fat:      multiplier * valueOrZero(food.FatG),
		Fiber:    multiplier * valueOrZero(food.FiberG),
	}
}

// Add returns the field-wise sum of t and other.
func (t Totals) Add(other Totals) Totals {
	return Totals{
		Calories: t.Calories + other.Calories,
		Protein:  t.Protein + other.Protein,
		Carbs:    t.Carbs + other.Carbs,
		Fat:      t.Fat + other.Fat,
		Fiber:    t.Fiber + other.Fiber,
	}
}

// Scale multiplies every field by factor.
func (t Totals) Scale(factor float64) Totals {
	return Totals{
		Calories: t.Calories * factor,
		Protein:  t.Protein * factor,
		Carbs:    t.Carbs * factor,
		Fat:      t.Fat * factor,
		Fiber:    t.Fiber * factor,
	}
}

// Round rounds every field to the given number of decimal places.
func (t Totals) Round(places int) Totals {
	return Totals{
		Calories: RoundTo(t.Calories, places),
		Protein:  RoundTo(t.Protein, places),
		Carbs:    RoundTo(t.Carbs, places),
		Fat:      RoundTo(t.Fat, places),
		Fiber:    RoundTo(t.Fiber, places),
	}
}

// RoundTo rounds value to places decimal places.
func RoundTo(value float64, places int) float64 {
	if places < 0 {
		places = 0
	}
	pow := math.Pow(10, float64(places))
	return math.Round(value*pow) / pow
}

func valueOrZero(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}
