package pages

import (
	"fmt"
	"strings"

	"ahara/internal/nutrition"
)

// DietChartItem is one printable row of a chart.
type DietChartItem struct {
	FoodName     string
	Quantity     float64
	Calories     float64
	MealTime     string
	Instructions string
}

// DietChartMeal groups the rows of one meal type.
type DietChartMeal struct {
	MealType string
	Items    []DietChartItem
	Calories float64
}

// DietChartView carries everything the printable chart shows.
type DietChartView struct {
	Title        string
	ChartDate    string
	PatientName  string
	Practitioner string
	Dosha        string
	Notes        string
	Meals        []DietChartMeal
	Totals       nutrition.Totals
}

func formatAmount(value float64) string {
	return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.1f", value), "0"), ".")
}

type totalRow struct {
	Label string
	Value float64
	Unit  string
}

func totalRows(totals nutrition.Totals) []totalRow {
	totals = totals.Round(1)
	return []totalRow{
		{Label: "Calories", Value: totals.Calories, Unit: "kcal"},
		{Label: "Protein", Value: totals.Protein, Unit: "g"},
		{Label: "Carbohydrates", Value: totals.Carbs, Unit: "g"},
		{Label: "Fat", Value: totals.Fat, Unit: "g"},
		{Label: "Fiber", Value: totals.Fiber, Unit: "g"},
	}
}
