package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	applog "ahara/internal/log"
	"ahara/internal/nutrition"
	"ahara/internal/views/pages"
	"ahara/models"
)

var nowFunc = time.Now

const dietChartSheet = "Diet Chart"

var dietChartColumns = []string{"Meal", "Food", "Quantity (g)", "Calories", "Protein (g)", "Carbs (g)", "Fat (g)", "Fiber (g)", "Time", "Instructions"}

// PrintDietChart renders a printable diet chart document.
func PrintDietChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	session, ok := sessionFromContext(r.Context())
	if !ok {
		redirectToLogin(w, r)
		return
	}

	segments := resourcePath(r, "/app/diet-charts")
	if len(segments) != 2 || segments[1] != "print" {
		http.NotFound(w, r)
		return
	}
	chartID, ok := parseID(segments[0])
	if !ok {
		http.NotFound(w, r)
		return
	}

	view, err := buildDietChartReport(r.Context(), session, chartID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrInvalidDB):
			http.Error(w, "Printing is unavailable because no database connection is configured.", http.StatusServiceUnavailable)
		case errors.Is(err, errChartNotFound):
			http.Error(w, "The selected diet chart no longer exists.", http.StatusNotFound)
		default:
			applog.Error(r.Context(), "failed to build diet chart report", "error", err, "chartID", chartID)
			http.Error(w, "We were unable to prepare the diet chart. Please try again.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.DietChartDocument(view).Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render diet chart document", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func buildDietChartReport(ctx context.Context, session Session, chartID uint) (pages.DietChartView, error) {
	chart, patient, err := loadDietChart(ctx, session, chartID)
	if err != nil {
		return pages.DietChartView{}, err
	}

	view := pages.DietChartView{
		Title:        chart.Title,
		ChartDate:    chart.ChartDate,
		PatientName:  patient.FullName,
		Practitioner: session.Name,
		Dosha:        patient.AssessedDosha,
		Notes:        chart.Notes,
		Totals:       nutrition.Aggregate(chartPortions(chart.Items)),
	}
	for _, meal := range groupChartItems(chart.Items) {
		group := pages.DietChartMeal{MealType: meal.MealType}
		for _, item := range meal.Items {
			kcal := itemCalories(item)
			group.Calories += kcal
			group.Items = append(group.Items, pages.DietChartItem{
				FoodName:     foodName(item.Food),
				Quantity:     item.QuantityGrams,
				Calories:     kcal,
				MealTime:     item.MealTime,
				Instructions: item.SpecialInstructions,
			})
		}
		view.Meals = append(view.Meals, group)
	}
	return view, nil
}

func foodName(food *models.Food) string {
	if food == nil {
		return "Unknown food"
	}
	return food.Name
}

func exportDietChart(w http.ResponseWriter, r *http.Request, session Session, chartID uint) {
	chart, _, err := loadDietChart(r.Context(), session, chartID)
	if err != nil {
		respondChartLookupError(w, r, chartID, err)
		return
	}

	data, err := generateDietChartWorkbook(*chart)
	if err != nil {
		applog.Error(r.Context(), "failed to generate diet chart workbook", "error", err, "chartID", chartID)
		writeJSONError(w, http.StatusInternalServerError, "unable to export diet chart")
		return
	}

	filename := fmt.Sprintf("diet-chart-%d-%s.xlsx", chart.ID, chart.ChartDate)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		applog.Error(r.Context(), "failed to write diet chart workbook", "error", err)
	}
}

// generateDietChartWorkbook writes one row per chart item followed by a totals row.
func generateDietChartWorkbook(chart models.DietChart) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(dietChartSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#EFE6D2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := setRow(f, 1, toAny(dietChartColumns)); err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(dietChartColumns), 1)
	if err := f.SetCellStyle(dietChartSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("set header style: %w", err)
	}

	row := 2
	for _, meal := range groupChartItems(chart.Items) {
		for _, item := range meal.Items {
			totals := nutrition.PortionTotals(nutrition.Portion{Food: item.Food, QuantityGrams: item.QuantityGrams}).Round(1)
			values := []any{
				titleCase(meal.MealType),
				foodName(item.Food),
				item.QuantityGrams,
				totals.Calories,
				totals.Protein,
				totals.Carbs,
				totals.Fat,
				totals.Fiber,
				item.MealTime,
				item.SpecialInstructions,
			}
			if err := setRow(f, row, values); err != nil {
				return nil, err
			}
			row++
		}
	}

	totals := nutrition.Aggregate(chartPortions(chart.Items)).Round(1)
	if err := setRow(f, row, []any{"Total", "", "", totals.Calories, totals.Protein, totals.Carbs, totals.Fat, totals.Fiber}); err != nil {
		return nil, err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	lastTotal, _ := excelize.CoordinatesToCellName(len(dietChartColumns), row)
	if err := f.SetCellStyle(dietChartSheet, first, lastTotal, headerStyle); err != nil {
		return nil, fmt.Errorf("set totals style: %w", err)
	}

	if err := f.SetColWidth(dietChartSheet, "A", "B", 24); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(dietChartSheet, "J", "J", 40); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetPanes(dietChartSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(dietChartSheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func titleCase(value string) string {
	if value == "" {
		return value
	}
	value = strings.ReplaceAll(value, "_", " ")
	return strings.ToUpper(value[:1]) + value[1:]
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
