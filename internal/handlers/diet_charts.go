package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ahara/internal/calendar"
	applog "ahara/internal/log"
	"ahara/internal/nutrition"
	"ahara/models"
)

var errChartNotFound = errors.New("diet chart not found")

type dietChartItemRequest struct {
	FoodID              uint    `json:"food_id"`
	MealType            string  `json:"meal_type"`
	QuantityGrams       float64 `json:"quantity_grams"`
	MealTime            string  `json:"meal_time"`
	SpecialInstructions string  `json:"special_instructions"`
}

type dietChartRequest struct {
	PatientID uint                   `json:"patient_id"`
	Title     string                 `json:"title"`
	ChartDate string                 `json:"chart_date"`
	Notes     string                 `json:"notes"`
	Items     []dietChartItemRequest `json:"items"`
}

type dietChartItemJSON struct {
	ID                  uint    `json:"id"`
	FoodID              uint    `json:"food_id"`
	FoodName            string  `json:"food_name"`
	QuantityGrams       float64 `json:"quantity_grams"`
	Calories            float64 `json:"calories"`
	MealTime            string  `json:"meal_time"`
	SpecialInstructions string  `json:"special_instructions"`
	SortOrder           int     `json:"sort_order"`
}

type dietChartMealJSON struct {
	MealType string              `json:"meal_type"`
	Items    []dietChartItemJSON `json:"items"`
	Calories float64             `json:"calories"`
}

type dietChartResponse struct {
	ID            uint                 `json:"id"`
	PatientID     uint                 `json:"patient_id"`
	PatientName   string               `json:"patient_name"`
	PatientDosha  string               `json:"patient_dosha"`
	Title         string               `json:"title"`
	ChartDate     string               `json:"chart_date"`
	Notes         string               `json:"notes"`
	TotalCalories *float64             `json:"total_calories"`
	LiveTotals    nutrition.Totals     `json:"live_totals"`
	Meals         []dietChartMealJSON  `json:"meals"`
	DoshaEffects  nutrition.DoshaTally `json:"dosha_effects"`
	Tastes        map[string]int       `json:"tastes"`
	Temperatures  map[string]int       `json:"temperatures"`
	CreatedAt     time.Time            `json:"created_at"`
}

// chartMeal is a run of chart items sharing a meal type.
type chartMeal struct {
	MealType string
	Items    []models.DietChartItem
}

// groupChartItems orders items by sort order and id, then groups them by meal type in
// order of first appearance.
func groupChartItems(items []models.DietChartItem) []chartMeal {
	ordered := append([]models.DietChartItem(nil), items...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].SortOrder != ordered[j].SortOrder {
			return ordered[i].SortOrder < ordered[j].SortOrder
		}
		return ordered[i].ID < ordered[j].ID
	})

	var meals []chartMeal
	index := map[string]int{}
	for _, item := range ordered {
		pos, ok := index[item.MealType]
		if !ok {
			pos = len(meals)
			index[item.MealType] = pos
			meals = append(meals, chartMeal{MealType: item.MealType})
		}
		meals[pos].Items = append(meals[pos].Items, item)
	}
	return meals
}

func chartPortions(items []models.DietChartItem) []nutrition.Portion {
	portions := make([]nutrition.Portion, 0, len(items))
	for _, item := range items {
		portions = append(portions, nutrition.Portion{Food: item.Food, QuantityGrams: item.QuantityGrams})
	}
	return portions
}

func chartFoods(items []models.DietChartItem) []models.Food {
	foods := make([]models.Food, 0, len(items))
	for _, item := range items {
		if item.Food != nil {
			foods = append(foods, *item.Food)
		}
	}
	return foods
}

func itemCalories(item models.DietChartItem) float64 {
	return nutrition.PortionTotals(nutrition.Portion{Food: item.Food, QuantityGrams: item.QuantityGrams}).Calories
}

func projectDietChart(chart models.DietChart, patient models.Patient) dietChartResponse {
	foods := chartFoods(chart.Items)
	profile := nutrition.FoodProfile(foods)
	resp := dietChartResponse{
		ID:            chart.ID,
		PatientID:     chart.PatientID,
		PatientName:   patient.FullName,
		PatientDosha:  patient.AssessedDosha,
		Title:         chart.Title,
		ChartDate:     chart.ChartDate,
		Notes:         chart.Notes,
		TotalCalories: chart.TotalCalories,
		LiveTotals:    nutrition.Aggregate(chartPortions(chart.Items)).Round(1),
		Meals:         []dietChartMealJSON{},
		DoshaEffects:  profile.DoshaEffects,
		Tastes:        profile.Tastes,
		Temperatures:  profile.Temperatures,
		CreatedAt:     chart.CreatedAt,
	}
	for _, meal := range groupChartItems(chart.Items) {
		group := dietChartMealJSON{MealType: meal.MealType}
		var calories float64
		for _, item := range meal.Items {
			name := ""
			if item.Food != nil {
				name = item.Food.Name
			}
			itemKcal := itemCalories(item)
			calories += itemKcal
			group.Items = append(group.Items, dietChartItemJSON{
				ID:                  item.ID,
				FoodID:              item.FoodID,
				FoodName:            name,
				QuantityGrams:       item.QuantityGrams,
				Calories:            nutrition.RoundTo(itemKcal, 1),
				MealTime:            item.MealTime,
				SpecialInstructions: item.SpecialInstructions,
				SortOrder:           item.SortOrder,
			})
		}
		group.Calories = nutrition.RoundTo(calories, 1)
		resp.Meals = append(resp.Meals, group)
	}
	return resp
}

// DietChartResource handles REST-style interactions with diet charts.
func DietChartResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "diet chart request without database")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	segments := resourcePath(r, "/app/api/diet-charts")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listDietCharts(w, r, session)
		case http.MethodPost:
			createDietChart(w, r, session)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	chartID, ok := parseID(segments[0])
	if !ok {
		applog.Debug(r.Context(), "invalid diet chart identifier", "identifier", segments[0])
		writeJSONError(w, http.StatusNotFound, "diet chart not found")
		return
	}

	if len(segments) > 1 {
		switch segments[1] {
		case "recalculate":
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			recalculateDietChart(w, r, session, chartID)
		case "export.xlsx":
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			exportDietChart(w, r, session, chartID)
		default:
			writeJSONError(w, http.StatusNotFound, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		showDietChart(w, r, session, chartID)
	case http.MethodDelete:
		deleteDietChart(w, r, session, chartID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// loadDietChart fetches a chart owned by the practitioner, with its items, foods and patient.
func loadDietChart(ctx context.Context, session Session, chartID uint) (*models.DietChart, *models.Patient, error) {
	if database == nil {
		return nil, nil, gorm.ErrInvalidDB
	}
	chart := &models.DietChart{}
	err := database.WithContext(ctx).
		Where("practitioner_id = ?", session.UserID).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc, id asc")
		}).
		Preload("Items.Food", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		First(chart, chartID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errChartNotFound
		}
		return nil, nil, err
	}

	patient := &models.Patient{}
	if err := database.WithContext(ctx).Unscoped().First(patient, chart.PatientID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	return chart, patient, nil
}

func respondChartLookupError(w http.ResponseWriter, r *http.Request, chartID uint, err error) {
	if errors.Is(err, errChartNotFound) {
		writeJSONError(w, http.StatusNotFound, "diet chart not found")
		return
	}
	applog.Error(r.Context(), "failed to load diet chart", "error", err, "chartID", chartID)
	writeJSONError(w, http.StatusInternalServerError, "unable to load diet chart")
}

func listDietCharts(w http.ResponseWriter, r *http.Request, session Session) {
	ctx := r.Context()
	query := database.WithContext(ctx).Where("practitioner_id = ?", session.UserID).Order("chart_date desc, id desc")
	if raw := r.URL.Query().Get("patient_id"); raw != "" {
		patientID, ok := parseID(raw)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "invalid patient_id")
			return
		}
		query = query.Where("patient_id = ?", patientID)
	}

	var charts []models.DietChart
	if err := query.Find(&charts).Error; err != nil {
		applog.Error(ctx, "failed to list diet charts", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load diet charts")
		return
	}
	summaries := make([]dietChartSummaryJSON, 0, len(charts))
	for _, chart := range charts {
		summaries = append(summaries, dietChartSummaryJSON{
			ID:            chart.ID,
			Title:         chart.Title,
			ChartDate:     chart.ChartDate,
			TotalCalories: chart.TotalCalories,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func listPatientDietCharts(w http.ResponseWriter, r *http.Request, session Session, patientID uint) {
	if _, err := findPatient(r, session, patientID); err != nil {
		respondPatientLookupError(w, r, patientID, err)
		return
	}
	query := r.URL.Query()
	query.Set("patient_id", fmt.Sprint(patientID))
	r.URL.RawQuery = query.Encode()
	listDietCharts(w, r, session)
}

func showDietChart(w http.ResponseWriter, r *http.Request, session Session, chartID uint) {
	chart, patient, err := loadDietChart(r.Context(), session, chartID)
	if err != nil {
		respondChartLookupError(w, r, chartID, err)
		return
	}
	writeJSON(w, http.StatusOK, projectDietChart(*chart, *patient))
}

// validate checks the request shape. Foods and the patient are resolved separately.
func (req *dietChartRequest) validate(today time.Time) string {
	req.Title = strings.TrimSpace(req.Title)
	req.ChartDate = strings.TrimSpace(req.ChartDate)
	if req.ChartDate == "" {
		req.ChartDate = calendar.DateKey(today)
	}
	if req.Title == "" {
		req.Title = "Diet chart " + req.ChartDate
	}

	switch {
	case req.PatientID == 0:
		return "patient_id is required"
	case len(req.Items) == 0:
		return "at least one item is required"
	}
	if _, err := calendar.ParseDateKey(req.ChartDate); err != nil {
		return "chart_date must be formatted as YYYY-MM-DD"
	}
	for i := range req.Items {
		item := &req.Items[i]
		if item.FoodID == 0 {
			return fmt.Sprintf("items[%d].food_id is required", i)
		}
		if item.QuantityGrams <= 0 {
			return fmt.Sprintf("items[%d].quantity_grams must be positive", i)
		}
		mealType, ok := models.NormalizeChartMealType(item.MealType)
		if !ok {
			return fmt.Sprintf("items[%d].meal_type must be one of %s", i, strings.Join(models.ChartMealTypes, ", "))
		}
		item.MealType = mealType
	}
	return ""
}

func createDietChart(w http.ResponseWriter, r *http.Request, session Session) {
	ctx := r.Context()
	var req dietChartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(nowFunc()); msg != "" {
		applog.Debug(ctx, "diet chart validation failed", "reason", msg)
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	patient, err := findPatient(r, session, req.PatientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusBadRequest, "patient not found")
			return
		}
		respondPatientLookupError(w, r, req.PatientID, err)
		return
	}

	foods, err := resolveActiveFoods(ctx, foodIDs(req.Items))
	if err != nil {
		applog.Error(ctx, "failed to resolve chart foods", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load foods")
		return
	}

	chart := models.DietChart{
		PatientID:      patient.ID,
		PractitionerID: session.UserID,
		ChartDate:      req.ChartDate,
		Title:          req.Title,
		Notes:          strings.TrimSpace(req.Notes),
	}
	portions := make([]nutrition.Portion, 0, len(req.Items))
	for i, item := range req.Items {
		food, ok := foods[item.FoodID]
		if !ok {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("items[%d] references an unknown or inactive food", i))
			return
		}
		chart.Items = append(chart.Items, models.DietChartItem{
			FoodID:              item.FoodID,
			MealType:            item.MealType,
			QuantityGrams:       item.QuantityGrams,
			MealTime:            strings.TrimSpace(item.MealTime),
			SpecialInstructions: strings.TrimSpace(item.SpecialInstructions),
			SortOrder:           i,
		})
		portions = append(portions, nutrition.Portion{Food: &food, QuantityGrams: item.QuantityGrams})
	}
	total := nutrition.Aggregate(portions).Calories
	chart.TotalCalories = &total

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&chart).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to create diet chart", "error", err, "patientID", patient.ID)
		writeJSONError(w, http.StatusInternalServerError, "unable to create diet chart")
		return
	}
	for i := range chart.Items {
		chart.Items[i].Food = portions[i].Food
	}
	invalidateDashboard(r, session.UserID)
	applog.Debug(ctx, "diet chart created", "chartID", chart.ID, "items", len(chart.Items))
	writeJSON(w, http.StatusCreated, projectDietChart(chart, *patient))
}

func foodIDs(items []dietChartItemRequest) []uint {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.FoodID)
	}
	return ids
}

func resolveActiveFoods(ctx context.Context, ids []uint) (map[uint]models.Food, error) {
	var foods []models.Food
	if len(ids) > 0 {
		if err := database.WithContext(ctx).Scopes(activeFoods).Where("id IN ?", ids).Find(&foods).Error; err != nil {
			return nil, err
		}
	}
	byID := make(map[uint]models.Food, len(foods))
	for _, food := range foods {
		byID[food.ID] = food
	}
	return byID, nil
}

func recalculateDietChart(w http.ResponseWriter, r *http.Request, session Session, chartID uint) {
	ctx := r.Context()
	chart, patient, err := loadDietChart(ctx, session, chartID)
	if err != nil {
		respondChartLookupError(w, r, chartID, err)
		return
	}
	total := nutrition.Aggregate(chartPortions(chart.Items)).Calories
	if err := database.WithContext(ctx).Model(chart).Omit(clause.Associations).Update("total_calories", total).Error; err != nil {
		applog.Error(ctx, "failed to recalculate diet chart", "error", err, "chartID", chartID)
		writeJSONError(w, http.StatusInternalServerError, "unable to recalculate diet chart")
		return
	}
	chart.TotalCalories = &total
	applog.Debug(ctx, "diet chart total recalculated", "chartID", chartID, "total", total)
	writeJSON(w, http.StatusOK, projectDietChart(*chart, *patient))
}

func deleteDietChart(w http.ResponseWriter, r *http.Request, session Session, chartID uint) {
	ctx := r.Context()
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("practitioner_id = ?", session.UserID).Delete(&models.DietChart{}, chartID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errChartNotFound
		}
		return tx.Where("diet_chart_id = ?", chartID).Delete(&models.DietChartItem{}).Error
	})
	if err != nil {
		respondChartLookupError(w, r, chartID, err)
		return
	}
	invalidateDashboard(r, session.UserID)
	applog.Debug(ctx, "diet chart deleted", "chartID", chartID)
	w.WriteHeader(http.StatusNoContent)
}
