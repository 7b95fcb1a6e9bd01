package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"ahara/internal/calendar"
	applog "ahara/internal/log"
	"ahara/internal/nutrition"
	"ahara/models"
)

const suggestionFallbackLimit = 10

type calendarEntryJSON struct {
	ID            uint    `json:"id"`
	Date          string  `json:"date"`
	MealType      string  `json:"meal_type"`
	FoodID        uint    `json:"food_id"`
	FoodName      string  `json:"food_name"`
	QuantityGrams float64 `json:"quantity_grams"`
	Calories      float64 `json:"calories"`
	SortOrder     int     `json:"sort_order"`
}

type calendarDayJSON struct {
	Breakfast []calendarEntryJSON `json:"breakfast"`
	Lunch     []calendarEntryJSON `json:"lunch"`
	Dinner    []calendarEntryJSON `json:"dinner"`
	Snacks    []calendarEntryJSON `json:"snacks"`
}

type calendarWeekResponse struct {
	WeekOffset int                        `json:"week_offset"`
	PatientID  *uint                      `json:"patient_id"`
	Dates      [7]string                  `json:"dates"`
	Days       map[string]calendarDayJSON `json:"days"`
	DayTotals  map[string]float64         `json:"day_totals"`
	Error      string                     `json:"error,omitempty"`
}

type calendarPlaceRequest struct {
	Date          string  `json:"date"`
	MealType      string  `json:"meal_type"`
	FoodID        uint    `json:"food_id"`
	QuantityGrams float64 `json:"quantity"`
	PatientID     *uint   `json:"patient_id"`
}

type applyTemplateRequest struct {
	TemplateID uint  `json:"template_id"`
	WeekOffset int   `json:"week_offset"`
	PatientID  *uint `json:"patient_id"`
}

func projectEntries(entries []calendar.Entry) []calendarEntryJSON {
	out := make([]calendarEntryJSON, 0, len(entries))
	for _, entry := range entries {
		name := ""
		if entry.Food != nil {
			name = entry.Food.Name
		}
		out = append(out, calendarEntryJSON{
			ID:            entry.ID,
			Date:          entry.Date,
			MealType:      string(entry.MealType),
			FoodID:        entry.FoodID,
			FoodName:      name,
			QuantityGrams: entry.QuantityGrams,
			Calories:      nutrition.RoundTo(entry.Calories(), 1),
			SortOrder:     entry.SortOrder,
		})
	}
	return out
}

func projectWeek(planner *calendar.Planner, offset int, patientID *uint) calendarWeekResponse {
	resp := calendarWeekResponse{
		WeekOffset: offset,
		PatientID:  patientID,
		Dates:      planner.Keys(),
		Days:       make(map[string]calendarDayJSON, 7),
		DayTotals:  make(map[string]float64, 7),
	}
	for _, key := range resp.Dates {
		day := planner.Grid().Day(key)
		resp.Days[key] = calendarDayJSON{
			Breakfast: projectEntries(day.Breakfast),
			Lunch:     projectEntries(day.Lunch),
			Dinner:    projectEntries(day.Dinner),
			Snacks:    projectEntries(day.Snacks),
		}
	}
	for key, total := range planner.DayTotals() {
		resp.DayTotals[key] = nutrition.RoundTo(total, 1)
	}
	return resp
}

// MealCalendarResource serves the weekly meal calendar of the practitioner or one patient.
func MealCalendarResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "meal calendar request without database")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	segments := resourcePath(r, "/app/api/meal-calendar")
	switch {
	case len(segments) == 0:
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		showCalendarWeek(w, r, session)
	case segments[0] == "entries" && len(segments) == 1:
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		placeCalendarEntry(w, r, session)
	case segments[0] == "entries" && len(segments) == 2:
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		removeCalendarEntry(w, r, session, segments[1])
	case segments[0] == "apply-template":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		applyCalendarTemplate(w, r, session)
	case segments[0] == "suggestions":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		suggestFoods(w, r)
	default:
		writeJSONError(w, http.StatusNotFound, "not found")
	}
}

// calendarOwner resolves the owner discriminator, checking that a referenced patient
// belongs to the practitioner.
func calendarOwner(r *http.Request, session Session, patientID *uint) (calendar.Owner, error) {
	owner := calendar.Owner{PractitionerID: session.UserID}
	if patientID == nil {
		return owner, nil
	}
	if _, err := findPatient(r, session, *patientID); err != nil {
		return owner, err
	}
	owner.PatientID = patientID
	return owner, nil
}

func respondOwnerError(w http.ResponseWriter, r *http.Request, patientID *uint, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeJSONError(w, http.StatusNotFound, "patient not found")
		return
	}
	applog.Error(r.Context(), "failed to resolve calendar owner", "error", err, "patientID", patientID)
	writeJSONError(w, http.StatusInternalServerError, "unable to load calendar")
}

func loadPlanner(r *http.Request, session Session, patientID *uint, offset int) (*calendar.Planner, error) {
	owner, err := calendarOwner(r, session, patientID)
	if err != nil {
		return nil, err
	}
	planner := calendar.NewPlanner(calendar.NewGormStore(database), owner)
	if err := planner.LoadWeek(r.Context(), nowFunc(), offset); err != nil {
		return nil, err
	}
	return planner, nil
}

func showCalendarWeek(w http.ResponseWriter, r *http.Request, session Session) {
	query := r.URL.Query()
	offset := 0
	if raw := strings.TrimSpace(query.Get("week_offset")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "week_offset must be an integer")
			return
		}
		offset = value
	}
	patientID, err := parseOptionalID(query.Get("patient_id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid patient_id")
		return
	}

	planner, err := loadPlanner(r, session, patientID, offset)
	if err != nil {
		respondOwnerError(w, r, patientID, err)
		return
	}
	writeJSON(w, http.StatusOK, projectWeek(planner, offset, patientID))
}

func placeCalendarEntry(w http.ResponseWriter, r *http.Request, session Session) {
	ctx := r.Context()
	var req calendarPlaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	mealType, err := calendar.ParseMealType(req.MealType)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "meal_type must be breakfast, lunch, dinner or snacks")
		return
	}
	date, err := calendar.ParseDateKey(req.Date)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}
	if req.FoodID == 0 {
		writeJSONError(w, http.StatusBadRequest, "food_id is required")
		return
	}

	food := &models.Food{}
	if err := database.WithContext(ctx).Scopes(activeFoods).First(food, req.FoodID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusBadRequest, "food not found")
			return
		}
		respondFoodLookupError(w, r, req.FoodID, err)
		return
	}

	// The week returned is the one the entry lands in.
	offset := calendar.WeekOffset(nowFunc(), date)
	planner, err := loadPlanner(r, session, req.PatientID, offset)
	if err != nil {
		respondOwnerError(w, r, req.PatientID, err)
		return
	}

	dateKey := calendar.DateKey(date)
	if _, err := planner.Place(ctx, dateKey, mealType, food, req.QuantityGrams); err != nil {
		applog.Error(ctx, "failed to place calendar entry", "error", err, "date", dateKey)
		if reloadErr := planner.Reload(ctx); reloadErr != nil {
			applog.Error(ctx, "failed to reload calendar week", "error", reloadErr)
		}
		resp := projectWeek(planner, offset, req.PatientID)
		resp.Error = "unable to add food to the calendar"
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	applog.Debug(ctx, "calendar entry placed", "date", dateKey, "mealType", mealType, "foodID", food.ID)
	writeJSON(w, http.StatusCreated, projectWeek(planner, offset, req.PatientID))
}

func removeCalendarEntry(w http.ResponseWriter, r *http.Request, session Session, key string) {
	ctx := r.Context()
	query := r.URL.Query()
	mealType, err := calendar.ParseMealType(query.Get("meal_type"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "meal_type must be breakfast, lunch, dinner or snacks")
		return
	}
	date, err := calendar.ParseDateKey(query.Get("date"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
		return
	}
	offset := calendar.WeekOffset(nowFunc(), date)
	patientID, err := parseOptionalID(query.Get("patient_id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid patient_id")
		return
	}

	planner, err := loadPlanner(r, session, patientID, offset)
	if err != nil {
		respondOwnerError(w, r, patientID, err)
		return
	}

	if err := planner.Remove(ctx, calendar.DateKey(date), mealType, key); err != nil {
		if errors.Is(err, calendar.ErrEntryNotFound) {
			writeJSONError(w, http.StatusNotFound, "calendar entry not found")
			return
		}
		resp := projectWeek(planner, offset, patientID)
		resp.Error = "unable to remove food from the calendar"
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	applog.Debug(ctx, "calendar entry removed", "entry", key)
	writeJSON(w, http.StatusOK, projectWeek(planner, offset, patientID))
}

func applyCalendarTemplate(w http.ResponseWriter, r *http.Request, session Session) {
	ctx := r.Context()
	var req applyTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TemplateID == 0 {
		writeJSONError(w, http.StatusBadRequest, "template_id is required")
		return
	}

	template, err := findTemplate(r, session, req.TemplateID)
	if err != nil {
		respondTemplateLookupError(w, r, req.TemplateID, err)
		return
	}

	planner, err := loadPlanner(r, session, req.PatientID, req.WeekOffset)
	if err != nil {
		respondOwnerError(w, r, req.PatientID, err)
		return
	}

	if err := planner.ApplyTemplate(ctx, *template); err != nil {
		status := http.StatusInternalServerError
		message := "unable to apply template"
		if errors.Is(err, calendar.ErrUnknownMealType) {
			status = http.StatusBadRequest
			message = "template contains an invalid meal type"
		}
		resp := projectWeek(planner, req.WeekOffset, req.PatientID)
		resp.Error = message
		writeJSON(w, status, resp)
		return
	}
	applog.Debug(ctx, "template applied", "templateID", template.ID, "items", len(template.Items))
	writeJSON(w, http.StatusOK, projectWeek(planner, req.WeekOffset, req.PatientID))
}

// suggestFoods lists active foods that pacify the requested dosha. When none match, the
// first foods of the catalogue are returned instead.
func suggestFoods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := strings.TrimSpace(r.URL.Query().Get("dosha"))
	dosha, ok := models.ParseDosha(raw)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "dosha must be vata, pitta or kapha")
		return
	}

	var foods []models.Food
	if err := database.WithContext(ctx).Scopes(activeFoods).Order("name asc").Find(&foods).Error; err != nil {
		applog.Error(ctx, "failed to load foods for suggestions", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load foods")
		return
	}

	suggestions := nutrition.Balancing(foods, dosha)
	fallback := false
	if len(suggestions) == 0 {
		fallback = true
		suggestions = foods
		if len(suggestions) > suggestionFallbackLimit {
			suggestions = suggestions[:suggestionFallbackLimit]
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dosha":    dosha,
		"fallback": fallback,
		"foods":    projectFoods(suggestions),
	})
}
