package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ahara/models"
)

type suggestionsBody struct {
	Dosha    string         `json:"dosha"`
	Fallback bool           `json:"fallback"`
	Foods    []foodResponse `json:"foods"`
}

func withFixedNow(t *testing.T, now time.Time) {
	t.Helper()
	previous := nowFunc
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = previous })
}

func TestMealCalendarShowsMondayToSundayWeek(t *testing.T) {
	f := newChartFixture(t)
	withFixedNow(t, time.Date(2026, 2, 4, 10, 0, 0, 0, time.Local))

	w := httptest.NewRecorder()
	MealCalendarResource(w, apiRequest(http.MethodGet, "/app/api/meal-calendar", nil, f.user))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	week := decodeResponse[calendarWeekResponse](t, w)
	assert.Equal(t, "2026-02-02", week.Dates[0])
	assert.Equal(t, "2026-02-08", week.Dates[6])
	assert.Len(t, week.Days, 7)

	w = httptest.NewRecorder()
	MealCalendarResource(w, apiRequest(http.MethodGet, "/app/api/meal-calendar?week_offset=-1", nil, f.user))
	require.Equal(t, http.StatusOK, w.Code)
	week = decodeResponse[calendarWeekResponse](t, w)
	assert.Equal(t, "2026-01-26", week.Dates[0])
	assert.Equal(t, -1, week.WeekOffset)

	w = httptest.NewRecorder()
	MealCalendarResource(w, apiRequest(http.MethodGet, "/app/api/meal-calendar?week_offset=soon", nil, f.user))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMealCalendarPlaceAndRemove(t *testing.T) {
	f := newChartFixture(t)
	withFixedNow(t, time.Date(2026, 2, 4, 10, 0, 0, 0, time.Local))
	patientID := f.patient.ID

	w := httptest.NewRecorder()
	MealCalendarResource(w, apiRequest(http.MethodPost, "/app/api/meal-calendar/entries", calendarPlaceRequest{
		Date:          "2026-02-03",
		MealType:      "Lunch",
		FoodID:        f.rice.ID,
		QuantityGrams: 150,
		PatientID:     &patientID,
	}, f.user))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	week := decodeResponse[calendarWeekResponse](t, w)
	lunch := week.Days["2026-02-03"].Lunch
	require.Len(t, lunch, 1)
	assert.NotZero(t, lunch[0].ID)
	assert.Equal(t, "Rice", lunch[0].FoodName)
	assert.Equal(t, 195.0, lunch[0].Calories)
	assert.Equal(t, 195.0, week.DayTotals["2026-02-03"])

	var stored models.MealCalendarEntry
	require.NoError(t, f.db.First(&stored, lunch[0].ID).Error)
	require.NotNil(t, stored.PatientID)
	assert.Equal(t, patientID, *stored.PatientID)

	w = httptest.NewRecorder()
	MealCalendarResource(w, apiRequest(http.MethodGet, "/app/api/meal-calendar", nil, f.user))
	require.Equal(t, http.StatusOK, w.Code)
	personal := decodeResponse[calendarWeekResponse](t, w)
	assert.Empty(t, personal.Days["2026-02-03"].Lunch)

	target := "/app/api/meal-calendar/entries/" + itoa(lunch[0].ID) + "?date=2026-02-03&meal_type=lunch&patient_id=" + itoa(patientID)
	w = httptest.NewRecorder()
	MealCalendarResource(w, apiRequest(http.MethodDelete, target, nil, f.user))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	week = decodeResponse[calendarWeekResponse](t, w)
	assert.Empty(t, week.Days["2026-02-03"].Lunch)
	assert.Zero(t, week.DayTotals["2026-02-03"])

	w = httptest.NewRecorder()
	MealCalendarResource(w, apiRequest(http.MethodDelete, target, nil, f.user))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMealCalendarEntriesOutsideCurrentWeek(t *testing.T) {
	f := newChartFixture(t)
	withFixedNow(t, time.Date(2026, 2, 4, 10, 0, 0, 0, time.Local))

	w := httptest.NewRecorder()
	MealCalendarResource(w, apiRequest(http.MethodPost, "/app/api/meal-calendar/entries", calendarPlaceRequest{
		Date:     "2026-02-18",
		MealType: "dinner",
		FoodID:   f.dal.ID,
	}, f.user))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	week := decodeResponse[calendarWeekResponse](t, w)
	assert.Equal(t, 2, week.WeekOffset)
	assert.Equal(t, "2026-02-16", week.Dates[0])
	dinner := week.Days["2026-02-18"].Dinner
	require.Len(t, dinner, 1)
	assert.Equal(t, 100.0, dinner[0].QuantityGrams)

	target := "/app/api/meal-calendar/entries/" + itoa(dinner[0].ID) + "?date=2026-02-18&meal_type=dinner"
	w = httptest.NewRecorder()
	MealCalendarResource(w, apiRequest(http.MethodDelete, target, nil, f.user))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	week = decodeResponse[calendarWeekResponse](t, w)
	assert.Equal(t, 2, week.WeekOffset)
	assert.Empty(t, week.Days["2026-02-18"].Dinner)

	var entries int64
	require.NoError(t, f.db.Model(&models.MealCalendarEntry{}).Count(&entries).Error)
	assert.Zero(t, entries)
}

func TestMealCalendarPlaceValidation(t *testing.T) {
	f := newChartFixture(t)
	other := seedPractitioner(t, f.db, "other@example.com", models.RoleDietitian)
	foreignPatient := seedPatient(t, f.db, other, "Kiran")
	foreignID := foreignPatient.ID

	tests := []struct {
		name   string
		req    calendarPlaceRequest
		status int
	}{
		{"bad meal", calendarPlaceRequest{Date: "2026-02-03", MealType: "brunch", FoodID: f.rice.ID}, http.StatusBadRequest},
		{"bad date", calendarPlaceRequest{Date: "tomorrow", MealType: "lunch", FoodID: f.rice.ID}, http.StatusBadRequest},
		{"missing food", calendarPlaceRequest{Date: "2026-02-03", MealType: "lunch"}, http.StatusBadRequest},
		{"unknown food", calendarPlaceRequest{Date: "2026-02-03", MealType: "lunch", FoodID: 999}, http.StatusBadRequest},
		{"foreign patient", calendarPlaceRequest{Date: "2026-02-03", MealType: "lunch", FoodID: f.rice.ID, PatientID: &foreignID}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			MealCalendarResource(w, apiRequest(http.MethodPost, "/app/api/meal-calendar/entries", tt.req, f.user))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	var entries int64
	require.NoError(t, f.db.Model(&models.MealCalendarEntry{}).Count(&entries).Error)
	assert.Zero(t, entries)
}

func TestMealCalendarApplyTemplateReplacesWeek(t *testing.T) {
	f := newChartFixture(t)
	withFixedNow(t, time.Date(2026, 2, 4, 10, 0, 0, 0, time.Local))

	stale := models.MealCalendarEntry{PractitionerID: f.user.ID, EntryDate: "2026-02-05", MealType: "dinner", FoodID: f.rice.ID, QuantityGrams: 100}
	require.NoError(t, f.db.Create(&stale).Error)
	template := models.MealPlanTemplate{
		PractitionerID: f.user.ID,
		Name:           "Light week",
		Items: []models.MealPlanTemplateItem{
			{DayOfWeek: 0, MealType: "breakfast", FoodID: f.ghee.ID, QuantityGrams: 10},
			{DayOfWeek: 6, MealType: "dinner", FoodID: f.dal.ID, QuantityGrams: 100},
		},
	}
	require.NoError(t, f.db.Create(&template).Error)

	w := httptest.NewRecorder()
	MealCalendarResource(w, apiRequest(http.MethodPost, "/app/api/meal-calendar/apply-template", applyTemplateRequest{TemplateID: template.ID}, f.user))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	week := decodeResponse[calendarWeekResponse](t, w)

	require.Len(t, week.Days["2026-02-02"].Breakfast, 1)
	assert.Equal(t, "Ghee", week.Days["2026-02-02"].Breakfast[0].FoodName)
	require.Len(t, week.Days["2026-02-08"].Dinner, 1)
	assert.Equal(t, 350.0, week.DayTotals["2026-02-08"])
	assert.Empty(t, week.Days["2026-02-05"].Dinner)

	w = httptest.NewRecorder()
	MealCalendarResource(w, apiRequest(http.MethodPost, "/app/api/meal-calendar/apply-template", applyTemplateRequest{TemplateID: 999}, f.user))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMealCalendarSuggestions(t *testing.T) {
	f := newChartFixture(t)

	w := httptest.NewRecorder()
	MealCalendarResource(w, apiRequest(http.MethodGet, "/app/api/meal-calendar/suggestions?dosha=Vata", nil, f.user))
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeResponse[suggestionsBody](t, w)
	assert.Equal(t, "vata", body.Dosha)
	assert.False(t, body.Fallback)
	require.Len(t, body.Foods, 1)
	assert.Equal(t, "Rice", body.Foods[0].Name)

	w = httptest.NewRecorder()
	MealCalendarResource(w, apiRequest(http.MethodGet, "/app/api/meal-calendar/suggestions?dosha=kapha", nil, f.user))
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeResponse[suggestionsBody](t, w)
	assert.True(t, body.Fallback)
	assert.Len(t, body.Foods, 3)

	for _, dosha := range []string{"", "all"} {
		w = httptest.NewRecorder()
		MealCalendarResource(w, apiRequest(http.MethodGet, "/app/api/meal-calendar/suggestions?dosha="+dosha, nil, f.user))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}
