package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ahara/models"
)

func TestPatientResourceCreateAppliesDefaults(t *testing.T) {
	db := withTestDatabase(t)
	user := seedPractitioner(t, db, "vaidya@example.com", models.RoleDietitian)

	w := httptest.NewRecorder()
	PatientResource(w, apiRequest(http.MethodPost, "/app/api/patients", patientRequest{
		FullName:      " Asha Rao ",
		Age:           32,
		Gender:        "Female",
		HeightCm:      floatPtr(160),
		WeightKg:      floatPtr(56),
		AssessedDosha: "Pitta-Vata",
	}, user))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decodeResponse[patientResponse](t, w)
	assert.Equal(t, "Asha Rao", created.FullName)
	assert.Equal(t, models.GenderFemale, created.Gender)
	assert.Equal(t, models.HabitVegetarian, created.DietaryHabit)
	assert.Equal(t, 3, created.MealFrequency)
	assert.Equal(t, 2.0, created.WaterIntakeLiters)
	assert.Equal(t, 1, created.BowelMovementsPerDay)
	assert.Equal(t, "pitta-vata", created.AssessedDosha)
	require.NotNil(t, created.BMI)
	assert.Equal(t, 21.9, *created.BMI)

	var stored models.Patient
	require.NoError(t, db.First(&stored, created.ID).Error)
	assert.Equal(t, user.ID, stored.PractitionerID)
}

func TestPatientResourceValidationWritesNothing(t *testing.T) {
	db := withTestDatabase(t)
	user := seedPractitioner(t, db, "vaidya@example.com", models.RoleDietitian)

	tests := []struct {
		name string
		req  patientRequest
		want string
	}{
		{"missing name", patientRequest{Age: 30, Gender: "male"}, "full_name is required"},
		{"zero age", patientRequest{FullName: "Ravi", Gender: "male"}, "age must be greater than zero"},
		{"unknown gender", patientRequest{FullName: "Ravi", Age: 30, Gender: "robot"}, "gender must be male, female or other"},
		{"unknown habit", patientRequest{FullName: "Ravi", Age: 30, Gender: "male", DietaryHabit: "keto"}, "dietary_habit must be vegetarian, non_vegetarian, vegan or eggetarian"},
		{"unknown dosha", patientRequest{FullName: "Ravi", Age: 30, Gender: "male", AssessedDosha: "fire"}, "assessed_dosha must be vata, pitta, kapha or a combination such as vata-pitta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			PatientResource(w, apiRequest(http.MethodPost, "/app/api/patients", tt.req, user))
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, errorMessage(t, w))
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Patient{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPatientResourceIsScopedToPractitioner(t *testing.T) {
	db := withTestDatabase(t)
	owner := seedPractitioner(t, db, "owner@example.com", models.RoleDietitian)
	other := seedPractitioner(t, db, "other@example.com", models.RoleDietitian)
	patient := seedPatient(t, db, owner, "Meera")
	seedPatient(t, db, other, "Kiran")

	w := httptest.NewRecorder()
	PatientResource(w, apiRequest(http.MethodGet, "/app/api/patients", nil, owner))
	require.Equal(t, http.StatusOK, w.Code)
	patients := decodeResponse[[]patientResponse](t, w)
	require.Len(t, patients, 1)
	assert.Equal(t, "Meera", patients[0].FullName)

	w = httptest.NewRecorder()
	PatientResource(w, apiRequest(http.MethodGet, "/app/api/patients/"+itoa(patient.ID), nil, other))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	PatientResource(w, apiRequest(http.MethodDelete, "/app/api/patients/"+itoa(patient.ID), nil, other))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatientResourceShowIncludesChartsNewestFirst(t *testing.T) {
	db := withTestDatabase(t)
	user := seedPractitioner(t, db, "vaidya@example.com", models.RoleDietitian)
	patient := seedPatient(t, db, user, "Meera")
	for _, date := range []string{"2026-01-05", "2026-03-01", "2026-02-10"} {
		chart := models.DietChart{PatientID: patient.ID, PractitionerID: user.ID, ChartDate: date, Title: "Chart " + date}
		require.NoError(t, db.Create(&chart).Error)
	}

	w := httptest.NewRecorder()
	PatientResource(w, apiRequest(http.MethodGet, "/app/api/patients/"+itoa(patient.ID), nil, user))
	require.Equal(t, http.StatusOK, w.Code)
	shown := decodeResponse[patientResponse](t, w)
	require.Len(t, shown.DietCharts, 3)
	assert.Equal(t, "2026-03-01", shown.DietCharts[0].ChartDate)
	assert.Equal(t, "2026-02-10", shown.DietCharts[1].ChartDate)
	assert.Equal(t, "2026-01-05", shown.DietCharts[2].ChartDate)
	assert.Nil(t, shown.BMI)
}

func TestPatientResourceUpdate(t *testing.T) {
	db := withTestDatabase(t)
	user := seedPractitioner(t, db, "vaidya@example.com", models.RoleDietitian)
	patient := seedPatient(t, db, user, "Meera")

	w := httptest.NewRecorder()
	PatientResource(w, apiRequest(http.MethodPut, "/app/api/patients/"+itoa(patient.ID), patientRequest{
		FullName:     "Meera Iyer",
		Age:          35,
		Gender:       "female",
		DietaryHabit: "vegan",
		Allergies:    "peanuts",
	}, user))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.Patient
	require.NoError(t, db.First(&stored, patient.ID).Error)
	assert.Equal(t, "Meera Iyer", stored.FullName)
	assert.Equal(t, models.HabitVegan, stored.DietaryHabit)
	assert.Equal(t, "peanuts", stored.Allergies)
}

func TestPatientResourceDeleteRemovesCharts(t *testing.T) {
	db := withTestDatabase(t)
	user := seedPractitioner(t, db, "vaidya@example.com", models.RoleDietitian)
	patient := seedPatient(t, db, user, "Meera")
	food := seedFood(t, db, models.Food{Name: "Rice", CaloriesPer100g: 130})
	chart := models.DietChart{
		PatientID:      patient.ID,
		PractitionerID: user.ID,
		ChartDate:      "2026-01-05",
		Title:          "Week one",
		Items:          []models.DietChartItem{{FoodID: food.ID, MealType: "lunch", QuantityGrams: 150}},
	}
	require.NoError(t, db.Create(&chart).Error)
	patientID := patient.ID
	require.NoError(t, db.Create(&models.MealCalendarEntry{PractitionerID: user.ID, PatientID: &patientID, EntryDate: "2026-01-05", MealType: "lunch", FoodID: food.ID, QuantityGrams: 100}).Error)

	w := httptest.NewRecorder()
	PatientResource(w, apiRequest(http.MethodDelete, "/app/api/patients/"+itoa(patient.ID), nil, user))
	require.Equal(t, http.StatusNoContent, w.Code)

	var charts, items, entries int64
	require.NoError(t, db.Model(&models.DietChart{}).Count(&charts).Error)
	require.NoError(t, db.Model(&models.DietChartItem{}).Count(&items).Error)
	require.NoError(t, db.Unscoped().Model(&models.MealCalendarEntry{}).Count(&entries).Error)
	assert.Zero(t, charts)
	assert.Zero(t, items)
	assert.Zero(t, entries)
}

func TestPatientResourceRequiresSession(t *testing.T) {
	withTestDatabase(t)
	w := httptest.NewRecorder()
	PatientResource(w, httptest.NewRequest(http.MethodGet, "/app/api/patients", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNormalizeDoshaLabel(t *testing.T) {
	t.Parallel()

	label, ok := normalizeDoshaLabel("Vata-KAPHA")
	assert.True(t, ok)
	assert.Equal(t, "vata-kapha", label)

	_, ok = normalizeDoshaLabel("vata-")
	assert.False(t, ok)
}
