package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ahara/models"
)

func TestMyPlanListsChartsForPatientEmail(t *testing.T) {
	f := newChartFixture(t)
	require.NoError(t, f.db.Model(&f.patient).Update("email", "Meera@Example.com").Error)
	first := f.createChart(t)
	second := f.createChart(t)

	other := seedPatient(t, f.db, f.user, "Someone Else")
	require.NoError(t, f.db.Model(&other).Update("email", "else@example.com").Error)
	f.patient = other
	f.createChart(t)

	account := seedPractitioner(t, f.db, "meera@example.com", models.RolePatient)

	w := httptest.NewRecorder()
	MyPlan(w, apiRequest(http.MethodGet, "/app/api/my-plan", nil, account))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	charts := decodeResponse[[]dietChartResponse](t, w)
	require.Len(t, charts, 2)
	assert.Equal(t, second.ID, charts[0].ID)
	assert.Equal(t, first.ID, charts[1].ID)
	assert.Equal(t, "Meera", charts[0].PatientName)
	require.NotEmpty(t, charts[0].Meals)
	assert.Equal(t, "lunch", charts[0].Meals[0].MealType)
	assert.Equal(t, "Rice", charts[0].Meals[0].Items[0].FoodName)
}

func TestMyPlanEmptyWithoutMatchingRecord(t *testing.T) {
	f := newChartFixture(t)
	f.createChart(t)
	account := seedPractitioner(t, f.db, "stranger@example.com", models.RolePatient)

	w := httptest.NewRecorder()
	MyPlan(w, apiRequest(http.MethodGet, "/app/api/my-plan", nil, account))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestMyPlanRejectsWrites(t *testing.T) {
	db := withTestDatabase(t)
	account := seedPractitioner(t, db, "meera@example.com", models.RolePatient)

	w := httptest.NewRecorder()
	MyPlan(w, apiRequest(http.MethodPost, "/app/api/my-plan", map[string]string{}, account))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
