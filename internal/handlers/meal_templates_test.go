package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ahara/models"
)

func TestMealTemplateCreateNormalizesItems(t *testing.T) {
	f := newChartFixture(t)

	w := httptest.NewRecorder()
	MealTemplateResource(w, apiRequest(http.MethodPost, "/app/api/meal-templates", templateRequest{
		Name:        " Pitta cooling ",
		TargetDosha: "PITTA",
		Items: []templateItemJSON{
			{DayOfWeek: 2, MealType: "Lunch", FoodID: f.rice.ID},
			{DayOfWeek: 0, MealType: "breakfast", FoodID: f.ghee.ID, QuantityGrams: 10},
		},
	}, f.user))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decodeResponse[templateResponse](t, w)
	assert.Equal(t, "Pitta cooling", created.Name)
	assert.Equal(t, "pitta", created.TargetDosha)
	require.Len(t, created.Items, 2)
	assert.Equal(t, 0, created.Items[0].DayOfWeek)
	assert.Equal(t, "Ghee", created.Items[0].FoodName)
	assert.Equal(t, "lunch", created.Items[1].MealType)
	assert.Equal(t, 100.0, created.Items[1].QuantityGrams)
}

func TestMealTemplateValidation(t *testing.T) {
	f := newChartFixture(t)

	tests := []struct {
		name string
		req  templateRequest
		want string
	}{
		{"missing name", templateRequest{}, "name is required"},
		{"bad dosha", templateRequest{Name: "x", TargetDosha: "fire"}, "target_dosha must be vata, pitta or kapha"},
		{"bad day", templateRequest{Name: "x", Items: []templateItemJSON{{DayOfWeek: 7, MealType: "lunch", FoodID: f.rice.ID}}}, "items[0].day_of_week must be between 0 (Monday) and 6 (Sunday)"},
		{"bad meal", templateRequest{Name: "x", Items: []templateItemJSON{{MealType: "tea", FoodID: f.rice.ID}}}, "items[0].meal_type must be breakfast, lunch, dinner or snacks"},
		{"missing food", templateRequest{Name: "x", Items: []templateItemJSON{{MealType: "lunch"}}}, "items[0].food_id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			MealTemplateResource(w, apiRequest(http.MethodPost, "/app/api/meal-templates", tt.req, f.user))
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, errorMessage(t, w))
		})
	}
}

func TestMealTemplateUpdateReplacesItems(t *testing.T) {
	f := newChartFixture(t)
	template := models.MealPlanTemplate{
		PractitionerID: f.user.ID,
		Name:           "Original",
		Items:          []models.MealPlanTemplateItem{{DayOfWeek: 1, MealType: "lunch", FoodID: f.rice.ID, QuantityGrams: 100}},
	}
	require.NoError(t, f.db.Create(&template).Error)

	w := httptest.NewRecorder()
	MealTemplateResource(w, apiRequest(http.MethodPut, "/app/api/meal-templates/"+itoa(template.ID), templateRequest{
		Name:  "Revised",
		Items: []templateItemJSON{{DayOfWeek: 4, MealType: "dinner", FoodID: f.dal.ID, QuantityGrams: 80}},
	}, f.user))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeResponse[templateResponse](t, w)
	assert.Equal(t, "Revised", updated.Name)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "Mung Dal", updated.Items[0].FoodName)

	var items int64
	require.NoError(t, f.db.Unscoped().Model(&models.MealPlanTemplateItem{}).Where("template_id = ?", template.ID).Count(&items).Error)
	assert.EqualValues(t, 1, items)
}

func TestMealTemplateScopedToOwner(t *testing.T) {
	f := newChartFixture(t)
	other := seedPractitioner(t, f.db, "other@example.com", models.RoleDietitian)
	template := models.MealPlanTemplate{PractitionerID: f.user.ID, Name: "Mine"}
	require.NoError(t, f.db.Create(&template).Error)

	w := httptest.NewRecorder()
	MealTemplateResource(w, apiRequest(http.MethodGet, "/app/api/meal-templates", nil, other))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeResponse[[]templateResponse](t, w))

	w = httptest.NewRecorder()
	MealTemplateResource(w, apiRequest(http.MethodDelete, "/app/api/meal-templates/"+itoa(template.ID), nil, other))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	MealTemplateResource(w, apiRequest(http.MethodDelete, "/app/api/meal-templates/"+itoa(template.ID), nil, f.user))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	MealTemplateResource(w, apiRequest(http.MethodGet, "/app/api/meal-templates/"+itoa(template.ID), nil, f.user))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
