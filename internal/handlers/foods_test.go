package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ahara/internal/nutrition"
	"ahara/models"
)

func TestFoodResourceListFiltersActiveFoods(t *testing.T) {
	db := withTestDatabase(t)
	user := seedPractitioner(t, db, "vaidya@example.com", models.RoleDietitian)
	seedFood(t, db, models.Food{Name: "Basmati Rice", Category: "grains", CaloriesPer100g: 350})
	seedFood(t, db, models.Food{Name: "Brown Rice", Category: "grains", CaloriesPer100g: 360})
	seedFood(t, db, models.Food{Name: "Ginger", Category: "spices", PrimaryTaste: models.TastePungent})
	retired := seedFood(t, db, models.Food{Name: "Rice Cakes", Category: "snacks"})
	require.NoError(t, db.Model(&retired).Update("is_active", false).Error)

	w := httptest.NewRecorder()
	FoodResource(w, apiRequest(http.MethodGet, "/app/api/foods?q=RICE", nil, user))
	require.Equal(t, http.StatusOK, w.Code)
	foods := decodeResponse[[]foodResponse](t, w)
	require.Len(t, foods, 2)
	assert.Equal(t, "Basmati Rice", foods[0].Name)
	assert.Equal(t, "Brown Rice", foods[1].Name)

	w = httptest.NewRecorder()
	FoodResource(w, apiRequest(http.MethodGet, "/app/api/foods?category=Spices", nil, user))
	require.Equal(t, http.StatusOK, w.Code)
	foods = decodeResponse[[]foodResponse](t, w)
	require.Len(t, foods, 1)
	assert.Equal(t, "Ginger", foods[0].Name)

	w = httptest.NewRecorder()
	FoodResource(w, apiRequest(http.MethodGet, "/app/api/foods?category=all", nil, user))
	assert.Len(t, decodeResponse[[]foodResponse](t, w), 3)
}

func TestFoodResourceCreateValidatesEnums(t *testing.T) {
	db := withTestDatabase(t)
	user := seedPractitioner(t, db, "vaidya@example.com", models.RoleDietitian)

	w := httptest.NewRecorder()
	FoodResource(w, apiRequest(http.MethodPost, "/app/api/foods", foodRequest{
		Name:         "Mystery",
		Category:     "misc",
		PrimaryTaste: "umami",
	}, user))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorMessage(t, w), "primary_taste")

	w = httptest.NewRecorder()
	FoodResource(w, apiRequest(http.MethodPost, "/app/api/foods", foodRequest{
		Name:         "Mystery",
		Category:     "misc",
		PrimaryTaste: models.TasteSweet,
		DoshaEffects: &models.DoshaEffects{Vata: "sideways"},
	}, user))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorMessage(t, w), "dosha_effects.vata")

	var count int64
	require.NoError(t, db.Model(&models.Food{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFoodResourceCreateAppliesDefaults(t *testing.T) {
	db := withTestDatabase(t)
	user := seedPractitioner(t, db, "vaidya@example.com", models.RoleDietitian)

	w := httptest.NewRecorder()
	FoodResource(w, apiRequest(http.MethodPost, "/app/api/foods", foodRequest{
		Name:            " Mung Dal ",
		Category:        "Legumes",
		PrimaryTaste:    "Sweet",
		SecondaryTastes: []string{"Astringent"},
		CaloriesPer100g: 347,
		ProteinG:        floatPtr(24),
		DoshaEffects:    &models.DoshaEffects{Vata: "decrease", Pitta: "decrease", Kapha: "neutral"},
	}, user))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decodeResponse[foodResponse](t, w)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Mung Dal", created.Name)
	assert.Equal(t, "legumes", created.Category)
	assert.Equal(t, models.TemperatureNeutral, created.Temperature)
	assert.Equal(t, models.DigestibilityModerate, created.Digestibility)
	assert.Equal(t, []string{models.TasteAstringent}, created.SecondaryTastes)
	assert.True(t, created.IsActive)

	var stored models.Food
	require.NoError(t, db.First(&stored, created.ID).Error)
	require.NotNil(t, stored.DoshaEffects)
	assert.Equal(t, "decrease", stored.DoshaEffects.Vata)
}

func TestFoodResourceCategoriesAndProfile(t *testing.T) {
	db := withTestDatabase(t)
	user := seedPractitioner(t, db, "vaidya@example.com", models.RoleDietitian)
	seedFood(t, db, models.Food{Name: "Rice", Category: "grains", Temperature: models.TemperatureCold})
	seedFood(t, db, models.Food{Name: "Ginger", Category: "spices", PrimaryTaste: models.TastePungent, Temperature: models.TemperatureHot})
	seedFood(t, db, models.Food{Name: "Barley", Category: "grains", PrimaryTaste: models.TasteAstringent})

	w := httptest.NewRecorder()
	FoodResource(w, apiRequest(http.MethodGet, "/app/api/foods/categories", nil, user))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"grains", "spices"}, decodeResponse[[]string](t, w))

	w = httptest.NewRecorder()
	FoodResource(w, apiRequest(http.MethodGet, "/app/api/foods/profile", nil, user))
	require.Equal(t, http.StatusOK, w.Code)
	profile := decodeResponse[nutrition.Profile](t, w)
	assert.Equal(t, 3, profile.FoodsConsidered)
	assert.Equal(t, 1, profile.Tastes[models.TastePungent])
	assert.Equal(t, 1, profile.Temperatures[models.TemperatureHot])
}

func TestFoodResourceUpdateAndDeactivate(t *testing.T) {
	db := withTestDatabase(t)
	user := seedPractitioner(t, db, "vaidya@example.com", models.RoleDietitian)
	food := seedFood(t, db, models.Food{Name: "Ghee", Category: "dairy", CaloriesPer100g: 880})

	w := httptest.NewRecorder()
	FoodResource(w, apiRequest(http.MethodPut, "/app/api/foods/"+itoa(food.ID), foodRequest{
		Name:            "Cow Ghee",
		Category:        "dairy",
		PrimaryTaste:    models.TasteSweet,
		Temperature:     models.TemperatureCold,
		CaloriesPer100g: 900,
	}, user))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeResponse[foodResponse](t, w)
	assert.Equal(t, "Cow Ghee", updated.Name)
	assert.Equal(t, 900.0, updated.CaloriesPer100g)

	w = httptest.NewRecorder()
	FoodResource(w, apiRequest(http.MethodDelete, "/app/api/foods/"+itoa(food.ID), nil, user))
	require.Equal(t, http.StatusNoContent, w.Code)

	var stored models.Food
	require.NoError(t, db.First(&stored, food.ID).Error)
	assert.False(t, stored.IsActive)

	w = httptest.NewRecorder()
	FoodResource(w, apiRequest(http.MethodDelete, "/app/api/foods/9999", nil, user))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	FoodResource(w, apiRequest(http.MethodGet, "/app/api/foods/abc", nil, user))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFoodResourceWithoutDatabase(t *testing.T) {
	w := httptest.NewRecorder()
	FoodResource(w, httptest.NewRequest(http.MethodGet, "/app/api/foods", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
