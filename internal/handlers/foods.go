package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	applog "ahara/internal/log"
	"ahara/internal/nutrition"
	"ahara/models"
)

type foodResponse struct {
	ID              uint                 `json:"id"`
	Name            string               `json:"name"`
	Category        string               `json:"category"`
	Description     string               `json:"description"`
	CuisineType     string               `json:"cuisine_type"`
	PrimaryTaste    string               `json:"primary_taste"`
	SecondaryTastes []string             `json:"secondary_tastes"`
	Temperature     string               `json:"temperature"`
	Digestibility   string               `json:"digestibility"`
	Vipaka          string               `json:"vipaka"`
	CaloriesPer100g float64              `json:"calories_per_100g"`
	ProteinG        *float64             `json:"protein_g"`
	CarbsG          *float64             `json:"carbs_g"`
	FatG            *float64             `json:"fat_g"`
	FiberG          *float64             `json:"fiber_g"`
	CalciumMg       *float64             `json:"calcium_mg"`
	IronMg          *float64             `json:"iron_mg"`
	VitaminAMcg     *float64             `json:"vitamin_a_mcg"`
	VitaminCMg      *float64             `json:"vitamin_c_mg"`
	DoshaEffects    *models.DoshaEffects `json:"dosha_effects"`
	IsActive        bool                 `json:"is_active"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type foodRequest struct {
	Name            string               `json:"name"`
	Category        string               `json:"category"`
	Description     string               `json:"description"`
	CuisineType     string               `json:"cuisine_type"`
	PrimaryTaste    string               `json:"primary_taste"`
	SecondaryTastes []string             `json:"secondary_tastes"`
	Temperature     string               `json:"temperature"`
	Digestibility   string               `json:"digestibility"`
	Vipaka          string               `json:"vipaka"`
	CaloriesPer100g float64              `json:"calories_per_100g"`
	ProteinG        *float64             `json:"protein_g"`
	CarbsG          *float64             `json:"carbs_g"`
	FatG            *float64             `json:"fat_g"`
	FiberG          *float64             `json:"fiber_g"`
	CalciumMg       *float64             `json:"calcium_mg"`
	IronMg          *float64             `json:"iron_mg"`
	VitaminAMcg     *float64             `json:"vitamin_a_mcg"`
	VitaminCMg      *float64             `json:"vitamin_c_mg"`
	DoshaEffects    *models.DoshaEffects `json:"dosha_effects"`
}

func projectFood(food models.Food) foodResponse {
	secondary := food.SecondaryTastes
	if secondary == nil {
		secondary = []string{}
	}
	return foodResponse{
		ID:              food.ID,
		Name:            food.Name,
		Category:        food.Category,
		Description:     food.Description,
		CuisineType:     food.CuisineType,
		PrimaryTaste:    food.PrimaryTaste,
		SecondaryTastes: secondary,
		Temperature:     food.Temperature,
		Digestibility:   food.Digestibility,
		Vipaka:          food.Vipaka,
		CaloriesPer100g: food.CaloriesPer100g,
		ProteinG:        food.ProteinG,
		CarbsG:          food.CarbsG,
		FatG:            food.FatG,
		FiberG:          food.FiberG,
		CalciumMg:       food.CalciumMg,
		IronMg:          food.IronMg,
		VitaminAMcg:     food.VitaminAMcg,
		VitaminCMg:      food.VitaminCMg,
		DoshaEffects:    food.DoshaEffects,
		IsActive:        food.IsActive,
		CreatedAt:       food.CreatedAt,
		UpdatedAt:       food.UpdatedAt,
	}
}

func projectFoods(foods []models.Food) []foodResponse {
	responses := make([]foodResponse, 0, len(foods))
	for _, food := range foods {
		responses = append(responses, projectFood(food))
	}
	return responses
}

func validEffectTag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "increase", "decrease", "neutral", "+", "-", "=":
		return true
	default:
		return false
	}
}

// normalize trims the request and fills enum defaults. It returns a validation message
// when the request cannot be stored.
func (req *foodRequest) normalize() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	req.PrimaryTaste = strings.ToLower(strings.TrimSpace(req.PrimaryTaste))
	req.Temperature = strings.ToLower(strings.TrimSpace(req.Temperature))
	req.Digestibility = strings.ToLower(strings.TrimSpace(req.Digestibility))
	if req.Temperature == "" {
		req.Temperature = models.TemperatureNeutral
	}
	if req.Digestibility == "" {
		req.Digestibility = models.DigestibilityModerate
	}

	switch {
	case req.Name == "":
		return "name is required"
	case req.Category == "":
		return "category is required"
	case !models.ValidTaste(req.PrimaryTaste):
		return fmt.Sprintf("primary_taste must be one of %s", strings.Join(models.Tastes(), ", "))
	case !models.ValidTemperature(req.Temperature):
		return "temperature must be hot, cold or neutral"
	case !models.ValidDigestibility(req.Digestibility):
		return "digestibility must be easy, moderate or difficult"
	case req.CaloriesPer100g < 0:
		return "calories_per_100g cannot be negative"
	}

	secondary := make([]string, 0, len(req.SecondaryTastes))
	for _, taste := range req.SecondaryTastes {
		taste = strings.ToLower(strings.TrimSpace(taste))
		if !models.ValidTaste(taste) {
			return fmt.Sprintf("unknown secondary taste %q", taste)
		}
		secondary = append(secondary, taste)
	}
	req.SecondaryTastes = secondary

	if req.DoshaEffects != nil {
		for _, dosha := range models.Doshas {
			if !validEffectTag(req.DoshaEffects.Raw(dosha)) {
				return fmt.Sprintf("dosha_effects.%s must be increase, decrease or neutral", dosha)
			}
		}
	}
	return ""
}

func (req foodRequest) apply(food *models.Food) {
	food.Name = req.Name
	food.Category = req.Category
	food.Description = strings.TrimSpace(req.Description)
	food.CuisineType = strings.TrimSpace(req.CuisineType)
	food.PrimaryTaste = req.PrimaryTaste
	food.SecondaryTastes = req.SecondaryTastes
	food.Temperature = req.Temperature
	food.Digestibility = req.Digestibility
	food.Vipaka = strings.TrimSpace(req.Vipaka)
	food.CaloriesPer100g = req.CaloriesPer100g
	food.ProteinG = req.ProteinG
	food.CarbsG = req.CarbsG
	food.FatG = req.FatG
	food.FiberG = req.FiberG
	food.CalciumMg = req.CalciumMg
	food.IronMg = req.IronMg
	food.VitaminAMcg = req.VitaminAMcg
	food.VitaminCMg = req.VitaminCMg
	food.DoshaEffects = req.DoshaEffects
}

// FoodResource handles REST-style interactions with the food catalogue.
func FoodResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "food request without database")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	segments := resourcePath(r, "/app/api/foods")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listFoods(w, r)
		case http.MethodPost:
			createFood(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch segments[0] {
	case "categories":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		listFoodCategories(w, r)
		return
	case "profile":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		showFoodProfile(w, r)
		return
	}

	foodID, ok := parseID(segments[0])
	if !ok {
		applog.Debug(r.Context(), "invalid food identifier", "identifier", segments[0])
		writeJSONError(w, http.StatusNotFound, "food not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		showFood(w, r, foodID)
	case http.MethodPut:
		updateFood(w, r, foodID)
	case http.MethodDelete:
		deactivateFood(w, r, foodID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func activeFoods(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

func listFoods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := database.WithContext(ctx).Scopes(activeFoods).Order("name asc")
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		query = query.Where("lower(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" && category != "all" {
		query = query.Where("category = ?", strings.ToLower(category))
	}

	var foods []models.Food
	if err := query.Find(&foods).Error; err != nil {
		applog.Error(ctx, "failed to list foods", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load foods")
		return
	}
	applog.Debug(ctx, "listed foods", "count", len(foods))
	writeJSON(w, http.StatusOK, projectFoods(foods))
}

func listFoodCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var categories []string
	err := database.WithContext(ctx).Model(&models.Food{}).
		Scopes(activeFoods).
		Distinct("category").
		Order("category asc").
		Pluck("category", &categories).Error
	if err != nil {
		applog.Error(ctx, "failed to list food categories", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load categories")
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func showFoodProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var foods []models.Food
	if err := database.WithContext(ctx).Scopes(activeFoods).Find(&foods).Error; err != nil {
		applog.Error(ctx, "failed to load foods for profile", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load foods")
		return
	}
	writeJSON(w, http.StatusOK, nutrition.FoodProfile(foods))
}

func loadFood(r *http.Request, foodID uint) (*models.Food, error) {
	food := &models.Food{}
	if err := database.WithContext(r.Context()).First(food, foodID).Error; err != nil {
		return nil, err
	}
	return food, nil
}

func showFood(w http.ResponseWriter, r *http.Request, foodID uint) {
	food, err := loadFood(r, foodID)
	if err != nil {
		respondFoodLookupError(w, r, foodID, err)
		return
	}
	writeJSON(w, http.StatusOK, projectFood(*food))
}

func respondFoodLookupError(w http.ResponseWriter, r *http.Request, foodID uint, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeJSONError(w, http.StatusNotFound, "food not found")
		return
	}
	applog.Error(r.Context(), "failed to load food", "error", err, "foodID", foodID)
	writeJSONError(w, http.StatusInternalServerError, "unable to load food")
}

func createFood(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req foodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.normalize(); msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	food := models.Food{IsActive: true}
	req.apply(&food)
	if err := database.WithContext(ctx).Create(&food).Error; err != nil {
		applog.Error(ctx, "failed to create food", "error", err, "name", food.Name)
		writeJSONError(w, http.StatusInternalServerError, "unable to create food")
		return
	}
	invalidateAllDashboards(r)
	applog.Debug(ctx, "food created", "foodID", food.ID)
	writeJSON(w, http.StatusCreated, projectFood(food))
}

func updateFood(w http.ResponseWriter, r *http.Request, foodID uint) {
	ctx := r.Context()
	food, err := loadFood(r, foodID)
	if err != nil {
		respondFoodLookupError(w, r, foodID, err)
		return
	}

	var req foodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.normalize(); msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	req.apply(food)
	if err := database.WithContext(ctx).Save(food).Error; err != nil {
		applog.Error(ctx, "failed to update food", "error", err, "foodID", foodID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update food")
		return
	}
	applog.Debug(ctx, "food updated", "foodID", foodID)
	writeJSON(w, http.StatusOK, projectFood(*food))
}

func deactivateFood(w http.ResponseWriter, r *http.Request, foodID uint) {
	ctx := r.Context()
	result := database.WithContext(ctx).Model(&models.Food{}).Where("id = ?", foodID).Update("is_active", false)
	if result.Error != nil {
		applog.Error(ctx, "failed to deactivate food", "error", result.Error, "foodID", foodID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete food")
		return
	}
	if result.RowsAffected == 0 {
		writeJSONError(w, http.StatusNotFound, "food not found")
		return
	}
	invalidateAllDashboards(r)
	applog.Debug(ctx, "food deactivated", "foodID", foodID)
	w.WriteHeader(http.StatusNoContent)
}
