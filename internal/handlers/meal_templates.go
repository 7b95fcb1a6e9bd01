package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ahara/internal/calendar"
	applog "ahara/internal/log"
	"ahara/models"
)

type templateItemJSON struct {
	ID            uint    `json:"id,omitempty"`
	DayOfWeek     int     `json:"day_of_week"`
	MealType      string  `json:"meal_type"`
	FoodID        uint    `json:"food_id"`
	FoodName      string  `json:"food_name,omitempty"`
	QuantityGrams float64 `json:"quantity_grams"`
	SortOrder     int     `json:"sort_order"`
}

type templateRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	TargetDosha string             `json:"target_dosha"`
	Items       []templateItemJSON `json:"items"`
}

type templateResponse struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	TargetDosha string             `json:"target_dosha"`
	Items       []templateItemJSON `json:"items"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func projectTemplate(template models.MealPlanTemplate) templateResponse {
	resp := templateResponse{
		ID:          template.ID,
		Name:        template.Name,
		Description: template.Description,
		TargetDosha: template.TargetDosha,
		Items:       make([]templateItemJSON, 0, len(template.Items)),
		CreatedAt:   template.CreatedAt,
		UpdatedAt:   template.UpdatedAt,
	}
	for _, item := range template.Items {
		name := ""
		if item.Food != nil {
			name = item.Food.Name
		}
		resp.Items = append(resp.Items, templateItemJSON{
			ID:            item.ID,
			DayOfWeek:     item.DayOfWeek,
			MealType:      item.MealType,
			FoodID:        item.FoodID,
			FoodName:      name,
			QuantityGrams: item.QuantityGrams,
			SortOrder:     item.SortOrder,
		})
	}
	return resp
}

func (req *templateRequest) normalize() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.TargetDosha = strings.TrimSpace(req.TargetDosha)
	if req.Name == "" {
		return "name is required"
	}
	if req.TargetDosha != "" {
		dosha, ok := models.ParseDosha(req.TargetDosha)
		if !ok {
			return "target_dosha must be vata, pitta or kapha"
		}
		req.TargetDosha = string(dosha)
	}
	for i := range req.Items {
		item := &req.Items[i]
		if item.DayOfWeek < 0 || item.DayOfWeek > 6 {
			return fmt.Sprintf("items[%d].day_of_week must be between 0 (Monday) and 6 (Sunday)", i)
		}
		mealType, err := calendar.ParseMealType(item.MealType)
		if err != nil {
			return fmt.Sprintf("items[%d].meal_type must be breakfast, lunch, dinner or snacks", i)
		}
		item.MealType = string(mealType)
		if item.FoodID == 0 {
			return fmt.Sprintf("items[%d].food_id is required", i)
		}
		if item.QuantityGrams < 0 {
			return fmt.Sprintf("items[%d].quantity_grams cannot be negative", i)
		}
		if item.QuantityGrams == 0 {
			item.QuantityGrams = 100
		}
	}
	return ""
}

func (req templateRequest) items() []models.MealPlanTemplateItem {
	items := make([]models.MealPlanTemplateItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.MealPlanTemplateItem{
			DayOfWeek:     item.DayOfWeek,
			MealType:      item.MealType,
			FoodID:        item.FoodID,
			QuantityGrams: item.QuantityGrams,
			SortOrder:     item.SortOrder,
		})
	}
	return items
}

// MealTemplateResource handles REST-style interactions with meal plan templates.
func MealTemplateResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		applog.Debug(r.Context(), "meal template request without database")
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	segments := resourcePath(r, "/app/api/meal-templates")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listTemplates(w, r, session)
		case http.MethodPost:
			createTemplate(w, r, session)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	templateID, ok := parseID(segments[0])
	if !ok {
		writeJSONError(w, http.StatusNotFound, "template not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		template, err := findTemplate(r, session, templateID)
		if err != nil {
			respondTemplateLookupError(w, r, templateID, err)
			return
		}
		writeJSON(w, http.StatusOK, projectTemplate(*template))
	case http.MethodPut:
		updateTemplate(w, r, session, templateID)
	case http.MethodDelete:
		deleteTemplate(w, r, session, templateID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func preloadTemplateItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week asc, sort_order asc, id asc")
		}).
		Preload("Items.Food")
}

func findTemplate(r *http.Request, session Session, templateID uint) (*models.MealPlanTemplate, error) {
	template := &models.MealPlanTemplate{}
	err := database.WithContext(r.Context()).
		Scopes(preloadTemplateItems).
		Where("practitioner_id = ?", session.UserID).
		First(template, templateID).Error
	if err != nil {
		return nil, err
	}
	return template, nil
}

func respondTemplateLookupError(w http.ResponseWriter, r *http.Request, templateID uint, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeJSONError(w, http.StatusNotFound, "template not found")
		return
	}
	applog.Error(r.Context(), "failed to load meal template", "error", err, "templateID", templateID)
	writeJSONError(w, http.StatusInternalServerError, "unable to load template")
}

func listTemplates(w http.ResponseWriter, r *http.Request, session Session) {
	ctx := r.Context()
	var templates []models.MealPlanTemplate
	err := database.WithContext(ctx).
		Scopes(preloadTemplateItems).
		Where("practitioner_id = ?", session.UserID).
		Order("name asc").
		Find(&templates).Error
	if err != nil {
		applog.Error(ctx, "failed to list meal templates", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load templates")
		return
	}
	responses := make([]templateResponse, 0, len(templates))
	for _, template := range templates {
		responses = append(responses, projectTemplate(template))
	}
	writeJSON(w, http.StatusOK, responses)
}

func createTemplate(w http.ResponseWriter, r *http.Request, session Session) {
	ctx := r.Context()
	var req templateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.normalize(); msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	template := models.MealPlanTemplate{
		PractitionerID: session.UserID,
		Name:           req.Name,
		Description:    req.Description,
		TargetDosha:    req.TargetDosha,
		Items:          req.items(),
	}
	if err := database.WithContext(ctx).Create(&template).Error; err != nil {
		applog.Error(ctx, "failed to create meal template", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create template")
		return
	}

	created, err := findTemplate(r, session, template.ID)
	if err != nil {
		respondTemplateLookupError(w, r, template.ID, err)
		return
	}
	applog.Debug(ctx, "meal template created", "templateID", template.ID)
	writeJSON(w, http.StatusCreated, projectTemplate(*created))
}

func updateTemplate(w http.ResponseWriter, r *http.Request, session Session, templateID uint) {
	ctx := r.Context()
	var req templateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.normalize(); msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	template, err := findTemplate(r, session, templateID)
	if err != nil {
		respondTemplateLookupError(w, r, templateID, err)
		return
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"name":         req.Name,
			"description":  req.Description,
			"target_dosha": req.TargetDosha,
		}
		if err := tx.Model(template).Omit(clause.Associations).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("template_id = ?", templateID).Delete(&models.MealPlanTemplateItem{}).Error; err != nil {
			return err
		}
		items := req.items()
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].TemplateID = templateID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to update meal template", "error", err, "templateID", templateID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update template")
		return
	}

	updated, err := findTemplate(r, session, templateID)
	if err != nil {
		respondTemplateLookupError(w, r, templateID, err)
		return
	}
	writeJSON(w, http.StatusOK, projectTemplate(*updated))
}

func deleteTemplate(w http.ResponseWriter, r *http.Request, session Session, templateID uint) {
	ctx := r.Context()
	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("practitioner_id = ?", session.UserID).Delete(&models.MealPlanTemplate{}, templateID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Unscoped().Where("template_id = ?", templateID).Delete(&models.MealPlanTemplateItem{}).Error
	})
	if err != nil {
		respondTemplateLookupError(w, r, templateID, err)
		return
	}
	applog.Debug(ctx, "meal template deleted", "templateID", templateID)
	w.WriteHeader(http.StatusNoContent)
}
