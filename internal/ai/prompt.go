package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ahara/models"
)

// RequestType selects the assistant prompt.
type RequestType string

const (
	MealPlanning        RequestType = "meal_planning"
	DoshaRecommendation RequestType = "dosha_recommendation"
)

// PromptFoodLimit caps how many foods are embedded in a prompt.
const PromptFoodLimit = 30

var (
	ErrInvalidRequestType = errors.New("ai: invalid request type")
	ErrDoshaRequired      = errors.New("ai: dosha is required for dosha recommendations")
)

// AssistantRequest is the body accepted by the assistant proxy.
type AssistantRequest struct {
	Type           RequestType   `json:"type"`
	Dosha          string        `json:"dosha,omitempty"`
	MealType       string        `json:"mealType,omitempty"`
	Preferences    string        `json:"preferences,omitempty"`
	AvailableFoods []models.Food `json:"availableFoods,omitempty"`
}

// Validate checks the request type and its required fields.
func (r AssistantRequest) Validate() error {
	switch r.Type {
	case MealPlanning:
		return nil
	case DoshaRecommendation:
		if strings.TrimSpace(r.Dosha) == "" {
			return ErrDoshaRequired
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRequestType, r.Type)
	}
}

const mealPlanningSystemPrompt = `You are an expert Ayurvedic nutritionist and meal planning assistant. You understand the six tastes (Rasa): sweet, sour, salty, bitter, pungent, astringent. You know about Virya (hot/cold potency), Vipaka (post-digestive effect), and the three Doshas (Vata, Pitta, Kapha).

Suggest balanced meal combinations that:
1. Include all six tastes in proper proportions
2. Balance the doshas appropriately
3. Consider digestibility and food combinations
4. Follow Ayurvedic food combining principles and avoid incompatible combinations

Always provide practical, actionable meal suggestions with specific foods.`

const doshaSystemPrompt = `You are an expert Ayurvedic nutritionist specialising in dosha-balancing dietary recommendations. You know:
- The three doshas: Vata (air/space), Pitta (fire/water), Kapha (earth/water)
- How different foods increase or decrease each dosha
- The six tastes and their dosha effects
- Food qualities (hot/cold, light/heavy, dry/oily)

Provide specific, practical food recommendations that help balance the given dosha.`

// Messages builds the system and user prompts for r.
func (r AssistantRequest) Messages() ([]Message, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	foods, err := promptFoods(r.AvailableFoods)
	if err != nil {
		return nil, err
	}

	var system string
	var user strings.Builder
	switch r.Type {
	case MealPlanning:
		system = mealPlanningSystemPrompt
		mealType := strings.TrimSpace(r.MealType)
		if mealType == "" {
			mealType = "full day"
		}
		fmt.Fprintf(&user, "Create a balanced %s meal plan based on Ayurvedic principles.\n", mealType)
		if dosha := strings.TrimSpace(r.Dosha); dosha != "" {
			fmt.Fprintf(&user, "The person has a %s constitution and needs foods that balance this dosha.\n", dosha)
		}
		if prefs := strings.TrimSpace(r.Preferences); prefs != "" {
			fmt.Fprintf(&user, "Dietary preferences: %s\n", prefs)
		}
		fmt.Fprintf(&user, "\nAvailable foods in our database:\n%s\n\n", foods)
		user.WriteString("Suggest specific meal combinations using these foods where possible and explain the Ayurvedic reasoning behind each choice. Use clear meal sections and say which tastes and doshas are being balanced.")
	case DoshaRecommendation:
		system = doshaSystemPrompt
		dosha := strings.TrimSpace(r.Dosha)
		fmt.Fprintf(&user, "Recommend foods to balance %s dosha.\n\n", dosha)
		fmt.Fprintf(&user, "Here are foods from our database with their dosha effects:\n%s\n\n", foods)
		fmt.Fprintf(&user, "Please:\n1. Identify which foods from the list are best for balancing %[1]s\n2. Explain why these foods help balance %[1]s\n3. Suggest which foods to avoid or limit\n4. Provide meal timing recommendations for this dosha\n5. Include any lifestyle tips related to diet for %[1]s balance", dosha)
	}

	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user.String()},
	}, nil
}

type promptFood struct {
	Name            string               `json:"name"`
	Category        string               `json:"category"`
	PrimaryTaste    string               `json:"primary_taste"`
	Temperature     string               `json:"temperature"`
	Digestibility   string               `json:"digestibility"`
	CaloriesPer100g float64              `json:"calories_per_100g"`
	DoshaEffects    *models.DoshaEffects `json:"dosha_effects,omitempty"`
}

func promptFoods(foods []models.Food) (string, error) {
	if len(foods) > PromptFoodLimit {
		foods = foods[:PromptFoodLimit]
	}
	compact := make([]promptFood, 0, len(foods))
	for _, food := range foods {
		compact = append(compact, promptFood{
			Name:            food.Name,
			Category:        food.Category,
			PrimaryTaste:    food.PrimaryTaste,
			Temperature:     food.Temperature,
			Digestibility:   food.Digestibility,
			CaloriesPer100g: food.CaloriesPer100g,
			DoshaEffects:    food.DoshaEffects,
		})
	}
	encoded, err := json.MarshalIndent(compact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("ai: encode foods: %w", err)
	}
	return string(encoded), nil
}
