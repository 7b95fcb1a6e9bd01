package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ahara/models"
)

// FoodImportInput is the source material for a catalogue import.
type FoodImportInput struct {
	CategoryHint string
	RawText      string
}

// ImportedFood is one catalogue record extracted by the model.
type ImportedFood struct {
	Name            string              `json:"name"`
	Category        string              `json:"category"`
	Description     string              `json:"description"`
	PrimaryTaste    string              `json:"primary_taste"`
	SecondaryTastes []string            `json:"secondary_tastes"`
	Temperature     string              `json:"temperature"`
	Digestibility   string              `json:"digestibility"`
	Vipaka          string              `json:"vipaka"`
	CaloriesPer100g any                 `json:"calories_per_100g"`
	ProteinG        any                 `json:"protein_g"`
	CarbsG          any                 `json:"carbs_g"`
	FatG            any                 `json:"fat_g"`
	FiberG          any                 `json:"fiber_g"`
	DoshaEffects    models.DoshaEffects `json:"dosha_effects"`
}

const foodImportSystemPrompt = `You convert food composition references into catalogue records for an Ayurvedic diet practice.
- Extract every distinct food mentioned.
- Nutrient values are per 100 grams. Convert other bases to per 100 grams.
- primary_taste is one of sweet, sour, salty, bitter, pungent, astringent.
- temperature is one of hot, cold, neutral. digestibility is one of easy, moderate, difficult.
- dosha_effects maps vata, pitta and kapha to increase, decrease or neutral.
- Respond with strictly valid JSON using this schema:
{
  "foods": [
    {
      "name": string,
      "category": string,
      "description": string,
      "primary_taste": string,
      "secondary_tastes": [string],
      "temperature": string,
      "digestibility": string,
      "vipaka": string,
      "calories_per_100g": number,
      "protein_g": number | null,
      "carbs_g": number | null,
      "fat_g": number | null,
      "fiber_g": number | null,
      "dosha_effects": {"vata": string, "pitta": string, "kapha": string}
    }
  ]
}
- Never include explanations, markdown, or commentary outside of the JSON payload.`

// ExtractFoods asks the model to turn free text into catalogue records.
func (c *Client) ExtractFoods(ctx context.Context, input FoodImportInput) ([]models.Food, error) {
	text := strings.TrimSpace(input.RawText)
	if text == "" {
		return nil, errors.New("ai: food import requires text content")
	}

	var builder strings.Builder
	if hint := strings.TrimSpace(input.CategoryHint); hint != "" {
		builder.WriteString("Default category: ")
		builder.WriteString(hint)
		builder.WriteString("\n\n")
	}
	builder.WriteString("Source text:\n")
	builder.WriteString(text)

	content, err := c.Complete(ctx, []Message{
		{Role: "system", Content: foodImportSystemPrompt},
		{Role: "user", Content: builder.String()},
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Foods []ImportedFood `json:"foods"`
	}
	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.UseNumber()
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("ai: parse food payload: %w", err)
	}

	foods := make([]models.Food, 0, len(parsed.Foods))
	for _, imported := range parsed.Foods {
		food, ok := normaliseFood(imported, input.CategoryHint)
		if !ok {
			continue
		}
		foods = append(foods, food)
	}
	return foods, nil
}

func normaliseFood(imported ImportedFood, categoryHint string) (models.Food, bool) {
	name := normaliseText(imported.Name)
	if name == "" {
		return models.Food{}, false
	}
	category := normaliseValue(imported.Category)
	if category == "" {
		category = normaliseValue(categoryHint)
	}
	if category == "" {
		category = "uncategorised"
	}

	taste := strings.ToLower(normaliseValue(imported.PrimaryTaste))
	if !models.ValidTaste(taste) {
		taste = models.TasteSweet
	}
	temperature := strings.ToLower(normaliseValue(imported.Temperature))
	if !models.ValidTemperature(temperature) {
		temperature = models.TemperatureNeutral
	}
	digestibility := strings.ToLower(normaliseValue(imported.Digestibility))
	if !models.ValidDigestibility(digestibility) {
		digestibility = models.DigestibilityModerate
	}

	secondary := make([]string, 0, len(imported.SecondaryTastes))
	for _, value := range imported.SecondaryTastes {
		value = strings.ToLower(normaliseValue(value))
		if models.ValidTaste(value) && value != taste {
			secondary = append(secondary, value)
		}
	}

	food := models.Food{
		Name:            name,
		Category:        category,
		Description:     normaliseText(imported.Description),
		PrimaryTaste:    taste,
		SecondaryTastes: secondary,
		Temperature:     temperature,
		Digestibility:   digestibility,
		Vipaka:          normaliseValue(imported.Vipaka),
		CaloriesPer100g: parseNumeric(imported.CaloriesPer100g),
		ProteinG:        optionalNumeric(imported.ProteinG),
		CarbsG:          optionalNumeric(imported.CarbsG),
		FatG:            optionalNumeric(imported.FatG),
		FiberG:          optionalNumeric(imported.FiberG),
		IsActive:        true,
	}
	effects := imported.DoshaEffects
	if effects.Vata != "" || effects.Pitta != "" || effects.Kapha != "" {
		food.DoshaEffects = &models.DoshaEffects{
			Vata:  models.ClassifyEffect(effects.Vata).String(),
			Pitta: models.ClassifyEffect(effects.Pitta).String(),
			Kapha: models.ClassifyEffect(effects.Kapha).String(),
		}
	}
	return food, true
}

func normaliseValue(value string) string {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "", "n/a", "na", "none", "null":
		return ""
	default:
		return value
	}
}

func normaliseText(value string) string {
	value = normaliseValue(value)
	if value == "" {
		return ""
	}
	return strings.Join(strings.Fields(value), " ")
}

func optionalNumeric(value any) *float64 {
	if value == nil {
		return nil
	}
	parsed := parseNumeric(value)
	if parsed < 0 {
		return nil
	}
	return &parsed
}

func parseNumeric(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return v
	case json.Number:
		parsed, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0
		}
		return parsed
	case string:
		return parseFirstNumber(v)
	default:
		return 0
	}
}

func parseFirstNumber(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	match := numberPattern.FindString(value)
	if match == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return parsed
}

var numberPattern = regexp.MustCompile(`[-+]?\d*\.?\d+`)
