package nutrition

import "ahara/models"

// Distribution counts items by the tag returned from key.
func Distribution[T any, K comparable](items []T, key func(T) K) map[K]int {
	counts := make(map[K]int)
	for _, item := range items {
		counts[key(item)]++
	}
	return counts
}

// Profile summarises the property mix of a set of foods.
type Profile struct {
	Tastes          map[string]int `json:"tastes"`
	Temperatures    map[string]int `json:"temperatures"`
	Digestibility   map[string]int `json:"digestibility"`
	DoshaEffects    DoshaTally     `json:"dosha_effects"`
	FoodsConsidered int            `json:"foods_considered"`
}

// FoodProfile builds taste, temperature, digestibility and dosha summaries for foods.
func FoodProfile(foods []models.Food) Profile {
	return Profile{
		Tastes:          Distribution(foods, func(f models.Food) string { return f.PrimaryTaste }),
		Temperatures:    Distribution(foods, func(f models.Food) string { return f.Temperature }),
		Digestibility:   Distribution(foods, func(f models.Food) string { return f.Digestibility }),
		DoshaEffects:    TallyDoshaEffects(foods),
		FoodsConsidered: len(foods),
	}
}
