package nutrition

import "ahara/models"

// EffectCount tallies effects on a single dosha.
type EffectCount struct {
	Increase int `json:"increase"`
	Decrease int `json:"decrease"`
	Neutral  int `json:"neutral"`
}

// DoshaTally maps each dosha to its effect counts.
type DoshaTally map[models.Dosha]EffectCount

// TallyDoshaEffects counts, for vata, pitta and kapha, how many foods increase, decrease or
// leave the dosha neutral. A food without an effects mapping counts as neutral for all three.
func TallyDoshaEffects(foods []models.Food) DoshaTally {
	tally := make(DoshaTally, len(models.Doshas))
	for _, dosha := range models.Doshas {
		tally[dosha] = EffectCount{}
	}

	for _, food := range foods {
		for _, dosha := range models.Doshas {
			count := tally[dosha]
			switch food.EffectOn(dosha) {
			case models.EffectIncrease:
				count.Increase++
			case models.EffectDecrease:
				count.Decrease++
			default:
				count.Neutral++
			}
			tally[dosha] = count
		}
	}
	return tally
}

// Balancing returns the foods that decrease dosha, preserving input order.
func Balancing(foods []models.Food, dosha models.Dosha) []models.Food {
	result := make([]models.Food, 0, len(foods))
	for _, food := range foods {
		if food.EffectOn(dosha) == models.EffectDecrease {
			result = append(result, food)
		}
	}
	return result
}
