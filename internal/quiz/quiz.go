// Package quiz scores the prakriti (constitution) questionnaire.
package quiz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ahara/models"
)

// Option is one answer to a question.
type Option struct {
	Text  string       `json:"text"`
	Dosha models.Dosha `json:"dosha"`
}

// Question is a single quiz item.
type Question struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []Option `json:"options"`
}

func options(vata, pitta, kapha string) []Option {
	return []Option{{Text: vata, Dosha: models.Vata}, {Text: pitta, Dosha: models.Pitta}, {Text: kapha, Dosha: models.Kapha}}
}

var questions = []Question{
	{ID: "body_frame", Question: "What best describes your body frame?", Options: options(
		"Thin, light, and lean with prominent joints",
		"Medium build with moderate muscle tone",
		"Large, solid frame with tendency to gain weight")},
	{ID: "skin_type", Question: "How would you describe your skin?", Options: options(
		"Dry, rough, thin, and prone to cracking",
		"Warm, oily, prone to rashes or acne",
		"Thick, smooth, moist, and cool")},
	{ID: "hair_type", Question: "What is your hair like?", Options: options(
		"Dry, brittle, frizzy, or thin",
		"Fine, straight, prone to premature graying",
		"Thick, wavy, lustrous, and oily")},
	{ID: "appetite", Question: "How would you describe your appetite?", Options: options(
		"Variable, sometimes hungry and sometimes not",
		"Strong, irritable when meals are missed",
		"Steady, meals can be skipped without discomfort")},
	{ID: "digestion", Question: "How is your digestion?", Options: options(
		"Irregular with gas and bloating",
		"Quick with occasional heartburn",
		"Slow but steady")},
	{ID: "sleep_pattern", Question: "What is your sleep pattern like?", Options: options(
		"Light sleeper, wakes easily, interrupted",
		"Moderate, falls asleep easily but may wake hot",
		"Deep and long, hard to wake up")},
	{ID: "temperature", Question: "How do you respond to temperature?", Options: options(
		"Cold hands and feet, prefers warmth",
		"Usually warm, prefers cool environments",
		"Tolerates most temperatures well")},
	{ID: "mental_activity", Question: "How would you describe your mental activity?", Options: options(
		"Quick, restless, creative, many ideas",
		"Sharp, focused, analytical, determined",
		"Calm, steady, methodical, good memory")},
	{ID: "stress_response", Question: "How do you typically respond to stress?", Options: options(
		"Anxiety, worry, fear",
		"Irritability, anger, frustration",
		"Withdrawal, comfort eating, lethargy")},
	{ID: "energy_levels", Question: "How are your energy levels throughout the day?", Options: options(
		"Variable, bursts of energy then fatigue",
		"High and sustained until a crash",
		"Steady and enduring throughout")},
}

// Questions returns a copy of the questionnaire.
func Questions() []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	return out
}

// Guidance is the dietary advice for one dosha.
type Guidance struct {
	Dosha       string   `json:"dosha"`
	Description string   `json:"description"`
	Foods       []string `json:"foods"`
}

var guidance = map[models.Dosha]Guidance{
	models.Vata: {
		Dosha:       "Vata",
		Description: "Vata types are creative, energetic and quick-thinking. They benefit from warm, grounding, nourishing foods.",
		Foods:       []string{"Warm soups", "Cooked grains", "Root vegetables", "Ghee", "Warm milk", "Sweet fruits"},
	},
	models.Pitta: {
		Dosha:       "Pitta",
		Description: "Pitta types are focused, determined and driven. They benefit from cooling, calming foods that reduce heat.",
		Foods:       []string{"Cooling vegetables", "Sweet fruits", "Coconut", "Mint", "Cucumber", "Dairy"},
	},
	models.Kapha: {
		Dosha:       "Kapha",
		Description: "Kapha types are calm, steady and nurturing. They benefit from light, warming, stimulating foods.",
		Foods:       []string{"Light grains", "Spicy foods", "Leafy greens", "Legumes", "Honey", "Ginger"},
	},
}

// Result is a scored questionnaire.
type Result struct {
	Scores   map[models.Dosha]int `json:"scores"`
	Dominant string               `json:"dominant"`
	Guidance []Guidance           `json:"guidance"`
}

// ErrIncomplete is returned when not every question has an answer.
var ErrIncomplete = errors.New("quiz: please answer all questions before submitting")

// Score tallies answers, keyed by question id, and names the dominant dosha. Ties are
// joined with "-" in vata, pitta, kapha order.
func Score(answers map[string]string) (Result, error) {
	scores := map[models.Dosha]int{models.Vata: 0, models.Pitta: 0, models.Kapha: 0}
	var missing []string
	for _, question := range questions {
		raw, ok := answers[question.ID]
		if !ok || strings.TrimSpace(raw) == "" {
			missing = append(missing, question.ID)
			continue
		}
		dosha, ok := models.ParseDosha(raw)
		if !ok {
			return Result{}, fmt.Errorf("quiz: invalid answer %q for %s", raw, question.ID)
		}
		scores[dosha]++
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Result{}, fmt.Errorf("%w (missing: %s)", ErrIncomplete, strings.Join(missing, ", "))
	}

	maxScore := 0
	for _, score := range scores {
		if score > maxScore {
			maxScore = score
		}
	}
	var labels []string
	var advice []Guidance
	for _, dosha := range models.Doshas {
		if scores[dosha] == maxScore {
			labels = append(labels, guidance[dosha].Dosha)
			advice = append(advice, guidance[dosha])
		}
	}
	return Result{Scores: scores, Dominant: strings.Join(labels, "-"), Guidance: advice}, nil
}
