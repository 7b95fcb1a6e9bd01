package models

import "strings"

// Dosha is one of the three constitutional categories.
type Dosha string

const (
	Vata  Dosha = "vata"
	Pitta Dosha = "pitta"
	Kapha Dosha = "kapha"
)

// Doshas lists the doshas in canonical order.
var Doshas = []Dosha{Vata, Pitta, Kapha}

// ParseDosha normalises a dosha name. The second result is false for unknown values.
func ParseDosha(value string) (Dosha, bool) {
	switch Dosha(strings.ToLower(strings.TrimSpace(value))) {
	case Vata:
		return Vata, true
	case Pitta:
		return Pitta, true
	case Kapha:
		return Kapha, true
	default:
		return "", false
	}
}

// Effect classifies how a food acts on a dosha.
type Effect int

const (
	// EffectAbsent means the food carries no effect information at all.
	EffectAbsent Effect = iota
	EffectIncrease
	EffectDecrease
	EffectNeutral
)

func (e Effect) String() string {
	switch e {
	case EffectIncrease:
		return "increase"
	case EffectDecrease:
		return "decrease"
	case EffectNeutral:
		return "neutral"
	default:
		return "absent"
	}
}

// DoshaEffects holds the raw effect tags as stored by the catalogue. Both the word form
// ("increase") and the symbol form ("+") are accepted.
type DoshaEffects struct {
	Vata  string `json:"vata,omitempty"`
	Pitta string `json:"pitta,omitempty"`
	Kapha string `json:"kapha,omitempty"`
}

// Raw returns the stored tag for dosha.
func (d DoshaEffects) Raw(dosha Dosha) string {
	switch dosha {
	case Vata:
		return d.Vata
	case Pitta:
		return d.Pitta
	case Kapha:
		return d.Kapha
	default:
		return ""
	}
}

// ClassifyEffect parses a raw effect tag.
func ClassifyEffect(raw string) Effect {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "increase", "+":
		return EffectIncrease
	case "decrease", "-":
		return EffectDecrease
	default:
		return EffectNeutral
	}
}

// EffectOn returns the food's effect on dosha, or EffectAbsent when the food has no mapping.
func (f Food) EffectOn(dosha Dosha) Effect {
	if f.DoshaEffects == nil {
		return EffectAbsent
	}
	return ClassifyEffect(f.DoshaEffects.Raw(dosha))
}
