package calendar

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"ahara/models"
)

// MealType identifies one of the four calendar slots of a day.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snacks    MealType = "snacks"
)

// MealTypes lists the slots in display order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snacks}

const defaultQuantityGrams = 100

var (
	ErrUnknownMealType = errors.New("calendar: unknown meal type")
	ErrEntryNotFound   = errors.New("calendar: entry not found")
)

// ParseMealType normalises value into a MealType.
func ParseMealType(value string) (MealType, error) {
	mealType := MealType(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range MealTypes {
		if mealType == known {
			return mealType, nil
		}
	}
	return "", ErrUnknownMealType
}

// Entry is one food placed on the calendar. Tentative entries carry a TentativeID and no
// persisted ID until they are confirmed.
type Entry struct {
	ID            uint         `json:"id,omitempty"`
	TentativeID   string       `json:"tentative_id,omitempty"`
	Date          string       `json:"date"`
	MealType      MealType     `json:"meal_type"`
	FoodID        uint         `json:"food_id"`
	Food          *models.Food `json:"food,omitempty"`
	QuantityGrams float64      `json:"quantity_grams"`
	SortOrder     int          `json:"sort_order"`
}

// Tentative reports whether the entry has not been confirmed by the store.
func (e Entry) Tentative() bool {
	return e.TentativeID != ""
}

// Key identifies the entry within the grid.
func (e Entry) Key() string {
	if e.Tentative() {
		return e.TentativeID
	}
	return strconv.FormatUint(uint64(e.ID), 10)
}

// Calories returns the entry's calorie contribution.
func (e Entry) Calories() float64 {
	if e.Food == nil {
		return 0
	}
	return e.Food.CaloriesPer100g * e.QuantityGrams / 100
}

func entryFromRecord(record models.MealCalendarEntry) Entry {
	return Entry{
		ID:            record.ID,
		Date:          record.EntryDate,
		MealType:      MealType(record.MealType),
		FoodID:        record.FoodID,
		Food:          record.Food,
		QuantityGrams: record.QuantityGrams,
		SortOrder:     record.SortOrder,
	}
}

// DayMeals holds the four ordered slot lists of a single date.
type DayMeals struct {
	Breakfast []Entry `json:"breakfast"`
	Lunch     []Entry `json:"lunch"`
	Dinner    []Entry `json:"dinner"`
	Snacks    []Entry `json:"snacks"`
}

func newDayMeals() *DayMeals {
	return &DayMeals{Breakfast: []Entry{}, Lunch: []Entry{}, Dinner: []Entry{}, Snacks: []Entry{}}
}

func (d *DayMeals) slot(mealType MealType) *[]Entry {
	switch mealType {
	case Breakfast:
		return &d.Breakfast
	case Lunch:
		return &d.Lunch
	case Dinner:
		return &d.Dinner
	case Snacks:
		return &d.Snacks
	default:
		return nil
	}
}

// Slot returns the entries of one slot.
func (d DayMeals) Slot(mealType MealType) []Entry {
	if s := d.slot(mealType); s != nil {
		return *s
	}
	return nil
}

func (d DayMeals) clone() DayMeals {
	return DayMeals{
		Breakfast: append([]Entry{}, d.Breakfast...),
		Lunch:     append([]Entry{}, d.Lunch...),
		Dinner:    append([]Entry{}, d.Dinner...),
		Snacks:    append([]Entry{}, d.Snacks...),
	}
}

// Grid maps date keys to day meals. It is not safe for concurrent use.
type Grid struct {
	days map[string]*DayMeals
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{days: make(map[string]*DayMeals)}
}

func (g *Grid) day(date string) *DayMeals {
	d, ok := g.days[date]
	if !ok {
		d = newDayMeals()
		g.days[date] = d
	}
	return d
}

// Load replaces the grid contents with records grouped by date and meal type, each slot
// ordered by sort position then id. Records with an unknown meal type are dropped.
func (g *Grid) Load(records []models.MealCalendarEntry) {
	g.days = make(map[string]*DayMeals)
	for _, record := range records {
		entry := entryFromRecord(record)
		mealType, err := ParseMealType(string(entry.MealType))
		if err != nil {
			continue
		}
		entry.MealType = mealType
		slot := g.day(entry.Date).slot(mealType)
		*slot = append(*slot, entry)
	}
	for _, d := range g.days {
		for _, mealType := range MealTypes {
			entries := *d.slot(mealType)
			sort.SliceStable(entries, func(i, j int) bool {
				if entries[i].SortOrder != entries[j].SortOrder {
					return entries[i].SortOrder < entries[j].SortOrder
				}
				return entries[i].ID < entries[j].ID
			})
		}
	}
}

// Day returns a copy of the meals placed on date.
func (g *Grid) Day(date string) DayMeals {
	d, ok := g.days[date]
	if !ok {
		return *newDayMeals()
	}
	return d.clone()
}

// Place appends a tentative entry to the slot. Quantities that are not positive default
// to 100 grams.
func (g *Grid) Place(date string, mealType MealType, food *models.Food, quantityGrams float64) (Entry, error) {
	mealType, err := ParseMealType(string(mealType))
	if err != nil {
		return Entry{}, err
	}
	if quantityGrams <= 0 {
		quantityGrams = defaultQuantityGrams
	}
	slot := g.day(date).slot(mealType)
	entry := Entry{
		TentativeID:   "tentative-" + uuid.NewString(),
		Date:          date,
		MealType:      mealType,
		Food:          food,
		QuantityGrams: quantityGrams,
		SortOrder:     len(*slot),
	}
	if food != nil {
		entry.FoodID = food.ID
	}
	*slot = append(*slot, entry)
	return entry, nil
}

// Confirm swaps the tentative entry for the persisted record.
func (g *Grid) Confirm(tentativeID string, record models.MealCalendarEntry) error {
	d, slot, index := g.find(tentativeID)
	if d == nil {
		return ErrEntryNotFound
	}
	confirmed := entryFromRecord(record)
	if confirmed.Food == nil {
		confirmed.Food = (*slot)[index].Food
	}
	(*slot)[index] = confirmed
	return nil
}

// Discard drops a tentative entry. It reports whether the entry was present.
func (g *Grid) Discard(tentativeID string) bool {
	_, slot, index := g.find(tentativeID)
	if slot == nil {
		return false
	}
	*slot = append((*slot)[:index], (*slot)[index+1:]...)
	return true
}

// Remove deletes the entry identified by key from the given slot and returns it.
func (g *Grid) Remove(date string, mealType MealType, key string) (Entry, error) {
	d, ok := g.days[date]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	slot := d.slot(mealType)
	if slot == nil {
		return Entry{}, ErrUnknownMealType
	}
	for i, entry := range *slot {
		if entry.Key() == key {
			*slot = append((*slot)[:i], (*slot)[i+1:]...)
			return entry, nil
		}
	}
	return Entry{}, ErrEntryNotFound
}

func (g *Grid) find(key string) (*DayMeals, *[]Entry, int) {
	for _, d := range g.days {
		for _, mealType := range MealTypes {
			slot := d.slot(mealType)
			for i, entry := range *slot {
				if entry.Key() == key {
					return d, slot, i
				}
			}
		}
	}
	return nil, nil, -1
}

// DayTotal sums calories across all slots of date.
func (g *Grid) DayTotal(date string) float64 {
	d, ok := g.days[date]
	if !ok {
		return 0
	}
	total := 0.0
	for _, mealType := range MealTypes {
		for _, entry := range *d.slot(mealType) {
			total += entry.Calories()
		}
	}
	return total
}

// HasTentative reports whether any entry is still unconfirmed.
func (g *Grid) HasTentative() bool {
	for _, d := range g.days {
		for _, mealType := range MealTypes {
			for _, entry := range *d.slot(mealType) {
				if entry.Tentative() {
					return true
				}
			}
		}
	}
	return false
}
