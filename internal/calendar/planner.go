package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	applog "ahara/internal/log"
	"ahara/models"
)

// Planner applies calendar edits optimistically to a Grid and reconciles them with a
// Store. Failed writes either roll back the tentative change or reload the week.
type Planner struct {
	store Store
	owner Owner
	grid  *Grid
	dates [7]time.Time
}

// NewPlanner returns a planner for owner's calendar.
func NewPlanner(store Store, owner Owner) *Planner {
	return &Planner{store: store, owner: owner, grid: NewGrid()}
}

// Grid exposes the current state.
func (p *Planner) Grid() *Grid { return p.grid }

// Dates returns the loaded week.
func (p *Planner) Dates() [7]time.Time { return p.dates }

// Keys returns the date keys of the loaded week.
func (p *Planner) Keys() [7]string { return WeekKeys(p.dates) }

// LoadWeek fetches the week offset whole weeks from the one containing today.
func (p *Planner) LoadWeek(ctx context.Context, today time.Time, offset int) error {
	p.dates = WeekDates(today, offset)
	return p.Reload(ctx)
}

// Reload replaces the grid with the stored entries of the loaded week.
func (p *Planner) Reload(ctx context.Context) error {
	keys := p.Keys()
	entries, err := p.store.ListRange(ctx, p.owner, keys[0], keys[6])
	if err != nil {
		return err
	}
	p.grid.Load(entries)
	applog.Debug(ctx, "calendar week loaded", "from", keys[0], "to", keys[6], "entries", len(entries))
	return nil
}

// Place adds food to a slot. The entry is shown tentatively, persisted, then confirmed.
// When the insert fails the tentative entry is discarded.
func (p *Planner) Place(ctx context.Context, date string, mealType MealType, food *models.Food, quantityGrams float64) (Entry, error) {
	if food == nil {
		return Entry{}, errors.New("calendar: food is required")
	}
	tentative, err := p.grid.Place(date, mealType, food, quantityGrams)
	if err != nil {
		return Entry{}, err
	}

	record := models.MealCalendarEntry{
		PractitionerID: p.owner.PractitionerID,
		PatientID:      p.owner.PatientID,
		EntryDate:      date,
		MealType:       string(mealType),
		FoodID:         food.ID,
		QuantityGrams:  tentative.QuantityGrams,
		SortOrder:      tentative.SortOrder,
	}
	if err := p.store.Insert(ctx, &record); err != nil {
		p.grid.Discard(tentative.TentativeID)
		applog.Error(ctx, "calendar placement rolled back", "date", date, "meal_type", mealType, "error", err)
		return Entry{}, err
	}
	record.Food = food
	if err := p.grid.Confirm(tentative.TentativeID, record); err != nil {
		return Entry{}, err
	}
	return entryFromRecord(record), nil
}

// Remove drops an entry from its slot and deletes its stored counterpart. When the delete
// fails the week is reloaded from the store.
func (p *Planner) Remove(ctx context.Context, date string, mealType MealType, key string) error {
	removed, err := p.grid.Remove(date, mealType, key)
	if err != nil {
		return err
	}
	if removed.Tentative() {
		return nil
	}
	if err := p.store.Delete(ctx, p.owner, removed.ID); err != nil {
		applog.Error(ctx, "calendar removal failed, reloading", "entry_id", removed.ID, "error", err)
		if reloadErr := p.Reload(ctx); reloadErr != nil {
			return errors.Join(err, reloadErr)
		}
		return err
	}
	return nil
}

// ApplyTemplate replaces the loaded week with the template's items, mapping day_of_week
// (0 = Monday) onto the week's dates. The week is reloaded afterwards whether or not the
// replacement succeeded.
func (p *Planner) ApplyTemplate(ctx context.Context, template models.MealPlanTemplate) error {
	keys := p.Keys()
	entries := make([]models.MealCalendarEntry, 0, len(template.Items))
	for _, item := range template.Items {
		if item.DayOfWeek < 0 || item.DayOfWeek > 6 {
			return fmt.Errorf("calendar: template item %d has day_of_week %d", item.ID, item.DayOfWeek)
		}
		mealType, err := ParseMealType(item.MealType)
		if err != nil {
			return fmt.Errorf("calendar: template item %d: %w", item.ID, err)
		}
		quantity := item.QuantityGrams
		if quantity <= 0 {
			quantity = defaultQuantityGrams
		}
		entries = append(entries, models.MealCalendarEntry{
			PractitionerID: p.owner.PractitionerID,
			PatientID:      p.owner.PatientID,
			EntryDate:      keys[item.DayOfWeek],
			MealType:       string(mealType),
			FoodID:         item.FoodID,
			QuantityGrams:  quantity,
			SortOrder:      item.SortOrder,
		})
	}

	replaceErr := p.store.ReplaceRange(ctx, p.owner, keys[0], keys[6], entries)
	if replaceErr != nil {
		applog.Error(ctx, "template application failed", "template_id", template.ID, "error", replaceErr)
	}
	if err := p.Reload(ctx); err != nil {
		return errors.Join(replaceErr, err)
	}
	return replaceErr
}

// DayTotals returns the calorie total for each day of the loaded week.
func (p *Planner) DayTotals() map[string]float64 {
	totals := make(map[string]float64, 7)
	for _, key := range p.Keys() {
		totals[key] = p.grid.DayTotal(key)
	}
	return totals
}
