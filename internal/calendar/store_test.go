package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ahara/models"
)

func newStoreTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:calendar-test-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Food{}, &models.MealCalendarEntry{}))
	return db
}

func seedFood(t *testing.T, db *gorm.DB, name string, calories float64) models.Food {
	t.Helper()
	food := models.Food{Name: name, Category: "grains", PrimaryTaste: models.TasteSweet, CaloriesPer100g: calories, IsActive: true}
	require.NoError(t, db.Create(&food).Error)
	return food
}

func TestGormStoreListRangeScopesByOwner(t *testing.T) {
	db := newStoreTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()
	rice := seedFood(t, db, "Rice", 130)

	patientID := uint(3)
	rows := []models.MealCalendarEntry{
		{PractitionerID: 1, EntryDate: "2025-03-10", MealType: "lunch", FoodID: rice.ID, QuantityGrams: 100},
		{PractitionerID: 1, EntryDate: "2025-03-16", MealType: "dinner", FoodID: rice.ID, QuantityGrams: 100},
		{PractitionerID: 1, EntryDate: "2025-03-17", MealType: "dinner", FoodID: rice.ID, QuantityGrams: 100},
		{PractitionerID: 1, PatientID: &patientID, EntryDate: "2025-03-11", MealType: "lunch", FoodID: rice.ID, QuantityGrams: 100},
		{PractitionerID: 2, EntryDate: "2025-03-11", MealType: "lunch", FoodID: rice.ID, QuantityGrams: 100},
	}
	for i := range rows {
		require.NoError(t, store.Insert(ctx, &rows[i]))
	}

	personal, err := store.ListRange(ctx, Owner{PractitionerID: 1}, "2025-03-10", "2025-03-16")
	require.NoError(t, err)
	require.Len(t, personal, 2)
	assert.Equal(t, "2025-03-10", personal[0].EntryDate)
	require.NotNil(t, personal[0].Food)
	assert.Equal(t, "Rice", personal[0].Food.Name)

	forPatient, err := store.ListRange(ctx, Owner{PractitionerID: 1, PatientID: &patientID}, "2025-03-10", "2025-03-16")
	require.NoError(t, err)
	require.Len(t, forPatient, 1)
	assert.Equal(t, "2025-03-11", forPatient[0].EntryDate)
}

func TestGormStoreDelete(t *testing.T) {
	db := newStoreTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()
	rice := seedFood(t, db, "Rice", 130)

	entry := models.MealCalendarEntry{PractitionerID: 1, EntryDate: "2025-03-10", MealType: "lunch", FoodID: rice.ID, QuantityGrams: 100}
	require.NoError(t, store.Insert(ctx, &entry))

	assert.ErrorIs(t, store.Delete(ctx, Owner{PractitionerID: 2}, entry.ID), ErrEntryNotFound)
	require.NoError(t, store.Delete(ctx, Owner{PractitionerID: 1}, entry.ID))
	assert.ErrorIs(t, store.Delete(ctx, Owner{PractitionerID: 1}, entry.ID), ErrEntryNotFound)
}

func TestGormStoreReplaceRangeIsAtomic(t *testing.T) {
	db := newStoreTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()
	rice := seedFood(t, db, "Rice", 130)
	dal := seedFood(t, db, "Mung dal", 105)
	owner := Owner{PractitionerID: 1}

	prior := models.MealCalendarEntry{PractitionerID: 1, EntryDate: "2025-03-12", MealType: "lunch", FoodID: rice.ID, QuantityGrams: 100}
	require.NoError(t, store.Insert(ctx, &prior))

	var failInserts atomic.Bool
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_calendar_insert", func(tx *gorm.DB) {
		if failInserts.Load() && tx.Statement.Schema != nil && tx.Statement.Schema.Table == "meal_calendar_entries" {
			_ = tx.AddError(errors.New("simulated insert failure"))
		}
	}))

	replacement := []models.MealCalendarEntry{
		{PractitionerID: 1, EntryDate: "2025-03-10", MealType: "breakfast", FoodID: dal.ID, QuantityGrams: 150},
		{PractitionerID: 1, EntryDate: "2025-03-16", MealType: "dinner", FoodID: rice.ID, QuantityGrams: 80},
	}

	failInserts.Store(true)
	err := store.ReplaceRange(ctx, owner, "2025-03-10", "2025-03-16", replacement)
	require.Error(t, err)

	entries, err := store.ListRange(ctx, owner, "2025-03-10", "2025-03-16")
	require.NoError(t, err)
	require.Len(t, entries, 1, "failed replacement must leave prior entries intact")
	assert.Equal(t, prior.ID, entries[0].ID)

	failInserts.Store(false)
	require.NoError(t, store.ReplaceRange(ctx, owner, "2025-03-10", "2025-03-16", replacement))

	entries, err = store.ListRange(ctx, owner, "2025-03-10", "2025-03-16")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2025-03-10", entries[0].EntryDate)
	assert.Equal(t, "2025-03-16", entries[1].EntryDate)
}

func TestPlannerAgainstGormStore(t *testing.T) {
	db := newStoreTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()
	halwa := seedFood(t, db, "Halwa", 250)

	planner := NewPlanner(store, Owner{PractitionerID: 4})
	require.NoError(t, planner.LoadWeek(ctx, testToday, 0))

	entry, err := planner.Place(ctx, "2025-03-14", Snacks, &halwa, 50)
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.InDelta(t, 125, planner.Grid().DayTotal("2025-03-14"), 1e-9)

	reloaded := NewPlanner(store, Owner{PractitionerID: 4})
	require.NoError(t, reloaded.LoadWeek(ctx, testToday, 0))
	assert.InDelta(t, 125, reloaded.Grid().DayTotal("2025-03-14"), 1e-9)

	require.NoError(t, reloaded.Remove(ctx, "2025-03-14", Snacks, entry.Key()))
	assert.Zero(t, reloaded.Grid().DayTotal("2025-03-14"))
}
