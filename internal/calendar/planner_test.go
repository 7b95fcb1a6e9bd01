package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ahara/models"
)

func gormModel(id uint) gorm.Model {
	return gorm.Model{ID: id}
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListRange(ctx context.Context, owner Owner, from, to string) ([]models.MealCalendarEntry, error) {
	args := m.Called(ctx, owner, from, to)
	entries, _ := args.Get(0).([]models.MealCalendarEntry)
	return entries, args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, entry *models.MealCalendarEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockStore) Delete(ctx context.Context, owner Owner, id uint) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

func (m *mockStore) ReplaceRange(ctx context.Context, owner Owner, from, to string, entries []models.MealCalendarEntry) error {
	args := m.Called(ctx, owner, from, to, entries)
	return args.Error(0)
}

var (
	testToday = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	testOwner = Owner{PractitionerID: 7}
)

func TestPlannerLoadWeekQueriesWeekRange(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	store.On("ListRange", mock.Anything, testOwner, "2025-03-03", "2025-03-09").
		Return([]models.MealCalendarEntry{{Model: gormModel(1), EntryDate: "2025-03-04", MealType: "lunch", QuantityGrams: 100}}, nil)

	planner := NewPlanner(store, testOwner)
	require.NoError(t, planner.LoadWeek(context.Background(), testToday, -1))

	assert.Equal(t, "2025-03-03", planner.Keys()[0])
	assert.Len(t, planner.Grid().Day("2025-03-04").Lunch, 1)
	store.AssertExpectations(t)
}

func TestPlannerPlaceConfirmsOnSuccess(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	store.On("ListRange", mock.Anything, testOwner, "2025-03-10", "2025-03-16").Return([]models.MealCalendarEntry{}, nil)
	store.On("Insert", mock.Anything, mock.AnythingOfType("*models.MealCalendarEntry")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.MealCalendarEntry).ID = 99
		}).
		Return(nil)

	planner := NewPlanner(store, testOwner)
	require.NoError(t, planner.LoadWeek(context.Background(), testToday, 0))

	food := &models.Food{Model: gormModel(3), CaloriesPer100g: 250}
	entry, err := planner.Place(context.Background(), "2025-03-12", Dinner, food, 50)
	require.NoError(t, err)

	assert.Equal(t, uint(99), entry.ID)
	assert.False(t, entry.Tentative())
	assert.False(t, planner.Grid().HasTentative())
	assert.InDelta(t, 125, planner.DayTotals()["2025-03-12"], 1e-9)

	inserted := store.Calls[1].Arguments.Get(1).(*models.MealCalendarEntry)
	assert.Equal(t, uint(7), inserted.PractitionerID)
	assert.Nil(t, inserted.PatientID)
	assert.Equal(t, "dinner", inserted.MealType)
	assert.Equal(t, 0, inserted.SortOrder)
}

func TestPlannerPlaceRollsBackOnInsertFailure(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	store.On("ListRange", mock.Anything, testOwner, "2025-03-10", "2025-03-16").Return([]models.MealCalendarEntry{}, nil)
	store.On("Insert", mock.Anything, mock.Anything).Return(errors.New("write refused"))

	planner := NewPlanner(store, testOwner)
	require.NoError(t, planner.LoadWeek(context.Background(), testToday, 0))

	food := &models.Food{Model: gormModel(3), CaloriesPer100g: 250}
	_, err := planner.Place(context.Background(), "2025-03-12", Dinner, food, 50)
	require.Error(t, err)

	assert.Empty(t, planner.Grid().Day("2025-03-12").Dinner)
	assert.Zero(t, planner.DayTotals()["2025-03-12"])
}

func TestPlannerRemoveReloadsOnDeleteFailure(t *testing.T) {
	t.Parallel()

	stored := []models.MealCalendarEntry{{Model: gormModel(5), EntryDate: "2025-03-11", MealType: "breakfast", QuantityGrams: 100}}
	store := &mockStore{}
	store.On("ListRange", mock.Anything, testOwner, "2025-03-10", "2025-03-16").Return(stored, nil)
	store.On("Delete", mock.Anything, testOwner, uint(5)).Return(errors.New("connection reset"))

	planner := NewPlanner(store, testOwner)
	require.NoError(t, planner.LoadWeek(context.Background(), testToday, 0))

	err := planner.Remove(context.Background(), "2025-03-11", Breakfast, "5")
	require.Error(t, err)

	assert.Len(t, planner.Grid().Day("2025-03-11").Breakfast, 1)
	store.AssertNumberOfCalls(t, "ListRange", 2)
}

func TestPlannerRemovePersistedEntry(t *testing.T) {
	t.Parallel()

	stored := []models.MealCalendarEntry{{Model: gormModel(5), EntryDate: "2025-03-11", MealType: "breakfast", QuantityGrams: 100}}
	store := &mockStore{}
	store.On("ListRange", mock.Anything, testOwner, "2025-03-10", "2025-03-16").Return(stored, nil)
	store.On("Delete", mock.Anything, testOwner, uint(5)).Return(nil)

	planner := NewPlanner(store, testOwner)
	require.NoError(t, planner.LoadWeek(context.Background(), testToday, 0))
	require.NoError(t, planner.Remove(context.Background(), "2025-03-11", Breakfast, "5"))

	assert.Empty(t, planner.Grid().Day("2025-03-11").Breakfast)
	store.AssertNumberOfCalls(t, "ListRange", 1)
}

func TestPlannerApplyTemplate(t *testing.T) {
	t.Parallel()

	patientID := uint(12)
	owner := Owner{PractitionerID: 7, PatientID: &patientID}
	template := models.MealPlanTemplate{
		Model: gormModel(1),
		Items: []models.MealPlanTemplateItem{
			{DayOfWeek: 0, MealType: "breakfast", FoodID: 1, QuantityGrams: 150},
			{DayOfWeek: 6, MealType: "dinner", FoodID: 2, SortOrder: 1},
		},
	}

	store := &mockStore{}
	store.On("ListRange", mock.Anything, owner, "2025-03-10", "2025-03-16").Return([]models.MealCalendarEntry{}, nil)
	store.On("ReplaceRange", mock.Anything, owner, "2025-03-10", "2025-03-16", mock.MatchedBy(func(entries []models.MealCalendarEntry) bool {
		return len(entries) == 2 &&
			entries[0].EntryDate == "2025-03-10" && entries[0].QuantityGrams == 150 &&
			entries[1].EntryDate == "2025-03-16" && entries[1].QuantityGrams == 100 &&
			*entries[1].PatientID == patientID
	})).Return(nil)

	planner := NewPlanner(store, owner)
	require.NoError(t, planner.LoadWeek(context.Background(), testToday, 0))
	require.NoError(t, planner.ApplyTemplate(context.Background(), template))

	store.AssertNumberOfCalls(t, "ListRange", 2)
	store.AssertExpectations(t)
}

func TestPlannerApplyTemplateFailureReloadsPriorState(t *testing.T) {
	t.Parallel()

	prior := []models.MealCalendarEntry{{Model: gormModel(8), EntryDate: "2025-03-13", MealType: "lunch", QuantityGrams: 100}}
	store := &mockStore{}
	store.On("ListRange", mock.Anything, testOwner, "2025-03-10", "2025-03-16").Return(prior, nil)
	store.On("ReplaceRange", mock.Anything, testOwner, "2025-03-10", "2025-03-16", mock.Anything).Return(errors.New("insert failed"))

	planner := NewPlanner(store, testOwner)
	require.NoError(t, planner.LoadWeek(context.Background(), testToday, 0))

	template := models.MealPlanTemplate{Items: []models.MealPlanTemplateItem{{DayOfWeek: 2, MealType: "lunch", FoodID: 1}}}
	err := planner.ApplyTemplate(context.Background(), template)
	require.EqualError(t, err, "insert failed")

	lunch := planner.Grid().Day("2025-03-13").Lunch
	require.Len(t, lunch, 1)
	assert.Equal(t, uint(8), lunch[0].ID)
	store.AssertNumberOfCalls(t, "ListRange", 2)
}

func TestPlannerApplyTemplateRejectsInvalidItems(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	store.On("ListRange", mock.Anything, testOwner, mock.Anything, mock.Anything).Return([]models.MealCalendarEntry{}, nil)

	planner := NewPlanner(store, testOwner)
	require.NoError(t, planner.LoadWeek(context.Background(), testToday, 0))

	err := planner.ApplyTemplate(context.Background(), models.MealPlanTemplate{Items: []models.MealPlanTemplateItem{{DayOfWeek: 7, MealType: "lunch"}}})
	require.Error(t, err)

	err = planner.ApplyTemplate(context.Background(), models.MealPlanTemplate{Items: []models.MealPlanTemplateItem{{DayOfWeek: 1, MealType: "supper"}}})
	require.ErrorIs(t, err, ErrUnknownMealType)

	store.AssertNotCalled(t, "ReplaceRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
