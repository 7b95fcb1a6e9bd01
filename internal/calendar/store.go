package calendar

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"ahara/models"
)

// Owner discriminates whose calendar is addressed. A nil PatientID is the practitioner's
// personal plan.
type Owner struct {
	PractitionerID uint
	PatientID      *uint
}

// Store persists calendar entries.
type Store interface {
	ListRange(ctx context.Context, owner Owner, from, to string) ([]models.MealCalendarEntry, error)
	Insert(ctx context.Context, entry *models.MealCalendarEntry) error
	Delete(ctx context.Context, owner Owner, id uint) error
	// ReplaceRange deletes every entry of owner in [from, to] and inserts entries. Either
	// both steps take effect or neither does.
	ReplaceRange(ctx context.Context, owner Owner, from, to string, entries []models.MealCalendarEntry) error
}

// GormStore is a Store backed by gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func ownedBy(owner Owner) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("practitioner_id = ?", owner.PractitionerID)
		if owner.PatientID == nil {
			return tx.Where("patient_id IS NULL")
		}
		return tx.Where("patient_id = ?", *owner.PatientID)
	}
}

func (s *GormStore) ListRange(ctx context.Context, owner Owner, from, to string) ([]models.MealCalendarEntry, error) {
	var entries []models.MealCalendarEntry
	err := s.db.WithContext(ctx).
		Scopes(ownedBy(owner)).
		Where("entry_date >= ? AND entry_date <= ?", from, to).
		Preload("Food").
		Order("entry_date ASC").
		Order("sort_order ASC").
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("calendar: list entries: %w", err)
	}
	return entries, nil
}

func (s *GormStore) Insert(ctx context.Context, entry *models.MealCalendarEntry) error {
	if err := s.db.WithContext(ctx).Omit("Food").Create(entry).Error; err != nil {
		return fmt.Errorf("calendar: insert entry: %w", err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, owner Owner, id uint) error {
	result := s.db.WithContext(ctx).Unscoped().Scopes(ownedBy(owner)).Where("id = ?", id).Delete(&models.MealCalendarEntry{})
	if result.Error != nil {
		return fmt.Errorf("calendar: delete entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (s *GormStore) ReplaceRange(ctx context.Context, owner Owner, from, to string, entries []models.MealCalendarEntry) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Scopes(ownedBy(owner)).
			Where("entry_date >= ? AND entry_date <= ?", from, to).
			Delete(&models.MealCalendarEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Omit("Food").Create(&entries).Error
	})
	if err != nil {
		return fmt.Errorf("calendar: replace range: %w", err)
	}
	return nil
}
