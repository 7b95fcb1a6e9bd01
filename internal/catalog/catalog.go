// Package catalog writes food records into the catalogue, matching existing
// entries by name without regard to case.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"ahara/models"
)

// Outcome reports what Upsert did with a record.
type Outcome int

const (
	Created Outcome = iota + 1
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

// ErrInvalidFood is returned for records without a name or category.
var ErrInvalidFood = errors.New("catalog: food requires a name and a category")

// Summary collects the results of an Import.
type Summary struct {
	Created int
	Updated int
	Foods   []models.Food
}

// Upsert inserts food or overwrites the entry with the same name. Upserted
// foods are always active. food.ID is set on return.
func Upsert(ctx context.Context, tx *gorm.DB, food *models.Food) (Outcome, error) {
	if tx == nil {
		return 0, errors.New("catalog: database handle is nil")
	}
	food.Name = strings.TrimSpace(food.Name)
	food.Category = strings.TrimSpace(food.Category)
	if food.Name == "" || food.Category == "" {
		return 0, ErrInvalidFood
	}
	food.IsActive = true

	db := tx.WithContext(ctx)
	var existing models.Food
	err := db.Where("lower(name) = ?", strings.ToLower(food.Name)).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		food.ID = 0
		if err := db.Create(food).Error; err != nil {
			return 0, fmt.Errorf("create food %q: %w", food.Name, err)
		}
		return Created, nil
	case err != nil:
		return 0, fmt.Errorf("find food %q: %w", food.Name, err)
	}

	food.ID = existing.ID
	food.CreatedAt = existing.CreatedAt
	if err := db.Save(food).Error; err != nil {
		return 0, fmt.Errorf("update food %q: %w", food.Name, err)
	}
	return Updated, nil
}

// Import upserts every food in a single transaction. Nothing is written when
// any record fails.
func Import(ctx context.Context, db *gorm.DB, foods []models.Food) (Summary, error) {
	if db == nil {
		return Summary{}, errors.New("catalog: database handle is nil")
	}
	var summary Summary
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		summary = Summary{Foods: make([]models.Food, 0, len(foods))}
		for i := range foods {
			food := foods[i]
			outcome, err := Upsert(ctx, tx, &food)
			if err != nil {
				return fmt.Errorf("record %d: %w", i+1, err)
			}
			switch outcome {
			case Created:
				summary.Created++
			case Updated:
				summary.Updated++
			}
			summary.Foods = append(summary.Foods, food)
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}
