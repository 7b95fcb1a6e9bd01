// Package db opens the practice database and migrates its schema.
package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ahara/internal/config"
	"ahara/models"
)

const sqliteScheme = "sqlite:"

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Food{},
		&models.Patient{},
		&models.DietChart{},
		&models.DietChartItem{},
		&models.MealCalendarEntry{},
		&models.MealPlanTemplate{},
		&models.MealPlanTemplateItem{},
	}
}

// dialector picks the driver from the URL. "sqlite:<dsn>" opens a sqlite file, anything
// else is handed to postgres.
func dialector(url string) (gorm.Dialector, string) {
	if dsn, ok := strings.CutPrefix(url, sqliteScheme); ok {
		return sqlite.Open(dsn), "sqlite"
	}
	return postgres.Open(url), "postgres"
}

// Initialize opens the database and applies the pool limits from cfg.
func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("database URL must not be empty")
	}

	dial, driver := dialector(url)
	db, err := gorm.Open(dial, &gorm.Config{
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	return db, nil
}

// AutoMigrate creates or updates the tables for Models.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database handle is nil")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Configure opens and migrates the database.
func Configure(cfg config.DatabaseConfig) (*gorm.DB, error) {
	database, err := Initialize(cfg)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(database); err != nil {
		return nil, err
	}
	return database, nil
}
