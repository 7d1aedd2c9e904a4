package database

import (
	"errors"
	"fmt"

	"dex-trade-bot-go/internal/config"
	"dex-trade-bot-go/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase creates a new database connection and performs auto-migration.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Database.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db, cfg); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates the schema and seeds the singleton rows. Existing
// data is never dropped; the position ledger and trade history must survive
// restarts.
func AutoMigrate(db *gorm.DB, cfg *config.Config) error {
	if err := db.AutoMigrate(&models.Settings{}, &models.Position{}, &models.Trade{}, &models.Event{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// Seed the operator settings singleton from the bootstrap defaults.
	var settings models.Settings
	if err := db.First(&settings).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.Settings{
			ActiveChain:   cfg.Trading.DefaultChain,
			Stablecoin:    cfg.Trading.DefaultStablecoin,
			Token:         cfg.Trading.DefaultToken,
			Size:          cfg.Trading.DefaultSize,
			Slippage:      cfg.Trading.DefaultSlippage,
			Min:           cfg.Trading.DefaultMin,
			Status:        false,
			AlertsEnabled: true,
		}
		if err := db.Create(&settings).Error; err != nil {
			return fmt.Errorf("failed to seed settings: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	// Seed the position ledger singleton as a closed position.
	var position models.Position
	if err := db.First(&position).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.Create(&models.Position{}).Error; err != nil {
			return fmt.Errorf("failed to seed position: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to read position: %w", err)
	}

	return nil
}
