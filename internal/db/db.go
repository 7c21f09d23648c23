package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coffeeshop/internal/config"
	applog "coffeeshop/internal/log"
	"coffeeshop/internal/recipe"
	"coffeeshop/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Initialize opens the database named by cfg.URL. URLs prefixed with
// "sqlite:" or "file:" use sqlite; everything else is handed to postgres.
func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg.URL)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Warn),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
		},
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
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

func dialectorFor(url string) (gorm.Dialector, error) {
	trimmed := strings.TrimSpace(url)
	switch {
	case trimmed == "":
		return nil, fmt.Errorf("database URL must not be empty")
	case strings.HasPrefix(trimmed, "sqlite:"):
		return sqlite.Open(strings.TrimPrefix(trimmed, "sqlite:")), nil
	case strings.HasPrefix(trimmed, "file:"):
		return sqlite.Open(trimmed), nil
	default:
		return postgres.Open(trimmed), nil
	}
}

// AutoMigrate creates the drinks table when it does not exist yet.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database handle is nil")
	}

	return db.AutoMigrate(&models.Drink{})
}

// Reset drops every drink and recreates the schema with a single sample drink.
func Reset(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database handle is nil")
	}

	applog.Info(ctx, "resetting drinks table")
	if err := db.WithContext(ctx).Migrator().DropTable(&models.Drink{}); err != nil {
		return fmt.Errorf("drop drinks: %w", err)
	}
	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("create drinks: %w", err)
	}

	water := models.Drink{Title: "water"}
	if err := water.SetRecipe([]recipe.Ingredient{{Name: "water", Color: "blue", Parts: 1}}); err != nil {
		return err
	}
	if err := db.WithContext(ctx).Create(&water).Error; err != nil {
		return fmt.Errorf("seed drinks: %w", err)
	}
	return nil
}

// Configure opens and migrates the database, resetting it when requested.
func Configure(cfg config.DatabaseConfig) (*gorm.DB, error) {
	database, err := Initialize(cfg)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(database); err != nil {
		return nil, err
	}

	if cfg.Reset {
		if err := Reset(context.Background(), database); err != nil {
			return nil, err
		}
	}

	return database, nil
}

func MustConfigure(cfg config.DatabaseConfig) *gorm.DB {
	database, err := Configure(cfg)
	if err != nil {
		panic(err)
	}

	return database
}
