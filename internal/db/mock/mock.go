package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"coffeeshop/internal/db"
	applog "coffeeshop/internal/log"
	"coffeeshop/internal/recipe"
	"coffeeshop/models"
)

// Open returns an empty, migrated in-memory sqlite database. Every call gets
// its own database.
func Open(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:coffeeshop-%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	// shared-cache tables lock across connections
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}
	return database, nil
}

// New returns an in-memory sqlite database seeded with a small menu.
func New(ctx context.Context) (*gorm.DB, error) {
	database, err := Open(ctx)
	if err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

// Menu returns the recipes seeded by New keyed by drink title.
func Menu() map[string][]recipe.Ingredient {
	return map[string][]recipe.Ingredient{
		"water": {
			{Name: "water", Color: "blue", Parts: 1},
		},
		"matcha shake": {
			{Name: "milk", Color: "grey", Parts: 1},
			{Name: "matcha", Color: "green", Parts: 3},
		},
		"flatwhite": {
			{Name: "milk", Color: "grey", Parts: 3},
			{Name: "coffee", Color: "brown", Parts: 1},
		},
		"cap": {
			{Name: "foam", Color: "white", Parts: 1},
			{Name: "milk", Color: "grey", Parts: 2},
			{Name: "coffee", Color: "brown", Parts: 1},
		},
	}
}

var menuOrder = []string{"water", "matcha shake", "flatwhite", "cap"}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	menu := Menu()
	for _, title := range menuOrder {
		drink := models.Drink{Title: title}
		if err := drink.SetRecipe(menu[title]); err != nil {
			return err
		}
		if err := database.WithContext(ctx).Create(&drink).Error; err != nil {
			return err
		}
	}

	applog.Debug(ctx, "mock database seeded", "drinks", len(menuOrder))
	return nil
}
