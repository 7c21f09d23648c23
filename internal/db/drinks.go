package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"coffeeshop/models"
)

const pgUniqueViolation = "23505"

var (
	// ErrNotFound is returned when no drink has the requested id.
	ErrNotFound = errors.New("drink not found")
	// ErrDuplicateTitle is returned when a write collides with an existing title.
	ErrDuplicateTitle = errors.New("drink title already exists")
	// ErrUnavailable wraps failures to reach the database at all.
	ErrUnavailable = errors.New("database unavailable")
)

// DrinkRepository persists drinks through gorm.
type DrinkRepository struct {
	db *gorm.DB
}

// NewDrinkRepository wraps db. A nil handle yields a repository whose calls
// fail with ErrUnavailable.
func NewDrinkRepository(db *gorm.DB) *DrinkRepository {
	return &DrinkRepository{db: db}
}

// All returns every drink ordered by id.
func (r *DrinkRepository) All(ctx context.Context) ([]models.Drink, error) {
	if r == nil || r.db == nil {
		return nil, ErrUnavailable
	}
	var drinks []models.Drink
	if err := r.db.WithContext(ctx).Order("id asc").Find(&drinks).Error; err != nil {
		return nil, classify("list drinks", err)
	}
	return drinks, nil
}

// ByID loads a single drink.
func (r *DrinkRepository) ByID(ctx context.Context, id uint) (*models.Drink, error) {
	if r == nil || r.db == nil {
		return nil, ErrUnavailable
	}
	var drink models.Drink
	if err := r.db.WithContext(ctx).First(&drink, id).Error; err != nil {
		return nil, classify("load drink", err)
	}
	return &drink, nil
}

// Insert creates drink and fills in its storage-assigned id.
func (r *DrinkRepository) Insert(ctx context.Context, drink *models.Drink) error {
	if r == nil || r.db == nil {
		return ErrUnavailable
	}
	drink.ID = 0
	if err := r.db.WithContext(ctx).Create(drink).Error; err != nil {
		return classify("insert drink", err)
	}
	return nil
}

// Update writes the title and recipe of an existing drink.
func (r *DrinkRepository) Update(ctx context.Context, drink *models.Drink) error {
	if r == nil || r.db == nil {
		return ErrUnavailable
	}
	result := r.db.WithContext(ctx).Model(drink).Select("Title", "Recipe", "UpdatedAt").Updates(drink)
	if result.Error != nil {
		return classify("update drink", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes drink permanently.
func (r *DrinkRepository) Delete(ctx context.Context, drink *models.Drink) error {
	if r == nil || r.db == nil {
		return ErrUnavailable
	}
	result := r.db.WithContext(ctx).Delete(&models.Drink{}, drink.ID)
	if result.Error != nil {
		return classify("delete drink", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks that the database still accepts connections.
func (r *DrinkRepository) Ping(ctx context.Context) error {
	if r == nil || r.db == nil {
		return ErrUnavailable
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, ErrDuplicateTitle)
	case isConnectivity(err):
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	// sqlite reports constraint failures only through the message when
	// error translation is disabled on the handle.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isConnectivity(err error) bool {
	if errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
