package repository

import (
	"time"

	"github.com/minlee/storefront-backend/internal/app/model"
	"github.com/minlee/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// CartRepository covers the non-transactional cart reads. Mutations that must
// pair a cart write with a stock write go through the cart service's own
// transaction instead.
type CartRepository interface {
	Create(cart *model.Cart) error
	FindByUser(userID uint) (*model.Cart, error)
	FindBySession(sessionCartID string) (*model.Cart, error)
	FindAbandonedAnonymous(before time.Time) ([]model.Cart, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Create(cart *model.Cart) error {
	logger.Debug("Creating cart in database", map[string]interface{}{
		"user_id":         cart.UserID,
		"session_cart_id": cart.SessionCartID,
	})

	if err := r.db.Create(cart).Error; err != nil {
		logger.Error("Failed to create cart in database", err, map[string]interface{}{
			"session_cart_id": cart.SessionCartID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) FindByUser(userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.Where("user_id = ?", userID).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.id ASC")
		}).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindBySession(sessionCartID string) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.Where("session_cart_id = ? AND user_id IS NULL", sessionCartID).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.id ASC")
		}).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindAbandonedAnonymous(before time.Time) ([]model.Cart, error) {
	var carts []model.Cart
	err := r.db.Where("user_id IS NULL AND updated_at < ?", before).
		Preload("Items").
		Find(&carts).Error
	if err != nil {
		logger.Error("Failed to find abandoned carts", err, map[string]interface{}{
			"before": before,
		})
		return nil, err
	}
	return carts, nil
}
