package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/minlee/storefront-backend/internal/app/model"
	"github.com/minlee/storefront-backend/internal/app/repository"
	"github.com/minlee/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientStock  = errors.New("insufficient product stock")
	ErrProductNotFound    = errors.New("product not found")
	ErrCartSessionMissing = errors.New("no cart session or user identity")
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrCartConflict       = errors.New("cart was modified concurrently")
)

// CartOwner identifies whose cart an operation targets: an authenticated
// user, or an anonymous session. Always passed explicitly, never ambient.
type CartOwner struct {
	UserID    *uint
	SessionID string
}

func (o CartOwner) resolved() bool {
	return o.UserID != nil || o.SessionID != ""
}

// CartService is the cart engine: line-item pricing, order totals and
// product-stock reconciliation, one atomic transaction per mutation. A unit
// added to a cart is a unit reserved from product stock; every quantity
// decrease (including removal) restores the same amount.
type CartService interface {
	GetCart(owner CartOwner) (*model.Cart, error)
	AddOrUpdateItem(owner CartOwner, productID uint, desiredQty int) (string, error)
	RemoveOneUnit(owner CartOwner, productID uint) (string, error)
	MergeSessionCart(userID uint, sessionCartID string) error
	ReleaseAbandoned(olderThan time.Duration) (int, error)
}

type cartService struct {
	cartRepo repository.CartRepository
	db       *gorm.DB
}

func NewCartService(cartRepo repository.CartRepository, db *gorm.DB) CartService {
	return &cartService{
		cartRepo: cartRepo,
		db:       db,
	}
}

// GetCart resolves the owner's current cart. A missing cart is not an error;
// the caller receives nil.
func (s *cartService) GetCart(owner CartOwner) (*model.Cart, error) {
	if !owner.resolved() {
		return nil, ErrCartSessionMissing
	}

	// A signed-in caller resolves to the user cart only, the same cart the
	// mutations target. An anonymous cart left behind by the cookie is
	// claimed at login by MergeSessionCart, not read here.
	if owner.UserID != nil {
		cart, err := s.cartRepo.FindByUser(*owner.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			logger.Error("Failed to fetch user cart", err, map[string]interface{}{
				"user_id": *owner.UserID,
			})
			return nil, err
		}
		return cart, nil
	}

	cart, err := s.cartRepo.FindBySession(owner.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error("Failed to fetch session cart", err, map[string]interface{}{
			"session_cart_id": owner.SessionID,
		})
		return nil, err
	}
	return cart, nil
}

// AddOrUpdateItem sets a product's cart quantity to desiredQty, reconciling
// product stock by the delta. The cart write and the stock write commit
// together or not at all.
func (s *cartService) AddOrUpdateItem(owner CartOwner, productID uint, desiredQty int) (string, error) {
	if !owner.resolved() {
		return "", ErrCartSessionMissing
	}
	if desiredQty < 1 {
		return "", ErrInvalidQuantity
	}

	logger.Info("Adding or updating cart item", map[string]interface{}{
		"user_id":         owner.UserID,
		"session_cart_id": owner.SessionID,
		"product_id":      productID,
		"desired_qty":     desiredQty,
	})

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during cart mutation, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"product_id": productID,
			})
		}
	}()

	var product model.Product
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, productID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot update cart: product not found", map[string]interface{}{
				"product_id": productID,
			})
			return "", ErrProductNotFound
		}
		logger.Error("Failed to fetch product for cart update", err, map[string]interface{}{
			"product_id": productID,
		})
		return "", err
	}

	cart, err := s.findCartForUpdate(tx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.createCartWithItem(tx, owner, &product, desiredQty)
		}
		tx.Rollback()
		return "", err
	}

	var message string
	if item := cart.FindItem(productID); item != nil {
		delta := desiredQty - item.Qty
		if delta == 0 {
			tx.Rollback()
			logger.Debug("Cart quantity unchanged", map[string]interface{}{
				"cart_id":    cart.ID,
				"product_id": productID,
			})
			return fmt.Sprintf("%s is already in the cart", product.Name), nil
		}

		if delta > 0 && product.Stock < delta {
			tx.Rollback()
			logger.Warn("Cannot update cart: insufficient stock", map[string]interface{}{
				"product_id": productID,
				"requested":  delta,
				"available":  product.Stock,
			})
			return "", ErrInsufficientStock
		}

		item.Qty = desiredQty
		if err := tx.Model(&model.CartItem{}).
			Where("id = ?", item.ID).
			Update("qty", desiredQty).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to update cart item quantity", err, map[string]interface{}{
				"cart_item_id": item.ID,
			})
			return "", err
		}

		// Negative delta restores stock; positive delta reserves it.
		if err := s.adjustStock(tx, productID, -delta); err != nil {
			tx.Rollback()
			return "", err
		}
		message = fmt.Sprintf("%s updated in cart", product.Name)
	} else {
		if product.Stock < desiredQty {
			tx.Rollback()
			logger.Warn("Cannot add to cart: insufficient stock", map[string]interface{}{
				"product_id": productID,
				"requested":  desiredQty,
				"available":  product.Stock,
			})
			return "", ErrInsufficientStock
		}

		newItem := snapshotItem(cart.ID, &product, desiredQty)
		if err := tx.Create(&newItem).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to create cart item", err, map[string]interface{}{
				"cart_id":    cart.ID,
				"product_id": productID,
			})
			return "", err
		}
		cart.Items = append(cart.Items, newItem)

		if err := s.adjustStock(tx, productID, -desiredQty); err != nil {
			tx.Rollback()
			return "", err
		}
		message = fmt.Sprintf("%s added to cart", product.Name)
	}

	if err := s.savePrices(tx, cart); err != nil {
		tx.Rollback()
		return "", err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit cart mutation", err, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return "", err
	}

	logger.Info("Cart item saved", map[string]interface{}{
		"cart_id":    cart.ID,
		"product_id": productID,
		"qty":        desiredQty,
	})
	return message, nil
}

// RemoveOneUnit decreases a cart line by a single unit, deleting the line
// when it reaches zero, and restores one unit of product stock in the same
// transaction.
func (s *cartService) RemoveOneUnit(owner CartOwner, productID uint) (string, error) {
	if !owner.resolved() {
		return "", ErrCartSessionMissing
	}

	logger.Info("Removing one unit from cart", map[string]interface{}{
		"user_id":         owner.UserID,
		"session_cart_id": owner.SessionID,
		"product_id":      productID,
	})

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during cart removal, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"product_id": productID,
			})
		}
	}()

	cart, err := s.findCartForUpdate(tx, owner)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrCartItemNotFound
		}
		return "", err
	}

	item := cart.FindItem(productID)
	if item == nil {
		tx.Rollback()
		logger.Warn("Removal requested for product not in cart", map[string]interface{}{
			"cart_id":    cart.ID,
			"product_id": productID,
		})
		return "", ErrCartItemNotFound
	}

	var message string
	if item.Qty == 1 {
		if err := tx.Delete(&model.CartItem{}, item.ID).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to delete cart item", err, map[string]interface{}{
				"cart_item_id": item.ID,
			})
			return "", err
		}
		cart.Items = removeItem(cart.Items, item.ID)
		message = fmt.Sprintf("%s removed from cart", item.Name)
	} else {
		item.Qty--
		if err := tx.Model(&model.CartItem{}).
			Where("id = ?", item.ID).
			Update("qty", item.Qty).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to decrease cart item quantity", err, map[string]interface{}{
				"cart_item_id": item.ID,
			})
			return "", err
		}
		message = fmt.Sprintf("%s quantity decreased", item.Name)
	}

	if err := s.adjustStock(tx, productID, 1); err != nil {
		tx.Rollback()
		return "", err
	}

	if err := s.savePrices(tx, cart); err != nil {
		tx.Rollback()
		return "", err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit cart removal", err, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return "", err
	}

	logger.Info("Cart unit removed", map[string]interface{}{
		"cart_id":    cart.ID,
		"product_id": productID,
	})
	return message, nil
}

// MergeSessionCart transfers an anonymous cart to a signing-in user
// (merge-by-replace). A pre-existing user cart is discarded and its reserved
// stock is restored, all in one transaction.
func (s *cartService) MergeSessionCart(userID uint, sessionCartID string) error {
	if sessionCartID == "" {
		return nil
	}

	logger.Info("Merging session cart into user cart", map[string]interface{}{
		"user_id":         userID,
		"session_cart_id": sessionCartID,
	})

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during cart merge, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
		}
	}()

	sessionCart, err := s.findCartForUpdate(tx, CartOwner{SessionID: sessionCartID})
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Nothing to transfer.
			return nil
		}
		return err
	}

	userCart, err := s.findCartForUpdate(tx, CartOwner{UserID: &userID})
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return err
	}
	if userCart != nil {
		if err := s.releaseCartTx(tx, userCart); err != nil {
			tx.Rollback()
			return err
		}
	}

	res := tx.Model(&model.Cart{}).
		Where("id = ? AND version = ?", sessionCart.ID, sessionCart.Version).
		Updates(map[string]interface{}{
			"user_id": userID,
			"version": sessionCart.Version + 1,
		})
	if res.Error != nil {
		tx.Rollback()
		logger.Error("Failed to reassign session cart", res.Error, map[string]interface{}{
			"cart_id": sessionCart.ID,
			"user_id": userID,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return ErrCartConflict
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit cart merge", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	logger.Info("Session cart merged", map[string]interface{}{
		"cart_id": sessionCart.ID,
		"user_id": userID,
	})
	return nil
}

// ReleaseAbandoned deletes anonymous carts untouched for longer than
// olderThan and restores their reserved stock. Returns the number of carts
// released.
func (s *cartService) ReleaseAbandoned(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	carts, err := s.cartRepo.FindAbandonedAnonymous(cutoff)
	if err != nil {
		return 0, err
	}

	released := 0
	for i := range carts {
		ok, err := s.releaseCart(carts[i].ID, cutoff)
		if err != nil {
			logger.Error("Failed to release abandoned cart", err, map[string]interface{}{
				"cart_id": carts[i].ID,
			})
			continue
		}
		if ok {
			released++
		}
	}

	if released > 0 {
		logger.Info("Abandoned carts released", map[string]interface{}{
			"count":  released,
			"cutoff": cutoff,
		})
	}
	return released, nil
}

// releaseCart re-reads the cart under a row lock before restoring stock; the
// scan's snapshot may be stale by the time the cart is processed. A cart that
// was claimed, deleted or touched since the scan is skipped.
func (s *cartService) releaseCart(cartID uint, cutoff time.Time) (bool, error) {
	tx := s.db.Begin()

	var cart model.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id IS NULL AND updated_at < ?", cartID, cutoff).
		First(&cart).Error
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := tx.Where("cart_id = ?", cart.ID).Order("id ASC").Find(&cart.Items).Error; err != nil {
		tx.Rollback()
		return false, err
	}

	if err := s.releaseCartTx(tx, &cart); err != nil {
		tx.Rollback()
		return false, err
	}
	if err := tx.Commit().Error; err != nil {
		return false, err
	}
	return true, nil
}

// releaseCartTx restores the stock reserved by every line of the cart, then
// deletes the cart and its items.
func (s *cartService) releaseCartTx(tx *gorm.DB, cart *model.Cart) error {
	for _, item := range cart.Items {
		if err := s.adjustStock(tx, item.ProductID, item.Qty); err != nil {
			return err
		}
	}
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items during release", err, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return err
	}
	if err := tx.Delete(&model.Cart{}, cart.ID).Error; err != nil {
		logger.Error("Failed to delete cart during release", err, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return err
	}
	return nil
}

// findCartForUpdate loads and row-locks the owner's cart, items in insertion
// order.
func (s *cartService) findCartForUpdate(tx *gorm.DB, owner CartOwner) (*model.Cart, error) {
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"})
	if owner.UserID != nil {
		q = q.Where("user_id = ?", *owner.UserID)
	} else {
		q = q.Where("session_cart_id = ? AND user_id IS NULL", owner.SessionID)
	}

	var cart model.Cart
	if err := q.First(&cart).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("cart_id = ?", cart.ID).Order("id ASC").Find(&cart.Items).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// createCartWithItem handles the first add for an owner with no cart yet.
func (s *cartService) createCartWithItem(tx *gorm.DB, owner CartOwner, product *model.Product, desiredQty int) (string, error) {
	if product.Stock < desiredQty {
		tx.Rollback()
		logger.Warn("Cannot create cart: insufficient stock", map[string]interface{}{
			"product_id": product.ID,
			"requested":  desiredQty,
			"available":  product.Stock,
		})
		return "", ErrInsufficientStock
	}

	cart := model.Cart{
		UserID:        owner.UserID,
		SessionCartID: owner.SessionID,
		Items:         []model.CartItem{snapshotItem(0, product, desiredQty)},
	}

	prices, err := CalcCartPrices(cart.Items)
	if err != nil {
		tx.Rollback()
		return "", err
	}
	cart.ItemsPrice = prices.ItemsPrice
	cart.ShippingPrice = prices.ShippingPrice
	cart.TaxPrice = prices.TaxPrice
	cart.TotalPrice = prices.TotalPrice

	if err := tx.Create(&cart).Error; err != nil {
		logger.Error("Failed to create cart", err, map[string]interface{}{
			"session_cart_id": owner.SessionID,
		})
		tx.Rollback()
		return "", err
	}

	if err := s.adjustStock(tx, product.ID, -desiredQty); err != nil {
		tx.Rollback()
		return "", err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit cart creation", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return "", err
	}

	logger.Info("Cart created with first item", map[string]interface{}{
		"cart_id":    cart.ID,
		"product_id": product.ID,
		"qty":        desiredQty,
	})
	return fmt.Sprintf("%s added to cart", product.Name), nil
}

// savePrices recomputes the derived price fields from the cart's items and
// writes them with an optimistic version check.
func (s *cartService) savePrices(tx *gorm.DB, cart *model.Cart) error {
	prices, err := CalcCartPrices(cart.Items)
	if err != nil {
		return err
	}

	res := tx.Model(&model.Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		Updates(map[string]interface{}{
			"items_price":    prices.ItemsPrice,
			"shipping_price": prices.ShippingPrice,
			"tax_price":      prices.TaxPrice,
			"total_price":    prices.TotalPrice,
			"version":        cart.Version + 1,
		})
	if res.Error != nil {
		logger.Error("Failed to save cart prices", res.Error, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return res.Error
	}
	if res.RowsAffected == 0 {
		logger.Warn("Cart version conflict on save", map[string]interface{}{
			"cart_id": cart.ID,
			"version": cart.Version,
		})
		return ErrCartConflict
	}
	cart.Version++
	cart.ItemsPrice = prices.ItemsPrice
	cart.ShippingPrice = prices.ShippingPrice
	cart.TaxPrice = prices.TaxPrice
	cart.TotalPrice = prices.TotalPrice
	return nil
}

// adjustStock applies a relative stock change to a locked product row.
func (s *cartService) adjustStock(tx *gorm.DB, productID uint, delta int) error {
	if delta == 0 {
		return nil
	}
	err := tx.Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
	if err != nil {
		logger.Error("Failed to adjust product stock", err, map[string]interface{}{
			"product_id": productID,
			"delta":      delta,
		})
		return err
	}
	return nil
}

func snapshotItem(cartID uint, product *model.Product, qty int) model.CartItem {
	return model.CartItem{
		CartID:    cartID,
		ProductID: product.ID,
		Name:      product.Name,
		Slug:      product.Slug,
		Price:     product.Price,
		Image:     product.Image,
		Qty:       qty,
	}
}

func removeItem(items []model.CartItem, itemID uint) []model.CartItem {
	out := items[:0]
	for _, it := range items {
		if it.ID != itemID {
			out = append(out, it)
		}
	}
	return out
}
