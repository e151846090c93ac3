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
	ErrOrderNotFound        = errors.New("order not found")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrMissingAddress       = errors.New("shipping address is required")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrOrderAlreadyPaid     = errors.New("order is already paid")
	ErrOrderNotPaid         = errors.New("order has not been paid")
)

// ShippingAddress is the checkout address captured onto the order.
type ShippingAddress struct {
	FullName   string
	Address    string
	City       string
	PostalCode string
	Country    string
}

type OrderService interface {
	PlaceOrder(userID uint, address ShippingAddress, paymentMethod model.PaymentMethod) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	GetOrderByID(userID, orderID uint) (*model.Order, error)
	MarkPaid(orderID uint) error
	MarkDelivered(orderID uint) error
}

type orderService struct {
	orderRepo repository.OrderRepository
	db        *gorm.DB
}

func NewOrderService(orderRepo repository.OrderRepository, db *gorm.DB) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		db:        db,
	}
}

// PlaceOrder snapshots the user's cart into an order and deletes the cart,
// atomically. Stock is not touched here: the cart engine reserved it when
// the items were added.
func (s *orderService) PlaceOrder(userID uint, address ShippingAddress, paymentMethod model.PaymentMethod) (*model.Order, error) {
	logger.Info("Placing order from cart", map[string]interface{}{
		"user_id":        userID,
		"payment_method": paymentMethod,
	})

	if address.FullName == "" || address.Address == "" {
		logger.Warn("Order rejected: missing shipping address", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrMissingAddress
	}

	switch paymentMethod {
	case model.PaymentPayPal, model.PaymentStripe, model.PaymentCashOnDelivery:
	default:
		logger.Warn("Order rejected: invalid payment method", map[string]interface{}{
			"user_id":        userID,
			"payment_method": paymentMethod,
		})
		return nil, ErrInvalidPaymentMethod
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during order placement, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
		}
	}()

	var cart model.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot place order: no cart", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrEmptyCart
		}
		logger.Error("Failed to fetch cart for order placement", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	if err := tx.Where("cart_id = ?", cart.ID).Order("id ASC").Find(&cart.Items).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(cart.Items) == 0 {
		tx.Rollback()
		logger.Warn("Cannot place order: cart is empty", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrEmptyCart
	}

	orderItems := make([]model.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		orderItems = append(orderItems, model.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Slug:      item.Slug,
			Price:     item.Price,
			Image:     item.Image,
			Qty:       item.Qty,
		})
	}

	order := &model.Order{
		UserID:           userID,
		ItemsPrice:       cart.ItemsPrice,
		ShippingPrice:    cart.ShippingPrice,
		TaxPrice:         cart.TaxPrice,
		TotalPrice:       cart.TotalPrice,
		ShippingFullName: address.FullName,
		ShippingAddress:  address.Address,
		ShippingCity:     address.City,
		ShippingPostal:   address.PostalCode,
		ShippingCountry:  address.Country,
		PaymentMethod:    paymentMethod,
		OrderItems:       orderItems,
	}

	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to clear cart items after order creation", err, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return nil, err
	}
	if err := tx.Delete(&model.Cart{}, cart.ID).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to delete cart after order creation", err, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order transaction", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Order placed successfully", map[string]interface{}{
		"user_id":     userID,
		"order_id":    order.ID,
		"total_price": order.TotalPrice,
		"item_count":  len(orderItems),
	})

	return s.orderRepo.FindByID(order.ID)
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (s *orderService) GetOrderByID(userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		logger.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	if order.UserID != userID {
		logger.Warn("Order access denied: ownership mismatch", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"owner_id": order.UserID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) MarkPaid(orderID uint) error {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if order.IsPaid {
		return ErrOrderAlreadyPaid
	}

	if err := s.orderRepo.MarkPaid(orderID, time.Now()); err != nil {
		logger.Error("Failed to mark order as paid", err, map[string]interface{}{
			"order_id": orderID,
		})
		return err
	}

	logger.Info("Order marked as paid", map[string]interface{}{
		"order_id": orderID,
	})
	return nil
}

func (s *orderService) MarkDelivered(orderID uint) error {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if !order.IsPaid {
		return ErrOrderNotPaid
	}

	if err := s.orderRepo.MarkDelivered(orderID, time.Now()); err != nil {
		logger.Error("Failed to mark order as delivered", err, map[string]interface{}{
			"order_id": orderID,
		})
		return err
	}

	logger.Info("Order marked as delivered", map[string]interface{}{
		"order_id": orderID,
	})
	return nil
}
