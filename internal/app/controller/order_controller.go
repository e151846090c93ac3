package controller

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/minlee/storefront-backend/internal/app/model"
	"github.com/minlee/storefront-backend/internal/app/service"
	"github.com/minlee/storefront-backend/internal/errors"
	"github.com/minlee/storefront-backend/internal/middleware"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type PlaceOrderRequest struct {
	FullName      string `json:"full_name" binding:"required"`
	Address       string `json:"address" binding:"required"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// PlaceOrder turns the caller's cart into an order.
// POST /api/v1/orders
func (ctrl *OrderController) PlaceOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid order request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}

	address := service.ShippingAddress{
		FullName:   req.FullName,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}

	order, err := ctrl.orderService.PlaceOrder(userID, address, model.PaymentMethod(req.PaymentMethod))
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrEmptyCart):
			errors.BadRequest(c, errors.CartEmpty, "Your cart is empty")
		case stderrors.Is(err, service.ErrMissingAddress):
			errors.BadRequest(c, errors.ValidationRequired, "Shipping address is required")
		case stderrors.Is(err, service.ErrInvalidPaymentMethod):
			errors.BadRequest(c, errors.OrderInvalidMethod, "Unsupported payment method")
		default:
			log.Error("Failed to place order", err, map[string]interface{}{
				"user_id": userID,
			})
			errors.InternalError(c, "Failed to place order")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"order":   order,
	})
}

// ListOrders returns the caller's order history.
// GET /api/v1/orders
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(userID)
	if err != nil {
		log.Error("Failed to list orders", err, map[string]interface{}{
			"user_id": userID,
		})
		errors.InternalError(c, "Failed to fetch orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  orders,
		"count":   len(orders),
	})
}

// GetOrder returns one of the caller's orders.
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidID, "Invalid order ID")
		return
	}

	order, err := ctrl.orderService.GetOrderByID(userID, orderID)
	if err != nil {
		if stderrors.Is(err, service.ErrOrderNotFound) {
			errors.NotFound(c, errors.OrderNotFound, "Order not found")
			return
		}
		errors.InternalError(c, "Failed to fetch order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   order,
	})
}

// MarkPaid records payment for an order.
// PUT /api/v1/orders/:id/pay
func (ctrl *OrderController) MarkPaid(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidID, "Invalid order ID")
		return
	}

	if err := ctrl.orderService.MarkPaid(orderID); err != nil {
		switch {
		case stderrors.Is(err, service.ErrOrderNotFound):
			errors.NotFound(c, errors.OrderNotFound, "Order not found")
		case stderrors.Is(err, service.ErrOrderAlreadyPaid):
			errors.Conflict(c, errors.OrderAlreadyPaid, "Order has already been paid")
		default:
			log.Error("Failed to mark order as paid", err, map[string]interface{}{
				"order_id": orderID,
			})
			errors.InternalError(c, "Failed to update order")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order marked as paid",
	})
}

// MarkDelivered records delivery of a paid order. Admin only.
// PUT /api/v1/orders/:id/deliver
func (ctrl *OrderController) MarkDelivered(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidID, "Invalid order ID")
		return
	}

	if err := ctrl.orderService.MarkDelivered(orderID); err != nil {
		switch {
		case stderrors.Is(err, service.ErrOrderNotFound):
			errors.NotFound(c, errors.OrderNotFound, "Order not found")
		case stderrors.Is(err, service.ErrOrderNotPaid):
			errors.Conflict(c, errors.OrderNotPaid, "Order has not been paid yet")
		default:
			log.Error("Failed to mark order as delivered", err, map[string]interface{}{
				"order_id": orderID,
			})
			errors.InternalError(c, "Failed to update order")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order marked as delivered",
	})
}
