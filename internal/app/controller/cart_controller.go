package controller

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/minlee/storefront-backend/internal/app/service"
	"github.com/minlee/storefront-backend/internal/errors"
	"github.com/minlee/storefront-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Qty       int  `json:"qty" binding:"required,gt=0"`
}

// GetCart returns the current cart for the caller's identity.
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	owner := middleware.CartOwnerFromContext(c)
	cart, err := ctrl.cartService.GetCart(owner)
	if err != nil {
		if stderrors.Is(err, service.ErrCartSessionMissing) {
			errors.RespondWithError(c, http.StatusBadRequest, errors.CartSessionMissing, "No cart session could be resolved")
			return
		}
		log.Error("Failed to fetch cart", err, nil)
		errors.InternalError(c, "Failed to fetch cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"cart":    cart,
	})
}

// AddItem sets a product's quantity in the cart.
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}

	owner := middleware.CartOwnerFromContext(c)
	message, err := ctrl.cartService.AddOrUpdateItem(owner, req.ProductID, req.Qty)
	if err != nil {
		ctrl.respondCartError(c, err, req.ProductID)
		return
	}

	log.Info("Cart item saved", map[string]interface{}{
		"product_id": req.ProductID,
		"qty":        req.Qty,
	})

	cart, err := ctrl.cartService.GetCart(owner)
	if err != nil {
		log.Error("Failed to refresh cart after mutation", err, map[string]interface{}{
			"product_id": req.ProductID,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"cart":    cart,
	})
}

// RemoveItem removes one unit of a product from the cart.
// DELETE /api/v1/cart/items/:product_id
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("product_id")
	productID, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid product ID format", map[string]interface{}{
			"product_id": idStr,
		})
		errors.BadRequest(c, errors.ValidationInvalidID, "Invalid product ID")
		return
	}

	owner := middleware.CartOwnerFromContext(c)
	message, err := ctrl.cartService.RemoveOneUnit(owner, uint(productID))
	if err != nil {
		ctrl.respondCartError(c, err, uint(productID))
		return
	}

	log.Info("Cart unit removed", map[string]interface{}{
		"product_id": productID,
	})

	cart, err := ctrl.cartService.GetCart(owner)
	if err != nil {
		log.Error("Failed to refresh cart after mutation", err, map[string]interface{}{
			"product_id": productID,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"cart":    cart,
	})
}

func (ctrl *CartController) respondCartError(c *gin.Context, err error, productID uint) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case stderrors.Is(err, service.ErrCartSessionMissing):
		errors.RespondWithError(c, http.StatusBadRequest, errors.CartSessionMissing, "No cart session could be resolved")
	case stderrors.Is(err, service.ErrProductNotFound):
		log.Warn("Product not found for cart", map[string]interface{}{
			"product_id": productID,
		})
		errors.NotFound(c, errors.ProductNotFound, "Product not found")
	case stderrors.Is(err, service.ErrInsufficientStock):
		log.Warn("Insufficient stock for cart change", map[string]interface{}{
			"product_id": productID,
		})
		errors.BadRequest(c, errors.CartInsufficientStock, "Not enough stock for the requested quantity")
	case stderrors.Is(err, service.ErrCartItemNotFound):
		errors.NotFound(c, errors.CartItemNotFound, "Item is not in the cart")
	case stderrors.Is(err, service.ErrInvalidQuantity):
		errors.BadRequest(c, errors.ValidationInvalidRange, "Quantity must be at least 1")
	default:
		log.Error("Cart operation failed", err, map[string]interface{}{
			"product_id": productID,
		})
		errors.InternalError(c, "Failed to update cart")
	}
}
