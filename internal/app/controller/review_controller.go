package controller

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/minlee/storefront-backend/internal/app/service"
	"github.com/minlee/storefront-backend/internal/errors"
	"github.com/minlee/storefront-backend/internal/middleware"
)

type ReviewController struct {
	reviewService service.ReviewService
}

func NewReviewController(reviewService service.ReviewService) *ReviewController {
	return &ReviewController{
		reviewService: reviewService,
	}
}

type ReviewRequest struct {
	Rating      int    `json:"rating" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// ListReviews returns all reviews for a product.
// GET /api/v1/reviews/:product_id
func (ctrl *ReviewController) ListReviews(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidID, "Invalid product ID")
		return
	}

	reviews, err := ctrl.reviewService.GetProductReviews(productID)
	if err != nil {
		log.Error("Failed to fetch reviews", err, map[string]interface{}{
			"product_id": productID,
		})
		errors.InternalError(c, "Failed to fetch reviews")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// UpsertReview creates or replaces the caller's review of a product.
// POST /api/v1/reviews/:product_id
func (ctrl *ReviewController) UpsertReview(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	productID, err := parseIDParam(c, "product_id")
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidID, "Invalid product ID")
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
		return
	}

	err = ctrl.reviewService.CreateOrUpdateReview(userID, productID, req.Rating, req.Title, req.Description)
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrInvalidRating):
			errors.BadRequest(c, errors.ReviewInvalidRating, "Rating must be between 1 and 5")
		case stderrors.Is(err, service.ErrProductNotFound):
			errors.NotFound(c, errors.ProductNotFound, "Product not found")
		default:
			log.Error("Failed to save review", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			errors.InternalError(c, "Failed to save review")
		}
		return
	}

	log.Info("Review saved", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"rating":     req.Rating,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Review saved",
	})
}
