package service

import (
	"errors"
	"fmt"

	"github.com/minlee/storefront-backend/internal/app/model"
	"github.com/minlee/storefront-backend/internal/app/repository"
	"github.com/minlee/storefront-backend/pkg/logger"
	"github.com/minlee/storefront-backend/pkg/money"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

type ReviewService interface {
	GetProductReviews(productID uint) ([]model.Review, error)
	CreateOrUpdateReview(userID, productID uint, rating int, title, description string) error
}

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	db          *gorm.DB
}

func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository, db *gorm.DB) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		db:          db,
	}
}

func (s *reviewService) GetProductReviews(productID uint) ([]model.Review, error) {
	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return s.reviewRepo.FindByProductID(productID)
}

// CreateOrUpdateReview upserts the user's review and recomputes the
// product's aggregate rating in the same transaction.
func (s *reviewService) CreateOrUpdateReview(userID, productID uint, rating int, title, description string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	logger.Info("Saving product review", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"rating":     rating,
	})

	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during review save, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"product_id": productID,
			})
		}
	}()

	var existing model.Review
	err := tx.Where("product_id = ? AND user_id = ?", productID, userID).
		First(&existing).Error
	switch {
	case err == nil:
		existing.Rating = rating
		existing.Title = title
		existing.Description = description
		if err := tx.Save(&existing).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to update review", err, map[string]interface{}{
				"review_id": existing.ID,
			})
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		review := model.Review{
			ProductID:   productID,
			UserID:      userID,
			Rating:      rating,
			Title:       title,
			Description: description,
		}
		if err := tx.Create(&review).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to create review", err, map[string]interface{}{
				"product_id": productID,
				"user_id":    userID,
			})
			return err
		}
	default:
		tx.Rollback()
		return err
	}

	if err := s.recalcProductRating(tx, productID); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit review transaction", err, map[string]interface{}{
			"product_id": productID,
		})
		return err
	}

	logger.Info("Review saved", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})
	return nil
}

func (s *reviewService) recalcProductRating(tx *gorm.DB, productID uint) error {
	var agg struct {
		Avg   float64
		Count int
	}
	err := tx.Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		logger.Error("Failed to aggregate product rating", err, map[string]interface{}{
			"product_id": productID,
		})
		return err
	}

	rating := money.Format(money.Round2(decimal.NewFromFloat(agg.Avg)))
	return tx.Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"rating":      rating,
			"num_reviews": agg.Count,
		}).Error
}
