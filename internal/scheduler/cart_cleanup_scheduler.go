package scheduler

import (
	"time"

	"github.com/minlee/storefront-backend/internal/app/service"
	"github.com/minlee/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// CartCleanupScheduler periodically releases abandoned anonymous carts so
// their reserved stock returns to the catalog.
type CartCleanupScheduler struct {
	cron           *cron.Cron
	cartService    service.CartService
	schedule       string
	abandonedAfter time.Duration
}

func NewCartCleanupScheduler(cartService service.CartService, schedule string, abandonedAfter time.Duration) *CartCleanupScheduler {
	return &CartCleanupScheduler{
		cron:           cron.New(),
		cartService:    cartService,
		schedule:       schedule,
		abandonedAfter: abandonedAfter,
	}
}

func (s *CartCleanupScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		logger.Info("Starting abandoned cart cleanup", map[string]interface{}{
			"abandoned_after": s.abandonedAfter.String(),
		})

		released, err := s.cartService.ReleaseAbandoned(s.abandonedAfter)
		if err != nil {
			logger.Error("Abandoned cart cleanup failed", err)
			return
		}

		logger.Info("Abandoned cart cleanup finished", map[string]interface{}{
			"released_carts": released,
		})
	})

	if err != nil {
		logger.Error("Failed to register cart cleanup job", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Cart cleanup scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

func (s *CartCleanupScheduler) Stop() {
	logger.Info("Stopping cart cleanup scheduler...", nil)
	s.cron.Stop()
	logger.Info("Cart cleanup scheduler stopped", nil)
}
