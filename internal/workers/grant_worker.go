package workers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"vieclam_backend/internal/logger"
	"vieclam_backend/internal/models"
)

// GrantWorker - фоновая уборка грантов подписок. Истечение
// проверяется и при чтении (ActiveAt), уборка лишь приводит
// поле status в соответствие для списков и отчетов.
type GrantWorker struct {
	db *gorm.DB
}

func NewGrantWorker(db *gorm.DB) *GrantWorker {
	return &GrantWorker{db: db}
}

// Start запускает фоновые задачи грантов
func (w *GrantWorker) Start(ctx context.Context) {
	go w.expireGrants(ctx)
}

func (w *GrantWorker) expireGrants(ctx context.Context) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Grant worker stopped")
			return
		case <-ticker.C:
			w.sweepExpired(time.Now())
		}
	}
}

// sweepExpired помечает неактивными гранты с прошедшей датой окончания.
func (w *GrantWorker) sweepExpired(now time.Time) {
	result := w.db.Model(&models.SubscriptionGrant{}).
		Where("status = ? AND end_date < ?", models.SubscriptionStatusActive, now).
		UpdateColumns(map[string]interface{}{
			"status":     models.SubscriptionStatusInactive,
			"updated_at": now,
		})
	if result.Error != nil {
		logger.Error("Error sweeping expired grants", "error", result.Error)
	} else if result.RowsAffected > 0 {
		logger.Info("Marked expired grants inactive", "count", result.RowsAffected)
	}
}
