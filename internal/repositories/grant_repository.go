package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"vieclam_backend/internal/models"
)

type GrantRepository interface {
	Create(db *gorm.DB, grant *models.SubscriptionGrant) error
	FindByTransactionID(db *gorm.DB, transactionID string) (*models.SubscriptionGrant, error)
	FindCurrentByUserID(db *gorm.DB, userID string, now time.Time) (*models.SubscriptionGrant, error)
}

type GrantRepositoryImpl struct{}

func NewGrantRepository() GrantRepository {
	return &GrantRepositoryImpl{}
}

// Create вставляет грант. Дубликат payment_transaction_id - это
// гонка двух подтверждений одной оплаты: возвращаем
// ErrDuplicateTransaction, вызывающий трактует как "уже обработано".
func (r *GrantRepositoryImpl) Create(db *gorm.DB, grant *models.SubscriptionGrant) error {
	if err := db.Create(grant).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateTransaction
		}
		return err
	}
	return nil
}

func (r *GrantRepositoryImpl) FindByTransactionID(db *gorm.DB, transactionID string) (*models.SubscriptionGrant, error) {
	var grant models.SubscriptionGrant
	if err := db.First(&grant, "payment_transaction_id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGrantNotFound
		}
		return nil, err
	}
	return &grant, nil
}

func (r *GrantRepositoryImpl) FindCurrentByUserID(db *gorm.DB, userID string, now time.Time) (*models.SubscriptionGrant, error) {
	var grant models.SubscriptionGrant
	err := db.Where("user_id = ? AND status = ? AND start_date <= ? AND end_date > ?",
		userID, models.SubscriptionStatusActive, now, now).
		Order("start_date DESC").
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGrantNotFound
		}
		return nil, err
	}
	return &grant, nil
}
