package repositories

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vieclam_backend/internal/models"
)

type ProviderLinkRepository interface {
	FindByUserID(db *gorm.DB, userID string) ([]models.ProviderLink, error)
	Upsert(db *gorm.DB, link *models.ProviderLink) error
	DeleteByProviders(db *gorm.DB, userID string, providerIDs []string) error
}

type ProviderLinkRepositoryImpl struct{}

func NewProviderLinkRepository() ProviderLinkRepository {
	return &ProviderLinkRepositoryImpl{}
}

func (r *ProviderLinkRepositoryImpl) FindByUserID(db *gorm.DB, userID string) ([]models.ProviderLink, error) {
	var links []models.ProviderLink
	if err := db.Where("user_id = ?", userID).Order("provider_id").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// Upsert вставляет связку или обновляет provider_uid существующей:
// пара (user_id, provider_id) уникальна.
func (r *ProviderLinkRepositoryImpl) Upsert(db *gorm.DB, link *models.ProviderLink) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "provider_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider_uid", "linked_at", "updated_at",
		}),
	}).Create(link).Error
}

func (r *ProviderLinkRepositoryImpl) DeleteByProviders(db *gorm.DB, userID string, providerIDs []string) error {
	if len(providerIDs) == 0 {
		return nil
	}
	return db.Where("user_id = ? AND provider_id IN ?", userID, providerIDs).
		Delete(&models.ProviderLink{}).Error
}
