package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"vieclam_backend/internal/models"
)

type PlanRepository interface {
	Create(db *gorm.DB, plan *models.SubscriptionPlan) error
	FindByID(db *gorm.DB, id string) (*models.SubscriptionPlan, error)
	FindActive(db *gorm.DB) ([]models.SubscriptionPlan, error)
	FindActiveByRole(db *gorm.DB, role models.UserRole) ([]models.SubscriptionPlan, error)
	Update(db *gorm.DB, plan *models.SubscriptionPlan) error
	Deactivate(db *gorm.DB, id string) error
	CountAll(db *gorm.DB) (int64, error)
}

type PlanRepositoryImpl struct{}

func NewPlanRepository() PlanRepository {
	return &PlanRepositoryImpl{}
}

func (r *PlanRepositoryImpl) Create(db *gorm.DB, plan *models.SubscriptionPlan) error {
	return db.Create(plan).Error
}

func (r *PlanRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := db.First(&plan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepositoryImpl) FindActive(db *gorm.DB) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	if err := db.Where("is_active = ?", true).Order("price ASC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *PlanRepositoryImpl) FindActiveByRole(db *gorm.DB, role models.UserRole) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := db.Where("is_active = ? AND (target_role IS NULL OR target_role = ?)", true, role).
		Order("price ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *PlanRepositoryImpl) Update(db *gorm.DB, plan *models.SubscriptionPlan) error {
	// Select("*"): нулевые значения (is_active=false, price=0)
	// тоже должны записываться.
	result := db.Model(&models.SubscriptionPlan{}).Where("id = ?", plan.ID).
		Select("*").Omit("id", "created_at").Updates(plan)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// Deactivate скрывает план из каталога. Жесткое удаление не
// используется: на план могут ссылаться исторические гранты.
func (r *PlanRepositoryImpl) Deactivate(db *gorm.DB, id string) error {
	result := db.Model(&models.SubscriptionPlan{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *PlanRepositoryImpl) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	if err := db.Model(&models.SubscriptionPlan{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
