package subscription

import (
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"vieclam_backend/internal/models"
	"vieclam_backend/internal/repositories"
	"vieclam_backend/internal/services/dto"
	"vieclam_backend/pkg/apperrors"
)

// PlanService - каталог планов подписки: публичное чтение для
// витрины и активатора, CRUD для админки.
type PlanService struct {
	repo repositories.PlanRepository
}

func NewPlanService(repo repositories.PlanRepository) *PlanService {
	return &PlanService{repo: repo}
}

func (s *PlanService) GetActivePlans(db *gorm.DB, role models.UserRole) ([]models.SubscriptionPlan, error) {
	if role == "" {
		plans, err := s.repo.FindActive(db)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		return plans, nil
	}
	plans, err := s.repo.FindActiveByRole(db, role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return plans, nil
}

func (s *PlanService) GetPlan(db *gorm.DB, id string) (*models.SubscriptionPlan, error) {
	plan, err := s.repo.FindByID(db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, apperrors.ErrPlanNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return plan, nil
}

func (s *PlanService) CreatePlan(db *gorm.DB, req *dto.CreatePlanRequest) (*models.SubscriptionPlan, error) {
	features, err := marshalFeatures(req.Features)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	plan := &models.SubscriptionPlan{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		PlanType:        models.PlanType(req.PlanType),
		DurationInDays:  req.DurationInDays,
		Features:        features,
		IsActive:        true,
		JobPostDaily:    req.JobPostDaily,
		PushTopDaily:    req.PushTopDaily,
		PushTopInterval: req.PushTopInterval,
		CVStorage:       req.CVStorage,
	}
	if req.TargetRoleID != nil {
		role, err := models.RoleFromID(*req.TargetRoleID)
		if err != nil {
			return nil, apperrors.ValidationError(map[string]string{"target_role_id": err.Error()})
		}
		plan.TargetRole = &role
	}

	if err := s.repo.Create(db, plan); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return plan, nil
}

func (s *PlanService) UpdatePlan(db *gorm.DB, id string, req *dto.UpdatePlanRequest) (*models.SubscriptionPlan, error) {
	plan, err := s.GetPlan(db, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}
	if req.DurationInDays != nil {
		plan.DurationInDays = *req.DurationInDays
	}
	if req.Features != nil {
		features, err := marshalFeatures(req.Features)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		plan.Features = features
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if req.JobPostDaily != nil {
		plan.JobPostDaily = req.JobPostDaily
	}
	if req.PushTopDaily != nil {
		plan.PushTopDaily = req.PushTopDaily
	}
	if req.PushTopInterval != nil {
		plan.PushTopInterval = req.PushTopInterval
	}
	if req.CVStorage != nil {
		plan.CVStorage = req.CVStorage
	}

	if err := s.repo.Update(db, plan); err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, apperrors.ErrPlanNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return plan, nil
}

// DeactivatePlan скрывает план из каталога; исторические гранты
// продолжают ссылаться на него.
func (s *PlanService) DeactivatePlan(db *gorm.DB, id string) error {
	if err := s.repo.Deactivate(db, id); err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return apperrors.ErrPlanNotFound
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func marshalFeatures(features []string) (datatypes.JSON, error) {
	if features == nil {
		features = []string{}
	}
	raw, err := json.Marshal(features)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
