package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"vieclam_backend/internal/identity"
	"vieclam_backend/internal/logger"
	"vieclam_backend/internal/models"
	"vieclam_backend/internal/repositories"
	"vieclam_backend/pkg/apperrors"
)

// UserSyncService сводит claims auth-шлюза с локальной записью
// пользователя. Все методы принимают 'db *gorm.DB'.
type UserSyncService interface {
	SyncOnLogin(db *gorm.DB, claims *identity.Claims) (*models.User, error)
	RegisterNewUser(db *gorm.DB, claims *identity.Claims, role models.UserRole) (*models.User, error)
}

type UserSyncServiceImpl struct {
	userRepo       repositories.UserRepository
	linkRepo       repositories.ProviderLinkRepository
	classification identity.Classification
}

func NewUserSyncService(
	userRepo repositories.UserRepository,
	linkRepo repositories.ProviderLinkRepository,
	classification identity.Classification,
) UserSyncService {
	return &UserSyncServiceImpl{
		userRepo:       userRepo,
		linkRepo:       linkRepo,
		classification: classification,
	}
}

// SyncOnLogin выполняется на каждый аутентифицированный заход.
// Одна транзакция: отметка входа, сверка связок провайдеров,
// отметка изменения при непустой дельте. Отсутствие записи -
// ожидаемая ветка (клиент уходит на выбор роли), а не сбой.
func (s *UserSyncServiceImpl) SyncOnLogin(db *gorm.DB, claims *identity.Claims) (*models.User, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.SyncFailed(tx.Error)
	}
	defer tx.Rollback()

	user, err := s.userRepo.FindBySubjectID(tx, claims.SubjectID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			// Записей нет - откат отложенным Rollback, фиксировать нечего
			return nil, apperrors.ErrUserNotRegistered
		}
		return nil, apperrors.SyncFailed(err)
	}

	now := time.Now()

	if err := s.userRepo.UpdateFields(tx, user.ID, map[string]interface{}{
		"last_login_at": now,
	}); err != nil {
		return nil, apperrors.SyncFailed(err)
	}

	links, err := s.linkRepo.FindByUserID(tx, user.ID)
	if err != nil {
		return nil, apperrors.SyncFailed(err)
	}
	persisted := make(map[string]string, len(links))
	for _, link := range links {
		persisted[link.ProviderID] = link.ProviderUID
	}

	delta := identity.Reconcile(claims, persisted, s.classification)

	for _, up := range delta.Upserts {
		link := &models.ProviderLink{
			UserID:      user.ID,
			ProviderID:  up.ProviderID,
			ProviderUID: up.ProviderUID,
			LinkedAt:    now,
		}
		if err := s.linkRepo.Upsert(tx, link); err != nil {
			return nil, apperrors.SyncFailed(err)
		}
	}
	if err := s.linkRepo.DeleteByProviders(tx, user.ID, delta.Removals); err != nil {
		return nil, apperrors.SyncFailed(err)
	}

	if delta.Changed {
		if err := s.userRepo.UpdateFields(tx, user.ID, map[string]interface{}{
			"updated_at": now,
		}); err != nil {
			return nil, apperrors.SyncFailed(err)
		}
		logger.Info("provider links reconciled",
			"user_id", user.ID,
			"upserts", len(delta.Upserts),
			"removals", len(delta.Removals),
		)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.SyncFailed(err)
	}

	user.LastLoginAt = &now
	if delta.Changed {
		user.UpdatedAt = now
	}
	return user, nil
}

// RegisterNewUser вызывается один раз на субъект: создает запись
// с выбранной ролью и вставляет связки провайдеров из claims
// (сохраненный набор считается пустым). Повторная регистрация -
// конфликт, гонка разрешается уникальным ограничением subject_id.
func (s *UserSyncServiceImpl) RegisterNewUser(db *gorm.DB, claims *identity.Claims, role models.UserRole) (*models.User, error) {
	if !role.Valid() {
		return nil, apperrors.ValidationError(map[string]string{
			"role_id": "unrecognized role",
		})
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.SyncFailed(tx.Error)
	}
	defer tx.Rollback()

	now := time.Now()
	user := &models.User{
		SubjectID:   claims.SubjectID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.PhotoURL,
		Role:        &role,
		LastLoginAt: &now,
	}

	if err := s.userRepo.Create(tx, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrAccountAlreadyRegistered
		}
		return nil, apperrors.SyncFailed(err)
	}

	delta := identity.Reconcile(claims, nil, s.classification)
	for _, up := range delta.Upserts {
		link := &models.ProviderLink{
			UserID:      user.ID,
			ProviderID:  up.ProviderID,
			ProviderUID: up.ProviderUID,
			LinkedAt:    now,
		}
		if err := s.linkRepo.Upsert(tx, link); err != nil {
			return nil, apperrors.SyncFailed(err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.SyncFailed(err)
	}

	logger.Info("user registered",
		"user_id", user.ID,
		"role", string(role),
		"providers", len(delta.Upserts),
	)
	return user, nil
}
