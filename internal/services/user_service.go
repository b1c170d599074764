package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"vieclam_backend/internal/identity"
	"vieclam_backend/internal/logger"
	"vieclam_backend/internal/models"
	"vieclam_backend/internal/repositories"
	"vieclam_backend/internal/services/dto"
	"vieclam_backend/pkg/apperrors"
)

type UserService interface {
	GetByID(db *gorm.DB, id string) (*models.User, error)
	GetBySubjectID(db *gorm.DB, subjectID string) (*models.User, error)
	UpdateProfile(db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*models.User, error)

	// Admin operations
	ListUsers(db *gorm.DB, role models.UserRole, page, pageSize int) ([]dto.AdminUserResponse, int64, error)
	SetBanned(ctx context.Context, db *gorm.DB, adminID, userID string, banned bool) error
	DeleteUser(ctx context.Context, db *gorm.DB, adminID, userID string) error
	ListSystemAdmins(db *gorm.DB) ([]models.User, error)
	CreateSystemAdmin(ctx context.Context, db *gorm.DB, req *dto.CreateAdminRequest) (*models.User, error)
}

type UserServiceImpl struct {
	userRepo  repositories.UserRepository
	linkRepo  repositories.ProviderLinkRepository
	grantRepo repositories.GrantRepository
	accounts  identity.AccountManager
}

func NewUserService(
	userRepo repositories.UserRepository,
	linkRepo repositories.ProviderLinkRepository,
	grantRepo repositories.GrantRepository,
	accounts identity.AccountManager,
) UserService {
	return &UserServiceImpl{
		userRepo:  userRepo,
		linkRepo:  linkRepo,
		grantRepo: grantRepo,
		accounts:  accounts,
	}
}

func (s *UserServiceImpl) GetByID(db *gorm.DB, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotRegistered
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

func (s *UserServiceImpl) GetBySubjectID(db *gorm.DB, subjectID string) (*models.User, error) {
	user, err := s.userRepo.FindBySubjectID(db, subjectID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotRegistered
		}
		return nil, apperrors.InternalError(err)
	}

	links, err := s.linkRepo.FindByUserID(db, user.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	user.ProviderLinks = links
	return user, nil
}

func (s *UserServiceImpl) UpdateProfile(db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*models.User, error) {
	fields := map[string]interface{}{}
	if req.DisplayName != nil {
		fields["display_name"] = *req.DisplayName
	}
	if req.PhotoURL != nil {
		fields["photo_url"] = *req.PhotoURL
	}
	if len(fields) == 0 {
		return nil, apperrors.NewBadRequestError("No fields to update")
	}
	fields["updated_at"] = time.Now()

	if err := s.userRepo.UpdateFields(db, userID, fields); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotRegistered
		}
		return nil, apperrors.InternalError(err)
	}
	return s.GetByID(db, userID)
}

func (s *UserServiceImpl) ListUsers(db *gorm.DB, role models.UserRole, page, pageSize int) ([]dto.AdminUserResponse, int64, error) {
	offset := (page - 1) * pageSize
	users, err := s.userRepo.FindByRole(db, role, pageSize, offset)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	total, err := s.userRepo.CountByRole(db, role)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}

	now := time.Now()
	rows := make([]dto.AdminUserResponse, 0, len(users))
	for i := range users {
		grant, err := s.grantRepo.FindCurrentByUserID(db, users[i].ID, now)
		if err != nil && !errors.Is(err, repositories.ErrGrantNotFound) {
			return nil, 0, apperrors.InternalError(err)
		}
		rows = append(rows, toAdminUserResponse(&users[i], grant))
	}
	return rows, total, nil
}

func toAdminUserResponse(user *models.User, grant *models.SubscriptionGrant) dto.AdminUserResponse {
	row := dto.AdminUserResponse{
		ID:          user.ID,
		SubjectID:   user.SubjectID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		IsVerified:  user.IsVerified,
		IsBanned:    user.IsBanned,
		CreatedAt:   user.CreatedAt.Format(time.RFC3339),
	}
	if user.Role != nil {
		row.RoleID = user.Role.ID()
	}
	if user.LastLoginAt != nil {
		row.LastLoginAt = user.LastLoginAt.Format(time.RFC3339)
	}
	if grant != nil {
		row.CurrentPlanName = grant.SnapshotPlanName
	}
	return row
}

// SetBanned сначала блокирует учетку в auth-шлюзе, потом сохраняет
// флаг локально. Если шлюз недоступен, локальное состояние не
// меняется.
func (s *UserServiceImpl) SetBanned(ctx context.Context, db *gorm.DB, adminID, userID string, banned bool) error {
	if adminID == userID {
		return apperrors.ErrCannotModifySelf
	}

	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	if err := s.accounts.SetDisabled(ctx, user.SubjectID, banned); err != nil {
		return err
	}

	if err := s.userRepo.SetBanned(db, userID, banned); err != nil {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "user ban flag updated",
		"admin_id", adminID,
		"target_user_id", userID,
		"banned", banned,
	)
	return nil
}

// DeleteUser удаляет учетку в шлюзе и локальную запись; связки и
// гранты уходят каскадом.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, db *gorm.DB, adminID, userID string) error {
	if adminID == userID {
		return apperrors.ErrCannotModifySelf
	}

	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	if err := s.accounts.DeleteAccount(ctx, user.SubjectID); err != nil {
		return err
	}

	if err := s.userRepo.Delete(db, userID); err != nil {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "user deleted", "admin_id", adminID, "target_user_id", userID)
	return nil
}

func (s *UserServiceImpl) ListSystemAdmins(db *gorm.DB) ([]models.User, error) {
	admins, err := s.userRepo.FindByRole(db, models.RoleAdmin, 0, 0)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return admins, nil
}

// CreateSystemAdmin заводит учетку в auth-шлюзе и локальную запись
// с ролью admin.
func (s *UserServiceImpl) CreateSystemAdmin(ctx context.Context, db *gorm.DB, req *dto.CreateAdminRequest) (*models.User, error) {
	subjectID, err := s.accounts.CreateAccount(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		return nil, err
	}

	role := models.RoleAdmin
	admin := &models.User{
		SubjectID:   subjectID,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        &role,
		IsVerified:  true,
	}
	if err := s.userRepo.Create(db, admin); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrAccountAlreadyRegistered
		}
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "system admin created", "admin_user_id", admin.ID, "email", req.Email)
	return admin, nil
}
