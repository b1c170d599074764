package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"vieclam_backend/internal/models"
)

// Все методы принимают 'db *gorm.DB': вызывающий решает, работать
// в транзакции или нет.
type UserRepository interface {
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindBySubjectID(db *gorm.DB, subjectID string) (*models.User, error)
	Create(db *gorm.DB, user *models.User) error
	UpdateFields(db *gorm.DB, userID string, fields map[string]interface{}) error
	SetBanned(db *gorm.DB, userID string, banned bool) error
	Delete(db *gorm.DB, userID string) error
	FindByRole(db *gorm.DB, role models.UserRole, limit, offset int) ([]models.User, error)
	CountByRole(db *gorm.DB, role models.UserRole) (int64, error)
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindBySubjectID(db *gorm.DB, subjectID string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "subject_id = ?", subjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	if err := db.Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepositoryImpl) UpdateFields(db *gorm.DB, userID string, fields map[string]interface{}) error {
	// UpdateColumns, а не Updates: updated_at меняется только когда
	// вызывающий передал его явно.
	result := db.Model(&models.User{}).Where("id = ?", userID).UpdateColumns(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) SetBanned(db *gorm.DB, userID string, banned bool) error {
	return r.UpdateFields(db, userID, map[string]interface{}{
		"is_banned":  banned,
		"updated_at": time.Now(),
	})
}

// Delete удаляет пользователя; связки провайдеров и гранты уходят
// каскадом (constraint:OnDelete:CASCADE).
func (r *UserRepositoryImpl) Delete(db *gorm.DB, userID string) error {
	result := db.Delete(&models.User{}, "id = ?", userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) FindByRole(db *gorm.DB, role models.UserRole, limit, offset int) ([]models.User, error) {
	var users []models.User
	query := db.Order("created_at DESC")
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepositoryImpl) CountByRole(db *gorm.DB, role models.UserRole) (int64, error) {
	var count int64
	query := db.Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
