package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrGrantNotFound        = errors.New("subscription grant not found")
	ErrDuplicateTransaction = errors.New("payment transaction already recorded")
)

// isDuplicateKey распознает нарушение уникального ограничения.
// TranslateError покрывает postgres; строковые варианты нужны для
// sqlite в тестах.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint")
}
