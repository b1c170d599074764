package validator

import (
	"log"

	"github.com/go-playground/validator/v10"

	"vieclam_backend/internal/models"
)

// registerCustomRules регистрирует кастомные функции валидации.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Ошибка регистрации правила - ошибка времени запуска
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'is-role-id': числовой код роли из закрытого перечисления
	mustRegister("is-role-id", validateRoleID)

	// 'is-plan-type': тип плана подписки
	mustRegister("is-plan-type", validatePlanType)
}

func validateRoleID(fl validator.FieldLevel) bool {
	id := fl.Field().Int()
	if id == 0 {
		return true // пустые значения проверяет 'required'
	}
	_, err := models.RoleFromID(int(id))
	return err == nil
}

func validatePlanType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.PlanType(value).Valid()
}
