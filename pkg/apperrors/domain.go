package apperrors

import (
	"net/http"
)

/*
Фабрики и предопределенные переменные для доменных ошибок
синхронизации идентичности и активации подписок.
*/

// ErrNotFound - фабрика для ошибки "не найдено" (404)
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists - фабрика для ошибки "уже существует" (409)
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrConflict - общая фабрика для конфликтов (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// =========================================================================
// Аутентификация
// =========================================================================

// ErrInvalidToken - токен не прошел проверку или имеет неверную форму.
var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or malformed token",
	http.StatusUnauthorized,
)

// ErrTokenExpired - срок действия токена истек.
var ErrTokenExpired = New(
	CodeTokenExpired,
	"auth",
	"Token has expired",
	http.StatusUnauthorized,
)

// ErrInsufficientPermissions - не-админ пытается выполнить админ-действие.
var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

// ErrCannotModifySelf - админ пытается изменить собственную учетку.
var ErrCannotModifySelf = New(
	CodeForbidden,
	"business_logic",
	"Operation on self is not allowed",
	http.StatusForbidden,
)

// =========================================================================
// Синхронизация идентичности
// =========================================================================

// ErrUserNotRegistered - субъект аутентифицирован, но локальной записи нет.
// Это ожидаемая ветка (клиент уходит на выбор роли), а не сбой.
var ErrUserNotRegistered = New(
	CodeUserNotRegistered,
	"identity",
	"User is not registered",
	http.StatusNotFound,
)

// ErrAccountAlreadyRegistered - повторная регистрация того же субъекта.
var ErrAccountAlreadyRegistered = New(
	CodeAccountAlreadyRegistered,
	"identity",
	"Account is already registered",
	http.StatusConflict,
)

// SyncFailed - обобщенный сбой транзакции синхронизации.
func SyncFailed(err error) *AppError {
	return Wrap(err, CodeSyncFailed, "identity", "Failed to synchronize user record", http.StatusInternalServerError)
}

// =========================================================================
// Подписки и платежи
// =========================================================================

// ErrPlanNotFound - план отсутствует или деактивирован.
var ErrPlanNotFound = New(
	CodePlanNotFound,
	"subscription",
	"Subscription plan not found",
	http.StatusNotFound,
)

// ErrPaymentIncomplete - сессия у провайдера не в статусе "paid".
var ErrPaymentIncomplete = New(
	CodePaymentIncomplete,
	"payment",
	"Payment has not been completed",
	http.StatusBadRequest,
)

// ErrPayerMismatch - сессию оплатил другой пользователь.
var ErrPayerMismatch = New(
	CodePayerMismatch,
	"payment",
	"Payment session belongs to another user",
	http.StatusForbidden,
)

// ErrPaymentProviderTimeout - провайдер не ответил за отведенное время.
var ErrPaymentProviderTimeout = New(
	CodeUpstreamTimeout,
	"payment",
	"Payment provider did not respond in time",
	http.StatusGatewayTimeout,
)

// ActivationFailed - обобщенный сбой транзакции активации.
func ActivationFailed(err error) *AppError {
	return Wrap(err, CodeActivationFailed, "subscription", "Failed to activate subscription", http.StatusInternalServerError)
}

// ExternalServiceError - сбой вызова внешнего сервиса (auth-шлюз, платежи).
func ExternalServiceError(err error, domain string) *AppError {
	return Wrap(err, CodeExternalServiceError, domain, "External service call failed", http.StatusBadGateway)
}
