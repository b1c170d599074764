package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

// Общие, не-доменные коды ошибок
const (
	// Системные и неизвестные ошибки
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
	CodeUpstreamTimeout      ErrorCode = "UPSTREAM_TIMEOUT"

	// Общие ошибки бизнес-логики (используются фабриками)
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"

	// Аутентификация и Авторизация (они сквозные)
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeInvalidToken ErrorCode = "INVALID_TOKEN"
	CodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
)

// Коды домена идентичности и подписок
const (
	CodeUserNotRegistered        ErrorCode = "USER_NOT_REGISTERED"
	CodeAccountAlreadyRegistered ErrorCode = "ACCOUNT_ALREADY_REGISTERED"
	CodeSyncFailed               ErrorCode = "SYNC_FAILED"
	CodePlanNotFound             ErrorCode = "PLAN_NOT_FOUND"
	CodePaymentIncomplete        ErrorCode = "PAYMENT_INCOMPLETE"
	CodePayerMismatch            ErrorCode = "PAYER_MISMATCH"
	CodeActivationFailed         ErrorCode = "ACTIVATION_FAILED"
)
