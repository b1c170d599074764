package dto

// CheckoutSessionRequest - тело POST /payments/checkout-session.
type CheckoutSessionRequest struct {
	PlanID string `json:"plan_id" validate:"required,uuid4"`
}

type CheckoutSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// VerifyPaymentRequest - тело POST /payments/verify. План
// не передается провайдером, его сообщает клиент.
type VerifyPaymentRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	PlanID    string `json:"plan_id" validate:"required,uuid4"`
}

type VerifyPaymentResponse struct {
	AlreadyProcessed bool   `json:"already_processed"`
	PlanName         string `json:"plan_name"`
	Message          string `json:"message"`
}

type CreatePlanRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=100"`
	Description    string   `json:"description" validate:"max=500"`
	Price          float64  `json:"price" validate:"required,min=0"`
	PlanType       string   `json:"plan_type" validate:"required,is-plan-type"`
	DurationInDays int      `json:"duration_in_days" validate:"min=0"`
	TargetRoleID   *int     `json:"target_role_id" validate:"omitempty,is-role-id"`
	Features       []string `json:"features"`

	JobPostDaily    *int `json:"job_post_daily" validate:"omitempty,min=0"`
	PushTopDaily    *int `json:"push_top_daily" validate:"omitempty,min=0"`
	PushTopInterval *int `json:"push_top_interval" validate:"omitempty,min=1"`
	CVStorage       *int `json:"cv_storage" validate:"omitempty,min=0"`
}

type UpdatePlanRequest struct {
	Name           *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Description    *string  `json:"description" validate:"omitempty,max=500"`
	Price          *float64 `json:"price" validate:"omitempty,min=0"`
	DurationInDays *int     `json:"duration_in_days" validate:"omitempty,min=0"`
	Features       []string `json:"features"`
	IsActive       *bool    `json:"is_active"`

	JobPostDaily    *int `json:"job_post_daily" validate:"omitempty,min=0"`
	PushTopDaily    *int `json:"push_top_daily" validate:"omitempty,min=0"`
	PushTopInterval *int `json:"push_top_interval" validate:"omitempty,min=1"`
	CVStorage       *int `json:"cv_storage" validate:"omitempty,min=0"`
}
