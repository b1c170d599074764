package dto

// RegisterRequest - тело POST /auth/register. Роль передается
// числовым кодом и преобразуется в перечисление на границе.
type RegisterRequest struct {
	RoleID int `json:"role_id" validate:"required,is-role-id"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=1,max=100"`
	PhotoURL    *string `json:"photo_url" validate:"omitempty,url"`
}

type BanUserRequest struct {
	Banned bool `json:"banned"`
}

// CreateAdminRequest - заведение системного администратора:
// сначала учетка в auth-шлюзе, затем локальная запись.
type CreateAdminRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
}

// AdminUserResponse - строка админского списка пользователей.
type AdminUserResponse struct {
	ID              string `json:"id"`
	SubjectID       string `json:"subject_id"`
	Email           string `json:"email"`
	DisplayName     string `json:"display_name"`
	RoleID          int    `json:"role_id"`
	IsVerified      bool   `json:"is_verified"`
	IsBanned        bool   `json:"is_banned"`
	CreatedAt       string `json:"created_at"`
	LastLoginAt     string `json:"last_login_at,omitempty"`
	CurrentPlanName string `json:"current_plan_name,omitempty"`
}
