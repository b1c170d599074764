package models

import "time"

// User - локальная запись аутентифицированного пользователя.
// SubjectID — стабильный идентификатор субъекта у внешнего
// auth-шлюза; ровно одна строка на субъект.
type User struct {
	BaseModel
	SubjectID   string     `gorm:"uniqueIndex;not null" json:"subject_id"`
	Email       string     `gorm:"index" json:"email"`
	DisplayName string     `json:"display_name"`
	PhotoURL    string     `json:"photo_url"`
	Role        *UserRole  `gorm:"type:smallint" json:"role"` // null до выбора роли
	IsVerified  bool       `gorm:"default:false" json:"is_verified"`
	IsBanned    bool       `gorm:"default:false" json:"is_banned"`
	LastLoginAt *time.Time `json:"last_login_at"`

	// Relations
	ProviderLinks []ProviderLink      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"provider_links,omitempty"`
	Grants        []SubscriptionGrant `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) HasRole(roles ...UserRole) bool {
	if u.Role == nil {
		return false
	}
	for _, r := range roles {
		if *u.Role == r {
			return true
		}
	}
	return false
}

// ProviderLink - связка (пользователь, провайдер идентичности).
// Пара (UserID, ProviderID) уникальна.
type ProviderLink struct {
	BaseModel
	UserID      string    `gorm:"not null;uniqueIndex:idx_provider_links_user_provider" json:"user_id"`
	ProviderID  string    `gorm:"not null;uniqueIndex:idx_provider_links_user_provider" json:"provider_id"`
	ProviderUID string    `gorm:"not null" json:"provider_uid"`
	LinkedAt    time.Time `json:"linked_at"`
}
