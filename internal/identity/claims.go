package identity

import (
	"vieclam_backend/pkg/apperrors"
)

// Claims - факты идентичности, заявленные проверенным токеном
// auth-шлюза для одного запроса. Identities: provider id -> список
// provider-side subject id (первый элемент считается основным).
type Claims struct {
	SubjectID   string
	Email       string
	DisplayName string
	PhotoURL    string
	Identities  map[string][]string
}

// Validate проверяет форму claims на границе. Неполный payload
// отклоняется здесь, а не глубже в сервисах.
func (c *Claims) Validate() error {
	if c.SubjectID == "" {
		return apperrors.ErrInvalidToken.WithDetails("missing subject id")
	}
	if c.Identities == nil {
		return apperrors.ErrInvalidToken.WithDetails("missing identities claim")
	}
	return nil
}

// PrimaryUID возвращает основной provider-side id для провайдера.
func (c *Claims) PrimaryUID(providerID string) (string, bool) {
	uids, ok := c.Identities[providerID]
	if !ok || len(uids) == 0 {
		return "", false
	}
	return uids[0], true
}
