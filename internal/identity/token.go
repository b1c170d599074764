package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"vieclam_backend/pkg/apperrors"
)

// TokenVerifier - граница внешнего auth-шлюза: из bearer-токена
// получаем Claims или типизированную ошибку. Подписи проверяются
// по общему секрету, которым шлюз подписывает сессионные токены.
type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

type gatewayTokenClaims struct {
	jwt.RegisteredClaims
	Email      string              `json:"email"`
	Name       string              `json:"name"`
	Picture    string              `json:"picture"`
	Identities map[string][]string `json:"identities"`
}

type jwtVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) TokenVerifier {
	return &jwtVerifier{secret: []byte(secret)}
}

func (v *jwtVerifier) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &gatewayTokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if apperrors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken.WithError(err)
	}

	tokenClaims, ok := parsed.Claims.(*gatewayTokenClaims)
	if !ok || !parsed.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	claims := &Claims{
		SubjectID:   tokenClaims.Subject,
		Email:       tokenClaims.Email,
		DisplayName: tokenClaims.Name,
		PhotoURL:    tokenClaims.Picture,
		Identities:  tokenClaims.Identities,
	}
	if err := claims.Validate(); err != nil {
		return nil, err
	}
	return claims, nil
}
