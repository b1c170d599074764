package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vieclam_backend/internal/identity"
	"vieclam_backend/internal/logger"
	"vieclam_backend/internal/models"
	"vieclam_backend/internal/repositories"
	"vieclam_backend/pkg/apperrors"
	"vieclam_backend/pkg/contextkeys"
)

const (
	claimsKey      = "claims"
	userIDKey      = "userID"
	currentUserKey = "currentUser"
)

// AuthMiddleware - проверка bearer-токена auth-шлюза. Claims
// кладутся в контекст; локальная запись пользователя на этом этапе
// не обязана существовать (маршруты sync/register).
func AuthMiddleware(verifier identity.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			c.Abort()
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := verifier.Verify(tokenStr)
		if err != nil {
			apperrors.HandleError(c, err)
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		ctx := logger.WithUserID(c.Request.Context(), claims.SubjectID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// LoadUserMiddleware - разрешает claims в локальную запись.
// Вешается на маршруты, которым нужен зарегистрированный
// пользователь; забаненные отсекаются здесь.
func LoadUserMiddleware(userRepo repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
			c.Abort()
			return
		}

		dbVal, ok := c.Get(string(contextkeys.DBContextKey))
		if !ok {
			apperrors.HandleError(c, apperrors.InternalError(nil))
			c.Abort()
			return
		}
		db := dbVal.(*gorm.DB)

		user, err := userRepo.FindBySubjectID(db, claims.SubjectID)
		if err != nil {
			if apperrors.Is(err, repositories.ErrUserNotFound) {
				apperrors.HandleError(c, apperrors.ErrUserNotRegistered)
			} else {
				apperrors.HandleError(c, apperrors.InternalError(err))
			}
			c.Abort()
			return
		}

		if user.IsBanned {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Account is banned"))
			c.Abort()
			return
		}

		c.Set(userIDKey, user.ID)
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireRoles - ограничение маршрута по ролям локальной записи.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetCurrentUser(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
			c.Abort()
			return
		}

		if !user.HasRole(roles...) {
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetClaims извлекает claims auth-шлюза из контекста
func GetClaims(c *gin.Context) (*identity.Claims, bool) {
	val, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := val.(*identity.Claims)
	return claims, ok
}

// GetCurrentUser извлекает локальную запись пользователя из контекста
func GetCurrentUser(c *gin.Context) (*models.User, bool) {
	val, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return ""
	}
	id, ok := userID.(string)
	if !ok {
		return ""
	}
	return id
}
