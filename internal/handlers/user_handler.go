package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vieclam_backend/internal/middleware"
	"vieclam_backend/internal/services"
	"vieclam_backend/internal/services/dto"
	"vieclam_backend/pkg/apperrors"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup, mw *middleware.Set) {
	users := rg.Group("/users")
	users.Use(mw.Auth)
	{
		users.GET("/me", h.GetMe)
		users.PUT("/me", mw.LoadUser, h.UpdateMe)
	}
}

// GetMe возвращает локальную запись текущего субъекта; 404, если
// регистрация еще не пройдена.
func (h *UserHandler) GetMe(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return
	}

	db := h.GetDB(c)

	user, err := h.userService.GetBySubjectID(db, claims.SubjectID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	user, err := h.userService.UpdateProfile(db, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
