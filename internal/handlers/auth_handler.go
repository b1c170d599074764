package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vieclam_backend/internal/middleware"
	"vieclam_backend/internal/models"
	"vieclam_backend/internal/services"
	"vieclam_backend/internal/services/dto"
	"vieclam_backend/pkg/apperrors"
)

type AuthHandler struct {
	*BaseHandler
	syncService services.UserSyncService
}

func NewAuthHandler(base *BaseHandler, syncService services.UserSyncService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		syncService: syncService,
	}
}

// RegisterRoutes регистрирует маршруты синхронизации и регистрации
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, mw *middleware.Set) {
	auth := rg.Group("/auth")
	auth.Use(mw.Auth)
	{
		auth.POST("/sync", h.Sync)
		auth.POST("/register", h.Register)
	}
}

// Sync вызывается на каждый аутентифицированный заход клиента.
// 404 означает "запись не заведена" - клиент уходит на выбор роли.
func (h *AuthHandler) Sync(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return
	}

	db := h.GetDB(c)

	user, err := h.syncService.SyncOnLogin(db, claims)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Register(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return
	}

	var req dto.RegisterRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	role, err := models.RoleFromID(req.RoleID)
	if err != nil {
		apperrors.HandleError(c, apperrors.ValidationError(map[string]string{"role_id": err.Error()}))
		return
	}

	db := h.GetDB(c)

	user, err := h.syncService.RegisterNewUser(db, claims, role)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}
