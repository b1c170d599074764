package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vieclam_backend/internal/middleware"
	"vieclam_backend/internal/models"
	"vieclam_backend/internal/services"
	"vieclam_backend/internal/services/dto"
	subscriptionsvc "vieclam_backend/internal/services/subscription"
	"vieclam_backend/pkg/apperrors"
)

type AdminHandler struct {
	*BaseHandler
	userService services.UserService
	planService *subscriptionsvc.PlanService
}

func NewAdminHandler(
	base *BaseHandler,
	userService services.UserService,
	planService *subscriptionsvc.PlanService,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler: base,
		userService: userService,
		planService: planService,
	}
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup, mw *middleware.Set) {
	admin := rg.Group("/admin")
	admin.Use(mw.Auth, mw.LoadUser, middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	{
		admin.GET("/users", h.ListUsers)
		admin.PUT("/users/:id/ban", h.BanUser)
		admin.DELETE("/users/:id", h.DeleteUser)

		admin.POST("/plans", h.CreatePlan)
		admin.PUT("/plans/:id", h.UpdatePlan)
		admin.DELETE("/plans/:id", h.DeactivatePlan)
	}

	// Управление админами доступно только super_admin
	sysAdmins := admin.Group("/system-admins")
	sysAdmins.Use(middleware.RequireRoles(models.RoleSuperAdmin))
	{
		sysAdmins.GET("", h.ListSystemAdmins)
		sysAdmins.POST("", h.CreateSystemAdmin)
	}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var role models.UserRole
	if roleID := ParseQueryInt(c, "role", 0); roleID != 0 {
		parsed, err := models.RoleFromID(roleID)
		if err != nil {
			apperrors.HandleError(c, apperrors.NewBadRequestError("Unknown role id"))
			return
		}
		role = parsed
	}
	page, pageSize := ParsePagination(c)

	db := h.GetDB(c)

	users, total, err := h.userService.ListUsers(db, role, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":     users,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *AdminHandler) BanUser(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.BanUserRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	if err := h.userService.SetBanned(c.Request.Context(), db, adminID, c.Param("id"), req.Banned); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ban flag updated"})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	if err := h.userService.DeleteUser(c.Request.Context(), db, adminID, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func (h *AdminHandler) CreatePlan(c *gin.Context) {
	var req dto.CreatePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	plan, err := h.planService.CreatePlan(db, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, plan)
}

func (h *AdminHandler) UpdatePlan(c *gin.Context) {
	var req dto.UpdatePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	plan, err := h.planService.UpdatePlan(db, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *AdminHandler) DeactivatePlan(c *gin.Context) {
	db := h.GetDB(c)

	if err := h.planService.DeactivatePlan(db, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plan deactivated"})
}

func (h *AdminHandler) ListSystemAdmins(c *gin.Context) {
	db := h.GetDB(c)

	admins, err := h.userService.ListSystemAdmins(db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"admins": admins})
}

func (h *AdminHandler) CreateSystemAdmin(c *gin.Context) {
	var req dto.CreateAdminRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	admin, err := h.userService.CreateSystemAdmin(c.Request.Context(), db, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, admin)
}
