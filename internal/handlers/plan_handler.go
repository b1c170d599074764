package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vieclam_backend/internal/middleware"
	"vieclam_backend/internal/models"
	subscriptionsvc "vieclam_backend/internal/services/subscription"
	"vieclam_backend/pkg/apperrors"
)

type PlanHandler struct {
	*BaseHandler
	planService *subscriptionsvc.PlanService
}

func NewPlanHandler(base *BaseHandler, planService *subscriptionsvc.PlanService) *PlanHandler {
	return &PlanHandler{
		BaseHandler: base,
		planService: planService,
	}
}

// Витрина планов публична: клиент показывает тарифы до входа.
func (h *PlanHandler) RegisterRoutes(rg *gin.RouterGroup, mw *middleware.Set) {
	plans := rg.Group("/plans")
	{
		plans.GET("", h.ListPlans)
	}
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	var role models.UserRole
	if roleID := ParseQueryInt(c, "role", 0); roleID != 0 {
		parsed, err := models.RoleFromID(roleID)
		if err != nil {
			apperrors.HandleError(c, apperrors.NewBadRequestError("Unknown role id"))
			return
		}
		role = parsed
	}

	db := h.GetDB(c)

	plans, err := h.planService.GetActivePlans(db, role)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}
