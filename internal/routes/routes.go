package routes

import (
	"github.com/gin-gonic/gin"

	"vieclam_backend/internal/handlers"
	"vieclam_backend/internal/middleware"
)

// RegisterRoutes регистрирует все HTTP маршруты API v1.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	mw *middleware.Set,
) {
	api := ginRouter.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api, mw)
		appHandlers.UserHandler.RegisterRoutes(api, mw)
		appHandlers.PlanHandler.RegisterRoutes(api, mw)
		appHandlers.PaymentHandler.RegisterRoutes(api, mw)
		appHandlers.AdminHandler.RegisterRoutes(api, mw)
	}
}
