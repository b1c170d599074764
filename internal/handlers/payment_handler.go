package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vieclam_backend/internal/email"
	"vieclam_backend/internal/middleware"
	"vieclam_backend/internal/services/dto"
	subscriptionsvc "vieclam_backend/internal/services/subscription"
)

type PaymentHandler struct {
	*BaseHandler
	checkout   *subscriptionsvc.CheckoutService
	activation *subscriptionsvc.ActivationService
	plans      *subscriptionsvc.PlanService
	email      email.Sender
}

func NewPaymentHandler(
	base *BaseHandler,
	checkout *subscriptionsvc.CheckoutService,
	activation *subscriptionsvc.ActivationService,
	plans *subscriptionsvc.PlanService,
	sender email.Sender,
) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler: base,
		checkout:    checkout,
		activation:  activation,
		plans:       plans,
		email:       sender,
	}
}

func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup, mw *middleware.Set) {
	payments := rg.Group("/payments")
	payments.Use(mw.Auth, mw.LoadUser)
	{
		payments.POST("/checkout-session", h.CreateCheckoutSession)
		payments.POST("/verify", h.VerifyPayment)
	}
}

func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CheckoutSessionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	plan, err := h.plans.GetPlan(db, req.PlanID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	session, err := h.checkout.CreateSession(c.Request.Context(), subscriptionsvc.CreateSessionParams{
		PlanName:          plan.Name,
		Description:       plan.Description,
		Amount:            plan.Price,
		ClientReferenceID: userID,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CheckoutSessionResponse{
		SessionID: session.ID,
		URL:       session.URL,
	})
}

// VerifyPayment подтверждает оплату у провайдера и идемпотентно
// активирует подписку. Проверка провайдера идет строго до
// транзакции активации.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.VerifyPaymentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if _, err := h.checkout.VerifySession(c.Request.Context(), req.SessionID, userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	db := h.GetDB(c)

	result, err := h.activation.Activate(db, userID, req.PlanID, req.SessionID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	resp := dto.VerifyPaymentResponse{
		AlreadyProcessed: result.AlreadyProcessed,
		PlanName:         result.PlanName,
	}
	if result.AlreadyProcessed {
		resp.Message = "Payment was already confirmed"
	} else {
		resp.Message = "Subscription activated"
		if user, ok := middleware.GetCurrentUser(c); ok {
			h.email.SendActivationNotice(user.Email, result.PlanName)
		}
	}

	c.JSON(http.StatusOK, resp)
}
