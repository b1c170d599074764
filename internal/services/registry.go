package services

import (
	"vieclam_backend/internal/email"
	subscriptionsvc "vieclam_backend/internal/services/subscription"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	UserSyncService UserSyncService
	UserService     UserService

	PlanService       *subscriptionsvc.PlanService
	CheckoutService   *subscriptionsvc.CheckoutService
	ActivationService *subscriptionsvc.ActivationService

	EmailSender email.Sender
}
