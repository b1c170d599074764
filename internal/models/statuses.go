package models

type PlanType string
type SubscriptionStatus string

const (
	PlanTypeSubscription PlanType = "SUBSCRIPTION"
	PlanTypeOneTime      PlanType = "ONE_TIME"

	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
)

func (t PlanType) Valid() bool {
	return t == PlanTypeSubscription || t == PlanTypeOneTime
}
