package models

import (
	"time"

	"gorm.io/datatypes"
)

type SubscriptionPlan struct {
	BaseModel
	Name           string         `gorm:"not null" json:"name"`
	Description    string         `json:"description"`
	Price          float64        `gorm:"not null" json:"price"`
	Currency       string         `gorm:"default:'VND'" json:"currency"`
	PlanType       PlanType       `gorm:"type:varchar(20);not null" json:"plan_type"`
	DurationInDays int            `json:"duration_in_days"` // только для SUBSCRIPTION
	TargetRole     *UserRole      `gorm:"type:smallint" json:"target_role"`
	Features       datatypes.JSON `gorm:"type:jsonb" json:"features"` // ["EMPLOYER_REVEAL_PHONE", ...]
	IsActive       bool           `gorm:"default:true" json:"is_active"`

	// Числовые лимиты; nil означает «не задан», при активации
	// подставляется значение по умолчанию.
	JobPostDaily    *int `json:"job_post_daily"`
	PushTopDaily    *int `json:"push_top_daily"`
	PushTopInterval *int `json:"push_top_interval"`
	CVStorage       *int `json:"cv_storage"`
}

// SubscriptionGrant - одна активированная покупка. Условия плана
// снимаются снапшотом при создании и больше никогда не меняются:
// правки живого плана не трогают уже проданные условия.
type SubscriptionGrant struct {
	BaseModel
	UserID               string             `gorm:"not null;index" json:"user_id"`
	PlanID               string             `gorm:"not null;index" json:"plan_id"`
	Status               SubscriptionStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	PaymentTransactionID string             `gorm:"not null;uniqueIndex" json:"payment_transaction_id"`
	StartDate            time.Time          `json:"start_date"`
	EndDate              time.Time          `json:"end_date"`

	SnapshotPlanName        string         `json:"snapshot_plan_name"`
	SnapshotPrice           float64        `json:"snapshot_price"`
	SnapshotPlanType        PlanType       `gorm:"type:varchar(20)" json:"snapshot_plan_type"`
	SnapshotFeatures        datatypes.JSON `gorm:"type:jsonb" json:"snapshot_features"`
	SnapshotJobPostDaily    int            `json:"snapshot_job_post_daily"`
	SnapshotPushTopDaily    int            `json:"snapshot_push_top_daily"`
	SnapshotPushTopInterval int            `json:"snapshot_push_top_interval"`
	SnapshotCVStorage       int            `json:"snapshot_cv_storage"`
}

func (g *SubscriptionGrant) ActiveAt(t time.Time) bool {
	return g.Status == SubscriptionStatusActive &&
		!t.Before(g.StartDate) && t.Before(g.EndDate)
}
