package subscription

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"vieclam_backend/internal/logger"
	"vieclam_backend/internal/models"
	"vieclam_backend/internal/repositories"
	"vieclam_backend/pkg/apperrors"
)

// Разовые планы не истекают по времени: далекая дата-часовой вместо
// NULL, чтобы проверка действия гранта всегда была одним сравнением
// диапазона.
const oneTimeGrantYears = 1000

// Значения лимитов по умолчанию при снятии снапшота.
const defaultPushTopInterval = 1

// ActivationResult - итог активации. AlreadyProcessed отличает
// повтор подтверждения от свежей покупки: вызывающий показывает
// "уже подтверждено" вместо "покупка успешна".
type ActivationResult struct {
	AlreadyProcessed bool
	Grant            *models.SubscriptionGrant
	PlanName         string
}

// ActivationService идемпотентно записывает грант подписки по
// подтвержденной оплате. Предусловие: вызывающий уже получил
// VerifiedPayment для этой сессии и этого пользователя.
type ActivationService struct {
	planRepo  repositories.PlanRepository
	grantRepo repositories.GrantRepository
	location  *time.Location

	now func() time.Time
}

func NewActivationService(
	planRepo repositories.PlanRepository,
	grantRepo repositories.GrantRepository,
	tzOffsetHours int,
) *ActivationService {
	return &ActivationService{
		planRepo:  planRepo,
		grantRepo: grantRepo,
		location:  time.FixedZone(fmt.Sprintf("UTC%+d", tzOffsetHours), tzOffsetHours*3600),
		now:       time.Now,
	}
}

// Activate выполняется в одной транзакции:
//  1. существующий грант по id транзакции -> AlreadyProcessed;
//  2. план из каталога (ErrPlanNotFound при отсутствии);
//  3. окно действия от текущего времени в рабочей таймзоне;
//  4. вставка гранта со снапшотом условий плана.
//
// Проигравший гонку дубликат вставки трактуется так же, как
// положительный результат предпроверки.
func (s *ActivationService) Activate(db *gorm.DB, userID, planID, transactionID string) (*ActivationResult, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.ActivationFailed(tx.Error)
	}
	defer tx.Rollback()

	existing, err := s.grantRepo.FindByTransactionID(tx, transactionID)
	if err == nil {
		tx.Commit()
		logger.Info("activation replayed",
			"transaction_id", transactionID,
			"grant_id", existing.ID,
		)
		return &ActivationResult{
			AlreadyProcessed: true,
			Grant:            existing,
			PlanName:         existing.SnapshotPlanName,
		}, nil
	}
	if !errors.Is(err, repositories.ErrGrantNotFound) {
		return nil, apperrors.ActivationFailed(err)
	}

	plan, err := s.planRepo.FindByID(tx, planID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, apperrors.ErrPlanNotFound
		}
		return nil, apperrors.ActivationFailed(err)
	}

	startDate := s.now().In(s.location)
	endDate := coverageEnd(plan, startDate)

	grant := &models.SubscriptionGrant{
		UserID:               userID,
		PlanID:               plan.ID,
		Status:               models.SubscriptionStatusActive,
		PaymentTransactionID: transactionID,
		StartDate:            startDate,
		EndDate:              endDate,

		SnapshotPlanName:        plan.Name,
		SnapshotPrice:           plan.Price,
		SnapshotPlanType:        plan.PlanType,
		SnapshotFeatures:        plan.Features,
		SnapshotJobPostDaily:    limitOrDefault(plan.JobPostDaily, 0),
		SnapshotPushTopDaily:    limitOrDefault(plan.PushTopDaily, 0),
		SnapshotPushTopInterval: limitOrDefault(plan.PushTopInterval, defaultPushTopInterval),
		SnapshotCVStorage:       limitOrDefault(plan.CVStorage, 0),
	}

	if err := s.grantRepo.Create(tx, grant); err != nil {
		if errors.Is(err, repositories.ErrDuplicateTransaction) {
			// Второе подтверждение той же оплаты успело вставить
			// грант между предпроверкой и нашей вставкой.
			return &ActivationResult{
				AlreadyProcessed: true,
				PlanName:         plan.Name,
			}, nil
		}
		return nil, apperrors.ActivationFailed(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.ActivationFailed(err)
	}

	logger.Info("subscription activated",
		"user_id", userID,
		"plan_id", plan.ID,
		"transaction_id", transactionID,
		"end_date", endDate,
	)
	return &ActivationResult{Grant: grant, PlanName: plan.Name}, nil
}

func coverageEnd(plan *models.SubscriptionPlan, start time.Time) time.Time {
	if plan.PlanType == models.PlanTypeSubscription && plan.DurationInDays > 0 {
		return start.AddDate(0, 0, plan.DurationInDays)
	}
	return start.AddDate(oneTimeGrantYears, 0, 0)
}

func limitOrDefault(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}
