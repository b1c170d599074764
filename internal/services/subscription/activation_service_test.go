package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"vieclam_backend/internal/models"
	"vieclam_backend/internal/repositories"
	"vieclam_backend/internal/testutil"
	"vieclam_backend/pkg/apperrors"
)

func newActivationService() *ActivationService {
	return NewActivationService(
		repositories.NewPlanRepository(),
		repositories.NewGrantRepository(),
		7,
	)
}

func createPlan(t *testing.T, db *gorm.DB, plan *models.SubscriptionPlan) *models.SubscriptionPlan {
	t.Helper()
	require.NoError(t, db.Create(plan).Error)
	return plan
}

// createBuyer создает реального пользователя: гранты ссылаются на users
// по внешнему ключу, и выдуманный id оплату бы не прошел.
func createBuyer(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	role := models.RoleEmployer
	buyer := &models.User{
		SubjectID:   "gw-sub-buyer",
		Email:       "buyer@example.com",
		DisplayName: "Công ty TNHH Thử Nghiệm",
		Role:        &role,
	}
	require.NoError(t, db.Create(buyer).Error)
	return buyer
}

func monthlyPlan() *models.SubscriptionPlan {
	role := models.RoleEmployer
	interval := 2
	posts := 10
	return &models.SubscriptionPlan{
		Name:            "Gói Doanh Nghiệp",
		Price:           899000,
		Currency:        "VND",
		PlanType:        models.PlanTypeSubscription,
		DurationInDays:  30,
		TargetRole:      &role,
		Features:        datatypes.JSON([]byte(`["JOB_POST","PUSH_TOP"]`)),
		IsActive:        true,
		JobPostDaily:    &posts,
		PushTopInterval: &interval,
	}
}

func TestActivate_CreatesGrantWithSnapshot(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newActivationService()
	buyer := createBuyer(t, db)
	plan := createPlan(t, db, monthlyPlan())

	result, err := svc.Activate(db, buyer.ID, plan.ID, "txn-1")

	require.NoError(t, err)
	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, "Gói Doanh Nghiệp", result.PlanName)

	grant := result.Grant
	require.NotNil(t, grant)
	assert.Equal(t, models.SubscriptionStatusActive, grant.Status)
	assert.Equal(t, "txn-1", grant.PaymentTransactionID)
	assert.Equal(t, plan.Name, grant.SnapshotPlanName)
	assert.Equal(t, plan.Price, grant.SnapshotPrice)
	assert.Equal(t, models.PlanTypeSubscription, grant.SnapshotPlanType)
	assert.Equal(t, 10, grant.SnapshotJobPostDaily)
	assert.Equal(t, 2, grant.SnapshotPushTopInterval)
	// Незаданные лимиты снимаются значениями по умолчанию
	assert.Equal(t, 0, grant.SnapshotPushTopDaily)
	assert.Equal(t, 0, grant.SnapshotCVStorage)
}

// Изменение плана после покупки не должно менять купленный грант.
func TestActivate_SnapshotImmutableAfterPlanChange(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newActivationService()
	buyer := createBuyer(t, db)
	plan := createPlan(t, db, monthlyPlan())

	result, err := svc.Activate(db, buyer.ID, plan.ID, "txn-1")
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.SubscriptionPlan{}).Where("id = ?", plan.ID).
		Updates(map[string]interface{}{
			"price":          1299000,
			"name":           "Gói Doanh Nghiệp Plus",
			"job_post_daily": 99,
		}).Error)

	var stored models.SubscriptionGrant
	require.NoError(t, db.First(&stored, "id = ?", result.Grant.ID).Error)
	assert.Equal(t, "Gói Doanh Nghiệp", stored.SnapshotPlanName)
	assert.Equal(t, float64(899000), stored.SnapshotPrice)
	assert.Equal(t, 10, stored.SnapshotJobPostDaily)
}

// Повтор подтверждения той же оплаты не создает второй грант.
func TestActivate_ReplayReturnsAlreadyProcessed(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newActivationService()
	buyer := createBuyer(t, db)
	plan := createPlan(t, db, monthlyPlan())

	first, err := svc.Activate(db, buyer.ID, plan.ID, "txn-1")
	require.NoError(t, err)
	require.False(t, first.AlreadyProcessed)

	second, err := svc.Activate(db, buyer.ID, plan.ID, "txn-1")
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.Grant.ID, second.Grant.ID)
	assert.Equal(t, first.PlanName, second.PlanName)

	var count int64
	require.NoError(t, db.Model(&models.SubscriptionGrant{}).
		Where("payment_transaction_id = ?", "txn-1").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// raceGrantRepo воспроизводит гонку двух подтверждений: предпроверка
// пустая, но вставка упирается в уникальное ограничение.
type raceGrantRepo struct {
	repositories.GrantRepository
}

func (r *raceGrantRepo) FindByTransactionID(db *gorm.DB, transactionID string) (*models.SubscriptionGrant, error) {
	return nil, repositories.ErrGrantNotFound
}

func TestActivate_RaceLoserTreatedAsAlreadyProcessed(t *testing.T) {
	db := testutil.OpenDB(t)
	buyer := createBuyer(t, db)
	plan := createPlan(t, db, monthlyPlan())

	winner := newActivationService()
	_, err := winner.Activate(db, buyer.ID, plan.ID, "txn-1")
	require.NoError(t, err)

	loser := NewActivationService(
		repositories.NewPlanRepository(),
		&raceGrantRepo{GrantRepository: repositories.NewGrantRepository()},
		7,
	)

	result, err := loser.Activate(db, buyer.ID, plan.ID, "txn-1")
	require.NoError(t, err)
	assert.True(t, result.AlreadyProcessed)
	assert.Equal(t, plan.Name, result.PlanName)

	var count int64
	require.NoError(t, db.Model(&models.SubscriptionGrant{}).
		Where("payment_transaction_id = ?", "txn-1").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestActivate_PlanNotFound(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newActivationService()
	buyer := createBuyer(t, db)

	_, err := svc.Activate(db, buyer.ID, "00000000-0000-0000-0000-000000000000", "txn-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrPlanNotFound))
}

// Месячная подписка, купленная 1 января, действует до 31 января.
func TestActivate_SubscriptionWindow30Days(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newActivationService()
	buyer := createBuyer(t, db)
	plan := createPlan(t, db, monthlyPlan())

	svc.now = func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, svc.location)
	}

	result, err := svc.Activate(db, buyer.ID, plan.ID, "txn-1")
	require.NoError(t, err)

	grant := result.Grant
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, svc.location), grant.StartDate)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, svc.location), grant.EndDate)
}

// Разовый план действует "вечно": окончание через тысячу лет.
func TestActivate_OneTimePlanFarFuture(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newActivationService()
	buyer := createBuyer(t, db)

	role := models.RoleEmployer
	pushes := 1
	oneTime := createPlan(t, db, &models.SubscriptionPlan{
		Name:         "Đẩy Tin Một Lần",
		Price:        49000,
		Currency:     "VND",
		PlanType:     models.PlanTypeOneTime,
		TargetRole:   &role,
		IsActive:     true,
		PushTopDaily: &pushes,
	})

	svc.now = func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, svc.location)
	}

	result, err := svc.Activate(db, buyer.ID, oneTime.ID, "txn-ot-1")
	require.NoError(t, err)

	grant := result.Grant
	assert.Equal(t, 3024, grant.EndDate.Year())
	// По умолчанию интервал поднятия равен единице
	assert.Equal(t, 1, grant.SnapshotPushTopInterval)

	// Грант действует и сейчас, и через десять лет
	assert.True(t, grant.ActiveAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, grant.ActiveAt(time.Date(2034, 6, 1, 0, 0, 0, 0, time.UTC)))
}
