package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"vieclam_backend/internal/config"
	"vieclam_backend/internal/identity"
	"vieclam_backend/internal/middleware"
	"vieclam_backend/internal/models"
	"vieclam_backend/internal/repositories"
	"vieclam_backend/internal/services"
	subscriptionsvc "vieclam_backend/internal/services/subscription"
	"vieclam_backend/internal/testutil"
	"vieclam_backend/internal/validator"
)

const testJWTSecret = "http-flow-test-secret"

// recordingSender собирает отправленные уведомления вместо SMTP.
type recordingSender struct {
	mu      sync.Mutex
	notices []string
}

func (r *recordingSender) Send(to, subject, body string) error { return nil }

func (r *recordingSender) SendActivationNotice(to, planName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, to+":"+planName)
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

func newTestRouter(t *testing.T, db *gorm.DB, paymentURL string) (*gin.Engine, *recordingSender) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userRepo := repositories.NewUserRepository()
	linkRepo := repositories.NewProviderLinkRepository()
	planRepo := repositories.NewPlanRepository()
	grantRepo := repositories.NewGrantRepository()

	cfg := &config.Config{}
	cfg.Payment.BaseURL = paymentURL
	cfg.Payment.SecretKey = "sk-test"
	cfg.Payment.ClientURL = "http://localhost:3000"
	cfg.Payment.Currency = "VND"
	cfg.Payment.TimeoutSeconds = 2

	syncService := services.NewUserSyncService(userRepo, linkRepo, identity.DefaultClassification())
	userService := services.NewUserService(userRepo, linkRepo, grantRepo, nil)
	planService := subscriptionsvc.NewPlanService(planRepo)
	checkoutService := subscriptionsvc.NewCheckoutService(cfg)
	activationService := subscriptionsvc.NewActivationService(planRepo, grantRepo, 7)
	sender := &recordingSender{}

	base := NewBaseHandler(validator.New())
	appHandlers := &AppHandlers{
		AuthHandler:    NewAuthHandler(base, syncService),
		UserHandler:    NewUserHandler(base, userService),
		PlanHandler:    NewPlanHandler(base, planService),
		PaymentHandler: NewPaymentHandler(base, checkoutService, activationService, planService, sender),
		AdminHandler:   NewAdminHandler(base, userService, planService),
	}

	mw := &middleware.Set{
		Auth:     middleware.AuthMiddleware(identity.NewJWTVerifier(testJWTSecret)),
		LoadUser: middleware.LoadUserMiddleware(userRepo),
	}

	router := gin.New()
	router.Use(middleware.DBMiddleware(db))
	api := router.Group("/api/v1")
	appHandlers.AuthHandler.RegisterRoutes(api, mw)
	appHandlers.UserHandler.RegisterRoutes(api, mw)
	appHandlers.PlanHandler.RegisterRoutes(api, mw)
	appHandlers.PaymentHandler.RegisterRoutes(api, mw)
	appHandlers.AdminHandler.RegisterRoutes(api, mw)

	return router, sender
}

func gatewayToken(t *testing.T, subjectID, email string, identities map[string][]string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":        subjectID,
		"email":      email,
		"name":       "Test User",
		"identities": identities,
		"exp":        time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var reqBody *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w, w.Body.String()
}

func TestAuthFlow_RegisterThenSync(t *testing.T) {
	db := testutil.OpenDB(t)
	router, _ := newTestRouter(t, db, "")

	token := gatewayToken(t, "sub-http-1", "a@test.vn", map[string][]string{
		"google.com": {"g-1"},
	})

	// Без токена доступа нет
	res, _ := doRequest(t, router, http.MethodPost, "/api/v1/auth/sync", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	// Запись еще не заведена - клиент должен уйти на выбор роли
	res, body := doRequest(t, router, http.MethodPost, "/api/v1/auth/sync", token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Contains(t, body, "USER_NOT_REGISTERED")

	// Регистрация с ролью соискателя
	res, body = doRequest(t, router, http.MethodPost, "/api/v1/auth/register", token, map[string]interface{}{
		"role_id": 4,
	})
	require.Equal(t, http.StatusCreated, res.Code, body)
	assert.Contains(t, body, `"subject_id":"sub-http-1"`)
	assert.Contains(t, body, `"role":"candidate"`)

	// Повторная регистрация - конфликт
	res, _ = doRequest(t, router, http.MethodPost, "/api/v1/auth/register", token, map[string]interface{}{
		"role_id": 4,
	})
	assert.Equal(t, http.StatusConflict, res.Code)

	// Теперь синхронизация проходит
	res, body = doRequest(t, router, http.MethodPost, "/api/v1/auth/sync", token, nil)
	require.Equal(t, http.StatusOK, res.Code, body)
	assert.Contains(t, body, `"subject_id":"sub-http-1"`)

	// И профиль доступен
	res, body = doRequest(t, router, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, body, `"provider_id":"google.com"`)
}

func TestAuthFlow_UnknownRoleRejected(t *testing.T) {
	db := testutil.OpenDB(t)
	router, _ := newTestRouter(t, db, "")

	token := gatewayToken(t, "sub-http-2", "b@test.vn", map[string][]string{
		"google.com": {"g-2"},
	})

	res, _ := doRequest(t, router, http.MethodPost, "/api/v1/auth/register", token, map[string]interface{}{
		"role_id": 9,
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestBannedUserRejected(t *testing.T) {
	db := testutil.OpenDB(t)
	router, _ := newTestRouter(t, db, "")

	token := gatewayToken(t, "sub-banned", "banned@test.vn", map[string][]string{
		"google.com": {"g-b"},
	})
	res, _ := doRequest(t, router, http.MethodPost, "/api/v1/auth/register", token, map[string]interface{}{
		"role_id": 3,
	})
	require.Equal(t, http.StatusCreated, res.Code)

	require.NoError(t, db.Model(&models.User{}).
		Where("subject_id = ?", "sub-banned").
		UpdateColumn("is_banned", true).Error)

	// Маршруты с LoadUser закрыты для заблокированных
	name := "New Name"
	res, _ = doRequest(t, router, http.MethodPut, "/api/v1/users/me", token, map[string]interface{}{
		"display_name": name,
	})
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestPlans_PublicListing(t *testing.T) {
	db := testutil.OpenDB(t)
	router, _ := newTestRouter(t, db, "")

	employer := models.RoleEmployer
	require.NoError(t, db.Create(&models.SubscriptionPlan{
		Name:           "Gói Cơ Bản",
		Price:          299000,
		Currency:       "VND",
		PlanType:       models.PlanTypeSubscription,
		DurationInDays: 30,
		TargetRole:     &employer,
		Features:       datatypes.JSON([]byte(`["JOB_POST"]`)),
		IsActive:       true,
	}).Error)
	hidden := &models.SubscriptionPlan{
		Name:     "Ẩn Khỏi Danh Sách",
		Price:    1,
		Currency: "VND",
		PlanType: models.PlanTypeOneTime,
	}
	require.NoError(t, db.Create(hidden).Error)
	require.NoError(t, db.Model(hidden).UpdateColumn("is_active", false).Error)

	// Анонимный доступ к витрине
	res, body := doRequest(t, router, http.MethodGet, "/api/v1/plans", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, body, "Gói Cơ Bản")
	assert.NotContains(t, body, "Ẩn Khỏi Danh Sách", "деактивированный план не показывается")

	// Фильтр по роли соискателя: планов работодателя в ответе нет
	res, body = doRequest(t, router, http.MethodGet, "/api/v1/plans?role=4", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.NotContains(t, body, "Gói Cơ Bản")
}

func TestPaymentFlow_VerifyActivatesOnce(t *testing.T) {
	db := testutil.OpenDB(t)

	var payerRef string
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":  "cs_flow_1",
				"url": "https://pay.test/cs_flow_1",
			})
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":                  "cs_flow_1",
				"payment_status":      "paid",
				"client_reference_id": payerRef,
				"amount_total":        899000,
			})
		}
	}))
	defer provider.Close()

	router, sender := newTestRouter(t, db, provider.URL)

	token := gatewayToken(t, "sub-pay-1", "pay@test.vn", map[string][]string{
		"google.com": {"g-pay"},
	})
	res, _ := doRequest(t, router, http.MethodPost, "/api/v1/auth/register", token, map[string]interface{}{
		"role_id": 3,
	})
	require.Equal(t, http.StatusCreated, res.Code)

	var payer models.User
	require.NoError(t, db.First(&payer, "subject_id = ?", "sub-pay-1").Error)
	payerRef = payer.ID

	role := models.RoleEmployer
	plan := &models.SubscriptionPlan{
		Name:           "Gói Doanh Nghiệp",
		Price:          899000,
		Currency:       "VND",
		PlanType:       models.PlanTypeSubscription,
		DurationInDays: 30,
		TargetRole:     &role,
		IsActive:       true,
	}
	require.NoError(t, db.Create(plan).Error)

	// Создание checkout-сессии
	res, body := doRequest(t, router, http.MethodPost, "/api/v1/payments/checkout-session", token, map[string]interface{}{
		"plan_id": plan.ID,
	})
	require.Equal(t, http.StatusOK, res.Code, body)
	assert.Contains(t, body, "cs_flow_1")

	// Подтверждение оплаты активирует подписку
	res, body = doRequest(t, router, http.MethodPost, "/api/v1/payments/verify", token, map[string]interface{}{
		"session_id": "cs_flow_1",
		"plan_id":    plan.ID,
	})
	require.Equal(t, http.StatusOK, res.Code, body)
	assert.Contains(t, body, `"already_processed":false`)
	assert.Contains(t, body, "Subscription activated")

	// Повторное подтверждение - идемпотентный ответ, грант один
	res, body = doRequest(t, router, http.MethodPost, "/api/v1/payments/verify", token, map[string]interface{}{
		"session_id": "cs_flow_1",
		"plan_id":    plan.ID,
	})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, body, `"already_processed":true`)

	var grants int64
	require.NoError(t, db.Model(&models.SubscriptionGrant{}).
		Where("payment_transaction_id = ?", "cs_flow_1").Count(&grants).Error)
	assert.EqualValues(t, 1, grants)

	assert.Equal(t, 1, sender.count(), "уведомление уходит только при свежей активации")
}

func TestAdminRoutes_RoleGate(t *testing.T) {
	db := testutil.OpenDB(t)
	router, _ := newTestRouter(t, db, "")

	candidateToken := gatewayToken(t, "sub-cand", "c@test.vn", map[string][]string{
		"google.com": {"g-c"},
	})
	res, _ := doRequest(t, router, http.MethodPost, "/api/v1/auth/register", candidateToken, map[string]interface{}{
		"role_id": 4,
	})
	require.Equal(t, http.StatusCreated, res.Code)

	res, _ = doRequest(t, router, http.MethodGet, "/api/v1/admin/users", candidateToken, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	// Админ заводится напрямую в БД
	adminRole := models.RoleAdmin
	admin := &models.User{
		SubjectID:   "sub-adm",
		Email:       "adm@test.vn",
		DisplayName: "Admin",
		Role:        &adminRole,
		IsVerified:  true,
	}
	require.NoError(t, db.Create(admin).Error)

	adminToken := gatewayToken(t, "sub-adm", "adm@test.vn", map[string][]string{
		"password": {"adm@test.vn"},
	})
	res, body := doRequest(t, router, http.MethodGet, "/api/v1/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, res.Code, body)
	assert.Contains(t, body, "c@test.vn")
}
