package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"vieclam_backend/database"
	"vieclam_backend/internal/config"
	"vieclam_backend/internal/email"
	"vieclam_backend/internal/handlers"
	"vieclam_backend/internal/identity"
	"vieclam_backend/internal/logger"
	"vieclam_backend/internal/middleware"
	"vieclam_backend/internal/models"
	"vieclam_backend/internal/repositories"
	"vieclam_backend/internal/routes"
	"vieclam_backend/internal/services"
	subscriptionsvc "vieclam_backend/internal/services/subscription"
	"vieclam_backend/internal/validator"
	"vieclam_backend/internal/workers"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("AutoMigrate failed", "error", err)
	}

	if err := seedFirstSuperAdmin(gormDB, cfg); err != nil {
		// Без супер-админа платформой нельзя управлять - не запускаем сервер
		logger.Fatal("Failed to seed first super admin", "error", err)
	}
	if err := seedDefaultPlans(gormDB); err != nil {
		logger.Fatal("Failed to seed default plans", "error", err)
	}

	workers.NewGrantWorker(gormDB).Start(context.Background())

	ginRouter := SetupRouter(cfg, gormDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	// 1. Инициализируем сервисы
	serviceContainer := initializeServices(cfg)

	// 2. Инициализируем хэндлеры
	appHandlers := initializeHandlers(serviceContainer)

	// 3. Middleware, зависящие от конфигурации
	verifier := identity.NewJWTVerifier(cfg.Auth.JWTSecret)
	mw := &middleware.Set{
		Auth:     middleware.AuthMiddleware(verifier),
		LoadUser: middleware.LoadUserMiddleware(repositories.NewUserRepository()),
	}

	// 4. Инициализируем Gin
	ginRouter := initializeGinRouter(gormDB)

	// 5. Делегируем регистрацию маршрутов пакету 'routes'
	routes.RegisterRoutes(ginRouter, appHandlers, mw)

	return ginRouter
}

func initializeServices(cfg *config.Config) *services.ServiceContainer {
	// --- Инициализация репозиториев ---
	userRepo := repositories.NewUserRepository()
	linkRepo := repositories.NewProviderLinkRepository()
	planRepo := repositories.NewPlanRepository()
	grantRepo := repositories.NewGrantRepository()

	// --- Внешние клиенты ---
	accounts := identity.NewGatewayClient(
		cfg.IdentityGateway.BaseURL,
		cfg.IdentityGateway.APIKey,
		time.Duration(cfg.IdentityGateway.TimeoutSeconds)*time.Second,
	)
	classification := identity.NewClassification(cfg.Auth.PasswordProviders)

	// --- Инициализация сервисов ---
	syncService := services.NewUserSyncService(userRepo, linkRepo, classification)
	userService := services.NewUserService(userRepo, linkRepo, grantRepo, accounts)
	planService := subscriptionsvc.NewPlanService(planRepo)
	checkoutService := subscriptionsvc.NewCheckoutService(cfg)
	activationService := subscriptionsvc.NewActivationService(planRepo, grantRepo, cfg.Payment.TimezoneOffsetHours)
	emailSender := email.NewSMTPSender(cfg)

	return &services.ServiceContainer{
		UserSyncService:   syncService,
		UserService:       userService,
		PlanService:       planService,
		CheckoutService:   checkoutService,
		ActivationService: activationService,
		EmailSender:       emailSender,
	}
}

func initializeHandlers(container *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:    handlers.NewAuthHandler(baseHandler, container.UserSyncService),
		UserHandler:    handlers.NewUserHandler(baseHandler, container.UserService),
		PlanHandler:    handlers.NewPlanHandler(baseHandler, container.PlanService),
		PaymentHandler: handlers.NewPaymentHandler(baseHandler, container.CheckoutService, container.ActivationService, container.PlanService, container.EmailSender),
		AdminHandler:   handlers.NewAdminHandler(baseHandler, container.UserService, container.PlanService),
	}
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

// seedFirstSuperAdmin создает первого супер-админа при старте. Пароль и
// вход живут на внешнем identity-шлюзе, поэтому локально достаточно
// subject_id и email из конфига.
func seedFirstSuperAdmin(db *gorm.DB, cfg *config.Config) error {
	subjectID := cfg.Seed.SuperAdminSubjectID
	adminEmail := cfg.Seed.SuperAdminEmail

	if subjectID == "" || adminEmail == "" {
		logger.Warn("seed.super_admin_subject_id or seed.super_admin_email is not set. Skipping super admin seeding.")
		return nil
	}

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	var existing models.User
	result := tx.Where("subject_id = ?", subjectID).First(&existing)

	if result.Error == nil {
		logger.Info("Super admin already exists. Skipping creation.", "email", adminEmail)
		tx.Rollback()
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for super admin: %w", result.Error)
	}

	logger.Warn("No super admin found. Creating first super admin...", "email", adminEmail)

	role := models.RoleSuperAdmin
	superAdmin := &models.User{
		SubjectID:   subjectID,
		Email:       adminEmail,
		DisplayName: "Platform Administrator",
		Role:        &role,
		IsVerified:  true,
	}
	if err := tx.Create(superAdmin).Error; err != nil {
		return fmt.Errorf("failed to create super admin in database: %w", err)
	}

	logger.Info("✅ Successfully created first super admin", "email", adminEmail)
	return tx.Commit().Error
}

// seedDefaultPlans наполняет пустой каталог стартовыми тарифами.
// Если в каталоге уже что-то есть (даже деактивированное) - не трогаем.
func seedDefaultPlans(db *gorm.DB) error {
	planRepo := repositories.NewPlanRepository()

	total, err := planRepo.CountAll(db)
	if err != nil {
		return fmt.Errorf("failed to count plans: %w", err)
	}
	if total > 0 {
		return nil
	}

	logger.Info("Plan catalog is empty. Seeding default plans...")

	employer := models.RoleEmployer
	candidate := models.RoleCandidate
	intPtr := func(v int) *int { return &v }

	defaults := []*models.SubscriptionPlan{
		{
			Name:           "Gói Cơ Bản",
			Description:    "Đăng tin tuyển dụng cơ bản cho doanh nghiệp nhỏ",
			Price:          299000,
			Currency:       "VND",
			PlanType:       models.PlanTypeSubscription,
			DurationInDays: 30,
			TargetRole:     &employer,
			Features:       datatypes.JSON([]byte(`["JOB_POST","VIEW_APPLICANTS"]`)),
			IsActive:       true,
			JobPostDaily:   intPtr(3),
		},
		{
			Name:            "Gói Doanh Nghiệp",
			Description:     "Đăng tin không giới hạn và đẩy tin lên đầu trang",
			Price:           899000,
			Currency:        "VND",
			PlanType:        models.PlanTypeSubscription,
			DurationInDays:  30,
			TargetRole:      &employer,
			Features:        datatypes.JSON([]byte(`["JOB_POST","VIEW_APPLICANTS","PUSH_TOP","REVEAL_PHONE"]`)),
			IsActive:        true,
			JobPostDaily:    intPtr(10),
			PushTopDaily:    intPtr(3),
			PushTopInterval: intPtr(2),
		},
		{
			Name:         "Đẩy Tin Một Lần",
			Description:  "Mua một lần, đẩy tin tuyển dụng lên đầu trang",
			Price:        49000,
			Currency:     "VND",
			PlanType:     models.PlanTypeOneTime,
			TargetRole:   &employer,
			Features:     datatypes.JSON([]byte(`["PUSH_TOP"]`)),
			IsActive:     true,
			PushTopDaily: intPtr(1),
		},
		{
			Name:           "Hồ Sơ Nổi Bật",
			Description:    "Hồ sơ ứng viên được ưu tiên hiển thị với nhà tuyển dụng",
			Price:          99000,
			Currency:       "VND",
			PlanType:       models.PlanTypeSubscription,
			DurationInDays: 30,
			TargetRole:     &candidate,
			Features:       datatypes.JSON([]byte(`["FEATURED_PROFILE","CV_STORAGE"]`)),
			IsActive:       true,
			CVStorage:      intPtr(10),
		},
	}

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	for _, plan := range defaults {
		if err := tx.Create(plan).Error; err != nil {
			return fmt.Errorf("failed to create default plan %q: %w", plan.Name, err)
		}
	}

	logger.Info("✅ Default plans seeded", "count", len(defaults))
	return tx.Commit().Error
}
