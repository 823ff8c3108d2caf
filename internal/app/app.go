package app

import (
	"fmt"

	"payflow_backend/internal/config"
	"payflow_backend/internal/database"
	"payflow_backend/internal/handlers"
	"payflow_backend/internal/logger"
	"payflow_backend/internal/middleware"
	"payflow_backend/internal/repositories"
	"payflow_backend/internal/routes"
	"payflow_backend/internal/services"
	"payflow_backend/internal/services/google"
	"payflow_backend/internal/services/paystack"
	"payflow_backend/internal/validator"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
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

	if err := database.Migrate(gormDB, cfg.Server.Env); err != nil {
		logger.Fatal("Failed to migrate database schema", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter собирает зависимости и возвращает готовый *gin.Engine.
// Хранилище передается явно, без глобального handle: так сервисы и
// хэндлеры подменяются в тестах.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	// Репозитории
	userRepo := repositories.NewUserRepository(gormDB)
	txRepo := repositories.NewTransactionRepository(gormDB)

	// Клиенты внешних провайдеров
	oauthService := google.NewOAuthService(
		cfg.Google.ClientID,
		cfg.Google.ClientSecret,
		cfg.Google.RedirectURL,
	)
	paystackService := paystack.NewPaystackService(
		cfg.Paystack.SecretKey,
		cfg.Paystack.WebhookSecret,
		cfg.Paystack.BaseURL,
		cfg.Paystack.CallbackURL,
	)

	// Сервисы
	authService := services.NewAuthService(userRepo, oauthService, cfg.JWT.Secret, cfg.JWT.TTL)
	paymentService := services.NewPaymentService(txRepo, paystackService)

	// Хэндлеры
	baseHandler := handlers.NewBaseHandler(validator.New())
	appHandlers := &handlers.AppHandlers{
		AuthHandler:    handlers.NewAuthHandler(baseHandler, authService),
		PaymentHandler: handlers.NewPaymentHandler(baseHandler, paymentService),
	}

	ginRouter := initializeGinRouter(cfg)
	authGuard := middleware.AuthMiddleware(cfg.JWT.Secret, userRepo)
	routes.RegisterRoutes(ginRouter, appHandlers, authGuard)

	return ginRouter
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())
	ginRouter.Use(middleware.RequestIDMiddleware())
	ginRouter.Use(middleware.LoggingMiddleware())

	return ginRouter
}
