package main

import (
	"context"

	config "delivery-ledger-backend/config"
	"delivery-ledger-backend/middleware"
	"delivery-ledger-backend/seeds"
	"delivery-ledger-backend/token"
	"delivery-ledger-backend/utils"

	// Repositories
	delivery_repositories "delivery-ledger-backend/deliveries/repositories"
	users_repositories "delivery-ledger-backend/users/repositories"

	// Services
	delivery_services "delivery-ledger-backend/deliveries/services"
	"delivery-ledger-backend/reports"

	// Routes
	delivery_routes "delivery-ledger-backend/deliveries/routes"
	user_routes "delivery-ledger-backend/users/routes"

	// bleve
	bleveControllers "delivery-ledger-backend/bleve/controllers"
	bleveRepositories "delivery-ledger-backend/bleve/repositories"
	bleveRoutes "delivery-ledger-backend/bleve/routes"
	bleveServices "delivery-ledger-backend/bleve/services"

	"delivery-ledger-backend/internal/bootstrap"
	"delivery-ledger-backend/jobs"
	"delivery-ledger-backend/websocket"

	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Initialize Zap logger
	config.InitLogger()

	// Load environment variables
	err := godotenv.Load(".env")
	if err != nil {
		config.Logger.Warn("No .env file loaded, relying on environment", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // spreadsheet uploads
	})

	// Apply CORS middleware from middleware package
	middleware.InitCors(app)

	// Initialize database and configs
	db := config.ConfigureDatabase()
	port := config.GetEnvOrDefault("PORT", "8080")
	ctx := context.Background()

	// Redis client for Asynq and scheduled cleanup
	redisAddr := config.GetEnv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379" // Default for development
		config.Logger.Warn("REDIS_ADDRESS not set, using default: localhost:6379")
	}
	redisClient := config.InitRedisServer(ctx)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: config.GetEnv("REDIS_PASSWORD"),
		DB:       0,
	}
	asynqClient := asynq.NewClient(asynqRedisOpt)
	defer asynqClient.Close()

	tokenKey := config.GetEnv("TOKEN_SYMMETRIC_KEY")
	tokenMaker, err := token.NewPasetoMaker(tokenKey)
	if err != nil {
		config.Logger.Fatal("Cannot create token maker", zap.Error(err))
	}

	tokenDuration, err := time.ParseDuration(config.GetEnvOrDefault("ACCESS_TOKEN_DURATION", "24h"))
	if err != nil {
		config.Logger.Fatal("Invalid ACCESS_TOKEN_DURATION", zap.Error(err))
	}

	indexPath := config.GetEnv("BLEVE_INDEX_PATH")
	if indexPath == "" {
		indexPath = "./bleve_data" // Default for local development
		config.Logger.Warn("BLEVE_INDEX_PATH not set, using default: ./bleve_data")
	}

	uploadDir := config.GetEnvOrDefault("UPLOAD_DIR", "./uploads")
	if err := utils.EnsureDirectoryExists(uploadDir); err != nil {
		config.Logger.Fatal("Cannot create upload directory", zap.Error(err))
	}

	// Initialize the mailer; outbound emails are recorded in the email log
	utils.InitializeMailer()
	utils.SetEmailLogDB(db)
	if utils.GetMailer() == nil {
		config.Logger.Fatal("Mailer not initialized")
	}

	// Date location; delivery dates are normalized into this zone everywhere
	if err := utils.InitializeDateLocation(); err != nil {
		config.Logger.Fatal("Failed to initialize date location", zap.Error(err))
	}

	// ------ WebSocket hub for live import progress ------
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Serve static files
	app.Static("/public", "./public")
	app.Static("/uploads", "./uploads")

	// Repositories
	bleveIndexingService := bleveServices.NewIndexingService(config.Logger, indexPath)
	bleveServiceRepo, bleveInterfaceRepo := bleveRepositories.NewBleveRepository(bleveIndexingService)
	deliveryRepo := delivery_repositories.NewDeliveryRepository(db)
	importRepo := delivery_repositories.NewImportRepository(db)
	auditRepo := delivery_repositories.NewAuditRepository(db)
	userRepo := users_repositories.NewUserRepository(db)

	// AI conflict-fix suggestions are optional; the importer runs without them
	var suggester delivery_services.FixSuggester
	if apiKey := config.GetGeminiAPIKey(); apiKey != "" {
		suggestionService, err := delivery_services.NewSuggestionService(apiKey, config.Logger)
		if err != nil {
			config.Logger.Warn("Failed to initialize suggestion service, continuing without it", zap.Error(err))
		} else {
			suggester = suggestionService
		}
	} else {
		config.Logger.Warn("GEMINI_API_KEY not set, conflict fix suggestions disabled")
	}

	// Services
	importer := delivery_services.NewImportService(deliveryRepo, importRepo, auditRepo, suggester, wsHub, config.Logger)
	resolver := delivery_services.NewConflictResolver(importer, importRepo, auditRepo, config.Logger)
	recompute := delivery_services.NewRecomputeService(deliveryRepo, auditRepo, config.Logger)
	reportRunner := reports.NewRunner(deliveryRepo, importRepo, config.Logger)

	// Background workers
	handlers := jobs.NewHandlers(importer, recompute, importRepo, reportRunner, config.Logger)
	orchestrator := jobs.NewOrchestrator(asynqRedisOpt, handlers, config.Logger)
	if err := orchestrator.Start(); err != nil {
		config.Logger.Fatal("Failed to start background workers", zap.Error(err))
	}
	defer orchestrator.Shutdown()

	// Actor resolution for the audit trail
	app.Use(middleware.WithActor(tokenMaker))

	// Routes
	user_routes.UserRouterInit(app, userRepo, auditRepo, tokenMaker, tokenDuration)
	delivery_routes.DeliveryRouterInit(
		app, db,
		deliveryRepo, importRepo, auditRepo,
		importer, resolver, recompute,
		asynqClient, bleveInterfaceRepo, uploadDir,
	)

	// WebSocket route for import progress
	wsHandler := websocket.NewWsHandler(wsHub, tokenMaker)
	app.Get("/ws", wsHandler.HandleWebSocket)

	// Bleve Routes
	bleveController := bleveControllers.NewSearchController(bleveServiceRepo)
	bleveRoutes.InitBleveRoutes(app, bleveController, db)

	// Rebuild search indexes from the database
	bootstrap.IndexBleveData(ctx, deliveryRepo, bleveInterfaceRepo)

	// Seed the bootstrap admin account
	if err := seeds.SeedInitialAdminUser(db); err != nil {
		config.Logger.Error("Admin seeding failed", zap.Error(err))
	}

	// Nightly file/cache cleanup plus the recompute sweep
	go utils.RunScheduledCleanup(redisClient, jobs.NewSweeper(asynqClient))

	// Start the application
	config.Logger.Info("Server starting", zap.String("port", port))
	config.Logger.Fatal("Server failed", zap.String("port", port), zap.Error(app.Listen(":"+port)))
}
