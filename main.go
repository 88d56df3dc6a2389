package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gorillionaire/handlers"
	"gorillionaire/models"
	"gorillionaire/services"
	"gorillionaire/utils"
	"gorillionaire/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment variables directly")
	}

	logger, err := utils.NewLogger()
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer logger.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL environment variable not set")
	}

	// TranslateError surfaces unique-index violations as
	// gorm.ErrDuplicatedKey, which the services map to conflicts.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Activity{},
		&models.WeeklySnapshot{},
		&models.SnapshotEntry{},
		&models.RaffleWinner{},
		&models.Quest{},
		&models.QuestClaim{},
		&models.Referral{},
	); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifyWorker := workers.NewNotifyWorker(logger, &services.LogNotifier{Log: logger}, 256)
	notifyWorker.Start(ctx)

	ledgerService := services.NewLedgerService(db, logger, notifyWorker)
	referralService := services.NewReferralService(db, logger, ledgerService)
	questService := services.NewQuestService(db, logger, ledgerService)
	archiverService := services.NewArchiverService(db, logger)
	leaderboardService := services.NewLeaderboardService(db, logger)

	if err := questService.SeedQuests(ctx); err != nil {
		logger.Fatal("failed to seed quests", zap.Error(err))
	}

	exporter, err := utils.NewR2Exporter()
	if err != nil {
		logger.Fatal("failed to initialize R2 exporter", zap.Error(err))
	}
	if exporter != nil {
		archiverService.Exporter = exporter
		logger.Info("snapshot export to R2 enabled")
	}

	scheduler, err := services.StartArchiveScheduler(ctx, archiverService, logger)
	if err != nil {
		logger.Fatal("failed to start archive scheduler", zap.Error(err))
	}
	defer func() { _ = scheduler.Shutdown() }()

	app := fiber.New()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.TrimSpace(allowedOrigins),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-Wallet-Address",
	}))

	handlers.SetupActivityRoutes(app, ledgerService, referralService, logger)
	handlers.SetupQuestRoutes(app, questService)
	handlers.SetupLeaderboardRoutes(app, leaderboardService, archiverService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}()
	logger.Info("server running", zap.String("port", port))

	<-ctx.Done()
	logger.Info("shutting down server")
	_ = app.Shutdown()
}
