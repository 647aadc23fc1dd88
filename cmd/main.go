package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	redisclient "github.com/ivaaanrm/PaceUp/internal/clients/redis"
	"github.com/ivaaanrm/PaceUp/internal/clients/strava"
	"github.com/ivaaanrm/PaceUp/internal/db"
	"github.com/ivaaanrm/PaceUp/internal/handlers"
	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/middleware"
	"github.com/ivaaanrm/PaceUp/internal/repos"
	"github.com/ivaaanrm/PaceUp/internal/server"
	"github.com/ivaaanrm/PaceUp/internal/services"
	"github.com/ivaaanrm/PaceUp/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	serverPort := utils.GetEnv("SERVER_PORT", "8000", log)
	corsOrigins := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Clients
	log.Info("Setting up clients from main...")
	cache := redisclient.NewCache(log)
	stravaClient, err := strava.NewClient(log)
	if err != nil {
		log.Error("Could not init Strava client", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	athleteRepo := repos.NewAthleteRepo(thePG, log)
	activityRepo := repos.NewActivityRepo(thePG, log)
	lapRepo := repos.NewLapRepo(thePG, log)
	analysisRepo := repos.NewTrainingAnalysisRepo(thePG, log)
	requestRepo := repos.NewTrainingRequestRepo(thePG, log)
	planRepo := repos.NewTrainingPlanRepo(thePG, log)
	planActivityRepo := repos.NewPlanActivityRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	openaiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	syncService := services.NewSyncService(thePG, log, stravaClient, cache, athleteRepo, activityRepo, lapRepo)
	contextService := services.NewContextService(log, activityRepo, lapRepo)
	analysisService := services.NewAnalysisService(thePG, log, athleteRepo, analysisRepo, contextService, openaiClient, cache)
	planService := services.NewPlanService(thePG, log, athleteRepo, activityRepo, requestRepo, planRepo, planActivityRepo, openaiClient)

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(authService, userRepo)
	stravaHandler := handlers.NewStravaHandler(log, syncService, athleteRepo, activityRepo, lapRepo)
	trainingHandler := handlers.NewTrainingHandler(log, planService, athleteRepo, requestRepo)
	analysisHandler := handlers.NewAnalysisHandler(log, analysisService, athleteRepo)
	cacheHandler := handlers.NewCacheHandler(log, cache)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		StravaHandler:   stravaHandler,
		TrainingHandler: trainingHandler,
		AnalysisHandler: analysisHandler,
		CacheHandler:    cacheHandler,
		AllowOrigins:    splitOrigins(corsOrigins),
	})

	log.Info("Starting server", "port", serverPort)
	if err := router.Run(":" + serverPort); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}

func splitOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
