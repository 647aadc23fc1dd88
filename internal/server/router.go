package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ivaaanrm/PaceUp/internal/handlers"
	"github.com/ivaaanrm/PaceUp/internal/middleware"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	StravaHandler   *handlers.StravaHandler
	TrainingHandler *handlers.TrainingHandler
	AnalysisHandler *handlers.AnalysisHandler
	CacheHandler    *handlers.CacheHandler
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api/v1")
	{
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)

		// Read-only views over synced data
		api.GET("/strava/athlete", cfg.StravaHandler.GetAthlete)
		api.GET("/strava/athlete/stats", cfg.StravaHandler.GetAthleteStats)
		api.GET("/strava/activities", cfg.StravaHandler.GetActivities)
		api.GET("/strava/activities/:activity_id", cfg.StravaHandler.GetActivity)
		api.GET("/strava/activities/:activity_id/laps", cfg.StravaHandler.GetActivityLaps)

		api.GET("/training/plan/latest", cfg.TrainingHandler.GetLatestPlan)
		api.GET("/training/plans", cfg.TrainingHandler.GetAllPlans)
		api.GET("/training/plan/:plan_id/progress", cfg.TrainingHandler.GetPlanProgress)
		api.GET("/training/plan/by-request/:request_id", cfg.TrainingHandler.GetPlanByRequestID)

		api.GET("/analysis/latest", cfg.AnalysisHandler.GetLatestAnalysis)
		api.GET("/analysis/history", cfg.AnalysisHandler.GetAllAnalyses)

		api.GET("/cache/stats", cfg.CacheHandler.Stats)
		api.GET("/cache/health", cfg.CacheHandler.Health)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api/v1")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.GET("/auth/me", cfg.AuthHandler.Me)

		// Sync mutates the store and burns Strava quota
		protected.POST("/strava/sync/activities", cfg.StravaHandler.SyncActivities)
		protected.POST("/strava/sync/all", cfg.StravaHandler.SyncAll)
		protected.POST("/strava/sync/activity/:activity_id/laps", cfg.StravaHandler.SyncActivityLaps)

		// Plan generation and mutation
		protected.POST("/training/plan", cfg.TrainingHandler.GeneratePlan)
		protected.GET("/training/plan/:plan_id", cfg.TrainingHandler.GetPlan)
		protected.DELETE("/training/plan/:plan_id", cfg.TrainingHandler.DeletePlan)
		protected.PUT("/training/plan/:plan_id/activity", cfg.TrainingHandler.UpdateActivityCompletion)
		protected.GET("/training/plan/:plan_id/completions", cfg.TrainingHandler.GetPlanCompletions)
		protected.GET("/training/requests", cfg.TrainingHandler.GetRequests)

		protected.POST("/analysis/generate", cfg.AnalysisHandler.GenerateAnalysis)

		protected.POST("/cache/invalidate", cfg.CacheHandler.Invalidate)
	}

	return router
}
