package api

import (
	"github.com/gin-gonic/gin"
	"github.com/stitts-dev/fpa-dashboard/internal/api/handlers"
	"github.com/stitts-dev/fpa-dashboard/internal/api/middleware"
	"github.com/stitts-dev/fpa-dashboard/internal/app"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, a *app.App) {
	seasonHandler := handlers.NewSeasonHandler(a.Allowances, a.Cache, a.Config, a.Logger)
	adminHandler := handlers.NewAdminHandler(a.Allowances, a.Warmer, a.Runs, a.Config, a.Logger)

	group.GET("/seasons", seasonHandler.ListSeasons)
	group.GET("/seasons/:season/allowances", seasonHandler.GetAllowances)
	group.GET("/seasons/:season/teams", seasonHandler.GetTeams)
	group.GET("/seasons/:season/final-week", seasonHandler.GetFinalWeek)
	group.GET("/seasons/:season/defense", seasonHandler.GetDefense)
	group.GET("/seasons/:season/defense/:team/weekly", seasonHandler.GetWeekly)

	// Admin routes
	admin := group.Group("")
	admin.Use(middleware.AdminRequired(a.Config.JWTSecret))
	{
		admin.POST("/seasons/:season/refresh", adminHandler.RefreshSeason)
		admin.DELETE("/seasons/:season/artifact", adminHandler.InvalidateSeason)
		admin.GET("/refresh-runs", adminHandler.ListRefreshRuns)
		admin.GET("/warmer/status", adminHandler.GetWarmerStatus)
	}
}

// NewRouter builds the full HTTP router: root endpoints plus /api/v1
func NewRouter(a *app.App) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(a.Logger))
	router.Use(middleware.CORS(a.Config.CorsOrigins))

	healthHandler := handlers.NewHealthHandler(a.DB, a.Cache, a.Breakers, a.Hub)
	logoHandler := handlers.NewLogoHandler(a.Logos)

	router.GET("/", handlers.GetDashboard)
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)
	router.GET("/logos/:team", logoHandler.GetLogo)
	router.GET("/ws", a.Hub.HandleWebSocket)

	SetupRoutes(router.Group("/api/v1"), a)

	return router
}
