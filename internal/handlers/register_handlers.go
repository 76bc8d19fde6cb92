package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/coindeck/coindeck_backend/cmd/docs"
	portssvc "github.com/coindeck/coindeck_backend/internal/core/ports/services"
	"github.com/coindeck/coindeck_backend/internal/middleware"
	"github.com/coindeck/coindeck_backend/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies
// using interfaces.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	logger *slog.Logger,
) {

	// Add health check route
	r.GET("/", getHome)
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Price stream: each published snapshot is fanned out to subscribers
	hub := NewPriceHub(logger)
	services.Market.OnRefresh(hub.Broadcast)
	r.GET("/ws/prices", hub.HandlePrices)

	// Setup API v1 routes, passing service interfaces
	setupAPIV1Routes(r, services)

	// Swagger routes (conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific
// entity route registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
) {
	// Every v1 caller carries (or is assigned) an anonymous client identity
	v1 := r.Group("/api/v1", middleware.EnsureClientID())

	registerMarketRoutes(v1, services.Market, services.Search)
	registerFavoriteRoutes(v1, services.Favorites)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	// Swagger setup
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
