package server

import (
	"net/http"

	"github.com/alchemy-game-studios/game-planner/internal/server/routes"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the API. metricsHandler is optional.
func RegisterRoutes(e *echo.Echo, metricsHandler http.Handler) {
	e.GET("/health", routes.HealthHandler)
	if metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(metricsHandler))
	}

	apiRoutes := e.Group("/api")

	// Context routes
	apiRoutes.POST("/context", routes.AssembleContextHandler)
	apiRoutes.POST("/context/legacy", routes.LegacyContextHandler)
	apiRoutes.GET("/context/schema", routes.GetSchemaHandler)

	// Cache routes
	apiRoutes.DELETE("/cache", routes.DeleteCacheHandler)
}
