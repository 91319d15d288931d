package routes

import (
	"net/http"

	"github.com/alchemy-game-studios/game-planner/internal/server/middleware"
	"github.com/alchemy-game-studios/game-planner/pkg/logger"

	"github.com/labstack/echo/v4"
)

func DeleteCacheHandler(c echo.Context) error {
	type deleteCacheResponse struct {
		Message string `json:"message"`
	}

	app := c.(*middleware.AppContext).App
	if err := app.Assembler.ClearAllCaches(c.Request().Context()); err != nil {
		logger.Error("[Server][Cache] failed to clear caches", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to clear caches"})
	}
	if app.CacheCleared != nil {
		if err := app.CacheCleared(c); err != nil {
			logger.Warn("[Server][Cache] failed to announce invalidation", "err", err)
		}
	}
	return c.JSON(http.StatusOK, deleteCacheResponse{Message: "Caches cleared"})
}

func HealthHandler(c echo.Context) error {
	ready := c.(*middleware.AppContext).App.Ready
	if ready != nil {
		if err := ready(c); err != nil {
			logger.Warn("[Server][Health] not ready", "err", err)
			return c.String(http.StatusServiceUnavailable, "UNAVAILABLE")
		}
	}
	return c.String(http.StatusOK, "OK")
}
