package middleware

import (
	"github.com/alchemy-game-studios/game-planner/pkg/assembler"
	"github.com/labstack/echo/v4"
)

type App struct {
	Assembler *assembler.Assembler
	// Ready reports whether backing services answer. Nil means always ready.
	Ready func(echo.Context) error
	// CacheCleared announces an explicit invalidation to other instances.
	CacheCleared func(echo.Context) error
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
