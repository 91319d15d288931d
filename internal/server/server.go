package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alchemy-game-studios/game-planner/internal/queue"
	mid "github.com/alchemy-game-studios/game-planner/internal/server/middleware"
	"github.com/alchemy-game-studios/game-planner/internal/util"
	"github.com/alchemy-game-studios/game-planner/pkg/assembler"
	"github.com/alchemy-game-studios/game-planner/pkg/logger"
	"github.com/alchemy-game-studios/game-planner/pkg/metrics"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rabbitmq/amqp091-go"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// NewEcho builds the HTTP server around app. metricsHandler is optional.
func NewEcho(app *mid.App, metricsHandler http.Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("2M"))

	RegisterRoutes(e, metricsHandler)
	return e
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metricsHandler http.Handler
	if util.GetEnvBool("METRICS_PROMETHEUS", false) {
		metricsHandler = metrics.EnablePrometheus()
	}

	cfg := assembler.ConfigFromEnv()
	backend, err := OpenBackend(ctx)
	if err != nil {
		logger.Fatal("Failed to open backend", "err", err)
	}
	defer backend.Close()

	set := resolver.NewSet(backend.Graph, backend.Cache, cfg.ResolverOptions())
	a, err := assembler.New(set, nil, cfg, assembler.WithTokenCounter(assembler.NewTiktokenCounter()))
	if err != nil {
		logger.Fatal("Invalid context configuration", "err", err)
	}

	app := &mid.App{
		Assembler: a,
		Ready: func(c echo.Context) error {
			return backend.Ready(c.Request().Context())
		},
	}

	if queue.Enabled() {
		conn, err := queue.Connect(ctx)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", "err", err)
		}
		defer conn.Close()
		startInvalidation(ctx, conn, app)
	}

	e := NewEcho(app, metricsHandler)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

// startInvalidation publishes explicit cache clears to the canon exchange.
// With a private memory cache the server also listens on its own instance
// queue; a shared Redis cache is invalidated by the worker instead.
func startInvalidation(ctx context.Context, conn *amqp091.Connection, app *mid.App) {
	pubCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	app.CacheCleared = func(echo.Context) error {
		return queue.PublishEvent(pubCh, queue.Event{Type: queue.EventCacheCleared})
	}

	if util.GetEnvString("CACHE_BACKEND", "memory") != "memory" {
		return
	}

	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	q, err := queue.SetupInstanceQueue(consumerCh)
	if err != nil {
		logger.Fatal("Failed to set up instance queue", "err", err)
	}
	go func() {
		if err := queue.Consume(ctx, consumerCh, q, app.Assembler); err != nil {
			logger.Error("Invalidation consumer stopped", "err", err)
		}
	}()
}
