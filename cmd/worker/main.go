package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alchemy-game-studios/game-planner/internal/queue"
	"github.com/alchemy-game-studios/game-planner/internal/server"
	"github.com/alchemy-game-studios/game-planner/internal/util"
	"github.com/alchemy-game-studios/game-planner/pkg/assembler"
	"github.com/alchemy-game-studios/game-planner/pkg/logger"
	"github.com/alchemy-game-studios/game-planner/pkg/logger/console"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	// The worker only clears cache namespaces, so it opens no graph.
	backend, err := server.OpenCache(ctx)
	if err != nil {
		logger.Fatal("Failed to open cache", "err", err)
	}
	defer backend.Close()
	set := resolver.NewSet(nil, backend.Cache, assembler.ConfigFromEnv().ResolverOptions())

	// Init rabbitmq
	conn, err := queue.Connect(ctx)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	q, err := queue.SetupQueue(ch, queue.QueueName())
	if err != nil {
		logger.Fatal("Failed to set up queue", "err", err)
	}

	if err := queue.Consume(ctx, ch, q, set); err != nil {
		logger.Fatal("Consumer stopped", "err", err)
	}
	logger.Info("Shutdown signal received, exiting...")
}
