package main

import (
	"github.com/alchemy-game-studios/game-planner/internal/server"
	"github.com/alchemy-game-studios/game-planner/internal/util"
	"github.com/alchemy-game-studios/game-planner/pkg/logger"
	"github.com/alchemy-game-studios/game-planner/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
