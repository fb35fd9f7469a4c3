package main

import (
	"github.com/HexaField/causalmap/internal/server"
	"github.com/HexaField/causalmap/internal/util"
	"github.com/HexaField/causalmap/pkg/logger"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	logger.Init(logger.NewConsole(logger.ConsoleParams{
		Debug: debug,
	}))

	server.Init()
}
