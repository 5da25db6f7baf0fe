package main

import (
	"context"
	"os"

	"github.com/yigit/enrollment/internal/cli"
	"github.com/yigit/enrollment/internal/pkg/logger"
)

// @title Enrollment API
// @version 1.0
// @description Course offering catalogue and enrollment workflow

// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
