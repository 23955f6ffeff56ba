package main

import (
	"context"
	"os"

	"github.com/spf13/pflag"

	"github.com/elimishatrust/studyloan/internal/pkg/logger"
	"github.com/elimishatrust/studyloan/internal/server"
)

// @title Study Loan API
// @version 1.0
// @description Intake backend for student loan applications
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	configPath := pflag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	pflag.Parse()

	srv, err := server.NewServer(context.Background(), *configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
