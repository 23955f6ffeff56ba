// Command create-staff creates a verified staff account without an admin reference
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/elimishatrust/studyloan/internal/app/repositories"
	"github.com/elimishatrust/studyloan/internal/app/services"
	"github.com/elimishatrust/studyloan/internal/bootstrap"
	"github.com/elimishatrust/studyloan/internal/pkg/auth"
	"github.com/elimishatrust/studyloan/internal/pkg/logger"
)

func main() {
	configPath := pflag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	email := pflag.String("email", "", "staff email address")
	password := pflag.String("password", "", "staff password")
	pflag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: create-staff --email EMAIL --password PASSWORD [--config PATH]")
		os.Exit(2)
	}

	if err := run(*configPath, *email, *password); err != nil {
		logger.Error().Err(err).Msg("Failed to create staff account")
		os.Exit(1)
	}
}

func run(configPath, email, password string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return err
	}

	pool, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer pool.Close()

	users := services.NewUserService(repositories.NewRepositories(pool), auth.NewPasswordHasher(0), lgr)
	staff, err := users.CreateStaffAccount(ctx, email, password, nil)
	if err != nil {
		return err
	}

	lgr.Info().Int64("userID", staff.ID).Str("email", staff.Email).Msg("Staff account created")
	return nil
}
