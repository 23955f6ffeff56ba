package seed

import (
	"context"

	"github.com/rs/zerolog"
)

// AdminCreator is the part of the user service the seeder needs
type AdminCreator interface {
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

// CreateDefaultAdmin creates the configured admin account if it doesn't exist.
// Nothing happens when no admin email is configured.
func CreateDefaultAdmin(ctx context.Context, users AdminCreator, email, password string, lgr zerolog.Logger) error {
	if email == "" {
		lgr.Debug().Msg("No default admin configured, skipping seed")
		return nil
	}

	lgr.Info().Str("email", email).Msg("Checking/Creating default admin account...")
	created, err := users.EnsureAdmin(ctx, email, password)
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating default admin")
		return err
	}

	if created {
		lgr.Info().Str("email", email).Msg("Default admin created")
	} else {
		lgr.Info().Str("email", email).Msg("Default admin already exists")
	}
	return nil
}
