package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appModels "github.com/kutay/teacherportal/internal/app/models"
	appRepos "github.com/kutay/teacherportal/internal/app/repositories"
	"github.com/kutay/teacherportal/internal/config"
	"github.com/kutay/teacherportal/internal/pkg/apperrors"
	"github.com/kutay/teacherportal/internal/pkg/auth"
)

// CreateDefaultData creates the default teacher account if it doesn't exist.
// The account is only seeded when a password is configured.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, cfg *config.Config, lgr zerolog.Logger) error {
	if cfg.Seed.TeacherPassword == "" {
		lgr.Debug().Msg("No seed teacher password configured, skipping default account")
		return nil
	}

	userRepo := appRepos.NewUserRepository(dbPool)

	exists, err := userRepo.EmailExists(ctx, cfg.Seed.TeacherEmail)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if default teacher exists")
		return err
	}
	if exists {
		return nil
	}

	lgr.Info().Str("email", cfg.Seed.TeacherEmail).Msg("Creating default teacher account...")

	hashedPassword, err := auth.HashPassword(cfg.Seed.TeacherPassword)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing default teacher password")
		return err
	}

	teacher := &appModels.User{
		Email:     cfg.Seed.TeacherEmail,
		Password:  hashedPassword,
		FirstName: "Default",
		LastName:  "Teacher",
		IsActive:  true,
	}

	if _, err := userRepo.CreateUser(ctx, teacher); err != nil {
		// Lost a race against a concurrent seeder; the account exists
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return nil
		}
		lgr.Error().Err(err).Msg("Error creating default teacher account")
		return err
	}

	lgr.Info().Int64("userID", teacher.ID).Msg("Default teacher account created")
	return nil
}
