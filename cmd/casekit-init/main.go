package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"go.pilab.hu/casekit/config"
	"go.pilab.hu/casekit/domain"
	ckerrors "go.pilab.hu/casekit/errors"
	"go.pilab.hu/casekit/internal/auth"
	"go.pilab.hu/casekit/sqlite"
)

var (
	adminUser     string
	adminPassword string
	reapSessions  bool
)

var rootCmd = &cobra.Command{
	Use:   "casekit-init",
	Short: "Initialize the casekit database",
	Long: `Creates the sqlite database and schema used by the case-file manager,
seeds a default administrator account when none exists, and optionally
reaps expired sessions left behind by previous runs.`,
	RunE: runInit,
}

func init() {
	rootCmd.Flags().StringVar(&adminUser, "admin-user", "admin", "username of the seeded administrator account")
	rootCmd.Flags().StringVar(&adminPassword, "admin-password", "", "password of the seeded administrator account (required on first run)")
	rootCmd.Flags().BoolVar(&reapSessions, "reap-sessions", true, "delete sessions that expired before now")
}

func runInit(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := cmd.Context()
	db, err := sqlite.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlite.EnsureSchema(ctx, db); err != nil {
		return err
	}

	if err := seedAdmin(ctx, sqlite.NewUserRepository(db), cfg.BcryptCost); err != nil {
		return err
	}

	if reapSessions {
		sessions := sqlite.NewSessionRepository(db)
		if _, err := sessions.DeleteExpiredSessions(ctx, time.Now()); err != nil {
			log.Warn().Err(err).Msg("Failed to reap expired sessions")
		}
	}

	log.Info().Str("database", cfg.DatabasePath).Msg("casekit database ready")
	return nil
}

// seedAdmin creates the default administrator account on first run.
func seedAdmin(ctx context.Context, users domain.UserRepository, cost int) error {
	_, err := users.GetUserByUsername(ctx, adminUser)
	if err == nil {
		log.Debug().Str("username", adminUser).Msg("admin account already exists")
		return nil
	}
	if !errors.Is(err, ckerrors.ErrUserNotFound) {
		return fmt.Errorf("check admin account: %w", err)
	}

	if adminPassword == "" {
		return fmt.Errorf("no %q account found; --admin-password is required to seed one", adminUser)
	}

	hasher := auth.NewBcryptPasswordHasher(cost)
	hash, err := hasher.Hash(adminPassword)
	if err != nil {
		return err
	}

	admin := &domain.User{
		Username:     adminUser,
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         "admin",
		Status:       domain.UserStatusActive,
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("seed admin account: %w", err)
	}

	log.Info().Str("username", adminUser).Msg("administrator account created, change the password after first login")
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("initialization failed")
		os.Exit(1)
	}
}
