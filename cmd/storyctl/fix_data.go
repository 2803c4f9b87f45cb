package main

import (
	"context"
	"fmt"
	"time"

	"story-server/internal/ai"
	"story-server/internal/config"
	"story-server/internal/database"
	"story-server/internal/maintenance"
	"story-server/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fixDryRun   bool
	fixStorage  string
	fixDataFile string
)

var fixDataCmd = &cobra.Command{
	Use:   "fix-data",
	Short: "Repair provider settings and escaped text in stored users",
	Long: `fix-data gives every user a valid apiSettings.provider and decodes literal
\uXXXX escapes in character names, attributes, story titles, keywords and content.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if fixStorage != "" {
			cfg.StorageDriver = fixStorage
		}
		if fixDataFile != "" {
			cfg.DataFilePath = fixDataFile
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		repo, closeRepo, err := openUserRepository(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeRepo()

		defaultProvider, _ := ai.ParseProvider(cfg.DefaultProvider)
		log.Info().Str("storage", cfg.StorageDriver).Bool("dry_run", fixDryRun).Msg("Repairing user data")

		report, err := maintenance.RepairAll(ctx, repo, defaultProvider, fixDryRun)
		if err != nil {
			return err
		}
		for _, email := range report.SkippedEmails {
			log.Warn().Str("email", email).Msg("Email contains escapes and is the storage key, fix it manually")
		}
		log.Info().
			Int("scanned", report.Scanned).
			Int("modified", report.Modified).
			Int("providers_fixed", report.ProvidersFixed).
			Msg("Data repair finished")
		fmt.Printf("modified %d of %d users\n", report.Modified, report.Scanned)
		return nil
	},
}

func init() {
	fixDataCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "report changes without saving")
	fixDataCmd.Flags().StringVar(&fixStorage, "storage", "", "override STORAGE_DRIVER (file or postgres)")
	fixDataCmd.Flags().StringVar(&fixDataFile, "file", "", "override DATA_FILE_PATH")
}

func openUserRepository(ctx context.Context, cfg *config.Config) (repository.UserRepository, func(), error) {
	switch cfg.StorageDriver {
	case "postgres":
		if cfg.DBPassword == "" {
			password, err := config.ReadSecret(config.DBPasswordSecret)
			if err != nil {
				return nil, nil, err
			}
			cfg.DBPassword = password
		}
		log.Debug().Str("dsn", cfg.MaskedDSN()).Msg("Connecting to PostgreSQL")
		pool, err := database.NewPool(ctx, cfg.GetDSN(), cfg.DBMaxConns)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresRepository(pool, zap.NewNop()), pool.Close, nil
	case "file":
		log.Debug().Str("path", cfg.DataFilePath).Msg("Opening data file")
		repo, err := repository.NewFileRepository(cfg.DataFilePath, zap.NewNop())
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
