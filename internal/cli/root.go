// Package cli provides the command-line interface for zoomvault.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zoomvault/zoomvault/internal/config"
	"github.com/zoomvault/zoomvault/internal/db"
	"github.com/zoomvault/zoomvault/internal/zoom"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	cfgPath string
	verbose bool

	// Global state wired up by the root command
	cfg        config.Config
	pool       *pgxpool.Pool
	store      *db.Store
	logger     *slog.Logger
	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "zoomvault",
	Short: "Back up Zoom cloud recordings to local disk",
	Long: `Zoomvault walks a Zoom account's cloud recordings (meetings, webinars,
phone calls) into a durable PostgreSQL inventory, then drains that inventory
to local disk with a bounded retry budget per file.

The two phases can run together (backup) or separately (discover, download),
and both are safe to interrupt and re-run: discovery never disturbs download
progress, and downloads pick up exactly where they left off.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Nothing to wire up for help output; --version never reaches here
		if cmd.Name() == "help" {
			return nil
		}

		// Credentials may live in a .env file next to the binary
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = slog.LevelDebug
		}

		logger, logCleanup = config.SetupLogger(cfg.Directories.LogDir, cfg.Logging.File, cfg.Logging.Level)

		ctx := context.Background()
		pool, err = db.Connect(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx, pool, cfg.Version); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}
		store = db.NewStore(pool, cfg.Version)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if pool != nil {
			pool.Close()
		}
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// apiClient builds the rate-limited remote client from the loaded config.
func apiClient() *zoom.Client {
	tokens := zoom.NewTokenManager(
		zoom.Credentials{
			AccountID:    cfg.Credentials.AccountID,
			ClientID:     cfg.Credentials.ClientID,
			ClientSecret: cfg.Credentials.ClientSecret,
		},
		zoom.TokenConfig{
			TokenURL:      cfg.API.TokenURL,
			RefreshBuffer: cfg.API.TokenRefreshBuffer,
			Retries:       cfg.API.TokenRefreshRetries,
			RetrySleep:    cfg.API.Sleeps.TokenRefresh,
			Timeout:       cfg.API.RequestTimeout,
		},
		logger,
	)
	return zoom.NewClient(cfg.API.BaseURL, tokens, zoom.Policy{
		RateLimitDelay:    cfg.API.RateLimitDelay,
		RateLimitCooldown: cfg.API.Sleeps.RateLimit,
		Retries:           cfg.API.Retries,
		RetrySleep:        cfg.API.Sleeps.Retry,
		TokenRefreshSleep: cfg.API.Sleeps.TokenRefresh,
		Timeout:           cfg.API.RequestTimeout,
	}, logger)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
