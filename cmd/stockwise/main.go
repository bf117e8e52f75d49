// Command stockwise runs the inventory API and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stockwise/stockwise/internal/config"
	"github.com/stockwise/stockwise/internal/handler"
	"github.com/stockwise/stockwise/internal/server"
	"github.com/stockwise/stockwise/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stockwise",
		Short:         "Stockwise - inventory management API with a tool-calling assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().String("config", "", "config file (.yaml, .yml or .json); overrides STOCKWISE_CONFIG")

	root.AddCommand(
		&cobra.Command{Use: "serve", Short: "Run the HTTP API (default)", RunE: runServe},
		&cobra.Command{Use: "migrate", Short: "Create the Postgres schema", RunE: runMigrate},
		&cobra.Command{Use: "seed", Short: "Insert the dev user and sample catalogue", RunE: runSeed},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), handler.Version)
			},
		},
	)
	return root
}

// loadConfig applies --config, loads the config and sets up the global logger
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		os.Setenv("STOCKWISE_CONFIG", path)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("load config")
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Development() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := server.OpenStore(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.StoreDriver).Msg("open store")
		return err
	}

	srv, err := server.New(cfg, st, server.NewLLMClient(cfg))
	if err != nil {
		st.Close()
		log.Error().Err(err).Msg("build server")
		return err
	}
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cmd.Context(), cfg, func(ctx context.Context, st store.Store) error {
		m, ok := st.(server.Migrator)
		if !ok {
			log.Info().Str("driver", cfg.StoreDriver).Msg("store has no schema to migrate")
			return nil
		}
		return m.Migrate(ctx)
	})
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return withStore(cmd.Context(), cfg, func(ctx context.Context, st store.Store) error {
		if m, ok := st.(server.Migrator); ok {
			if err := m.Migrate(ctx); err != nil {
				return err
			}
		}
		return store.Seed(ctx, st, cfg.DevUserEmail, cfg.DevUserAPIKey)
	})
}

func withStore(ctx context.Context, cfg *config.Config, fn func(context.Context, store.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := server.OpenStore(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("open store")
		return err
	}
	defer st.Close()
	if err := fn(ctx, st); err != nil {
		log.Error().Err(err).Msg("command failed")
		return err
	}
	return nil
}
