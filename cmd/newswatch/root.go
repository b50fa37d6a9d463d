package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/newswatch/internal/config"
	"github.com/aristath/newswatch/internal/di"
	"github.com/aristath/newswatch/internal/server"
	"github.com/aristath/newswatch/pkg/logger"
)

type options struct {
	once            bool
	configFile      string
	sheetID         string
	credentialsFile string
	csvFile         string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "newswatch",
		Short: "Watch tickers for news and send scored alerts",
		Long: "newswatch loads a watch-list from a tabular file or a spreadsheet, fetches\n" +
			"news for every ticker, rates each item with a language model and delivers\n" +
			"the result to a Telegram chat.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			log := logger.New(logger.Config{
				Level:  cfg.LogLevel,
				Pretty: cfg.LogPretty,
			})
			logger.SetGlobalLogger(log)

			if opts.once {
				return runOnce(cmd.Context(), cmd.OutOrStdout(), cfg, log)
			}
			return runForever(cmd.Context(), cfg, log)
		},
	}
	cmd.Version = version

	flags := cmd.Flags()
	flags.BoolVar(&opts.once, "once", false, "Run a single news check and exit")
	flags.StringVar(&opts.configFile, "config", "", "YAML file overlaid on the environment configuration")
	flags.StringVar(&opts.sheetID, "sheet_id", "", "Spreadsheet id holding the watch-list")
	flags.StringVar(&opts.credentialsFile, "credentials_file", "", "Service account credentials for the spreadsheet")
	flags.StringVar(&opts.csvFile, "csv_file", "", "Tickers file (local path or s3://bucket/key)")

	return cmd
}

// loadConfig applies environment, optional YAML file and flags in that order,
// then validates the result.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.configFile != "" {
		if err := cfg.LoadFile(opts.configFile); err != nil {
			return nil, err
		}
	}

	cfg.Apply(config.Overrides{
		SheetID:         opts.sheetID,
		CredentialsFile: opts.credentialsFile,
		TickersFile:     opts.csvFile,
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func runOnce(ctx context.Context, out io.Writer, cfg *config.Config, log zerolog.Logger) error {
	container, err := di.Wire(cfg, log)
	if err != nil {
		return err
	}
	defer container.Close()

	fmt.Fprintln(out, "Running news check once...")
	report := container.Runner.RunCycle(ctx)
	if err := container.CleanupJob.Run(); err != nil {
		log.Warn().Err(err).Msg("Cache cleanup failed")
	}
	fmt.Fprintln(out, "News check completed.")

	log.Debug().Str("report", report.String()).Msg("Single run finished")
	return nil
}

func runForever(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	container, err := di.Wire(cfg, log)
	if err != nil {
		return err
	}
	defer container.Close()

	return serve(ctx, container, cfg, log)
}

// serve starts the scheduler (and the HTTP server when a port is set) and
// blocks until ctx is cancelled or an interrupt arrives, then stops both.
func serve(ctx context.Context, container *di.Container, cfg *config.Config, log zerolog.Logger) error {
	var srv *server.Server
	if cfg.HTTPPort > 0 {
		srv = server.New(server.Config{
			Log:       log,
			Port:      cfg.HTTPPort,
			Scheduler: container.Scheduler,
			Bus:       container.EventBus,
			Health:    container,
		})
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("HTTP server failed")
			}
		}()
	}

	quit, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Cycles are not tied to the signal context so an in-flight cycle finishes
	container.Scheduler.Start(context.WithoutCancel(ctx))
	log.Info().Msg("News watch running, press Ctrl+C to stop")

	<-quit.Done()
	log.Info().Msg("Interrupt received, stopping")

	container.Scheduler.Stop()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server forced to shutdown")
		}
	}

	log.Info().Msg("News watch stopped")
	return nil
}
