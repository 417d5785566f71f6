package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"stormlightlabs.org/gamedb/internal/chronicler"
	"stormlightlabs.org/gamedb/internal/echo"
	"stormlightlabs.org/gamedb/internal/ingestctl"
)

// IngestCmd creates the ingest command group
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Game ingestion operations",
		Long:  "Fetch game snapshots from the chronicler and reconstruct them into the store.",
	}
	cmd.AddCommand(IngestRunCmd())
	cmd.AddCommand(IngestServeCmd())
	cmd.AddCommand(IngestStatusCmd())
	return cmd
}

// IngestRunCmd creates the run command
func IngestRunCmd() *cobra.Command {
	var reimportAll bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one ingest run",
		Long:  "Run the fetch→parse→fold→write pipeline once, resuming from the last checkpoint, and exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, reimportAll, false)
		},
	}
	cmd.Flags().BoolVar(&reimportAll, "reimport-all", false, "Ignore the last checkpoint and refetch every page")
	return cmd
}

// IngestServeCmd creates the serve command
func IngestServeCmd() *cobra.Command {
	var reimportAll bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ingest scheduler",
		Long:  "Start one ingest run per configured period until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, reimportAll, true)
		},
	}
	cmd.Flags().BoolVar(&reimportAll, "reimport-all", false, "Ignore the last checkpoint and refetch every page")
	return cmd
}

// IngestStatusCmd creates the status command
func IngestStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show recent ingest runs",
		Long:  "Display the most recent ingest runs with their outcomes and counters.",
		RunE:  ingestStatus,
	}
}

func runIngest(cmd *cobra.Command, reimportAll, serve bool) error {
	echo.Header("Ingest")
	echo.Info("Loading configuration...")

	cfg, err := loadConfigForCmd(cmd)
	if err != nil {
		return fmt.Errorf("error: failed to load config: %w", err)
	}
	if reimportAll {
		cfg.Ingest.ReimportAll = true
	}

	echo.Info("Connecting to database...")
	database, err := connectStore(cfg)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	defer database.Close()
	echo.Success("✓ Connected to database")

	cacheClient := connectCache(cmd, cfg)
	if cacheClient != nil {
		echo.Success("✓ Chronicler response cache enabled")
		defer cacheClient.Redis.Close()
	}

	logger := log.NewWithOptions(cmd.OutOrStdout(), log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "⚾️",
	})

	fetcher := chronicler.New(chronicler.Config{
		BaseURL:        cfg.Chronicler.BaseURL,
		PageSize:       cfg.Chronicler.PageSize,
		RequestsPerSec: 10,
		Burst:          20,
		MaxAttempts:    cfg.Chronicler.MaxAttempts,
		RequestTimeout: time.Duration(cfg.Chronicler.RequestTimeout) * time.Second,
	}, cacheClient, logger)

	controller := ingestctl.New(database, fetcher, logger, ingestctl.Config{
		Parallelism:   cfg.Ingest.Parallelism,
		ReimportAll:   cfg.Ingest.ReimportAll,
		Period:        time.Duration(cfg.Ingest.PeriodSec) * time.Second,
		StartOnLaunch: cfg.Ingest.StartOnLaunch || !serve,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if serve {
		echo.Infof("Scheduler started: one run every %ds", cfg.Ingest.PeriodSec)
		echo.Info("Press Ctrl+C to stop")
		err = controller.Serve(ctx)
		if err == ctx.Err() {
			echo.Success("✓ Scheduler stopped")
			return nil
		}
		return err
	}

	echo.Infof("Ingest parallelism: %d", cfg.Ingest.Parallelism)
	if err := controller.RunOnce(ctx); err != nil {
		return fmt.Errorf("error: %w", err)
	}
	echo.Success("✓ Ingest run complete")
	return nil
}

func ingestStatus(cmd *cobra.Command, args []string) error {
	echo.Header("Ingest Status")

	cfg, err := loadConfigForCmd(cmd)
	if err != nil {
		return fmt.Errorf("error: failed to load config: %w", err)
	}

	database, err := connectStore(cfg)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	defer database.Close()

	runs, err := database.IngestRuns(cmd.Context(), 10)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}

	if len(runs) == 0 {
		echo.Info("No ingest runs recorded yet")
		return nil
	}

	for _, run := range runs {
		switch {
		case run.AbortedAt != nil:
			reason := ""
			if run.AbortReason != nil {
				reason = *run.AbortReason
			}
			echo.Errorf("  ✗ %s  started %s  aborted: %s",
				run.ID, run.StartedAt.Format(time.DateTime), reason)
		case run.FinishedAt != nil:
			echo.Successf("  ✓ %s  started %s  %d fetched / %d written / %d skipped (%s)",
				run.ID, run.StartedAt.Format(time.DateTime),
				run.GamesFetched, run.GamesWritten, run.GamesSkipped,
				run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
		default:
			echo.Infof("  … %s  started %s  in progress",
				run.ID, run.StartedAt.Format(time.DateTime))
		}
	}

	return nil
}
