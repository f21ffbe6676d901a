package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Sgct97/truckingCompanyCrawler/internal/app"
	"github.com/Sgct97/truckingCompanyCrawler/internal/config"
	"github.com/Sgct97/truckingCompanyCrawler/internal/logging"
)

// auditFlags mirror the most commonly tuned config knobs so operators can
// override them without editing the config file.
type auditFlags struct {
	sitesFile  string
	workers    int
	budget     int
	startIndex int
	timeoutSec int
	delayMs    int
	resume     bool
}

func newAuditCmd() *cobra.Command {
	flags := &auditFlags{}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Runs the location-exposure audit over the site roster",
		Long: `Crawls every site in the roster with an isolated headless browser
session, classifies each rendered page, and publishes one summary per site.
Interrupted runs resume from the checkpoint file unless --resume=false.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAudit(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.sitesFile, "sites", "", "path to the site roster JSON")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "concurrent sites in flight")
	cmd.Flags().IntVar(&flags.budget, "budget", 0, "max pages fetched per site")
	cmd.Flags().IntVar(&flags.startIndex, "start", 0, "skip the first N roster entries")
	cmd.Flags().IntVar(&flags.timeoutSec, "timeout", 0, "per-page timeout in seconds")
	cmd.Flags().IntVar(&flags.delayMs, "delay", 0, "delay between requests to one site, in milliseconds")
	cmd.Flags().BoolVar(&flags.resume, "resume", true, "resume from the checkpoint file when present")

	return cmd
}

func runAudit(cmd *cobra.Command, flags *auditFlags) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, flags, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Initialization failed", zap.Error(err))
		return err
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		if ctx.Err() == context.Canceled {
			logger.Warn("Run interrupted; progress is checkpointed",
				zap.Duration("elapsed", time.Since(started)))
			return nil
		}
		return err
	}
	logger.Info("Audit complete", zap.Duration("elapsed", time.Since(started)))
	return nil
}

// applyFlagOverrides copies explicitly set flags over the loaded config.
// Zero values from unset flags never clobber configured values.
func applyFlagOverrides(cmd *cobra.Command, flags *auditFlags, cfg *config.Config) {
	if cmd.Flags().Changed("sites") {
		cfg.SitesFile = flags.sitesFile
	}
	if cmd.Flags().Changed("workers") {
		cfg.Crawl.Workers = flags.workers
	}
	if cmd.Flags().Changed("budget") {
		cfg.Crawl.PageBudget = flags.budget
	}
	if cmd.Flags().Changed("start") {
		cfg.Crawl.StartIndex = flags.startIndex
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Fetcher.PageTimeoutSeconds = flags.timeoutSec
	}
	if cmd.Flags().Changed("delay") {
		cfg.Crawl.RequestDelayMs = flags.delayMs
	}
	if cmd.Flags().Changed("resume") {
		cfg.Resume = flags.resume
	}
}
