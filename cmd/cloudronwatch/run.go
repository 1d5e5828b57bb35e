package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cloudronwatch/internal/delivery"
	"cloudronwatch/internal/history"
	"cloudronwatch/internal/logging"
	"cloudronwatch/internal/metrics"
	"cloudronwatch/internal/pipeline"
)

// errRunReported marks an aborted run whose cause was already logged.
var errRunReported = errors.New("run aborted")

func runOnce(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger(cmd)
	if err != nil {
		return err
	}
	runCtx, stop := signalContext(cmd)
	defer stop()

	deliverer, err := delivery.NewFromConfig(cfg, logger, ctx.flags.dryRun)
	if err != nil {
		return err
	}

	opts := pipeline.OptionsFromConfig(cfg, ctx.flags.dryRun)
	if cfg.History.Enabled {
		store, err := history.Open(runCtx, cfg.History.Path)
		if err != nil {
			logging.WarnEvent(logger, "run history unavailable", "history_open_failed",
				"check history.path permissions", logging.Error(err))
		} else {
			defer store.Close()
			opts.History = store
		}
	}
	if cfg.Metrics.TextfilePath != "" {
		opts.Metrics = metrics.New()
	}

	client, err := ctx.client()
	if err != nil {
		return err
	}
	summary, err := pipeline.New(client, deliverer, logger, opts).Run(runCtx)

	out := cmd.OutOrStdout()
	for _, line := range summary.Lines() {
		fmt.Fprintln(out, line)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", errRunReported, err)
	}
	return nil
}
