package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cloudronwatch/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify configuration, paths, delivery channel and API access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx, stop := signalContext(cmd)
			defer stop()

			var api preflight.NotificationLister
			if !offline {
				client, err := ctx.client()
				if err != nil {
					return err
				}
				api = client
			}
			results := preflight.RunAll(runCtx, cfg, api)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range checkLines(ctx.configPath, results, colorize) {
				fmt.Fprintln(out, line)
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the Cloudron API request")
	return cmd
}

func checkLines(configPath string, results []preflight.Result, colorize bool) []string {
	lines := renderSectionHeader("cloudronwatch check", colorize)
	lines = append(lines, renderStatusLine("Config", statusInfo, configPath, colorize))
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}
