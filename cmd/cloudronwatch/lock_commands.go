package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cloudronwatch/internal/runlock"
)

func newLockCommand(ctx *commandContext) *cobra.Command {
	lockCmd := &cobra.Command{
		Use:   "lock",
		Short: "Inspect or clear the run lock marker",
	}
	lockCmd.AddCommand(newLockStatusCommand(ctx))
	lockCmd.AddCommand(newLockClearCommand(ctx))
	return lockCmd
}

func newLockStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a run currently holds the lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			info, err := runlock.Inspect(cfg.Paths.LockFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range lockLines(info, colorize) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func newLockClearCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove a stale lock marker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			info, err := runlock.Clear(cfg.Paths.LockFile, force)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !info.Exists {
				fmt.Fprintf(out, "No lock marker at %s\n", info.Path)
				return nil
			}
			fmt.Fprintf(out, "Removed lock marker %s (pid %d)\n", info.Path, info.PID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Remove the marker even if a live process holds it")
	return cmd
}

func lockLines(info runlock.Info, colorize bool) []string {
	lines := renderSectionHeader("Run lock", colorize)
	lines = append(lines, renderStatusLine("Marker", statusInfo, info.Path, colorize))
	switch {
	case !info.Exists:
		lines = append(lines, renderStatusLine("State", statusOK, "free", colorize))
		return lines
	case info.Held:
		lines = append(lines, renderStatusLine("State", statusWarn, "held by a running process", colorize))
	default:
		lines = append(lines, renderStatusLine("State", statusError, "stale; remove with 'cloudronwatch lock clear'", colorize))
	}
	if info.PID > 0 {
		lines = append(lines, renderStatusLine("PID", statusInfo, fmt.Sprintf("%d", info.PID), colorize))
	}
	if !info.Started.IsZero() {
		age := time.Since(info.Started).Round(time.Second)
		lines = append(lines, renderStatusLine("Started", statusInfo,
			fmt.Sprintf("%s (%s ago)", info.Started.Local().Format(time.DateTime), age), colorize))
	}
	if info.RunID != "" {
		lines = append(lines, renderStatusLine("Run", statusInfo, info.RunID, colorize))
	}
	return lines
}
