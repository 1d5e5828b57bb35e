package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cloudronwatch/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs, or the deliveries of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(cmd.Context(), func(store *history.Store) error {
				if len(args) == 1 {
					return showRunDeliveries(cmd, store, strings.TrimSpace(args[0]), jsonOutput)
				}
				runs, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					views := make([]runView, 0, len(runs))
					for _, run := range runs {
						views = append(views, newRunView(run))
					}
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Started", "Duration", "Outcome", "Apps", "Sent", "Acked", "Failures"},
					runRows(runs),
					0,
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func showRunDeliveries(cmd *cobra.Command, store *history.Store, runID string, jsonOutput bool) error {
	deliveries, err := store.Deliveries(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, deliveries)
	}
	out := cmd.OutOrStdout()
	if len(deliveries) == 0 {
		fmt.Fprintf(out, "No deliveries recorded for run %s\n", runID)
		return nil
	}
	rows := make([][]string, 0, len(deliveries))
	for _, d := range deliveries {
		rows = append(rows, []string{
			d.Kind,
			d.Ref,
			d.Subject,
			yesNo(d.Delivered),
			yesNo(d.Acknowledged),
			d.Error,
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Kind", "Ref", "Subject", "Delivered", "Acked", "Error"}, rows, 50))
	return nil
}

func runRows(runs []history.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		outcome := run.Outcome
		if run.DryRun {
			outcome += " (dry run)"
		}
		if run.ErrorKind != "" {
			outcome += ": " + run.ErrorKind
		}
		c := run.Counts
		rows = append(rows, []string{
			shortID(run.RunID),
			run.StartedAt.Local().Format(time.DateTime),
			run.Duration().Round(time.Millisecond).String(),
			outcome,
			strconv.Itoa(c.AppsChecked),
			strconv.Itoa(c.AppsSent + c.NotificationsSent),
			strconv.Itoa(c.NotificationsAcknowledged),
			strconv.Itoa(c.DeliveryFailures + c.AcknowledgeFailures),
		})
	}
	return rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
