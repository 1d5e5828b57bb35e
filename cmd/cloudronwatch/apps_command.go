package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cloudronwatch/internal/cloudron"
	"cloudronwatch/internal/render"
)

func newAppsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var problemsOnly bool

	cmd := &cobra.Command{
		Use:   "apps",
		Short: "List installed applications and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			runCtx, stop := signalContext(cmd)
			defer stop()

			apps, err := client.ListApps(runCtx)
			if err != nil {
				return err
			}
			if problemsOnly {
				filtered := apps[:0]
				for _, app := range apps {
					if _, needsAttention := render.AppMessage(app, render.Options{}); needsAttention {
						filtered = append(filtered, app)
					}
				}
				apps = filtered
			}

			if jsonOutput {
				views := make([]appView, 0, len(apps))
				for _, app := range apps {
					views = append(views, newAppView(app))
				}
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(apps) == 0 {
				fmt.Fprintln(out, "No applications to show")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"App", "Domain", "State", "Health", "Problem"},
				appRows(apps),
				60,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	cmd.Flags().BoolVar(&problemsOnly, "problems", false, "Only list apps that would trigger a message")
	return cmd
}

func appRows(apps []cloudron.App) [][]string {
	rows := make([][]string, 0, len(apps))
	for _, app := range apps {
		problem := ""
		switch {
		case app.Error != nil:
			problem = strings.TrimSpace(app.Error.Reason + ": " + app.Error.Message)
			problem = strings.Trim(problem, ": ")
		case !app.Running():
			problem = "not running"
		}
		rows = append(rows, []string{
			app.Label(),
			app.FQDN,
			valueOrDash(app.RunState),
			valueOrDash(app.Health),
			problem,
		})
	}
	return rows
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
