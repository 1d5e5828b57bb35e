package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cloudronwatch/internal/cloudron"
	"cloudronwatch/internal/render"
)

func newNotificationsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var includeAcknowledged bool

	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notes"},
		Short:   "List notifications without delivering or acknowledging them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			runCtx, stop := signalContext(cmd)
			defer stop()

			all, err := client.ListNotifications(runCtx)
			if err != nil {
				return err
			}
			notifications := make([]cloudron.Notification, 0, len(all))
			for _, n := range all {
				if includeAcknowledged || !n.Acknowledged {
					notifications = append(notifications, n)
				}
			}

			if jsonOutput {
				views := make([]notificationView, 0, len(notifications))
				for _, n := range notifications {
					views = append(views, newNotificationView(n))
				}
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(notifications) == 0 {
				fmt.Fprintln(out, "No unacknowledged notifications")
				return nil
			}
			opts := render.Options{Location: cfg.Location()}
			rows := make([][]string, 0, len(notifications))
			for _, n := range notifications {
				fields := render.NotificationFields(n, opts)
				rows = append(rows, []string{
					n.ID,
					fields["creationTime"],
					render.TruncateRunes(render.Subject(n), 60),
					yesNo(n.Acknowledged),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Created", "Title", "Acknowledged"}, rows, 0))
			fmt.Fprintf(out, "%d of %d notifications shown\n", len(notifications), len(all))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	cmd.Flags().BoolVarP(&includeAcknowledged, "all", "a", false, "Include acknowledged notifications")
	return cmd
}
