package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cloudronwatch/internal/cloudron"
	"cloudronwatch/internal/delivery"
	"cloudronwatch/internal/render"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	var body string

	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test message through the configured delivery channel",
		Long: "Renders a synthetic notification with the configured template and delivers it.\n" +
			"Nothing is fetched from or acknowledged on the Cloudron server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			deliverer, err := delivery.NewFromConfig(cfg, logger, ctx.flags.dryRun)
			if err != nil {
				return err
			}
			runCtx, stop := signalContext(cmd)
			defer stop()

			sample := cloudron.Notification{
				ID:           "test",
				Title:        "cloudronwatch test",
				Message:      body,
				CreationTime: time.Now(),
			}
			message := render.NotificationMessage(cfg.Notification.Template, sample, render.Options{
				Location:  cfg.Location(),
				Instance:  cfg.Cloudron.InstanceName,
				MaxLength: cfg.Notification.MaxLength,
			})

			result := deliverer.Deliver(runCtx, delivery.Message{
				Kind:    delivery.KindTest,
				Ref:     sample.ID,
				Subject: render.Subject(sample),
				Body:    message,
			})

			out := cmd.OutOrStdout()
			switch {
			case result.Skipped:
				fmt.Fprintln(out, "Dry run: test notification rendered but not sent")
			case result.Delivered:
				fmt.Fprintf(out, "Test notification sent (%s)\n", result.Duration.Round(time.Millisecond))
			default:
				if result.Output != "" {
					fmt.Fprintln(out, result.Output)
				}
				return fmt.Errorf("test notification failed: %w", result.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&body, "message", "If you can read this, delivery works.", "Body of the test notification")
	return cmd
}
