package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags rootFlags

	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:   "cloudronwatch",
		Short: "Forward Cloudron notifications and app status to a messaging channel",
		Long: "cloudronwatch polls a Cloudron server once: it reports apps that are stopped or\n" +
			"in an error state, delivers every unacknowledged notification through the\n" +
			"configured command or service URL, and acknowledges what was delivered.\n" +
			"Schedule it with cron or a systemd timer.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Shorthand for --log-level debug; also logs delivered message bodies")
	rootCmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Render and log messages without delivering or acknowledging")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newAppsCommand(ctx))
	rootCmd.AddCommand(newNotificationsCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))
	rootCmd.AddCommand(newLockCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
