package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	envFile    string
	dev        bool
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:           "relay",
		Short:         "Forward new tweets from monitored accounts to Telegram chats",
		Long:          "relay polls the X/Twitter API v2 for new posts by a fixed list of accounts and forwards each one, oldest first, to one or more Telegram chats.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "config.yaml", "path to YAML config file (optional)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pf.BoolVar(&flags.dev, "dev", false, "enable developer mode (console logs, unredacted secrets)")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "log messages instead of sending them to Telegram")

	runCmd := newRunCmd(flags)
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())

	rootCmd.AddCommand(
		runCmd,
		newResolveCmd(flags),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", version, commit)
			return err
		},
	}
}
