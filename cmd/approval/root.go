package main

import (
	"github.com/spf13/cobra"

	"github.com/raids-lab/approvalflow/cmd/approval/helper"
)

func newRootCmd() *cobra.Command {
	var configPath string
	configInit := helper.NewConfigInitializer()

	cmd := &cobra.Command{
		Use:           "approval",
		Short:         "Approval workflow server and maintenance tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return configInit.Load(configPath)
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default ./etc/debug-config.yaml in debug mode, /etc/config/config.yaml otherwise)")

	cmd.AddCommand(
		newServeCmd(configInit),
		newMigrateCmd(configInit),
		newSeedCmd(configInit),
		newTokenCmd(configInit),
		newReplayCmd(configInit),
	)
	return cmd
}
