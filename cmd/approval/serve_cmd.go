package main

import (
	"github.com/spf13/cobra"

	"github.com/raids-lab/approvalflow/cmd/approval/helper"
)

func newServeCmd(configInit *helper.ConfigInitializer) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if migrate {
				if err := configInit.Migrate(); err != nil {
					return err
				}
			}

			registerConfig, err := configInit.InitializeRegisterConfig()
			if err != nil {
				return err
			}

			serverRunner := helper.NewServerRunner(configInit.GetBackendConfig())
			serverRunner.SetupLogger()
			serverRunner.StartCronJobs(cmd.Context(), configInit.Store())
			serverRunner.StartServer(registerConfig)
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	return cmd
}
