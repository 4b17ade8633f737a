package main

import (
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/raids-lab/approvalflow/cmd/approval/helper"
	"github.com/raids-lab/approvalflow/pkg/db/migrate"
)

func newMigrateCmd(configInit *helper.ConfigInitializer) *cobra.Command {
	var rollback bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			if rollback {
				if err := migrate.RollbackLast(configInit.DB()); err != nil {
					return err
				}
				klog.Info("rolled back the last migration")
				return nil
			}
			return configInit.Migrate()
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "Roll back the last applied migration instead")
	return cmd
}
