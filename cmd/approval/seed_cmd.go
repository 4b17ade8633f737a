package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raids-lab/approvalflow/cmd/approval/helper"
	"github.com/raids-lab/approvalflow/pkg/approval"
)

func newSeedCmd(configInit *helper.ConfigInitializer) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create approval templates from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			seed, err := approval.ParseSeed(data)
			if err != nil {
				return err
			}

			created, err := configInit.Service().SeedTemplates(cmd.Context(), seed)
			if err != nil {
				return err
			}
			return writeJSON(map[string]int{"created": created, "skipped": len(seed.Templates) - created})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "./etc/seed-templates.yaml", "Seed file")
	return cmd
}

func requireArg(args []string, name string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return args[0], nil
}
