package main

import (
	"github.com/spf13/cobra"

	"github.com/raids-lab/approvalflow/cmd/approval/helper"
	"github.com/raids-lab/approvalflow/dao/model"
	"github.com/raids-lab/approvalflow/internal/util"
)

func newTokenCmd(configInit *helper.ConfigInitializer) *cobra.Command {
	var (
		userID      uint
		avatar      string
		workspaceID uint
		admin       bool
	)

	cmd := &cobra.Command{
		Use:   "token <username>",
		Short: "Issue an access token, e.g. for integrations or local testing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			username, err := requireArg(args, "username")
			if err != nil {
				return err
			}
			cfg := configInit.GetBackendConfig()
			role := model.RoleUser
			if admin {
				role = model.RoleAdmin
			}

			token, err := util.NewTokenManager(cfg.Auth.AccessTokenSecret, cfg.AccessTokenTTL()).
				CreateToken(&util.JWTMessage{
					UserID:       userID,
					Username:     username,
					Avatar:       avatar,
					WorkspaceID:  workspaceID,
					RolePlatform: role,
				})
			if err != nil {
				return err
			}
			return writeJSON(map[string]string{"accessToken": token})
		},
	}
	cmd.Flags().UintVar(&userID, "uid", 0, "User ID (required)")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Avatar URL")
	cmd.Flags().UintVar(&workspaceID, "workspace", 0, "Workspace ID")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant the platform admin role")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}
