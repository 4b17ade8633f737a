package util

import (
	"github.com/gin-gonic/gin"

	"github.com/raids-lab/approvalflow/dao/model"
)

const (
	UserIDKey   = "x-user-id"
	UsernameKey = "x-user-name"
	AvatarKey   = "x-user-avatar"

	WorkspaceIDKey = "x-workspace-id"

	RolePlatformKey = "x-role-platform"
)

func SetJWTContext(
	c *gin.Context,
	msg JWTMessage,
) {
	c.Set(UserIDKey, msg.UserID)
	c.Set(UsernameKey, msg.Username)
	c.Set(AvatarKey, msg.Avatar)

	c.Set(WorkspaceIDKey, msg.WorkspaceID)

	c.Set(RolePlatformKey, msg.RolePlatform)
}

func GetToken(ctx *gin.Context) JWTMessage {
	var msg JWTMessage
	msg.UserID = ctx.GetUint(UserIDKey)
	msg.Username = ctx.GetString(UsernameKey)
	msg.Avatar = ctx.GetString(AvatarKey)

	msg.WorkspaceID = ctx.GetUint(WorkspaceIDKey)

	if rolePlatform, ok := ctx.Get(RolePlatformKey); ok {
		msg.RolePlatform, _ = rolePlatform.(model.Role)
	}
	return msg
}

// Actor is the current user as passed to the approval service.
func (msg JWTMessage) Actor() model.Actor {
	return model.Actor{
		ID:     msg.UserID,
		Name:   msg.Username,
		Avatar: msg.Avatar,
	}
}
