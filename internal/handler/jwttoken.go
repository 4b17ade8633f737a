package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/raids-lab/approvalflow/internal/resputil"
	"github.com/raids-lab/approvalflow/internal/util"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewJWTTokenMgr)
}

type JWTTokenMgr struct {
	name string
}

func NewJWTTokenMgr(_ *RegisterConfig) Manager {
	return &JWTTokenMgr{
		name: "token",
	}
}

func (mgr *JWTTokenMgr) GetName() string { return mgr.name }

func (mgr *JWTTokenMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *JWTTokenMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/verify", mgr.VerifyToken)
}

func (mgr *JWTTokenMgr) RegisterAdmin(_ *gin.RouterGroup) {}

// VerifyToken godoc
//
//	@Summary		通过token鉴权
//	@Description	读取header的auth进行鉴权，返回当前用户信息
//	@Tags			Token
//	@Accept			json
//	@Produce		json
//	@Security		Bearer
//	@Success		200	{object}	resputil.Response[util.JWTMessage]	"Token 鉴权"
//	@Failure		401	{object}	resputil.Response[any]				"Token 无效"
//	@Router			/v1/token/verify [get]
func (mgr *JWTTokenMgr) VerifyToken(c *gin.Context) {
	resputil.Success(c, util.GetToken(c))
}
