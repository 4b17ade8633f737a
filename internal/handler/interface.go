package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/raids-lab/approvalflow/internal/util"
	"github.com/raids-lab/approvalflow/pkg/alert"
	"github.com/raids-lab/approvalflow/pkg/approval"
)

type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
	RegisterAdmin(group *gin.RouterGroup)
}

// RegisterConfig carries the dependencies shared by all managers.
type RegisterConfig struct {
	Service  *approval.Service
	Notifier alert.Notifier
	TokenMgr *util.TokenManager
}

// Registers is filled by each manager's init.
var Registers = []func(config *RegisterConfig) Manager{}
