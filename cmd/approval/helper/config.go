package helper

import (
	"errors"
	"io/fs"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/raids-lab/approvalflow/dao/query"
	"github.com/raids-lab/approvalflow/internal/handler"
	"github.com/raids-lab/approvalflow/internal/util"
	"github.com/raids-lab/approvalflow/pkg/alert"
	"github.com/raids-lab/approvalflow/pkg/approval"
	"github.com/raids-lab/approvalflow/pkg/config"
	dbapproval "github.com/raids-lab/approvalflow/pkg/db/approval"
	"github.com/raids-lab/approvalflow/pkg/db/migrate"
)

// ConfigInitializer 封装配置初始化逻辑
type ConfigInitializer struct {
	backendConfig *config.Config
	store         approval.Store
	service       *approval.Service
}

// NewConfigInitializer 创建新的ConfigInitializer实例，配置在 Load 时读取
func NewConfigInitializer() *ConfigInitializer {
	return &ConfigInitializer{}
}

// Load 加载调试环境变量后读取配置文件
func (ci *ConfigInitializer) Load(configPath string) error {
	if err := ci.LoadDebugEnvironment(); err != nil {
		return err
	}
	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	ci.backendConfig = config.GetConfig()
	return nil
}

// GetBackendConfig 获取后端配置
func (ci *ConfigInitializer) GetBackendConfig() *config.Config {
	return ci.backendConfig
}

// LoadDebugEnvironment 加载调试环境变量，.debug.env 不存在时忽略
func (ci *ConfigInitializer) LoadDebugEnvironment() error {
	if gin.Mode() != gin.DebugMode {
		return nil
	}

	err := godotenv.Load(".debug.env")
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	// APPROVAL_BE_PORT 是本地调试时的后端端口
	if be := os.Getenv("APPROVAL_BE_PORT"); be != "" {
		os.Setenv(config.EnvPrefix+"SERVER_ADDR", ":"+be)
	}
	return nil
}

// DB 获取数据库连接
func (ci *ConfigInitializer) DB() *gorm.DB {
	return query.GetDB()
}

// Store 获取审批数据访问层
func (ci *ConfigInitializer) Store() approval.Store {
	if ci.store == nil {
		ci.store = dbapproval.NewDBService(ci.DB())
	}
	return ci.store
}

// Service 获取审批服务
func (ci *ConfigInitializer) Service() *approval.Service {
	if ci.service == nil {
		ci.service = approval.NewService(ci.Store())
	}
	return ci.service
}

// Migrate 执行数据库迁移
func (ci *ConfigInitializer) Migrate() error {
	if err := migrate.Migrate(ci.DB()); err != nil {
		return err
	}
	klog.Info("database migrated")
	return nil
}

// InitializeRegisterConfig 初始化注册配置
func (ci *ConfigInitializer) InitializeRegisterConfig() (*handler.RegisterConfig, error) {
	registerConfig := &handler.RegisterConfig{
		Service:  ci.Service(),
		Notifier: alert.GetAlertMgr(),
		TokenMgr: util.GetTokenMgr(),
	}
	return registerConfig, nil
}
