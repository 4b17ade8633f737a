package helper

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/raids-lab/approvalflow/internal"
	"github.com/raids-lab/approvalflow/internal/handler"
	"github.com/raids-lab/approvalflow/pkg/approval"
	"github.com/raids-lab/approvalflow/pkg/config"
	"github.com/raids-lab/approvalflow/pkg/cronjob"
	"github.com/raids-lab/approvalflow/pkg/logutils"
)

// ServerRunner 封装服务器运行逻辑
type ServerRunner struct {
	backendConfig *config.Config
	stopCron      context.CancelFunc
}

// NewServerRunner 创建新的ServerRunner实例
func NewServerRunner(backendConfig *config.Config) *ServerRunner {
	return &ServerRunner{
		backendConfig: backendConfig,
	}
}

// SetupLogger 设置日志记录器
func (sr *ServerRunner) SetupLogger() {
	logutils.SetLevel(sr.backendConfig.LogLevel)
	if sr.backendConfig.LogFormat == "json" {
		logutils.UseJSON()
	}
}

// StartCronJobs 启动定时任务，服务器退出时停止
func (sr *ServerRunner) StartCronJobs(ctx context.Context, store approval.Store) {
	ctx, cancel := context.WithCancel(ctx)
	sr.stopCron = cancel

	cronJobManager := cronjob.NewCronJobManager(store)
	if err := cronJobManager.Start(ctx, sr.backendConfig.Metrics.RefreshSpec); err != nil {
		klog.Errorf("failed to start cron jobs: %v", err)
	}
}

var (
	readHeaderTimeout = 10 * time.Second // 设置读取头部的超时时间
	cancelTimeout     = 10 * time.Second // 设置取消操作的超时时间
)

// StartServer 启动HTTP服务器
func (sr *ServerRunner) StartServer(registerConfig *handler.RegisterConfig) {
	klog.Info("starting server")
	backend := internal.Register(registerConfig)

	// reference: https://gin-gonic.com/en/docs/examples/graceful-restart-or-stop
	srv := &http.Server{
		Addr:              sr.backendConfig.ServerAddr,
		Handler:           backend.R,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		// service connections
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with
	// a timeout of 10 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	klog.Info("Shutdown Gin Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		klog.Info("Gin Server Shutdown:", err)
	}
	if sr.stopCron != nil {
		sr.stopCron()
	}
	klog.Info("Gin Server exiting")
}
