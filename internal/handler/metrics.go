package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raids-lab/approvalflow/pkg/metrics"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewMetricsMgr)
}

type MetricsMgr struct {
	name    string
	handler http.Handler
}

func NewMetricsMgr(_ *RegisterConfig) Manager {
	return &MetricsMgr{
		name:    "metrics",
		handler: metrics.Handler(),
	}
}

func (mgr *MetricsMgr) GetName() string { return mgr.name }

func (mgr *MetricsMgr) RegisterPublic(g *gin.RouterGroup) {
	g.GET("", mgr.GetMetrics)
}

func (mgr *MetricsMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *MetricsMgr) RegisterAdmin(_ *gin.RouterGroup) {}

// GetMetrics godoc
//
//	@Summary		审批相关指标
//	@Description	返回 Prometheus 能够识别的信息，各状态数量由定时任务刷新
//	@Tags			Metrics
//	@Produce		plain
//	@Success		200	{string}	string	"Prometheus 文本格式"
//	@Router			/v1/metrics [get]
func (mgr *MetricsMgr) GetMetrics(c *gin.Context) {
	mgr.handler.ServeHTTP(c.Writer, c.Request)
}
