// Package metrics holds the service's Prometheus collectors on a private
// registry so that tests and the HTTP handler see the same set.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raids-lab/approvalflow/dao/model"
)

// 声明一个自定义的注册表
var Registry = prometheus.NewRegistry()

var (
	// 审批动作计数，按动作与动作后的状态区分
	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "approval_transitions_total",
			Help: "Number of committed approval transitions",
		},
		[]string{"action", "status"},
	)

	SubmissionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "approval_submissions_total",
			Help: "Number of submitted approval requests",
		},
	)

	ConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "approval_conflicts_total",
			Help: "Number of transitions rejected by the version check",
		},
	)

	// 各状态的审批单数量仪表盘，由定时任务刷新
	RequestsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "approval_requests",
			Help: "Number of approval requests per status",
		},
		[]string{"status"},
	)
)

//nolint:gochecknoinits // Collectors must exist before the first request.
func init() {
	Registry.MustRegister(TransitionsTotal, SubmissionsTotal, ConflictsTotal, RequestsGauge)
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

func RecordTransition(action model.ApprovalAction, status model.ApprovalRequestStatus) {
	TransitionsTotal.WithLabelValues(string(action), string(status)).Inc()
}

// SetStatusCounts overwrites the gauge; statuses missing from counts read 0.
func SetStatusCounts(counts map[model.ApprovalRequestStatus]int64) {
	for _, status := range model.AllApprovalStatuses {
		RequestsGauge.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
