// internal/pkg/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 订单核心的业务指标。按失败原因、核销结果、状态流转打标签，
// 便于在面板上直接观察超卖/超发类问题。
var (
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "primeshop",
		Subsystem: "order",
		Name:      "created_total",
		Help:      "Total number of successfully created orders.",
	})

	OrderCreateFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "primeshop",
		Subsystem: "order",
		Name:      "create_failures_total",
		Help:      "Order creation failures by reason.",
	}, []string{"reason"})

	StatusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "primeshop",
		Subsystem: "order",
		Name:      "status_transitions_total",
		Help:      "Order status transitions by from/to state.",
	}, []string{"from", "to"})

	VoucherRedemptions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "primeshop",
		Subsystem: "voucher",
		Name:      "redemptions_total",
		Help:      "Voucher redemption attempts by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		OrdersCreated,
		OrderCreateFailures,
		StatusTransitions,
		VoucherRedemptions,
	)
}

// Handler 返回 /metrics 的 HTTP 处理器。
func Handler() http.Handler {
	return promhttp.Handler()
}
