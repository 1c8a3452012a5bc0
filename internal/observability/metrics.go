package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// OrdersCreated counts persisted orders (idempotent replays excluded).
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created.",
	})

	// OrderTransitions counts applied status changes by source and target.
	OrderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Total number of order status transitions.",
		},
		[]string{"from", "to"},
	)

	// ErrorResponses counts failures dispatched through the error registry.
	ErrorResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_error_responses_total",
			Help: "Total number of error responses by error code.",
		},
		[]string{"code"},
	)
)

func init() {
	prometheus.MustRegister(OrdersCreated, OrderTransitions, ErrorResponses)
}
