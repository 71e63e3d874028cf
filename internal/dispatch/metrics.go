package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeHandled       = "handled"
	outcomeHandlerFailed = "handler_failed"
	outcomeUnhandled     = "unhandled"
)

// dispatchTotal counts dispatches by resolved tag and outcome. Tags come from
// the taxonomy, so the label set stays bounded.
var dispatchTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gateway_error_dispatch_total",
		Help: "Total number of gateway errors dispatched to handlers.",
	},
	[]string{"tag", "outcome"},
)

func init() {
	prometheus.MustRegister(dispatchTotal)
}
