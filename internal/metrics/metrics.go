package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// PollTotal counts poll cycles per endpoint and outcome
	PollTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locksync_polls_total",
		Help: "Poll cycles by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	// PollDiscarded counts completions dropped by the stale-token policy
	PollDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locksync_polls_discarded_total",
		Help: "Poll completions discarded as stale or after unschedule.",
	}, []string{"endpoint"})

	// ConnectivityUp reports per-endpoint reachability (1 online, 0 offline)
	ConnectivityUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "locksync_endpoint_up",
		Help: "Endpoint connectivity, 1 when the last poll succeeded.",
	}, []string{"endpoint"})

	// CommandTotal counts user-initiated commands by name and outcome
	CommandTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "locksync_commands_total",
		Help: "User-initiated device commands by name and outcome.",
	}, []string{"command", "outcome"})
)
