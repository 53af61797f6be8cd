package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all Gatherpoint metrics
const namespace = "gatherpoint"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Registrations counts successfully created accounts
var Registrations = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts registered",
	},
)

// Logins counts login attempts by outcome
// (success, bad_password, unknown_email)
var Logins = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts by outcome",
	},
	[]string{"result"},
)

// SecurityAlerts counts novel-login alert dispatches by outcome (sent, failed)
var SecurityAlerts = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "security_alerts_total",
		Help:      "Total number of novel-login security alert dispatch attempts",
	},
	[]string{"outcome"},
)
