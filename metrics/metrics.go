package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EmailsScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_scheduled_total",
			Help: "Total drip emails scheduled into the queue",
		},
	)

	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total queued emails delivered successfully",
		},
	)

	EmailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "email_failures_total",
			Help: "Total queued emails that failed terminally",
		},
	)

	DrainPasses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_drain_passes_total",
			Help: "Total queue drain invocations",
		},
	)
)

func Init() {
	prometheus.MustRegister(EmailsScheduled)
	prometheus.MustRegister(EmailsSent)
	prometheus.MustRegister(EmailFailures)
	prometheus.MustRegister(DrainPasses)
}
