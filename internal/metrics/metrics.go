package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics
var (
	MessagesConsumedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "email_messages_consumed_total",
			Help: "Total number of envelopes consumed from the work queue",
		},
	)

	MessagesDeliveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "email_messages_delivered_total",
			Help: "Total number of messages delivered and acknowledged",
		},
	)

	MessagesFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "email_messages_failed_total",
			Help: "Total number of messages with a failed status recorded",
		},
	)

	MessagesDeadLetteredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "email_messages_dead_lettered_total",
			Help: "Total number of messages rejected without requeue",
		},
	)

	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "email_message_processing_duration_seconds",
			Help:    "Duration of per-message pipeline processing",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// API metrics
var (
	SendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_send_requests_total",
			Help: "Total number of synchronous send requests",
		},
		[]string{"endpoint", "result"}, // send|batch, success|failure
	)
)
