// Package worker consumes the queue and drives a record through the
// session → agent → reply pipeline.
//
// This file exposes Prometheus instrumentation for the consumer. Labels are
// kept to small fixed sets (outcome names, failure stages) so cardinality
// stays bounded.
package worker

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// recordsProcessed counts consumed records by terminal outcome.
	recordsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_records_processed_total",
			Help: "Total queue records processed, by outcome (acknowledged, duplicate, failed).",
		},
		[]string{"outcome"},
	)

	// recordFailures counts failed records by the pipeline stage that failed.
	recordFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_record_failures_total",
			Help: "Total failed queue records, by failing stage.",
		},
		[]string{"stage"},
	)

	// agentLatency records agent invocation duration in seconds.
	agentLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_agent_invocation_duration_seconds",
			Help:    "Duration of agent backend invocations in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13},
		},
	)

	// repliesSent counts replies delivered to the chat platform.
	repliesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_replies_sent_total",
			Help: "Total replies sent back to the originating chat.",
		},
	)

	// batchSize records how many records each poll delivered.
	batchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_queue_batch_size",
			Help:    "Number of records delivered per queue poll.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
		},
	)
)

func init() {
	prometheus.MustRegister(recordsProcessed, recordFailures, agentLatency, repliesSent, batchSize)
}
