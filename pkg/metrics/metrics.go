// Package metrics exposes Prometheus instrumentation for context assembly,
// LLM calls and memory lifecycle operations.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// DefaultRegistry holds every collector defined in this package.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		ContextBuildDuration, ContextBuildTotal,
		LLMRequestDuration, LLMRequestTotal,
		MemoriesCreatedTotal, MemoriesDeletedTotal,
	)
}

// ContextBuildDuration measures BuildAgentContext latency in seconds.
var ContextBuildDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "fragent_context_build_duration_seconds",
		Help:    "Agent context assembly latency in seconds.",
		Buckets: prometheus.DefBuckets,
	},
)

// ContextBuildTotal counts context builds by outcome.
var ContextBuildTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fragent_context_build_total",
		Help: "Agent context builds by outcome.",
	},
	[]string{"outcome"}, // ok | unknown_agent | error
)

// LLMRequestDuration measures provider call latency in seconds.
var LLMRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "fragent_llm_request_duration_seconds",
		Help:    "LLM provider call latency in seconds.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider"},
)

// LLMRequestTotal counts provider calls by status.
var LLMRequestTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fragent_llm_request_total",
		Help: "LLM provider calls by status.",
	},
	[]string{"provider", "status"}, // ok | error | unavailable
)

// MemoriesCreatedTotal counts persisted memories.
var MemoriesCreatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fragent_memories_created_total",
		Help: "Memories written by type and role.",
	},
	[]string{"memory_type", "role"},
)

// MemoriesDeletedTotal counts memories removed by lifecycle cleanup.
var MemoriesDeletedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fragent_memories_deleted_total",
		Help: "Memories removed by lifecycle cleanup.",
	},
	[]string{"memory_type"},
)

// WritePrometheus writes the registry in the Prometheus text format.
func WritePrometheus(w io.Writer) error {
	families, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
