package metrics_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragent/fragent-go/pkg/metrics"
)

func TestWritePrometheus(t *testing.T) {
	metrics.MemoriesDeletedTotal.WithLabelValues("temporary").Add(3)
	metrics.LLMRequestTotal.WithLabelValues("custom", "ok").Inc()

	var buf bytes.Buffer
	require.NoError(t, metrics.WritePrometheus(&buf))

	out := buf.String()
	assert.Contains(t, out, `fragent_memories_deleted_total{memory_type="temporary"}`)
	assert.Contains(t, out, `fragent_llm_request_total{provider="custom",status="ok"} 1`)
}
