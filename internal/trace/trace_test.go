package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-hg/go-hg/utils/trace"
)

func TestTargetFromEnv(t *testing.T) {
	env := map[string]string{
		"HG_GO_TRACE":         "1",
		"HG_GO_TRACE_NODEMAP": "true",
		"HG_GO_TRACE_REVLOG":  "no",
	}
	got := targetFromEnv(func(k string) string { return env[k] })
	assert.Equal(t, trace.General|trace.NodeMap, got)

	assert.Equal(t, trace.Target(0), targetFromEnv(func(string) string { return "" }))
}

func TestReadEnv(t *testing.T) {
	t.Setenv("HG_GO_TRACE_PERFORMANCE", "1")
	t.Cleanup(func() { trace.SetTarget(0) })

	ReadEnv()
	assert.True(t, trace.Enabled(trace.Performance))
	assert.False(t, trace.Enabled(trace.General))
}
