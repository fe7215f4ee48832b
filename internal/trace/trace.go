// Package trace reads the environment variables that enable trace targets
// in go-hg.
package trace

import (
	"os"
	"strconv"

	"github.com/go-hg/go-hg/utils/trace"
)

// envToTarget maps what environment variables can be used
// to enable specific trace targets.
var envToTarget = map[string]trace.Target{
	"HG_GO_TRACE":             trace.General,
	"HG_GO_TRACE_REVLOG":      trace.Revlog,
	"HG_GO_TRACE_NODEMAP":     trace.NodeMap,
	"HG_GO_TRACE_PERFORMANCE": trace.Performance,
}

// ReadEnv reads the environment variables and sets the trace targets.
func ReadEnv() {
	trace.SetTarget(targetFromEnv(os.Getenv))
}

func targetFromEnv(getenv func(string) string) trace.Target {
	var target trace.Target
	for k, v := range envToTarget {
		if val, _ := strconv.ParseBool(getenv(k)); val {
			target |= v
		}
	}

	return target
}
