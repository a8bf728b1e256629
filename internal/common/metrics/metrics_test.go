// internal/common/metrics/metrics_test.go
package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestJobStarted_Success(t *testing.T) {
	done := JobStarted("metrics-test-ok")
	assert.Equal(t, 1.0, testutil.ToFloat64(WorkerJobsActive.WithLabelValues("metrics-test-ok")))

	done("")

	assert.Equal(t, 0.0, testutil.ToFloat64(WorkerJobsActive.WithLabelValues("metrics-test-ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues("metrics-test-ok")))
}

func TestJobStarted_Failure(t *testing.T) {
	done := JobStarted("metrics-test-fail")
	done("QUERY_TIMEOUT")

	assert.Equal(t, 1.0, testutil.ToFloat64(WorkerJobsFailed.WithLabelValues("metrics-test-fail", "QUERY_TIMEOUT")))
	assert.Equal(t, 0.0, testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues("metrics-test-fail")))
}
