package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueries.WithLabelValues("postgres", "save_run", "success"))
	RecordDBQuery("postgres", "save_run", 5*time.Millisecond, nil)
	assert.Equal(t, before+1, testutil.ToFloat64(DBQueries.WithLabelValues("postgres", "save_run", "success")))

	beforeErr := testutil.ToFloat64(DBQueries.WithLabelValues("clickhouse", "load", "error"))
	RecordDBQuery("clickhouse", "load", time.Millisecond, assert.AnError)
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(DBQueries.WithLabelValues("clickhouse", "load", "error")))
}

func TestRecordPipelineRun(t *testing.T) {
	before := testutil.ToFloat64(PipelineRuns.WithLabelValues("partial"))
	beforeSkipped := testutil.ToFloat64(TickersProcessed.WithLabelValues("skipped"))

	RecordPipelineRun("partial", 2*time.Second, 3, 1)

	assert.Equal(t, before+1, testutil.ToFloat64(PipelineRuns.WithLabelValues("partial")))
	assert.Equal(t, beforeSkipped+1, testutil.ToFloat64(TickersProcessed.WithLabelValues("skipped")))
}

func TestRecordWorkerExecution(t *testing.T) {
	before := testutil.ToFloat64(WorkerExecutions.WithLabelValues("pipeline_refresh", "error"))

	RecordWorkerExecution("pipeline_refresh", time.Second, assert.AnError)

	assert.Equal(t, before+1, testutil.ToFloat64(WorkerExecutions.WithLabelValues("pipeline_refresh", "error")))
	assert.NotZero(t, testutil.ToFloat64(WorkerLastRun.WithLabelValues("pipeline_refresh")))
}
