package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline metrics
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"}, // status: success|partial|error
	)

	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marketpulse_pipeline_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	TickersProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_tickers_processed_total",
			Help: "Total number of per-ticker pipeline outcomes",
		},
		[]string{"status"}, // status: processed|skipped
	)

	PostsScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_posts_scored_total",
			Help: "Total number of social posts scored",
		},
		[]string{"scorer"},
	)

	// Scanner metrics
	ScanRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_scan_requests_total",
			Help: "Total number of opportunity scans",
		},
		[]string{"status"}, // status: success|error
	)

	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marketpulse_scan_duration_seconds",
			Help:    "Opportunity scan duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketpulse_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marketpulse_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Scorer metrics
	ScorerCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_scorer_calls_total",
			Help: "Total number of sentiment scorer calls",
		},
		[]string{"scorer", "status"}, // status: success|neutral_fallback
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"}, // database: postgres|clickhouse|redis
	)

	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketpulse_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"database", "operation"},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_kafka_messages_total",
			Help: "Total Kafka messages produced",
		},
		[]string{"topic", "status"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_http_requests_total",
			Help: "Total HTTP requests served",
		},
		[]string{"route", "status"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	// Pipeline metrics
	prometheus.MustRegister(PipelineRuns)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(TickersProcessed)
	prometheus.MustRegister(PostsScored)

	// Scanner metrics
	prometheus.MustRegister(ScanRequests)
	prometheus.MustRegister(ScanDuration)

	// Worker metrics
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	// Scorer metrics
	prometheus.MustRegister(ScorerCalls)

	// Database metrics
	prometheus.MustRegister(DBQueries)
	prometheus.MustRegister(DBQueryDuration)

	// System metrics
	prometheus.MustRegister(KafkaMessages)
	prometheus.MustRegister(HTTPRequests)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordPipelineRun records a completed pipeline run
func RecordPipelineRun(status string, duration time.Duration, processed, skipped int) {
	PipelineRuns.WithLabelValues(status).Inc()
	PipelineDuration.Observe(duration.Seconds())
	TickersProcessed.WithLabelValues("processed").Add(float64(processed))
	TickersProcessed.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordDBQuery records a database query
func RecordDBQuery(database, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	DBQueries.WithLabelValues(database, operation, status).Inc()
	DBQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}
