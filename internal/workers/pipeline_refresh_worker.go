package workers

import (
	"context"
	"time"

	"marketpulse/internal/services/pipeline"
	"marketpulse/pkg/errors"
)

// PipelineRefreshWorker re-runs the fusion pipeline on a schedule so the
// persisted records track source file updates. A run already in progress on
// another instance is not an error, just this tick's outcome.
type PipelineRefreshWorker struct {
	*BaseWorker
	service *pipeline.Service
}

// NewPipelineRefreshWorker creates a new pipeline refresh worker
func NewPipelineRefreshWorker(service *pipeline.Service, interval time.Duration, enabled bool) *PipelineRefreshWorker {
	return &PipelineRefreshWorker{
		BaseWorker: NewBaseWorker("pipeline_refresh", interval, enabled),
		service:    service,
	}
}

// Run executes one pipeline refresh
func (w *PipelineRefreshWorker) Run(ctx context.Context) error {
	result, err := w.service.RunFromFiles(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrPipelineRunning) {
			w.Log().Info("Skipping refresh, a pipeline run is already in progress")
			w.RecordRun(nil)
			return nil
		}
		w.RecordRun(err)
		return err
	}

	w.RecordRun(nil)
	w.Log().Infow("Pipeline refresh completed",
		"run_id", result.Report.ID,
		"processed", len(result.Report.Processed),
		"skipped", len(result.Report.Skipped),
	)
	return nil
}
