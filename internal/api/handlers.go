package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"marketpulse/internal/domain/asset"
	"marketpulse/internal/domain/run"
	"marketpulse/internal/services/analysis"
	"marketpulse/internal/services/forecast"
	"marketpulse/internal/services/pipeline"
	"marketpulse/internal/services/risk"
	"marketpulse/internal/services/scan"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

const defaultForecastHorizon = 90

// Handlers bundles the service layer behind the REST surface.
type Handlers struct {
	store    asset.Store
	risk     *risk.Engine
	scanner  *scan.Scanner
	analysis *analysis.Service
	pipeline *pipeline.Service
	reports  run.Repository
	asOf     time.Time
	log      *logger.Logger
}

// HandlerDeps carries the handler collaborators. Reports may be nil.
type HandlerDeps struct {
	Store    asset.Store
	Risk     *risk.Engine
	Scanner  *scan.Scanner
	Analysis *analysis.Service
	Pipeline *pipeline.Service
	Reports  run.Repository
	AsOf     time.Time
}

// NewHandlers creates the REST handler set
func NewHandlers(deps HandlerDeps) *Handlers {
	return &Handlers{
		store:    deps.Store,
		risk:     deps.Risk,
		scanner:  deps.Scanner,
		analysis: deps.Analysis,
		pipeline: deps.Pipeline,
		reports:  deps.Reports,
		asOf:     deps.AsOf,
		log:      logger.Get().With("component", "api"),
	}
}

// ListAssets returns the tickers with a persisted record.
func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.store.ListAvailable(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"tickers": tickers})
}

// GetAsset returns the full processed record for one ticker.
func (h *Handlers) GetAsset(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.Load(r.Context(), r.PathValue("ticker"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": record.Ticker,
		"rows":   record.Rows,
	})
}

// GetSummary returns the latest-signal view pinned at the reference date.
func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analysis.Summary(r.Context(), r.PathValue("ticker"), h.asOf)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// GetRisk returns the risk metrics, optionally under a caller-supplied
// risk-free rate (?risk_free=0.03).
func (h *Handlers) GetRisk(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.Load(r.Context(), r.PathValue("ticker"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var m risk.Metrics
	if raw := r.URL.Query().Get("risk_free"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeError(w, errors.Wrapf(errors.ErrInvalidInput, "bad risk_free %q", raw))
			return
		}
		m = h.risk.ComputeWithRate(record, rate)
	} else {
		m = h.risk.Compute(record)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  record.Ticker,
		"metrics": m,
	})
}

// GetIndicators returns the technical overlays for one ticker.
func (h *Handlers) GetIndicators(w http.ResponseWriter, r *http.Request) {
	indicators, err := h.analysis.Indicators(r.Context(), r.PathValue("ticker"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, indicators)
}

// GetSentimentBuckets returns the sentiment bucket backtest.
func (h *Handlers) GetSentimentBuckets(w http.ResponseWriter, r *http.Request) {
	report, err := h.analysis.SentimentBuckets(r.Context(), r.PathValue("ticker"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// GetForecastInput returns the serialized forecaster request
// (?horizon=90, in days).
func (h *Handlers) GetForecastInput(w http.ResponseWriter, r *http.Request) {
	record, err := h.store.Load(r.Context(), r.PathValue("ticker"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	horizon := defaultForecastHorizon
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		horizon, err = strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, errors.Wrapf(errors.ErrInvalidInput, "bad horizon %q", raw))
			return
		}
	}

	request, err := forecast.BuildRequest(record, horizon)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, request)
}

// GetOpportunities runs the scanner (?month=November&sentiment=0.5).
func (h *Handlers) GetOpportunities(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		h.writeError(w, errors.Wrapf(errors.ErrInvalidInput, "month query parameter is required"))
		return
	}

	sentiment := 0.0
	if raw := r.URL.Query().Get("sentiment"); raw != "" {
		var err error
		sentiment, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			h.writeError(w, errors.Wrapf(errors.ErrInvalidInput, "bad sentiment %q", raw))
			return
		}
	}

	opportunities, err := h.scanner.Scan(r.Context(), month, sentiment)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"month":         month,
		"sentiment":     sentiment,
		"opportunities": opportunities,
	})
}

// RunPipeline triggers a synchronous pipeline run from the configured
// sources. A run already in flight answers 409.
func (h *Handlers) RunPipeline(w http.ResponseWriter, r *http.Request) {
	result, err := h.pipeline.RunFromFiles(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, reportPayload(result.Report))
}

// GetLatestRun returns the most recent pipeline run report.
func (h *Handlers) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		h.writeError(w, errors.Wrapf(errors.ErrUnavailable, "run reports are not persisted"))
		return
	}

	report, err := h.reports.Latest(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, reportPayload(report))
}

func reportPayload(report *run.Report) map[string]interface{} {
	return map[string]interface{}{
		"run_id":       report.ID,
		"started_at":   report.StartedAt,
		"finished_at":  report.FinishedAt,
		"duration":     report.Duration().String(),
		"scorer":       report.Scorer,
		"price_rows":   report.PriceRows,
		"post_rows":    report.PostRows,
		"posts_scored": report.PostsScored,
		"processed":    report.Processed,
		"skipped":      report.Skipped,
		"partial":      report.Partial(),
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

// writeError maps domain sentinels onto HTTP statuses.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrTickerNotFound), errors.Is(err, errors.ErrRunNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrPipelineRunning):
		status = http.StatusConflict
	case errors.Is(err, errors.ErrSourceMissing), errors.Is(err, errors.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.log.Errorf("Request failed: %v", err)
	}

	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
