package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/AmbitionsXXXV/quant/internal/backtest"
	"github.com/AmbitionsXXXV/quant/internal/contracts"
	"github.com/AmbitionsXXXV/quant/internal/strategyconfig"
	"github.com/AmbitionsXXXV/quant/pkg/logger"
)

// ReportHandler serves backtest reports and triggers batch runs
// ⭐ SSOT: 리포트 API 핸들러는 이 구조체에서만
type ReportHandler struct {
	orchestrator *backtest.Orchestrator
	store        *backtest.Store
	defaults     *strategyconfig.Config
	logger       *logger.Logger

	running atomic.Bool
}

// NewReportHandler creates a new report handler. defaults may be nil when
// no strategy config was loaded; POST then requires a config body.
func NewReportHandler(orch *backtest.Orchestrator, store *backtest.Store, defaults *strategyconfig.Config, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		orchestrator: orch,
		store:        store,
		defaults:     defaults,
		logger:       log,
	}
}

// GetLatest returns the most recent completed report
// GET /api/v1/reports/latest
func (h *ReportHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	report, ok := h.store.Latest(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "no completed backtest yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// RunBacktest runs a batch and publishes its report. The request body may
// carry a YAML strategy config; an empty body runs the configured default.
// POST /api/v1/backtests
func (h *ReportHandler) RunBacktest(w http.ResponseWriter, r *http.Request) {
	if !h.running.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "a backtest batch is already running")
		return
	}
	defer h.running.Store(false)

	cfg, err := h.resolveConfig(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.orchestrator.Run(r.Context(), cfg)
	if err != nil {
		if errors.Is(err, contracts.ErrConfig) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WithError(err).Error("backtest batch failed")
		writeError(w, http.StatusInternalServerError, "backtest batch failed")
		return
	}

	h.store.Put(r.Context(), report)
	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) resolveConfig(r *http.Request) (*strategyconfig.Config, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if len(body) > 0 {
		return strategyconfig.Parse(body)
	}
	if h.defaults == nil {
		return nil, errors.New("no default strategy config; send one in the request body")
	}
	return h.defaults, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
