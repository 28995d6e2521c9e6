package jobs

import (
	"context"

	"github.com/AmbitionsXXXV/quant/internal/backtest"
	"github.com/AmbitionsXXXV/quant/internal/strategyconfig"
	"github.com/AmbitionsXXXV/quant/pkg/logger"
)

// BacktestJob re-runs the configured backtest batch and publishes the
// report for the API
type BacktestJob struct {
	orchestrator *backtest.Orchestrator
	store        *backtest.Store
	cfg          *strategyconfig.Config
	schedule     string
	logger       *logger.Logger
}

// NewBacktestJob creates the periodic batch job
func NewBacktestJob(orch *backtest.Orchestrator, store *backtest.Store, cfg *strategyconfig.Config, schedule string, log *logger.Logger) *BacktestJob {
	return &BacktestJob{
		orchestrator: orch,
		store:        store,
		cfg:          cfg,
		schedule:     schedule,
		logger:       log,
	}
}

func (j *BacktestJob) Name() string {
	return "backtest_batch"
}

func (j *BacktestJob) Schedule() string {
	return j.schedule
}

// Run executes the batch and stores the report
func (j *BacktestJob) Run(ctx context.Context) error {
	report, err := j.orchestrator.Run(ctx, j.cfg)
	if err != nil {
		return err
	}

	j.store.Put(ctx, report)
	j.logger.WithFields(map[string]interface{}{
		"config_hash": report.ConfigHash,
		"succeeded":   report.SuccessCount,
		"failed":      report.FailureCount,
	}).Info("scheduled backtest published")

	return nil
}
