package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AmbitionsXXXV/quant/internal/api"
	"github.com/AmbitionsXXXV/quant/internal/scheduler"
	"github.com/AmbitionsXXXV/quant/internal/scheduler/jobs"
	"github.com/AmbitionsXXXV/quant/internal/strategyconfig"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the report API (and scheduler, if enabled)",
	Long: `Serves the latest backtest report over HTTP and, when the
scheduler is enabled, periodically re-runs the configured batch.

Endpoints:
  GET  /healthz
  GET  /api/v1/reports/latest
  POST /api/v1/backtests

Example:
  go run ./cmd/quant serve
  go run ./cmd/quant serve --strategy config/strategy.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Quant API Server ===")

	// Strategy file is optional for serve; POST bodies can carry one
	var strategy *strategyconfig.Config
	if loaded, _, err := strategyconfig.Load(strategyFile); err == nil {
		strategy = loaded
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("load strategy: %w", err)
	}

	p, err := newPipeline(strategy)
	if err != nil {
		return err
	}
	defer p.Close()

	handler := api.NewReportHandler(p.orchestrator, p.store, strategy, p.log)
	server := api.New(p.cfg, p.log, api.NewRouter(handler, p.log))

	var sched *scheduler.Scheduler
	if p.cfg.Scheduler.Enabled {
		if strategy == nil {
			return fmt.Errorf("scheduler enabled but no strategy config at %s", strategyFile)
		}

		sched = scheduler.New(p.log)
		job := jobs.NewBacktestJob(p.orchestrator, p.store, strategy, p.cfg.Scheduler.CronSpec, p.log)
		if err := sched.AddJob(job); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
