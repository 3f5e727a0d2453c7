package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/observability"
)

type Job func(ctx context.Context) error

// Runner runs jobs on tickers until its context is cancelled
type Runner struct {
	ctx    context.Context
	logger *zap.SugaredLogger
	wg     sync.WaitGroup
}

func New(ctx context.Context, logger *zap.SugaredLogger) *Runner {
	return &Runner{ctx: ctx, logger: logger}
}

func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	if interval <= 0 {
		r.logger.Infow("Job disabled", "job", name)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

// Wait blocks until every job loop has returned
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(name string, fn Job) {
	start := time.Now()
	outcome := outcomeOK
	defer func() {
		if rec := recover(); rec != nil {
			outcome = outcomePanic
			r.logger.Errorw("Job panicked", "job", name, "panic", rec)
			observability.CaptureErr(fmt.Errorf("panic in job %s: %v", name, rec))
		}
		jobRuns.WithLabelValues(name, outcome).Inc()
		jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if outcome == outcomeOK {
			jobLastSuccess.WithLabelValues(name).SetToCurrentTime()
		}
	}()

	if err := fn(r.ctx); err != nil {
		outcome = outcomeError
		r.logger.Errorw("Job failed", "job", name, "error", err)
		observability.CaptureErr(err)
	}
}
