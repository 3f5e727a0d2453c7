package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const AutoCloseJobName = "auto_close_assessments"

// OverdueCloser closes open assessments whose due date has passed
type OverdueCloser interface {
	CloseOverdue(ctx context.Context, now time.Time) (int, error)
}

func AutoCloseAssessments(closer OverdueCloser, logger *zap.SugaredLogger) Job {
	return func(ctx context.Context) error {
		closed, err := closer.CloseOverdue(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		if closed > 0 {
			assessmentsAutoClosed.Add(float64(closed))
			logger.Infow("Closed overdue assessments", "count", closed)
		}
		return nil
	}
}
