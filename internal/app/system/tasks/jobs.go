// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PendingSweeper drops expired echo-suppression marks across open sessions.
type PendingSweeper interface {
	SweepPending() int
}

// IdleCloser closes editing sessions nobody has used recently.
type IdleCloser interface {
	CloseIdle() int
	Len() int
}

// PendingSweepJob periodically clears pending marks whose echo never arrived,
// so a later genuine remote change to the same node is not swallowed.
func PendingSweepJob(s PendingSweeper, interval time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "pending-sweep",
		Interval: interval,
		Run: func(ctx context.Context) error {
			if n := s.SweepPending(); n > 0 {
				logger.Debug("swept expired pending marks", zap.Int("count", n))
			}
			return ctx.Err()
		},
	}
}

// IdleSessionJob closes sessions past their idle timeout, releasing their
// change feed subscriptions.
func IdleSessionJob(c IdleCloser, interval time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "idle-sessions",
		Interval: interval,
		Run: func(ctx context.Context) error {
			if n := c.CloseIdle(); n > 0 {
				logger.Info("closed idle editing sessions",
					zap.Int("closed", n),
					zap.Int("open", c.Len()))
			}
			return ctx.Err()
		},
	}
}
