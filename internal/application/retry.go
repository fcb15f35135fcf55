package application

import (
	"context"
	"fmt"
	"time"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
	"github.com/jvasquez2828/robot-runt-web/pkg/logger"
)

// AttemptExecutor performs one complete lookup attempt inside an isolated
// session.
type AttemptExecutor interface {
	Execute(ctx context.Context, sess Session, req domain.LookupRequest) domain.Outcome
}

// RetryRunner wraps the executor with the bounded retry policy: up to
// maxRetries attempts, a fresh session per attempt, a fixed backoff between
// attempts. The short retry budget does not warrant exponential backoff.
type RetryRunner struct {
	sessions   SessionFactory
	executor   AttemptExecutor
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
}

func NewRetryRunner(
	sessions SessionFactory,
	executor AttemptExecutor,
	maxRetries int,
	backoff time.Duration,
	log logger.Logger,
) *RetryRunner {
	return &RetryRunner{
		sessions:   sessions,
		executor:   executor,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     log,
	}
}

// Run settles one request. On exhausted retries the returned failure carries
// the last attempt's reason; earlier reasons are not retained.
func (r *RetryRunner) Run(ctx context.Context, req domain.LookupRequest) domain.Outcome {
	var outcome domain.Outcome
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		outcome = r.attempt(ctx, req)
		if outcome.Success {
			return outcome
		}
		r.logger.Warnf(ctx, "[Retry] %s attempt %d/%d failed: %s",
			req.Plate, attempt+1, r.maxRetries, outcome.FailureReason)

		if attempt < r.maxRetries-1 {
			select {
			case <-time.After(r.backoff):
			case <-ctx.Done():
				return domain.FailureOutcome(fmt.Sprintf("cancelled: %v", ctx.Err()))
			}
		}
	}
	return outcome
}

// attempt owns exactly one session: created fresh, closed unconditionally
// before the retry decision, so no state leaks between attempts.
func (r *RetryRunner) attempt(ctx context.Context, req domain.LookupRequest) domain.Outcome {
	sess, err := r.sessions.NewSession(ctx)
	if err != nil {
		return domain.FailureOutcome(fmt.Sprintf("create session failed: %v", err))
	}

	outcome := r.executor.Execute(ctx, sess, req)

	if err := sess.Close(); err != nil {
		r.logger.Warnf(ctx, "[Retry] close session failed: %v", err)
	}
	return outcome
}
