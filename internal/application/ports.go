package application

import (
	"context"
	"errors"
	"time"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
)

// ErrStepTimeout is the sentinel drivers wrap when a step failed because its
// timeout elapsed, so callers can tell "took too long" apart from a real
// driver error. The challenge-rejection race depends on this distinction.
var ErrStepTimeout = errors.New("step timed out")

// Session is one isolated browser execution context. A session is owned by
// exactly one attempt and must be closed when the attempt ends; attempts never
// observe each other's state.
type Session interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Fill(ctx context.Context, selector, value string, timeout time.Duration) error
	Click(ctx context.Context, selector string, timeout time.Duration) error
	// WaitVisible resolves when the selector becomes visible; it returns an
	// error wrapping ErrStepTimeout if the timeout elapses first.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Text(ctx context.Context, selector string, timeout time.Duration) (string, error)
	Screenshot(ctx context.Context, selector string, timeout time.Duration) ([]byte, error)
	PressEnter(ctx context.Context, selector string, timeout time.Duration) error
	Close() error
}

// SessionFactory creates fresh isolated sessions on top of a shared browser
// handle.
type SessionFactory interface {
	NewSession(ctx context.Context) (Session, error)
}

// Solver wraps the external captcha-solving round trip.
type Solver interface {
	// Solve may block for several seconds while the service works the image.
	Solve(ctx context.Context, image []byte) (domain.ChallengeSolution, error)
	// ReportIncorrect is fire-and-forget: it must never block the attempt and
	// its own failure is swallowed.
	ReportIncorrect(solutionID string)
}

// ResultCache short-circuits lookups whose outcome is already known.
type ResultCache interface {
	GetOutcome(ctx context.Context, req domain.LookupRequest) (domain.Outcome, bool, error)
	SetOutcome(ctx context.Context, req domain.LookupRequest, outcome domain.Outcome) error
}
