package domain

import (
	"context"

	"github.com/google/uuid"
)

// RequestSource resolves the input batch. A failure here aborts the whole run
// before any lookup starts.
type RequestSource interface {
	FetchRequests(ctx context.Context) ([]LookupRequest, error)
}

// RunRepository persists run history.
type RunRepository interface {
	Save(ctx context.Context, run *Run) error
	SaveResults(ctx context.Context, runID uuid.UUID, results []RequestResult) error
	FindByID(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRecent(ctx context.Context, limit int) ([]*Run, error)
}

// ReportWriter renders a report into a tabular artifact.
type ReportWriter interface {
	Render(report *Report) ([]byte, error)
	ContentType() string
}

// ArtifactStore keeps rendered report artifacts addressable by name.
type ArtifactStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	Get(ctx context.Context, name string) ([]byte, error)
}
