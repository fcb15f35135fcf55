package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProgressEvent is the observer-facing event stream of a run. Lifecycle per
// run: one BatchResolved, one RequestCompleted per input request, then exactly
// one of RunCompleted or RunFailed.
type ProgressEvent interface {
	OccurredOn() time.Time
	AggregateID() uuid.UUID
	EventType() string
}

// BatchResolved - input list resolved, batch size known.
type BatchResolved struct {
	RunID      uuid.UUID
	Total      int
	OccurredAt time.Time
}

// RequestCompleted - one unit of work settled (success or exhausted failure).
type RequestCompleted struct {
	RunID      uuid.UUID
	Plate      string
	Succeeded  bool
	Completed  int
	Total      int
	OccurredAt time.Time
}

// RunFailed - terminal, batch-level failure.
type RunFailed struct {
	RunID      uuid.UUID
	Message    string
	OccurredAt time.Time
}

// RunCompleted - terminal, carries the report artifact reference.
type RunCompleted struct {
	RunID       uuid.UUID
	ArtifactRef string
	OccurredAt  time.Time
}

func (e BatchResolved) OccurredOn() time.Time {
	return e.OccurredAt
}

func (e BatchResolved) AggregateID() uuid.UUID {
	return e.RunID
}

func (e BatchResolved) EventType() string {
	return "BatchResolved"
}

func (e RequestCompleted) OccurredOn() time.Time {
	return e.OccurredAt
}

func (e RequestCompleted) AggregateID() uuid.UUID {
	return e.RunID
}

func (e RequestCompleted) EventType() string {
	return "RequestCompleted"
}

func (e RunFailed) OccurredOn() time.Time {
	return e.OccurredAt
}

func (e RunFailed) AggregateID() uuid.UUID {
	return e.RunID
}

func (e RunFailed) EventType() string {
	return "RunFailed"
}

func (e RunCompleted) OccurredOn() time.Time {
	return e.OccurredAt
}

func (e RunCompleted) AggregateID() uuid.UUID {
	return e.RunID
}

func (e RunCompleted) EventType() string {
	return "RunCompleted"
}
