package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Run is one batch execution of the scraper. It owns its own progress state;
// nothing about a run is process-global, so a future multi-run mode cannot
// corrupt a finished run.
type Run struct {
	ID                uuid.UUID
	Status            RunStatus
	TotalRequests     int
	CompletedRequests int
	FailedRequests    int
	ArtifactRef       string
	ErrorMessage      string
	StartedAt         time.Time
	FinishedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
	eventlog          []ProgressEvent
}

func NewRun() *Run {
	id := uuid.New()
	now := time.Now()
	return &Run{
		ID:        id,
		Status:    RunStatusPending,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
		eventlog:  []ProgressEvent{},
	}
}

func (r *Run) TransitionTo(status RunStatus) error {
	if !r.Status.CanTransitionTo(status) {
		return errors.New("invalid status transition from " + r.Status.String() + " to " + status.String())
	}
	r.Status = status
	r.UpdatedAt = time.Now()
	return nil
}

// ResolveBatch fixes the batch size once the input list is known and records
// the Total event.
func (r *Run) ResolveBatch(total int) error {
	if err := r.TransitionTo(RunStatusRunning); err != nil {
		return err
	}
	r.TotalRequests = total
	r.record(BatchResolved{RunID: r.ID, Total: total, OccurredAt: time.Now()})
	return nil
}

// CompleteRequest accounts one settled request and records its Tick. Exactly
// one call per input request, success or exhausted failure.
func (r *Run) CompleteRequest(result RequestResult) error {
	if r.CompletedRequests >= r.TotalRequests {
		return errors.New("all requests are already completed")
	}
	r.CompletedRequests++
	if !result.Outcome.Success {
		r.FailedRequests++
	}
	r.UpdatedAt = time.Now()
	r.record(RequestCompleted{
		RunID:      r.ID,
		Plate:      result.Request.Plate,
		Succeeded:  result.Outcome.Success,
		Completed:  r.CompletedRequests,
		Total:      r.TotalRequests,
		OccurredAt: time.Now(),
	})
	return nil
}

// Complete marks the run done and records the terminal Done event carrying the
// artifact reference.
func (r *Run) Complete(artifactRef string) error {
	if err := r.TransitionTo(RunStatusCompleted); err != nil {
		return err
	}
	r.ArtifactRef = artifactRef
	now := time.Now()
	r.FinishedAt = &now
	r.record(RunCompleted{RunID: r.ID, ArtifactRef: artifactRef, OccurredAt: now})
	return nil
}

// Fail marks the run failed and records the terminal Error event.
func (r *Run) Fail(message string) {
	// failed is reachable from every non-terminal status
	r.Status = RunStatusFailed
	r.ErrorMessage = message
	now := time.Now()
	r.FinishedAt = &now
	r.UpdatedAt = now
	r.record(RunFailed{RunID: r.ID, Message: message, OccurredAt: now})
}

// Snapshot returns a point-in-time copy. Callers that outlive the call site
// must read the copy, never the live aggregate a run goroutine keeps mutating.
func (r *Run) Snapshot() *Run {
	snapshot := *r
	snapshot.eventlog = nil
	return &snapshot
}

func (r *Run) record(event ProgressEvent) {
	r.eventlog = append(r.eventlog, event)
}

func (r *Run) GetEvents() []ProgressEvent {
	if len(r.eventlog) == 0 {
		return []ProgressEvent{}
	}
	events := make([]ProgressEvent, len(r.eventlog))
	copy(events, r.eventlog)
	return events
}

func (r *Run) ClearEvents() {
	r.eventlog = []ProgressEvent{}
}

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

func (s RunStatus) String() string {
	return string(s)
}

func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return true
	default:
		return false
	}
}

func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

func (s RunStatus) CanTransitionTo(newStatus RunStatus) bool {
	var runStatusTransitions = map[RunStatus][]RunStatus{
		RunStatusPending: {
			RunStatusRunning,
			RunStatusFailed,
		},
		RunStatusRunning: {
			RunStatusCompleted,
			RunStatusFailed,
		},
	}
	if !s.IsValid() || !newStatus.IsValid() {
		return false
	}
	nextStatuses, ok := runStatusTransitions[s]
	if !ok {
		return false
	}
	for _, status := range nextStatuses {
		if status == newStatus {
			return true
		}
	}
	return false
}
