package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
)

func settled(plate string, success bool) domain.RequestResult {
	outcome := domain.SuccessOutcome(domain.SoatVigente, "")
	if !success {
		outcome = domain.FailureOutcome("challenge rejected")
	}
	return domain.RequestResult{
		Request: domain.LookupRequest{Plate: plate, DocumentNumber: "900123456"},
		Outcome: outcome,
	}
}

func TestRun_Lifecycle(t *testing.T) {
	run := domain.NewRun()
	assert.Equal(t, domain.RunStatusPending, run.Status)

	assert.NoError(t, run.ResolveBatch(2))
	assert.Equal(t, domain.RunStatusRunning, run.Status)
	assert.Equal(t, 2, run.TotalRequests)

	assert.NoError(t, run.CompleteRequest(settled("ABC123", true)))
	assert.NoError(t, run.CompleteRequest(settled("DEF456", false)))
	assert.Equal(t, 2, run.CompletedRequests)
	assert.Equal(t, 1, run.FailedRequests)

	assert.NoError(t, run.Complete("resultados_consulta_2026-09-01_10-30.xlsx"))
	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.NotNil(t, run.FinishedAt)

	events := run.GetEvents()
	assert.Len(t, events, 4)
	assert.Equal(t, "BatchResolved", events[0].EventType())
	assert.Equal(t, "RequestCompleted", events[1].EventType())
	assert.Equal(t, "RequestCompleted", events[2].EventType())
	assert.Equal(t, "RunCompleted", events[3].EventType())
	for _, event := range events {
		assert.Equal(t, run.ID, event.AggregateID())
	}
}

func TestRun_CompleteRequestOverflow(t *testing.T) {
	run := domain.NewRun()
	assert.NoError(t, run.ResolveBatch(1))
	assert.NoError(t, run.CompleteRequest(settled("ABC123", true)))

	err := run.CompleteRequest(settled("DEF456", true))
	assert.Error(t, err)
	assert.Equal(t, 1, run.CompletedRequests)
}

func TestRun_FailFromAnyState(t *testing.T) {
	pending := domain.NewRun()
	pending.Fail("failed to fetch input batch")
	assert.Equal(t, domain.RunStatusFailed, pending.Status)
	assert.Equal(t, "failed to fetch input batch", pending.ErrorMessage)
	assert.NotNil(t, pending.FinishedAt)

	running := domain.NewRun()
	assert.NoError(t, running.ResolveBatch(3))
	running.Fail("render report failed")
	assert.Equal(t, domain.RunStatusFailed, running.Status)
}

func TestRun_InvalidTransitions(t *testing.T) {
	run := domain.NewRun()
	// pending cannot complete without running first
	assert.Error(t, run.Complete("artifact.xlsx"))

	assert.NoError(t, run.ResolveBatch(1))
	// running cannot resolve again
	assert.Error(t, run.ResolveBatch(1))

	assert.NoError(t, run.Complete("artifact.xlsx"))
	// terminal states accept nothing
	assert.Error(t, run.TransitionTo(domain.RunStatusRunning))
}

func TestRunStatus_IsTerminal(t *testing.T) {
	assert.False(t, domain.RunStatusPending.IsTerminal())
	assert.False(t, domain.RunStatusRunning.IsTerminal())
	assert.True(t, domain.RunStatusCompleted.IsTerminal())
	assert.True(t, domain.RunStatusFailed.IsTerminal())
}

func TestRun_ClearEvents(t *testing.T) {
	run := domain.NewRun()
	assert.NoError(t, run.ResolveBatch(1))
	assert.Len(t, run.GetEvents(), 1)

	run.ClearEvents()
	assert.Empty(t, run.GetEvents())

	// events recorded after a flush accumulate fresh
	assert.NoError(t, run.CompleteRequest(settled("ABC123", true)))
	assert.Len(t, run.GetEvents(), 1)
}
