package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
)

func TestTranslate_BatchResolved(t *testing.T) {
	payload, terminal := translate(domain.BatchResolved{RunID: uuid.New(), Total: 12})

	require.NotNil(t, payload)
	assert.False(t, terminal)
	assert.Equal(t, "Procesando 0/12...", payload.Status)
	require.NotNil(t, payload.Progress)
	assert.Equal(t, 0.0, *payload.Progress)
}

func TestTranslate_RequestCompleted(t *testing.T) {
	payload, terminal := translate(domain.RequestCompleted{
		RunID:     uuid.New(),
		Plate:     "ABC123",
		Succeeded: true,
		Completed: 3,
		Total:     4,
	})

	require.NotNil(t, payload)
	assert.False(t, terminal)
	assert.Equal(t, "Procesando 3/4...", payload.Status)
	require.NotNil(t, payload.Progress)
	assert.Equal(t, 75.0, *payload.Progress)
}

func TestTranslate_RunCompleted(t *testing.T) {
	payload, terminal := translate(domain.RunCompleted{
		RunID:       uuid.New(),
		ArtifactRef: "resultados_consulta_2026-09-01_10-30.xlsx",
	})

	require.NotNil(t, payload)
	assert.True(t, terminal)
	assert.Equal(t, "¡Proceso completado!", payload.Status)
	assert.Equal(t, "resultados_consulta_2026-09-01_10-30.xlsx", payload.File)
	require.NotNil(t, payload.Progress)
	assert.Equal(t, 100.0, *payload.Progress)
}

func TestTranslate_RunFailed(t *testing.T) {
	payload, terminal := translate(domain.RunFailed{
		RunID:   uuid.New(),
		Message: "failed to fetch input batch",
	})

	require.NotNil(t, payload)
	assert.True(t, terminal)
	assert.Equal(t, "failed to fetch input batch", payload.Status)
	assert.Nil(t, payload.Progress)
	assert.Empty(t, payload.File)
}
