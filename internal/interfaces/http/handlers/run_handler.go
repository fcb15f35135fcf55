package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jvasquez2828/robot-runt-web/internal/application"
	"github.com/jvasquez2828/robot-runt-web/internal/domain"
	"github.com/jvasquez2828/robot-runt-web/internal/messaging"
)

type runHandler struct {
	orchestrator *application.Orchestrator
	hub          *messaging.Hub
	store        domain.ArtifactStore
	runs         domain.RunRepository // optional
}

func NewRunHandler(
	orchestrator *application.Orchestrator,
	hub *messaging.Hub,
	store domain.ArtifactStore,
	runs domain.RunRepository,
) *runHandler {
	return &runHandler{
		orchestrator: orchestrator,
		hub:          hub,
		store:        store,
		runs:         runs,
	}
}

// StartRun launches a batch in the background. A second start while one is
// active is rejected with 409, never queued.
func (h *runHandler) StartRun(c *gin.Context) {
	run, err := h.orchestrator.Start()
	if err != nil {
		if errors.Is(err, application.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"run_id": run.ID,
		"status": run.Status,
	})
}

// ssePayload is the wire shape the front end already speaks:
// {"status": "...", "progress": 42.0, "file": "..."}.
type ssePayload struct {
	Status   string   `json:"status"`
	Progress *float64 `json:"progress,omitempty"`
	File     string   `json:"file,omitempty"`
}

// StreamProgress pushes run progress as server-sent events until the run hits
// its terminal event or the client disconnects.
func (h *runHandler) StreamProgress(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events, cancel := h.hub.Subscribe()
	defer cancel()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			payload, terminal := translate(event)
			if payload != nil {
				c.SSEvent("message", payload)
			}
			return !terminal
		}
	})
}

// translate maps a domain progress event to the SSE payload. The bool reports
// whether the event is terminal for the stream.
func translate(event domain.ProgressEvent) (*ssePayload, bool) {
	switch e := event.(type) {
	case domain.BatchResolved:
		progress := 0.0
		return &ssePayload{
			Status:   fmt.Sprintf("Procesando 0/%d...", e.Total),
			Progress: &progress,
		}, false
	case domain.RequestCompleted:
		progress := 0.0
		if e.Total > 0 {
			progress = float64(e.Completed) / float64(e.Total) * 100
		}
		return &ssePayload{
			Status:   fmt.Sprintf("Procesando %d/%d...", e.Completed, e.Total),
			Progress: &progress,
		}, false
	case domain.RunFailed:
		return &ssePayload{Status: e.Message}, true
	case domain.RunCompleted:
		progress := 100.0
		return &ssePayload{
			Status:   "¡Proceso completado!",
			Progress: &progress,
			File:     e.ArtifactRef,
		}, true
	default:
		return nil, false
	}
}

// DownloadReport serves a report artifact as an attachment.
func (h *runHandler) DownloadReport(c *gin.Context) {
	name := c.Param("name")
	data, err := h.store.Get(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ListRuns returns recent run history. 404 when run persistence is disabled.
func (h *runHandler) ListRuns(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is not enabled"})
		return
	}
	runs, err := h.runs.ListRecent(c.Request.Context(), 50)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"runs": runs})
}

func (h *runHandler) GetRun(c *gin.Context) {
	if h.runs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is not enabled"})
		return
	}
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid run id"})
		return
	}

	run, err := h.runs.FindByID(c.Request.Context(), runID)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(200, run)
}

func (h *runHandler) Health(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":     "ok",
		"run_active": h.orchestrator.Active(),
	})
}

func (h *runHandler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		v1.POST("/runs", h.StartRun)
		v1.GET("/runs", h.ListRuns)
		v1.GET("/runs/:id", h.GetRun)
		v1.GET("/progress", h.StreamProgress)
		v1.GET("/reports/:name", h.DownloadReport)
		v1.GET("/health", h.Health)
	}
}
