package messaging

import (
	"context"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
	"github.com/jvasquez2828/robot-runt-web/pkg/logger"
)

// ProgressPublisher pushes run progress events to one transport. The engine
// emits; it does not know whether the other side is an SSE stream, a Kafka
// topic or a log sink.
type ProgressPublisher interface {
	Publish(ctx context.Context, event domain.ProgressEvent) error
	Close() error
}

// Fanout publishes to several transports in order. A failing sink never blocks
// the others; its error is logged and swallowed so progress delivery can not
// break a run.
type Fanout struct {
	publishers []ProgressPublisher
	logger     logger.Logger
}

func NewFanout(log logger.Logger, publishers ...ProgressPublisher) *Fanout {
	return &Fanout{publishers: publishers, logger: log}
}

func (f *Fanout) Publish(ctx context.Context, event domain.ProgressEvent) error {
	for _, pub := range f.publishers {
		if err := pub.Publish(ctx, event); err != nil {
			f.logger.Warnf(ctx, "[Progress] sink failed for %s: %v", event.EventType(), err)
		}
	}
	return nil
}

func (f *Fanout) Close() error {
	var firstErr error
	for _, pub := range f.publishers {
		if err := pub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LogPublisher mirrors every progress event to the service log.
type LogPublisher struct {
	logger logger.Logger
}

func NewLogPublisher(log logger.Logger) *LogPublisher {
	return &LogPublisher{logger: log}
}

func (p *LogPublisher) Publish(ctx context.Context, event domain.ProgressEvent) error {
	switch e := event.(type) {
	case domain.BatchResolved:
		p.logger.Infof(ctx, "[Progress] run %s: batch resolved, %d requests", e.RunID, e.Total)
	case domain.RequestCompleted:
		p.logger.Infof(ctx, "[Progress] run %s: %s settled (ok=%t), %d/%d", e.RunID, e.Plate, e.Succeeded, e.Completed, e.Total)
	case domain.RunFailed:
		p.logger.Errorf(ctx, "[Progress] run %s failed: %s", e.RunID, e.Message)
	case domain.RunCompleted:
		p.logger.Infof(ctx, "[Progress] run %s completed, artifact: %s", e.RunID, e.ArtifactRef)
	default:
		p.logger.Warnf(ctx, "[Progress] unknown event type: %s", event.EventType())
	}
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
