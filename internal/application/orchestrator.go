package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
	"github.com/jvasquez2828/robot-runt-web/internal/messaging"
	"github.com/jvasquez2828/robot-runt-web/pkg/logger"
)

// ErrRunInProgress is returned when a new run is started while a previous one
// is still active. Concurrent runs are rejected, never queued.
var ErrRunInProgress = errors.New("a run is already in progress")

// RequestRunner settles one request, retries included.
type RequestRunner interface {
	Run(ctx context.Context, req domain.LookupRequest) domain.Outcome
}

// Orchestrator fans a batch of lookup requests out through the limiter,
// collects completions, emits progress events and assembles the final report.
type Orchestrator struct {
	source   domain.RequestSource
	runner   RequestRunner
	limiter  *Limiter
	progress messaging.ProgressPublisher
	writer   domain.ReportWriter
	store    domain.ArtifactStore
	runs     domain.RunRepository // optional, nil disables run history
	cache    ResultCache          // optional, nil disables the result cache
	logger   logger.Logger
	active   *atomic.Bool
}

func NewOrchestrator(
	source domain.RequestSource,
	runner RequestRunner,
	limiter *Limiter,
	progress messaging.ProgressPublisher,
	writer domain.ReportWriter,
	store domain.ArtifactStore,
	runs domain.RunRepository,
	cache ResultCache,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		source:   source,
		runner:   runner,
		limiter:  limiter,
		progress: progress,
		writer:   writer,
		store:    store,
		runs:     runs,
		cache:    cache,
		logger:   log,
		active:   atomic.NewBool(false),
	}
}

// Active reports whether a run is currently executing.
func (o *Orchestrator) Active() bool {
	return o.active.Load()
}

// Start launches a run in the background and returns immediately. The run is
// detached from the caller's context: an HTTP client disconnecting must not
// abort a batch halfway through. The returned run is a snapshot taken before
// the goroutine starts; the live aggregate is owned by the goroutine alone.
func (o *Orchestrator) Start() (*domain.Run, error) {
	if !o.active.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	run := domain.NewRun()
	snapshot := run.Snapshot()
	go func() {
		defer o.active.Store(false)
		o.execute(context.Background(), run)
	}()
	return snapshot, nil
}

// RunOnce executes a run synchronously. Used by the CLI.
func (o *Orchestrator) RunOnce(ctx context.Context) (*domain.Run, error) {
	if !o.active.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer o.active.Store(false)
	run := domain.NewRun()
	if err := o.execute(ctx, run); err != nil {
		return run, err
	}
	return run, nil
}

func (o *Orchestrator) execute(ctx context.Context, run *domain.Run) error {
	ctx = context.WithValue(ctx, logger.RunIDKey, run.ID.String())
	o.logger.Infof(ctx, "[Orchestrator] run started")

	requests, err := o.source.FetchRequests(ctx)
	if err != nil {
		return o.fail(ctx, run, fmt.Sprintf("failed to fetch input batch: %v", err))
	}

	if err := run.ResolveBatch(len(requests)); err != nil {
		return o.fail(ctx, run, fmt.Sprintf("resolve batch failed: %v", err))
	}
	o.flushEvents(ctx, run)
	o.saveRun(ctx, run)

	// One task per request; the limiter inside process() caps how many touch
	// the portal at once. The run aggregate and the result slice share one
	// mutex so tick accounting and arrival order stay consistent.
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]domain.RequestResult, 0, len(requests))
	)
	for _, req := range requests {
		wg.Add(1)
		go func(req domain.LookupRequest) {
			defer wg.Done()

			outcome := o.process(ctx, req)
			result := domain.RequestResult{Request: req, Outcome: outcome}

			mu.Lock()
			results = append(results, result)
			if err := run.CompleteRequest(result); err != nil {
				o.logger.Errorf(ctx, "[Orchestrator] tick accounting failed: %v", err)
			}
			events := run.GetEvents()
			run.ClearEvents()
			mu.Unlock()

			o.publish(ctx, events)
		}(req)
	}
	wg.Wait()

	report := domain.BuildReport(results)
	data, err := o.writer.Render(report)
	if err != nil {
		return o.fail(ctx, run, fmt.Sprintf("render report failed: %v", err))
	}

	name := artifactName(time.Now())
	if err := o.store.Put(ctx, name, data, o.writer.ContentType()); err != nil {
		return o.fail(ctx, run, fmt.Sprintf("store report failed: %v", err))
	}

	if err := run.Complete(name); err != nil {
		return o.fail(ctx, run, fmt.Sprintf("complete run failed: %v", err))
	}
	o.saveRun(ctx, run)
	o.saveResults(ctx, run, results)
	o.flushEvents(ctx, run)

	o.logger.Infof(ctx, "[Orchestrator] run completed: %d ok, %d failed, artifact %s",
		run.CompletedRequests-run.FailedRequests, run.FailedRequests, name)
	return nil
}

// process holds one admission slot for the request's whole retry lifetime.
func (o *Orchestrator) process(ctx context.Context, req domain.LookupRequest) domain.Outcome {
	if err := o.limiter.Acquire(ctx); err != nil {
		return domain.FailureOutcome(fmt.Sprintf("admission failed: %v", err))
	}
	defer o.limiter.Release()

	ctx = context.WithValue(ctx, logger.PlateKey, req.Plate)

	if o.cache != nil {
		if outcome, ok, err := o.cache.GetOutcome(ctx, req); err != nil {
			o.logger.Warnf(ctx, "[Orchestrator] cache lookup failed: %v", err)
		} else if ok {
			o.logger.Infof(ctx, "[Orchestrator] cache hit for %s", req.Plate)
			return outcome
		}
	}

	outcome := o.runner.Run(ctx, req)

	if o.cache != nil && outcome.Success {
		if err := o.cache.SetOutcome(ctx, req, outcome); err != nil {
			o.logger.Warnf(ctx, "[Orchestrator] cache store failed: %v", err)
		}
	}
	return outcome
}

func (o *Orchestrator) fail(ctx context.Context, run *domain.Run, message string) error {
	run.Fail(message)
	o.flushEvents(ctx, run)
	o.saveRun(ctx, run)
	o.logger.Errorf(ctx, "[Orchestrator] %s", message)
	return errors.New(message)
}

func (o *Orchestrator) flushEvents(ctx context.Context, run *domain.Run) {
	events := run.GetEvents()
	run.ClearEvents()
	o.publish(ctx, events)
}

func (o *Orchestrator) publish(ctx context.Context, events []domain.ProgressEvent) {
	for _, event := range events {
		if err := o.progress.Publish(ctx, event); err != nil {
			o.logger.Warnf(ctx, "[Orchestrator] publish %s failed: %v", event.EventType(), err)
		}
	}
}

func (o *Orchestrator) saveRun(ctx context.Context, run *domain.Run) {
	if o.runs == nil {
		return
	}
	if err := o.runs.Save(ctx, run); err != nil {
		o.logger.Errorf(ctx, "[Orchestrator] save run failed: %v", err)
	}
}

func (o *Orchestrator) saveResults(ctx context.Context, run *domain.Run, results []domain.RequestResult) {
	if o.runs == nil {
		return
	}
	if err := o.runs.SaveResults(ctx, run.ID, results); err != nil {
		o.logger.Errorf(ctx, "[Orchestrator] save results failed: %v", err)
	}
}

func artifactName(t time.Time) string {
	return fmt.Sprintf("resultados_consulta_%s.xlsx", t.Format("2006-01-02_15-04"))
}
