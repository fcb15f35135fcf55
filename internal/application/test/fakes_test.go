package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
)

// MockRequestSource - mock for domain.RequestSource
type MockRequestSource struct {
	mock.Mock
}

func (m *MockRequestSource) FetchRequests(ctx context.Context) ([]domain.LookupRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LookupRequest), args.Error(1)
}

// MockReportWriter - mock for domain.ReportWriter, captures the rendered report
type MockReportWriter struct {
	mock.Mock
}

func (m *MockReportWriter) Render(report *domain.Report) ([]byte, error) {
	args := m.Called(report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockReportWriter) ContentType() string {
	args := m.Called()
	return args.String(0)
}

// MockArtifactStore - mock for domain.ArtifactStore
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	args := m.Called(ctx, name, data, contentType)
	return args.Error(0)
}

func (m *MockArtifactStore) Get(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockResultCache - mock for application.ResultCache
type MockResultCache struct {
	mock.Mock
}

func (m *MockResultCache) GetOutcome(ctx context.Context, req domain.LookupRequest) (domain.Outcome, bool, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Outcome), args.Bool(1), args.Error(2)
}

func (m *MockResultCache) SetOutcome(ctx context.Context, req domain.LookupRequest, outcome domain.Outcome) error {
	args := m.Called(ctx, req, outcome)
	return args.Error(0)
}

// capturePublisher collects every published event in order, safely across
// goroutines.
type capturePublisher struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

func (p *capturePublisher) Publish(ctx context.Context, event domain.ProgressEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error {
	return nil
}

func (p *capturePublisher) Events() []domain.ProgressEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ProgressEvent, len(p.events))
	copy(out, p.events)
	return out
}

// funcRunner settles requests with the given function. Used where the test
// needs per-request behavior or concurrency tracking.
type funcRunner struct {
	fn func(ctx context.Context, req domain.LookupRequest) domain.Outcome
}

func (r *funcRunner) Run(ctx context.Context, req domain.LookupRequest) domain.Outcome {
	return r.fn(ctx, req)
}

// stubSession is a Session whose every step succeeds instantly. Retry tests
// only care about session lifecycle, not the steps.
type stubSession struct {
	closed bool
}

func (s *stubSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return nil
}

func (s *stubSession) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	return nil
}

func (s *stubSession) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (s *stubSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (s *stubSession) Text(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	return "", nil
}

func (s *stubSession) Screenshot(ctx context.Context, selector string, timeout time.Duration) ([]byte, error) {
	return []byte{}, nil
}

func (s *stubSession) PressEnter(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (s *stubSession) Close() error {
	s.closed = true
	return nil
}
