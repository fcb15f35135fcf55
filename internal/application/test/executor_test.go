package application_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jvasquez2828/robot-runt-web/internal/application"
	"github.com/jvasquez2828/robot-runt-web/internal/domain"
	"github.com/jvasquez2828/robot-runt-web/pkg/config"
	"github.com/jvasquez2828/robot-runt-web/pkg/logger"
)

func testPortalConfig() config.PortalConfig {
	return config.PortalConfig{
		URL:               "https://portal.test/consulta",
		NavigationTimeout: time.Second,
		FieldTimeout:      time.Second,
		RejectionWait:     time.Second,
		RenderWait:        time.Second,
		ExtractTimeout:    time.Second,
		SettleDelay:       0,
	}
}

// portalSession scripts the portal page for one attempt. Behavior is keyed on
// selector fragments, mirroring what each selector targets on the real page.
type portalSession struct {
	rejectionShown bool
	resultRenders  bool
	navigateErr    error
	soatText       string
	limitText      string

	fills  map[string]string
	clicks []string
}

func newPortalSession() *portalSession {
	return &portalSession{
		resultRenders: true,
		soatText:      "VIGENTE HASTA 2026-05-01",
		limitText:     "El vehículo NO tiene limitaciones a la propiedad",
		fills:         map[string]string{},
	}
}

func (s *portalSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return s.navigateErr
}

func (s *portalSession) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	s.fills[selector] = value
	return nil
}

func (s *portalSession) Click(ctx context.Context, selector string, timeout time.Duration) error {
	s.clicks = append(s.clicks, selector)
	return nil
}

func (s *portalSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	switch {
	case strings.Contains(selector, "incorrecto"):
		if s.rejectionShown {
			return nil
		}
		return fmt.Errorf("wait visible: %w", application.ErrStepTimeout)
	case strings.Contains(selector, "Información general"):
		if s.resultRenders {
			return nil
		}
		return fmt.Errorf("wait visible: %w", application.ErrStepTimeout)
	default:
		return nil
	}
}

func (s *portalSession) Text(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	switch {
	case strings.Contains(selector, "cdk-accordion-child-1"):
		return s.soatText, nil
	case strings.Contains(selector, "Limitaciones"):
		return s.limitText, nil
	default:
		return "", nil
	}
}

func (s *portalSession) Screenshot(ctx context.Context, selector string, timeout time.Duration) ([]byte, error) {
	return []byte("raw-captcha"), nil
}

func (s *portalSession) PressEnter(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (s *portalSession) Close() error {
	return nil
}

// portalSolver answers every challenge with a fixed code and records reports.
type portalSolver struct {
	solution   domain.ChallengeSolution
	solveErr   error
	normalized []byte
	reported   []string
}

func (s *portalSolver) Solve(ctx context.Context, image []byte) (domain.ChallengeSolution, error) {
	s.normalized = image
	if s.solveErr != nil {
		return domain.ChallengeSolution{}, s.solveErr
	}
	return s.solution, nil
}

func (s *portalSolver) ReportIncorrect(solutionID string) {
	s.reported = append(s.reported, solutionID)
}

func identityNormalize(image []byte) ([]byte, error) {
	return image, nil
}

// TestExecute_Success - the full happy path: form filled, challenge solved and
// accepted, both panels extracted.
func TestExecute_Success(t *testing.T) {
	sess := newPortalSession()
	solver := &portalSolver{solution: domain.ChallengeSolution{Code: "a3k9x", SolutionID: "sol-1"}}

	executor := application.NewLookupExecutor(testPortalConfig(), solver, identityNormalize, logger.NopLogger{})
	outcome := executor.Execute(context.Background(), sess, domain.LookupRequest{
		Plate:          "ABC123",
		DocumentNumber: "900123456",
	})

	assert.True(t, outcome.Success)
	assert.Equal(t, domain.SoatVigente, outcome.SoatStatus)
	assert.Equal(t, "El vehículo NO tiene limitaciones a la propiedad", outcome.Limitations)

	// the plate, document number and solved code all landed in form fields
	filled := make([]string, 0, len(sess.fills))
	for _, value := range sess.fills {
		filled = append(filled, value)
	}
	assert.Contains(t, filled, "ABC123")
	assert.Contains(t, filled, "900123456")
	assert.Contains(t, filled, "a3k9x")
	assert.Equal(t, []byte("raw-captcha"), solver.normalized)
	assert.Empty(t, solver.reported)
}

// TestExecute_CollapsesPanelText - the multi-line panel renders as one line in
// the outcome, so the cache, the run history and the report all store the same
// value.
func TestExecute_CollapsesPanelText(t *testing.T) {
	sess := newPortalSession()
	sess.limitText = "PRENDA\nA FAVOR DE\nBANCO XYZ\n"
	solver := &portalSolver{solution: domain.ChallengeSolution{Code: "a3k9x"}}

	executor := application.NewLookupExecutor(testPortalConfig(), solver, identityNormalize, logger.NopLogger{})
	outcome := executor.Execute(context.Background(), sess, domain.LookupRequest{Plate: "ABC123"})

	assert.True(t, outcome.Success)
	assert.Equal(t, "PRENDA A FAVOR DE BANCO XYZ", outcome.Limitations)
}

// TestExecute_SoatNoVigente - the negated portal text must not read as valid.
func TestExecute_SoatNoVigente(t *testing.T) {
	sess := newPortalSession()
	sess.soatText = "NO VIGENTE DESDE 2020-03-15"
	solver := &portalSolver{solution: domain.ChallengeSolution{Code: "a3k9x"}}

	executor := application.NewLookupExecutor(testPortalConfig(), solver, identityNormalize, logger.NopLogger{})
	outcome := executor.Execute(context.Background(), sess, domain.LookupRequest{Plate: "ABC123"})

	assert.True(t, outcome.Success)
	assert.Equal(t, domain.SoatNoVigente, outcome.SoatStatus)
}

// TestExecute_ChallengeRejected - the portal showing the rejection text fails
// the attempt and reports the bad solution back to the solver.
func TestExecute_ChallengeRejected(t *testing.T) {
	sess := newPortalSession()
	sess.rejectionShown = true
	solver := &portalSolver{solution: domain.ChallengeSolution{Code: "wrong", SolutionID: "sol-9"}}

	executor := application.NewLookupExecutor(testPortalConfig(), solver, identityNormalize, logger.NopLogger{})
	outcome := executor.Execute(context.Background(), sess, domain.LookupRequest{Plate: "ABC123"})

	assert.False(t, outcome.Success)
	assert.Equal(t, "challenge rejected", outcome.FailureReason)
	assert.Equal(t, []string{"sol-9"}, solver.reported)
}

// TestExecute_NavigationFailure - a dead portal fails the attempt before any
// solver spend.
func TestExecute_NavigationFailure(t *testing.T) {
	sess := newPortalSession()
	sess.navigateErr = fmt.Errorf("net::ERR_CONNECTION_REFUSED\nlong chromium dump")
	solver := &portalSolver{solution: domain.ChallengeSolution{Code: "a3k9x"}}

	executor := application.NewLookupExecutor(testPortalConfig(), solver, identityNormalize, logger.NopLogger{})
	outcome := executor.Execute(context.Background(), sess, domain.LookupRequest{Plate: "ABC123"})

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.FailureReason, "navigation failed")
	// only the first line of the driver error survives
	assert.NotContains(t, outcome.FailureReason, "chromium dump")
	assert.Nil(t, solver.normalized)
}

// TestExecute_ResultNeverRenders - challenge accepted but the result panel
// never shows up.
func TestExecute_ResultNeverRenders(t *testing.T) {
	sess := newPortalSession()
	sess.resultRenders = false
	solver := &portalSolver{solution: domain.ChallengeSolution{Code: "a3k9x"}}

	executor := application.NewLookupExecutor(testPortalConfig(), solver, identityNormalize, logger.NopLogger{})
	outcome := executor.Execute(context.Background(), sess, domain.LookupRequest{Plate: "ABC123"})

	assert.False(t, outcome.Success)
	assert.Equal(t, "result did not render", outcome.FailureReason)
	assert.Empty(t, solver.reported, "an accepted solve is never reported")
}

// TestExecute_SolverFailure - a solver outage fails the attempt with the
// solver's reason.
func TestExecute_SolverFailure(t *testing.T) {
	sess := newPortalSession()
	solver := &portalSolver{solveErr: fmt.Errorf("ERROR_ZERO_BALANCE")}

	executor := application.NewLookupExecutor(testPortalConfig(), solver, identityNormalize, logger.NopLogger{})
	outcome := executor.Execute(context.Background(), sess, domain.LookupRequest{Plate: "ABC123"})

	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.FailureReason, "solve challenge failed")
	assert.Contains(t, outcome.FailureReason, "ERROR_ZERO_BALANCE")
}
