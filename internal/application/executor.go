package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
	"github.com/jvasquez2828/robot-runt-web/pkg/config"
	"github.com/jvasquez2828/robot-runt-web/pkg/logger"
)

// Portal selectors. The consultation form is an Angular Material app, hence
// the mat-* XPaths.
const (
	plateInputXPath     = "//input[@formcontrolname='placa']"
	docTypeSelectXPath  = "//mat-select[@formcontrolname='tipoDocumento']"
	docTypeOptionXPath  = "//mat-option//span[contains(text(), 'NIT')]"
	docNumberInputXPath = "//*[@id='mat-input-1']"
	captchaImageXPath   = "//img[contains(@src, 'data:image/png')]"
	captchaInputXPath   = "//*[@id='mat-input-2']"
	rejectionXPath      = "//div[contains(text(), 'código de verificación es incorrecto')]"
	resultHeaderXPath   = "//*[contains(text(), 'Información general del vehículo')]"
	soatHeaderXPath     = "//mat-expansion-panel-header[contains(., 'Póliza SOAT')]"
	soatStatusCellXPath = "//*[@id='cdk-accordion-child-1']/div/mat-card-content/div/mat-table/mat-row[1]/mat-cell[7]"
	limitHeaderXPath    = "//mat-expansion-panel-header[contains(., 'Limitaciones a la Propiedad')]"
	limitContentXPath   = "//mat-expansion-panel-header[contains(., 'Limitaciones a la Propiedad')]/ancestor::mat-expansion-panel//div[contains(@class, 'mat-expansion-panel-content')]"
)

// Normalizer turns a raw captcha screenshot into the cleaned-up image sent to
// the solver. It must be deterministic.
type Normalizer func(image []byte) ([]byte, error)

// LookupExecutor runs one complete lookup attempt: navigate, fill, solve the
// captcha, submit, extract. Stateless across attempts; every attempt gets its
// own Session.
type LookupExecutor struct {
	cfg       config.PortalConfig
	solver    Solver
	normalize Normalizer
	logger    logger.Logger
}

func NewLookupExecutor(cfg config.PortalConfig, solver Solver, normalize Normalizer, log logger.Logger) *LookupExecutor {
	return &LookupExecutor{
		cfg:       cfg,
		solver:    solver,
		normalize: normalize,
		logger:    log,
	}
}

// Execute never escapes with an error: any failed step becomes a Failure
// outcome carrying the first line of the underlying message.
func (e *LookupExecutor) Execute(ctx context.Context, sess Session, req domain.LookupRequest) domain.Outcome {
	outcome, err := e.attempt(ctx, sess, req)
	if err != nil {
		return domain.FailureOutcome(err.Error())
	}
	return outcome
}

func (e *LookupExecutor) attempt(ctx context.Context, sess Session, req domain.LookupRequest) (domain.Outcome, error) {
	cfg := e.cfg

	if err := sess.Navigate(ctx, cfg.URL, cfg.NavigationTimeout); err != nil {
		return domain.Outcome{}, fmt.Errorf("navigation failed: %s", firstLine(err))
	}

	// Identifier fields, in a fixed order: plate, document type, document number.
	if err := sess.Fill(ctx, plateInputXPath, req.Plate, cfg.FieldTimeout); err != nil {
		return domain.Outcome{}, fmt.Errorf("fill plate failed: %s", firstLine(err))
	}
	if err := sess.Click(ctx, docTypeSelectXPath, cfg.FieldTimeout); err != nil {
		return domain.Outcome{}, fmt.Errorf("open document type failed: %s", firstLine(err))
	}
	if err := sess.Click(ctx, docTypeOptionXPath, cfg.FieldTimeout); err != nil {
		return domain.Outcome{}, fmt.Errorf("select document type failed: %s", firstLine(err))
	}
	if err := sess.Fill(ctx, docNumberInputXPath, req.DocumentNumber, cfg.FieldTimeout); err != nil {
		return domain.Outcome{}, fmt.Errorf("fill document number failed: %s", firstLine(err))
	}

	solution, err := e.solveChallenge(ctx, sess)
	if err != nil {
		return domain.Outcome{}, err
	}

	if err := sess.Fill(ctx, captchaInputXPath, solution.Code, cfg.FieldTimeout); err != nil {
		return domain.Outcome{}, fmt.Errorf("fill challenge code failed: %s", firstLine(err))
	}
	if err := sess.PressEnter(ctx, captchaInputXPath, cfg.FieldTimeout); err != nil {
		return domain.Outcome{}, fmt.Errorf("submit form failed: %s", firstLine(err))
	}

	// Race the explicit rejection indicator against its timeout. Timeout with
	// no indicator means the code was accepted.
	err = sess.WaitVisible(ctx, rejectionXPath, cfg.RejectionWait)
	switch {
	case err == nil:
		e.solver.ReportIncorrect(solution.SolutionID)
		return domain.Outcome{}, errors.New("challenge rejected")
	case errors.Is(err, ErrStepTimeout):
		// accepted
	default:
		return domain.Outcome{}, fmt.Errorf("rejection check failed: %s", firstLine(err))
	}

	if err := sess.WaitVisible(ctx, resultHeaderXPath, cfg.RenderWait); err != nil {
		return domain.Outcome{}, errors.New("result did not render")
	}

	soatText, err := e.disclose(ctx, sess, soatHeaderXPath, soatStatusCellXPath)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("extract SOAT status failed: %s", firstLine(err))
	}

	limitText, err := e.disclose(ctx, sess, limitHeaderXPath, limitContentXPath)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("extract limitaciones failed: %s", firstLine(err))
	}

	return domain.SuccessOutcome(domain.ParseSoatStatus(soatText), limitText), nil
}

// solveChallenge captures the captcha region, normalizes it and runs the
// solver round trip. The solver call can take several seconds; it blocks this
// attempt only, never the admission gate of other requests.
func (e *LookupExecutor) solveChallenge(ctx context.Context, sess Session) (domain.ChallengeSolution, error) {
	raw, err := sess.Screenshot(ctx, captchaImageXPath, e.cfg.FieldTimeout)
	if err != nil {
		return domain.ChallengeSolution{}, fmt.Errorf("capture challenge failed: %s", firstLine(err))
	}

	image, err := e.normalize(raw)
	if err != nil {
		return domain.ChallengeSolution{}, fmt.Errorf("normalize challenge failed: %s", firstLine(err))
	}

	solution, err := e.solver.Solve(ctx, image)
	if err != nil {
		return domain.ChallengeSolution{}, fmt.Errorf("solve challenge failed: %s", firstLine(err))
	}
	return solution, nil
}

// disclose expands a collapsible section and reads its text. The settle delay
// lets the expansion animation finish before reading. Panel text is folded to
// a single line here, so every downstream consumer (cache, history, report)
// sees the same value.
func (e *LookupExecutor) disclose(ctx context.Context, sess Session, headerSelector, contentSelector string) (string, error) {
	if err := sess.Click(ctx, headerSelector, e.cfg.ExtractTimeout); err != nil {
		return "", err
	}
	time.Sleep(e.cfg.SettleDelay)

	text, err := sess.Text(ctx, contentSelector, e.cfg.ExtractTimeout)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ReplaceAll(text, "\n", " ")), nil
}

func firstLine(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}
