package captcha

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	api2captcha "github.com/2captcha/2captcha-go"

	"github.com/jvasquez2828/robot-runt-web/internal/application"
	"github.com/jvasquez2828/robot-runt-web/internal/domain"
	"github.com/jvasquez2828/robot-runt-web/pkg/logger"
)

// Solver parameters fixed by the portal's captcha profile: five characters,
// case-sensitive, mostly digits.
const (
	codeLength  = 5
	numericHint = 4
	hintText    = "The code is 5 characters, case-sensitive."
)

// TwoCaptchaSolver implements application.Solver against the 2Captcha API.
type TwoCaptchaSolver struct {
	client *api2captcha.Client
	logger logger.Logger
}

func NewTwoCaptchaSolver(apiKey string, timeout time.Duration, log logger.Logger) *TwoCaptchaSolver {
	client := api2captcha.NewClient(apiKey)
	client.DefaultTimeout = int(timeout.Seconds())
	client.PollingInterval = 5
	return &TwoCaptchaSolver{
		client: client,
		logger: log,
	}
}

// Solve submits the normalized image and blocks until the service answers or
// the client's polling budget runs out.
func (s *TwoCaptchaSolver) Solve(ctx context.Context, image []byte) (domain.ChallengeSolution, error) {
	task := api2captcha.Normal{
		Base64:        base64.StdEncoding.EncodeToString(image),
		CaseSensitive: true,
		MinLen:        codeLength,
		MaxLen:        codeLength,
		Numberic:      numericHint,
		HintText:      hintText,
	}

	code, solutionID, err := s.client.Solve(task.ToRequest())
	if err != nil {
		return domain.ChallengeSolution{}, fmt.Errorf("2captcha solve failed: %w", err)
	}
	if len(code) != codeLength {
		s.logger.Warnf(ctx, "[Captcha] unexpected code length %d from solver", len(code))
	}

	return domain.ChallengeSolution{Code: code, SolutionID: solutionID}, nil
}

// ReportIncorrect tells the service a solve was wrong. Detached and
// best-effort: the attempt's outcome never depends on it.
func (s *TwoCaptchaSolver) ReportIncorrect(solutionID string) {
	if solutionID == "" {
		return
	}
	go func() {
		if err := s.client.Report(solutionID, false); err != nil {
			s.logger.Warnf(context.Background(), "[Captcha] report incorrect failed: %v", err)
		}
	}()
}

var _ application.Solver = (*TwoCaptchaSolver)(nil)
