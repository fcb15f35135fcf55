package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/jvasquez2828/robot-runt-web/internal/application"
	"github.com/jvasquez2828/robot-runt-web/pkg/logger"
)

// Session implements application.Session on a dedicated chromedp target.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger logger.Logger
}

// installRequestFilter blocks the given resource types to speed up rendering.
// Inline data:image URLs are always allowed: the captcha itself is one.
func (s *Session) installRequestFilter(blockedTypes []string) error {
	if len(blockedTypes) == 0 {
		return nil
	}
	// config uses lowercase names, the CDP enum is capitalized
	blocked := make(map[network.ResourceType]bool, len(blockedTypes))
	for _, t := range blockedTypes {
		if t == "" {
			continue
		}
		name := strings.ToUpper(t[:1]) + strings.ToLower(t[1:])
		blocked[network.ResourceType(name)] = true
	}

	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		event, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(s.ctx)
			execCtx := cdp.WithExecutor(s.ctx, c.Target)
			if blocked[event.ResourceType] && !strings.HasPrefix(event.Request.URL, "data:image") {
				_ = fetch.FailRequest(event.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
				return
			}
			_ = fetch.ContinueRequest(event.RequestID).Do(execCtx)
		}()
	})

	return chromedp.Run(s.ctx, fetch.Enable())
}

// run executes actions under a step timeout, translating a deadline hit into
// the ErrStepTimeout sentinel callers race against.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	stepCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(stepCtx, actions...)
	}()

	select {
	case err := <-done:
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && stepCtx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("%w after %s", application.ErrStepTimeout, timeout)
			}
			return err
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.Navigate(url))
}

func (s *Session) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	return s.run(ctx, timeout,
		chromedp.WaitVisible(selector, chromedp.BySearch),
		chromedp.SendKeys(selector, value, chromedp.BySearch),
	)
}

func (s *Session) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.Click(selector, chromedp.BySearch))
}

func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.BySearch))
}

func (s *Session) Text(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	var text string
	err := s.run(ctx, timeout, chromedp.Text(selector, &text, chromedp.BySearch))
	return text, err
}

func (s *Session) Screenshot(ctx context.Context, selector string, timeout time.Duration) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, timeout, chromedp.Screenshot(selector, &buf, chromedp.BySearch))
	return buf, err
}

func (s *Session) PressEnter(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.SendKeys(selector, kb.Enter, chromedp.BySearch))
}

// Close destroys the target and everything it holds.
func (s *Session) Close() error {
	s.cancel()
	return nil
}

var _ application.Session = (*Session)(nil)
