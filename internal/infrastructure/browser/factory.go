package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/jvasquez2828/robot-runt-web/internal/application"
	"github.com/jvasquez2828/robot-runt-web/pkg/config"
	"github.com/jvasquez2828/robot-runt-web/pkg/logger"
)

// Factory owns the shared browser process. It is safe for concurrent
// NewSession calls; every session gets its own isolated chrome target with its
// own cookie jar and storage, so concurrent attempts never observe each
// other's state.
type Factory struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	cfg      config.PortalConfig
	logger   logger.Logger
}

func NewFactory(cfg config.PortalConfig, log logger.Logger) (*Factory, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	// Start the browser process eagerly so a missing chrome binary surfaces at
	// boot instead of on the first run.
	probe, probeCancel := chromedp.NewContext(allocCtx)
	defer probeCancel()
	if err := chromedp.Run(probe); err != nil {
		cancel()
		return nil, fmt.Errorf("launch browser failed: %w", err)
	}

	log.Infof(context.Background(), "[Browser] launched (headless=%t)", cfg.Headless)
	return &Factory{
		allocCtx: allocCtx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   log,
	}, nil
}

// NewSession creates one isolated execution context with resource blocking
// installed.
func (f *Factory) NewSession(ctx context.Context) (application.Session, error) {
	taskCtx, taskCancel := chromedp.NewContext(f.allocCtx)

	sess := &Session{
		ctx:    taskCtx,
		cancel: taskCancel,
		logger: f.logger,
	}
	if err := sess.installRequestFilter(f.cfg.BlockedResources); err != nil {
		taskCancel()
		return nil, fmt.Errorf("install request filter failed: %w", err)
	}
	return sess, nil
}

func (f *Factory) Close() error {
	f.cancel()
	f.logger.Infof(context.Background(), "[Browser] closed")
	return nil
}

var _ application.SessionFactory = (*Factory)(nil)
