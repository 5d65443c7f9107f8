// File: internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/varekai/stepright/internal/config"
)

// Manager owns the browser process. It launches one Chrome instance through
// an exec allocator and hands out isolated browsing contexts, one per
// scenario. There is deliberately no package-level instance: the manager is
// constructed per run and passed by reference.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	allocCtx    context.Context
	allocCancel context.CancelFunc
	// browserCtx is the controller target context used for browser-level CDP
	// calls (context and target creation).
	browserCtx    context.Context
	browserCancel context.CancelFunc
	// browserExec carries the browser-domain executor for commands like
	// Target.createBrowserContext that must not run on a page session.
	browserExec context.Context

	// contextCreationLock serializes browser-context creation; Chrome gets
	// unhappy when contexts are created concurrently on one connection.
	contextCreationLock sync.Mutex

	initOnce sync.Once
	initErr  error
}

// NewManager creates a browser manager. Chrome launch is deferred until the
// first browsing context is requested.
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
	}
}

// initialize launches Chrome and establishes the controller connection.
func (m *Manager) initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		if !m.cfg.Browser.Headless {
			opts = append(opts, chromedp.Flag("headless", false))
		}
		if m.cfg.Browser.IgnoreTLSErrors {
			opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
		}
		for _, arg := range m.cfg.Browser.Args {
			opts = append(opts, chromedp.Flag(arg, true))
		}

		m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
		m.browserCtx, m.browserCancel = chromedp.NewContext(m.allocCtx)

		// Force the browser to actually start so failures surface here rather
		// than on the first scenario.
		if err := chromedp.Run(m.browserCtx); err != nil {
			m.initErr = fmt.Errorf("failed to launch browser: %w", err)
			return
		}
		m.browserExec = cdp.WithExecutor(m.browserCtx, chromedp.FromContext(m.browserCtx).Browser)
		m.logger.Info("Browser launched.")
	})
	return m.initErr
}

// NewBrowsingContext creates an isolated browser context with one initial
// window for a scenario.
func (m *Manager) NewBrowsingContext(ctx context.Context) (BrowsingContext, error) {
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}

	m.contextCreationLock.Lock()
	defer m.contextCreationLock.Unlock()

	browserContextID, err := target.CreateBrowserContext().Do(m.browserExec)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	bc := &browsingContext{
		manager:          m,
		logger:           m.logger.Named("context"),
		cfg:              m.cfg,
		browserContextID: browserContextID,
	}

	if _, err := bc.openWindow(ctx, "about:blank"); err != nil {
		bc.Close(ctx)
		return nil, err
	}
	return bc, nil
}

// Shutdown tears down the browser process.
func (m *Manager) Shutdown(ctx context.Context) {
	if m.browserCancel != nil {
		m.browserCancel()
	}
	if m.allocCancel != nil {
		m.allocCancel()
	}
	m.logger.Info("Browser manager shut down.")
}
