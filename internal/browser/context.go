// File: internal/browser/context.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/varekai/stepright/api/schemas"
	"github.com/varekai/stepright/internal/config"
)

// browsingContext is one scenario's isolated browser context. Windows are
// tracked in creation order; exactly one is active at a time and receives all
// Page calls. Scenario execution is sequential, but popup targets announce
// themselves on the CDP event goroutine, so the window list is still guarded.
type browsingContext struct {
	manager *Manager
	logger  *zap.Logger
	cfg     *config.Config

	browserContextID cdp.BrowserContextID

	mu      sync.Mutex
	windows []*Session
	active  *Session
	closed  bool
}

var _ BrowsingContext = (*browsingContext)(nil)

// openWindow creates a new target inside this browser context and attaches a
// session to it.
func (bc *browsingContext) openWindow(ctx context.Context, url string) (*Session, error) {
	targetID, err := target.CreateTarget(url).
		WithBrowserContextID(bc.browserContextID).
		Do(bc.manager.browserExec)
	if err != nil {
		return nil, fmt.Errorf("failed to create target: %w", err)
	}
	return bc.adoptTarget(targetID)
}

// adoptTarget attaches a session to an existing target and makes it active.
func (bc *browsingContext) adoptTarget(targetID target.ID) (*Session, error) {
	sessionCtx, cancelSession := chromedp.NewContext(bc.manager.browserCtx, chromedp.WithTargetID(targetID))
	session, err := newSession(sessionCtx, cancelSession, bc.cfg, bc.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to attach session to target: %w", err)
	}

	bc.mu.Lock()
	bc.windows = append(bc.windows, session)
	bc.active = session
	bc.mu.Unlock()

	bc.logger.Debug("Window attached.", zap.String("session_id", session.ID()))
	return session, nil
}

// page returns the active window.
func (bc *browsingContext) page() *Session {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.active
}

// SwitchWindowByIndex activates the window at the given zero-based index.
func (bc *browsingContext) SwitchWindowByIndex(ctx context.Context, index int) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if index < 0 || index >= len(bc.windows) {
		return fmt.Errorf("window index %d out of range (%d windows): %w", index, len(bc.windows), ErrNoSuchWindow)
	}
	bc.active = bc.windows[index]
	return nil
}

// SwitchWindowByTitle activates the first window whose title contains fragment.
func (bc *browsingContext) SwitchWindowByTitle(ctx context.Context, titleFragment string) error {
	bc.mu.Lock()
	windows := make([]*Session, len(bc.windows))
	copy(windows, bc.windows)
	bc.mu.Unlock()

	for _, w := range windows {
		title, err := w.Title(ctx)
		if err != nil {
			bc.logger.Debug("Skipping window while matching title.", zap.Error(err))
			continue
		}
		if strings.Contains(title, titleFragment) {
			bc.mu.Lock()
			bc.active = w
			bc.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("no window title contains %q: %w", titleFragment, ErrNoSuchWindow)
}

// TriggerAndSwitch registers interest in the next window opened by this
// context, runs trigger, then adopts and activates the new window. The
// listener must be armed before the trigger runs or a fast popup is missed.
func (bc *browsingContext) TriggerAndSwitch(ctx context.Context, timeout time.Duration, trigger func(context.Context) error) error {
	active := bc.page()
	if active == nil {
		return fmt.Errorf("browsing context has no active window")
	}

	popupCh := chromedp.WaitNewTarget(active.ctx, func(info *target.Info) bool {
		return info.Type == "page" && info.BrowserContextID == bc.browserContextID
	})

	if err := trigger(ctx); err != nil {
		return fmt.Errorf("trigger action failed: %w", err)
	}

	select {
	case targetID := <-popupCh:
		if _, err := bc.adoptTarget(targetID); err != nil {
			return err
		}
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("no new window opened within %v: %w", timeout, context.DeadlineExceeded)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears down every window of the context, then disposes the context.
func (bc *browsingContext) Close(ctx context.Context) error {
	bc.mu.Lock()
	if bc.closed {
		bc.mu.Unlock()
		return nil
	}
	bc.closed = true
	windows := bc.windows
	bc.windows = nil
	bc.active = nil
	bc.mu.Unlock()

	for _, w := range windows {
		if err := w.Close(ctx); err != nil {
			bc.logger.Debug("Error closing window.", zap.Error(err))
		}
	}
	if err := target.DisposeBrowserContext(bc.browserContextID).Do(bc.manager.browserExec); err != nil {
		bc.logger.Debug("Failed to dispose browser context.", zap.Error(err))
	}
	return nil
}

// -- Page delegation to the active window --

func (bc *browsingContext) Navigate(ctx context.Context, url string) error {
	return bc.page().Navigate(ctx, url)
}

func (bc *browsingContext) Query(ctx context.Context, selector string) (QueryResult, error) {
	return bc.page().Query(ctx, selector)
}

func (bc *browsingContext) QueryByLabel(ctx context.Context, text string) (QueryResult, error) {
	return bc.page().QueryByLabel(ctx, text)
}

func (bc *browsingContext) QueryByRole(ctx context.Context, role, accessibleName string) (QueryResult, error) {
	return bc.page().QueryByRole(ctx, role, accessibleName)
}

func (bc *browsingContext) QueryProximity(ctx context.Context, tag, nearbyText string) (QueryResult, error) {
	return bc.page().QueryProximity(ctx, tag, nearbyText)
}

func (bc *browsingContext) QueryByClass(ctx context.Context, classToken string) (QueryResult, error) {
	return bc.page().QueryByClass(ctx, classToken)
}

func (bc *browsingContext) DescribeElement(ctx context.Context, selector string) (schemas.LiveAttributes, error) {
	return bc.page().DescribeElement(ctx, selector)
}

func (bc *browsingContext) WaitForState(ctx context.Context, selector string, state ElementState, timeout time.Duration) error {
	return bc.page().WaitForState(ctx, selector, state, timeout)
}

func (bc *browsingContext) Evaluate(ctx context.Context, script string, out any) error {
	return bc.page().Evaluate(ctx, script, out)
}

func (bc *browsingContext) Press(ctx context.Context, key string) error {
	return bc.page().Press(ctx, key)
}

func (bc *browsingContext) SetDialogPolicy(accept bool) {
	bc.page().SetDialogPolicy(accept)
}

func (bc *browsingContext) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	return bc.page().WaitNetworkIdle(ctx, timeout)
}

func (bc *browsingContext) Screenshot(ctx context.Context) ([]byte, error) {
	return bc.page().Screenshot(ctx)
}

func (bc *browsingContext) Title(ctx context.Context) (string, error) {
	return bc.page().Title(ctx)
}

func (bc *browsingContext) URL(ctx context.Context) (string, error) {
	return bc.page().URL(ctx)
}
