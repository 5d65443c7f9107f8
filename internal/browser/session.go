// File: internal/browser/session.go
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/varekai/stepright/api/schemas"
	"github.com/varekai/stepright/internal/config"
)

// statePollInterval paces the WaitForState loop.
const statePollInterval = 100 * time.Millisecond

// Session drives one browser tab over CDP. It implements Page.
type Session struct {
	id     string
	ctx    context.Context // chromedp target context, owns the tab lifecycle
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    *config.Config

	harvester *Harvester

	dialogPolicySet bool
	// dialogAccept is read from the CDP event goroutine.
	dialogAccept atomic.Bool
}

var _ Page = (*Session)(nil)

// newSession wraps an existing chromedp target context. The caller owns target
// creation; see Manager and browsingContext.
func newSession(targetCtx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	id := uuid.New().String()
	s := &Session{
		id:     id,
		ctx:    targetCtx,
		cancel: cancel,
		logger: logger.With(zap.String("session_id", id)),
		cfg:    cfg,
	}

	s.harvester = NewHarvester(targetCtx, s.logger, cfg.Browser.NetworkQuietPeriod)
	if err := s.harvester.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start network harvester: %w", err)
	}
	return s, nil
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// RunActions executes chromedp actions against this tab, honoring both the
// session lifecycle context and the operation context.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}

// Close tears down the tab.
func (s *Session) Close(ctx context.Context) error {
	s.harvester.Stop()
	s.cancel()
	return nil
}

// Navigate loads a URL and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navTimeout := s.cfg.Browser.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 90 * time.Second
	}
	navCtx, navCancel := context.WithTimeout(ctx, navTimeout)
	defer navCancel()

	s.logger.Info("Navigating.", zap.String("url", url))
	if err := s.RunActions(navCtx, chromedp.Navigate(url)); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation to %s timed out after %v: %w", url, navTimeout, navCtx.Err())
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Evaluate runs a JavaScript expression, unmarshaling into out when non-nil.
func (s *Session) Evaluate(ctx context.Context, script string, out any) error {
	var raw json.RawMessage
	err := s.RunActions(ctx,
		chromedp.Evaluate(script, &raw, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true).WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	if out == nil {
		return nil
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal evaluation result: %w", err)
	}
	return nil
}

// query runs a pin-and-count script and materializes the result.
func (s *Session) query(ctx context.Context, script, token string) (QueryResult, error) {
	var count int
	if err := s.Evaluate(ctx, script, &count); err != nil {
		return QueryResult{}, err
	}
	res := QueryResult{Count: count}
	if count > 0 {
		res.Handle = &elementHandle{session: s, selector: refSelector(token)}
	}
	return res, nil
}

// Query locates elements by CSS selector or XPath (auto-detected).
func (s *Session) Query(ctx context.Context, selector string) (QueryResult, error) {
	token := uuid.New().String()
	return s.query(ctx, buildQueryScript(selector, token), token)
}

// QueryByLabel locates a control associated with a label of the given text.
func (s *Session) QueryByLabel(ctx context.Context, text string) (QueryResult, error) {
	token := uuid.New().String()
	return s.query(ctx, buildLabelQueryScript(text, token), token)
}

// QueryByRole locates elements by accessibility role and optional name.
func (s *Session) QueryByRole(ctx context.Context, role, accessibleName string) (QueryResult, error) {
	token := uuid.New().String()
	return s.query(ctx, buildRoleQueryScript(role, accessibleName, token), token)
}

// QueryProximity locates the element of the given tag nearest to nearbyText.
func (s *Session) QueryProximity(ctx context.Context, tag, nearbyText string) (QueryResult, error) {
	token := uuid.New().String()
	return s.query(ctx, buildProximityQueryScript(tag, nearbyText, token), token)
}

// QueryByClass counts elements carrying one class token and pins the first.
func (s *Session) QueryByClass(ctx context.Context, classToken string) (QueryResult, error) {
	token := uuid.New().String()
	return s.query(ctx, buildClassQueryScript(classToken, token), token)
}

// DescribeElement reads the live attribute set of the first match of selector.
func (s *Session) DescribeElement(ctx context.Context, selector string) (schemas.LiveAttributes, error) {
	var live *schemas.LiveAttributes
	if err := s.Evaluate(ctx, buildDescribeScript(selector), &live); err != nil {
		return schemas.LiveAttributes{}, err
	}
	if live == nil {
		return schemas.LiveAttributes{}, fmt.Errorf("no element matches %q", selector)
	}
	return *live, nil
}

// WaitForState polls until the first match of selector reaches the wanted
// state, the timeout elapses, or ctx is done. Malformed selectors count as
// "no match" here rather than erroring, so an advisory wait on a broken
// selector simply times out.
func (s *Session) WaitForState(ctx context.Context, selector string, state ElementState, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(statePollInterval), 1)
	script := buildStateScript(selector, state)
	for {
		if err := limiter.Wait(waitCtx); err != nil {
			return fmt.Errorf("element %q did not reach state %q within %v: %w", selector, state, timeout, waitCtx.Err())
		}
		var ok bool
		if err := s.Evaluate(waitCtx, script, &ok); err != nil {
			if waitCtx.Err() != nil {
				return fmt.Errorf("element %q did not reach state %q within %v: %w", selector, state, timeout, waitCtx.Err())
			}
			// Evaluation hiccups (e.g. mid-navigation) are treated as "not yet".
			s.logger.Debug("State poll evaluation failed; retrying.", zap.Error(err))
			continue
		}
		if ok {
			return nil
		}
	}
}

// Press dispatches a page-level key press.
func (s *Session) Press(ctx context.Context, key string) error {
	opCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.RunActions(opCtx, chromedp.KeyEvent(chromeKey(key))); err != nil {
		return fmt.Errorf("key press %q failed: %w", key, err)
	}
	return nil
}

// SetDialogPolicy auto-accepts or auto-dismisses JavaScript dialogs. The
// listener installs once; subsequent calls only flip the policy.
func (s *Session) SetDialogPolicy(accept bool) {
	s.dialogAccept.Store(accept)
	if s.dialogPolicySet {
		return
	}
	s.dialogPolicySet = true

	chromedp.ListenTarget(s.ctx, func(ev any) {
		if _, ok := ev.(*page.EventJavascriptDialogOpening); !ok {
			return
		}
		go func() {
			action := page.HandleJavaScriptDialog(s.dialogAccept.Load())
			if err := chromedp.Run(s.ctx, action); err != nil {
				s.logger.Warn("Failed to handle JavaScript dialog.", zap.Error(err))
			}
		}()
	})
}

// WaitNetworkIdle delegates to the harvester's in-flight request tracking.
func (s *Session) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	idleCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.harvester.WaitNetworkIdle(idleCtx)
}

// Screenshot captures the viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.RunActions(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot capture failed: %w", err)
	}
	return buf, nil
}

// Title returns the current document title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.RunActions(ctx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return title, nil
}

// URL returns the current document location.
func (s *Session) URL(ctx context.Context) (string, error) {
	var loc string
	if err := s.RunActions(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return loc, nil
}

// center resolves the viewport center of the first match of selector.
func (s *Session) center(ctx context.Context, selector string) (x, y float64, err error) {
	var pt *struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := s.Evaluate(ctx, buildCenterScript(selector), &pt); err != nil {
		return 0, 0, err
	}
	if pt == nil {
		return 0, 0, fmt.Errorf("no element matches %q", selector)
	}
	return pt.X, pt.Y, nil
}

// dragAndDrop moves the mouse from the source center to the target center with
// button pressed, in a few interpolated steps so drag listeners fire.
func (s *Session) dragAndDrop(ctx context.Context, sourceSel, targetSel string) error {
	sx, sy, err := s.center(ctx, sourceSel)
	if err != nil {
		return fmt.Errorf("drag source: %w", err)
	}
	tx, ty, err := s.center(ctx, targetSel)
	if err != nil {
		return fmt.Errorf("drag target: %w", err)
	}

	const steps = 8
	actions := []chromedp.Action{
		input.DispatchMouseEvent(input.MousePressed, sx, sy).WithButton(input.Left).WithClickCount(1),
	}
	for i := 1; i <= steps; i++ {
		frac := float64(i) / steps
		actions = append(actions,
			input.DispatchMouseEvent(input.MouseMoved, sx+(tx-sx)*frac, sy+(ty-sy)*frac).WithButton(input.Left),
			chromedp.Sleep(15*time.Millisecond),
		)
	}
	actions = append(actions,
		input.DispatchMouseEvent(input.MouseReleased, tx, ty).WithButton(input.Left).WithClickCount(1),
	)
	if err := s.RunActions(ctx, actions...); err != nil {
		return fmt.Errorf("drag gesture failed: %w", err)
	}
	return nil
}

// chromeKey maps friendly key names to the raw values chromedp.KeyEvent expects.
func chromeKey(key string) string {
	switch strings.ToLower(key) {
	case "enter", "return":
		return "\r"
	case "tab":
		return "\t"
	case "backspace":
		return "\b"
	case "escape", "esc":
		return "\u001b"
	case "space":
		return " "
	case "delete":
		return "\u007f"
	}
	return key
}

// CombineContext creates a context canceled when either parent is canceled.
// Operations must respect both the session lifecycle and the caller's deadline.
func CombineContext(parentCtx, secondaryCtx context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(parentCtx)

	go func() {
		select {
		case <-secondaryCtx.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}
