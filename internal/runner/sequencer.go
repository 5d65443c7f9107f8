// File: internal/runner/sequencer.go
package runner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/varekai/stepright/api/schemas"
	"github.com/varekai/stepright/internal/browser"
	"github.com/varekai/stepright/internal/config"
	"github.com/varekai/stepright/internal/resolve"
)

// ElementResolver locates the element behind a descriptor, healing it when the
// standard strategies miss.
type ElementResolver interface {
	Resolve(ctx context.Context, d *schemas.ElementDescriptor) (*resolve.Result, error)
}

// ScreenshotSink persists one captured screenshot. Optional.
type ScreenshotSink func(name string, png []byte) error

// handlerFunc executes one action against the live page.
type handlerFunc func(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error

// Sequencer executes the actions of one step strictly in order, fail-fast.
// It owns the step-scoped positional parameter cursor and the explicit
// kind-to-handler registry.
type Sequencer struct {
	bc          browser.BrowsingContext
	resolver    ElementResolver
	cfg         *config.Config
	dates       *Dates
	logger      *zap.Logger
	handlers    map[schemas.ActionKind]handlerFunc
	screenshots ScreenshotSink
}

// stepExec is the mutable state of one step run.
type stepExec struct {
	params  *ParamCursor
	baseURL string
	// healed records whether any descriptor of the current action was healed.
	healed bool
}

// NewSequencer builds a sequencer bound to one browsing context.
func NewSequencer(bc browser.BrowsingContext, resolver ElementResolver, cfg *config.Config, logger *zap.Logger) *Sequencer {
	s := &Sequencer{
		bc:       bc,
		resolver: resolver,
		cfg:      cfg,
		dates:    NewDates(cfg.Runner.DateFormat, nil),
		logger:   logger.Named("sequencer"),
	}
	s.handlers = map[schemas.ActionKind]handlerFunc{
		schemas.ActionNavigate:      s.doNavigate,
		schemas.ActionClick:         s.doClick,
		schemas.ActionDoubleClick:   s.doDoubleClick,
		schemas.ActionRightClick:    s.doRightClick,
		schemas.ActionHover:         s.doHover,
		schemas.ActionDragAndDrop:   s.doDragAndDrop,
		schemas.ActionType:          s.doType,
		schemas.ActionClear:         s.doClear,
		schemas.ActionCheck:         s.doCheck,
		schemas.ActionUncheck:       s.doUncheck,
		schemas.ActionPressKey:      s.doPressKey,
		schemas.ActionSelectOption:  s.doSelectOption,
		schemas.ActionFillDate:      s.doFillDate,
		schemas.ActionUploadFile:    s.doUploadFile,
		schemas.ActionAssertText:    s.doAssertText,
		schemas.ActionAssertVisible: s.doAssertVisible,
		schemas.ActionAssertHidden:  s.doAssertHidden,
		schemas.ActionAssertAttr:    s.doAssertAttribute,
		schemas.ActionAssertCSS:     s.doAssertCSS,
		schemas.ActionScreenshot:    s.doScreenshot,
		schemas.ActionExecuteScript: s.doExecuteScript,
		schemas.ActionAcceptDialogs: s.doAcceptDialogs,
		schemas.ActionDismissDialog: s.doDismissDialogs,
		schemas.ActionWaitNetIdle:   s.doWaitNetworkIdle,
		schemas.ActionSwitchWindow:  s.doSwitchWindow,
		schemas.ActionClickSwitch:   s.doClickAndSwitch,
	}
	return s
}

// SetScreenshotSink registers a consumer for screenshot captures.
func (s *Sequencer) SetScreenshotSink(sink ScreenshotSink) { s.screenshots = sink }

// RunStep executes every action of the step in order. The first action error
// aborts the remaining actions; an unknown kind is logged and skipped without
// aborting. The returned result always covers the actions that ran.
func (s *Sequencer) RunStep(ctx context.Context, step *schemas.StepDescriptor, baseURL string) schemas.StepResult {
	result := schemas.StepResult{Instruction: step.Instruction, Passed: true}
	ex := &stepExec{
		params:  NewParamCursor(step.Instruction),
		baseURL: baseURL,
	}

	for i := range step.Actions {
		a := &step.Actions[i]
		handler, known := s.handlers[a.Kind]
		if !known {
			s.logger.Warn("Unknown action kind, skipping.",
				zap.String("kind", string(a.Kind)),
				zap.Int("position", a.Position),
			)
			continue
		}

		ex.healed = false
		started := time.Now()
		err := s.runAction(ctx, handler, ex, a)
		ar := schemas.ActionResult{
			Position:    a.Position,
			Kind:        a.Kind,
			Description: a.Description,
			Passed:      err == nil,
			Healed:      ex.healed,
			Duration:    time.Since(started),
		}
		if err != nil {
			ar.Error = err.Error()
			result.Actions = append(result.Actions, ar)
			result.Passed = false
			s.logger.Error("Action failed, aborting remaining actions of the step.",
				zap.String("kind", string(a.Kind)),
				zap.Int("position", a.Position),
				zap.Error(err),
			)
			break
		}
		result.Actions = append(result.Actions, ar)
	}
	return result
}

func (s *Sequencer) runAction(ctx context.Context, handler handlerFunc, ex *stepExec, a *schemas.ActionDescriptor) error {
	actx, cancel := context.WithTimeout(ctx, s.cfg.Browser.ActionTimeout)
	defer cancel()

	s.logger.Debug("Executing action.",
		zap.String("kind", string(a.Kind)),
		zap.Int("position", a.Position),
	)
	return handler(actx, ex, a)
}

// value substitutes the next positional literal when the action's value is the
// runtime-parameter sentinel, advancing the shared step cursor by one.
func (ex *stepExec) value(a *schemas.ActionDescriptor) (string, error) {
	if a.Value == schemas.ParamSentinel {
		return ex.params.Next()
	}
	return a.Value, nil
}

// resolveElement resolves the action's primary descriptor and records whether
// healing was involved.
func (s *Sequencer) resolveElement(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) (browser.Handle, error) {
	if a.Element == nil {
		return nil, missingInput(a.Kind, "an element descriptor")
	}
	res, err := s.resolver.Resolve(ctx, a.Element)
	if err != nil {
		return nil, err
	}
	if res.Healed {
		ex.healed = true
	}
	return res.Handle, nil
}

// -- navigation --

func (s *Sequencer) doNavigate(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	raw, err := ex.value(a)
	if err != nil {
		return err
	}
	if raw == "" {
		return missingInput(a.Kind, "a url value")
	}
	target, err := resolveURL(ex.baseURL, raw)
	if err != nil {
		return fmt.Errorf("invalid navigation url %q: %w", raw, err)
	}
	return s.bc.Navigate(ctx, target)
}

// resolveURL joins base-relative urls against the scenario base when one is
// configured; absolute urls pass through untouched.
func resolveURL(base, raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.IsAbs() || base == "" {
		return raw, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(u).String(), nil
}

// -- pointer interactions --

func (s *Sequencer) doClick(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	return h.Click(ctx)
}

func (s *Sequencer) doDoubleClick(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	return h.DoubleClick(ctx)
}

func (s *Sequencer) doRightClick(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	return h.RightClick(ctx)
}

func (s *Sequencer) doHover(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	return h.Hover(ctx)
}

func (s *Sequencer) doDragAndDrop(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	if a.Target == nil {
		return missingInput(a.Kind, "a target descriptor")
	}
	src, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	dstRes, err := s.resolver.Resolve(ctx, a.Target)
	if err != nil {
		return err
	}
	if dstRes.Healed {
		ex.healed = true
	}
	return src.DragTo(ctx, dstRes.Handle)
}

// -- text entry --

func (s *Sequencer) doType(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	text, err := ex.value(a)
	if err != nil {
		return err
	}
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	return h.Fill(ctx, s.dates.Resolve(text))
}

func (s *Sequencer) doClear(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	return h.Clear(ctx)
}

// -- toggles --

func (s *Sequencer) doCheck(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	return h.Check(ctx)
}

func (s *Sequencer) doUncheck(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	return h.Uncheck(ctx)
}

// -- keyboard --

func (s *Sequencer) doPressKey(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	key, err := ex.value(a)
	if err != nil {
		return err
	}
	if key == "" {
		return missingInput(a.Kind, "a key name")
	}
	// No descriptor means a page-global key press.
	if a.Element == nil {
		return s.bc.Press(ctx, key)
	}
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	return h.Press(ctx, key)
}

// -- selection --

func (s *Sequencer) doSelectOption(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	option, err := ex.value(a)
	if err != nil {
		return err
	}
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	return h.SelectOption(ctx, option)
}

func (s *Sequencer) doFillDate(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	raw, err := ex.value(a)
	if err != nil {
		return err
	}
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	return h.Fill(ctx, s.dates.Resolve(raw))
}

func (s *Sequencer) doUploadFile(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	path, err := ex.value(a)
	if err != nil {
		return err
	}
	if path == "" {
		return missingInput(a.Kind, "a file path")
	}
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	return h.SetUploadFile(ctx, path)
}

// -- assertions --

func (s *Sequencer) doAssertText(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	expected, err := ex.value(a)
	if err != nil {
		return err
	}
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	actual, err := h.TextContent(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(actual, expected) {
		return fmt.Errorf("%w: text %q not found in %q", ErrAssertionFailed, expected, actual)
	}
	return nil
}

func (s *Sequencer) doAssertVisible(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	visible, err := h.IsVisible(ctx)
	if err != nil {
		return err
	}
	if !visible {
		return fmt.Errorf("%w: element %q is not visible", ErrAssertionFailed, h.Selector())
	}
	return nil
}

func (s *Sequencer) doAssertHidden(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		// An element that cannot be located at all satisfies "hidden".
		if errors.Is(err, resolve.ErrNotFound) {
			return nil
		}
		return err
	}
	visible, err := h.IsVisible(ctx)
	if err != nil {
		return err
	}
	if visible {
		return fmt.Errorf("%w: element %q is visible", ErrAssertionFailed, h.Selector())
	}
	return nil
}

func (s *Sequencer) doAssertAttribute(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	name, expected, ok := strings.Cut(a.Value, "=")
	if !ok || name == "" {
		return missingInput(a.Kind, `a value of the form "attribute=expected"`)
	}
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	actual, err := h.GetAttribute(ctx, name)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("%w: attribute %q is %q, expected %q", ErrAssertionFailed, name, actual, expected)
	}
	return nil
}

func (s *Sequencer) doAssertCSS(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	property, expected, ok := strings.Cut(a.Value, "=")
	if !ok || property == "" {
		return missingInput(a.Kind, `a value of the form "property=expected"`)
	}
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	actual, err := h.CSSValue(ctx, property)
	if err != nil {
		return err
	}
	if !strings.Contains(actual, expected) {
		return fmt.Errorf("%w: css %q is %q, expected it to contain %q",
			ErrAssertionFailed, property, actual, expected)
	}
	return nil
}

// -- page-level actions --

func (s *Sequencer) doScreenshot(ctx context.Context, _ *stepExec, a *schemas.ActionDescriptor) error {
	png, err := s.bc.Screenshot(ctx)
	if err != nil {
		return err
	}
	name := a.Value
	if name == "" {
		name = fmt.Sprintf("action-%d-%d.png", a.Position, time.Now().UnixMilli())
	}
	if s.screenshots == nil {
		s.logger.Info("Screenshot captured, no sink registered.",
			zap.String("name", name),
			zap.Int("bytes", len(png)),
		)
		return nil
	}
	return s.screenshots(name, png)
}

func (s *Sequencer) doExecuteScript(ctx context.Context, _ *stepExec, a *schemas.ActionDescriptor) error {
	if a.Value == "" {
		return missingInput(a.Kind, "a script")
	}
	return s.bc.Evaluate(ctx, a.Value, nil)
}

func (s *Sequencer) doAcceptDialogs(_ context.Context, _ *stepExec, _ *schemas.ActionDescriptor) error {
	s.bc.SetDialogPolicy(true)
	return nil
}

func (s *Sequencer) doDismissDialogs(_ context.Context, _ *stepExec, _ *schemas.ActionDescriptor) error {
	s.bc.SetDialogPolicy(false)
	return nil
}

func (s *Sequencer) doWaitNetworkIdle(ctx context.Context, _ *stepExec, _ *schemas.ActionDescriptor) error {
	err := s.bc.WaitNetworkIdle(ctx, s.cfg.Browser.ActionTimeout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// Explicit stabilization waits tolerate a timeout.
			s.logger.Warn("Network did not reach idle within the bounded wait, continuing.")
			return nil
		}
		return err
	}
	return nil
}

// -- windows --

func (s *Sequencer) doSwitchWindow(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	target, err := ex.value(a)
	if err != nil {
		return err
	}
	if target == "" {
		return missingInput(a.Kind, "a window index or title fragment")
	}
	if idx, err := strconv.Atoi(target); err == nil {
		return s.bc.SwitchWindowByIndex(ctx, idx)
	}
	return s.bc.SwitchWindowByTitle(ctx, target)
}

func (s *Sequencer) doClickAndSwitch(ctx context.Context, ex *stepExec, a *schemas.ActionDescriptor) error {
	h, err := s.resolveElement(ctx, ex, a)
	if err != nil {
		return err
	}
	return s.bc.TriggerAndSwitch(ctx, s.cfg.Browser.ActionTimeout, func(tctx context.Context) error {
		return h.Click(tctx)
	})
}
