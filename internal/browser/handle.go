// File: internal/browser/handle.go
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// elementHandle is an interactable reference to one pinned element. The
// selector addresses the data-stepright-ref attribute written at query time,
// so it stays valid across attribute churn as long as the node is attached.
type elementHandle struct {
	session  *Session
	selector string
}

var _ Handle = (*elementHandle)(nil)

func (h *elementHandle) Selector() string {
	return h.selector
}

// ready waits for the element to be visible before an interaction. The
// action-readiness timeout comes from configuration; exceeding it is the
// final blocking wait of an interaction and therefore fatal to the action.
func (h *elementHandle) ready(ctx context.Context) error {
	timeout := h.session.cfg.Browser.ActionTimeout
	if err := h.session.WaitForState(ctx, h.selector, StateVisible, timeout); err != nil {
		return fmt.Errorf("element not interactable: %w", err)
	}
	return nil
}

func (h *elementHandle) Click(ctx context.Context) error {
	if err := h.ready(ctx); err != nil {
		return err
	}
	if err := h.session.RunActions(ctx, chromedp.Click(h.selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (h *elementHandle) DoubleClick(ctx context.Context) error {
	if err := h.ready(ctx); err != nil {
		return err
	}
	err := h.session.RunActions(ctx, chromedp.DoubleClick(h.selector, chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("double click failed: %w", err)
	}
	return nil
}

func (h *elementHandle) RightClick(ctx context.Context) error {
	if err := h.ready(ctx); err != nil {
		return err
	}
	x, y, err := h.session.center(ctx, h.selector)
	if err != nil {
		return fmt.Errorf("right click target: %w", err)
	}
	err = h.session.RunActions(ctx, chromedp.MouseClickXY(x, y, chromedp.ButtonRight))
	if err != nil {
		return fmt.Errorf("right click failed: %w", err)
	}
	return nil
}

func (h *elementHandle) Hover(ctx context.Context) error {
	if err := h.ready(ctx); err != nil {
		return err
	}
	x, y, err := h.session.center(ctx, h.selector)
	if err != nil {
		return fmt.Errorf("hover target: %w", err)
	}
	if err := h.session.RunActions(ctx, chromedp.MouseEvent(input.MouseMoved, x, y)); err != nil {
		return fmt.Errorf("hover failed: %w", err)
	}
	return nil
}

func (h *elementHandle) Fill(ctx context.Context, text string) error {
	if err := h.ready(ctx); err != nil {
		return err
	}
	err := h.session.RunActions(ctx,
		chromedp.Clear(h.selector, chromedp.ByQuery),
		chromedp.SendKeys(h.selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

func (h *elementHandle) Clear(ctx context.Context) error {
	if err := h.ready(ctx); err != nil {
		return err
	}
	if err := h.session.RunActions(ctx, chromedp.Clear(h.selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	return nil
}

func (h *elementHandle) Check(ctx context.Context) error {
	return h.setChecked(ctx, true)
}

func (h *elementHandle) Uncheck(ctx context.Context) error {
	return h.setChecked(ctx, false)
}

func (h *elementHandle) setChecked(ctx context.Context, checked bool) error {
	if err := h.ready(ctx); err != nil {
		return err
	}
	var failure string
	if err := h.session.Evaluate(ctx, buildSetCheckedScript(h.selector, checked), &failure); err != nil {
		return fmt.Errorf("toggle failed: %w", err)
	}
	if failure != "" {
		return fmt.Errorf("toggle failed: %s", failure)
	}
	return nil
}

func (h *elementHandle) SelectOption(ctx context.Context, value string) error {
	if err := h.ready(ctx); err != nil {
		return err
	}
	var failure string
	if err := h.session.Evaluate(ctx, buildSelectOptionScript(h.selector, value), &failure); err != nil {
		return fmt.Errorf("select option failed: %w", err)
	}
	if failure != "" {
		return fmt.Errorf("select option failed: %s", failure)
	}
	return nil
}

func (h *elementHandle) DragTo(ctx context.Context, target Handle) error {
	if err := h.ready(ctx); err != nil {
		return err
	}
	return h.session.dragAndDrop(ctx, h.selector, target.Selector())
}

func (h *elementHandle) ScrollIntoView(ctx context.Context) error {
	err := h.session.RunActions(ctx, chromedp.ScrollIntoView(h.selector, chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("scroll into view failed: %w", err)
	}
	return nil
}

// Press focuses the element and dispatches a key press scoped to it.
func (h *elementHandle) Press(ctx context.Context, key string) error {
	if err := h.ready(ctx); err != nil {
		return err
	}
	err := h.session.RunActions(ctx,
		chromedp.Focus(h.selector, chromedp.ByQuery),
		chromedp.KeyEvent(chromeKey(key)),
	)
	if err != nil {
		return fmt.Errorf("key press %q failed: %w", key, err)
	}
	return nil
}

func (h *elementHandle) GetAttribute(ctx context.Context, name string) (string, error) {
	script := fmt.Sprintf(`
        (() => {
            const node = document.querySelector(%s);
            if (!node) return null;
            if (%s === 'value' && node.value !== undefined) return String(node.value);
            return node.getAttribute(%s);
        })()`, jsonEncode(h.selector), jsonEncode(name), jsonEncode(name))
	var value *string
	if err := h.session.Evaluate(ctx, script, &value); err != nil {
		return "", fmt.Errorf("attribute read failed: %w", err)
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

func (h *elementHandle) TextContent(ctx context.Context) (string, error) {
	script := fmt.Sprintf(`
        (() => {
            const node = document.querySelector(%s);
            return node ? (node.innerText || node.textContent || '') : '';
        })()`, jsonEncode(h.selector))
	var text string
	if err := h.session.Evaluate(ctx, script, &text); err != nil {
		return "", fmt.Errorf("text read failed: %w", err)
	}
	return text, nil
}

func (h *elementHandle) CSSValue(ctx context.Context, property string) (string, error) {
	script := fmt.Sprintf(`
        (() => {
            const node = document.querySelector(%s);
            return node ? window.getComputedStyle(node).getPropertyValue(%s) : '';
        })()`, jsonEncode(h.selector), jsonEncode(property))
	var value string
	if err := h.session.Evaluate(ctx, script, &value); err != nil {
		return "", fmt.Errorf("computed style read failed: %w", err)
	}
	return value, nil
}

func (h *elementHandle) IsVisible(ctx context.Context) (bool, error) {
	var visible bool
	if err := h.session.Evaluate(ctx, buildStateScript(h.selector, StateVisible), &visible); err != nil {
		return false, fmt.Errorf("visibility check failed: %w", err)
	}
	return visible, nil
}

func (h *elementHandle) IsEnabled(ctx context.Context) (bool, error) {
	script := fmt.Sprintf(`
        (() => {
            const node = document.querySelector(%s);
            return !!node && !node.disabled;
        })()`, jsonEncode(h.selector))
	var enabled bool
	if err := h.session.Evaluate(ctx, script, &enabled); err != nil {
		return false, fmt.Errorf("enabled check failed: %w", err)
	}
	return enabled, nil
}

func (h *elementHandle) SetUploadFile(ctx context.Context, path string) error {
	if err := h.ready(ctx); err != nil {
		return err
	}
	err := h.session.RunActions(ctx, chromedp.SetUploadFiles(h.selector, []string{path}, chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("file upload failed: %w", err)
	}
	return nil
}
