// File: internal/browser/interface.go
package browser

import (
	"context"
	"errors"
	"time"

	"github.com/varekai/stepright/api/schemas"
)

// ElementState names the attachment states WaitForState can wait on.
type ElementState string

const (
	StateAttached ElementState = "attached"
	StateVisible  ElementState = "visible"
	StateHidden   ElementState = "hidden"
)

// ErrNoSuchWindow is returned when a window switch finds no matching target.
var ErrNoSuchWindow = errors.New("no matching window")

// QueryResult is the outcome of a locate call: how many elements matched and a
// handle on the first match. Handle is nil when Count is zero.
type QueryResult struct {
	Count  int
	Handle Handle
}

// Page is the live-page capability the resolver and sequencer are written
// against. Implementations own exactly one browser tab. Every method that
// crosses into the page is a suspension point and honors ctx.
type Page interface {
	// Navigate loads a URL and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// Query locates elements by CSS selector or XPath (auto-detected). A
	// malformed expression is reported as an error, zero matches is not.
	Query(ctx context.Context, selector string) (QueryResult, error)

	// QueryByLabel locates a form control associated with a <label> whose
	// visible text equals the given text.
	QueryByLabel(ctx context.Context, text string) (QueryResult, error)

	// QueryByRole locates elements by accessibility role, narrowed by
	// accessible name when accessibleName is non-empty.
	QueryByRole(ctx context.Context, role, accessibleName string) (QueryResult, error)

	// QueryProximity locates an element with the given tag name nearest in the
	// DOM to a text node containing nearbyText.
	QueryProximity(ctx context.Context, tag, nearbyText string) (QueryResult, error)

	// QueryByClass counts elements carrying a single class token and pins the
	// first. The fuzzy-class heal applies its ambiguity bounds to the count.
	QueryByClass(ctx context.Context, classToken string) (QueryResult, error)

	// DescribeElement reads the full identifying attribute set of the element
	// matching selector, including freshly generated css/xpath expressions.
	DescribeElement(ctx context.Context, selector string) (schemas.LiveAttributes, error)

	// WaitForState waits up to timeout for the first element matching selector
	// to reach the given state. Exceeding the timeout returns an error wrapping
	// context.DeadlineExceeded; callers decide whether that is fatal.
	WaitForState(ctx context.Context, selector string, state ElementState, timeout time.Duration) error

	// Evaluate runs a JavaScript expression on the page, unmarshaling the
	// result into out when out is non-nil.
	Evaluate(ctx context.Context, script string, out any) error

	// Press dispatches a keyboard key press at page level.
	Press(ctx context.Context, key string) error

	// SetDialogPolicy auto-accepts (true) or auto-dismisses (false) JavaScript
	// dialogs opened after the call.
	SetDialogPolicy(accept bool)

	// WaitNetworkIdle blocks until no request has been in flight for the
	// configured quiet period, or ctx/timeout expires.
	WaitNetworkIdle(ctx context.Context, timeout time.Duration) error

	// Screenshot captures the viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// Title returns the current document title.
	Title(ctx context.Context) (string, error)

	// URL returns the current document location.
	URL(ctx context.Context) (string, error)
}

// Handle is an interactable reference to one located element. Implementations
// pin the element with a stable generated selector, so a handle stays usable
// as long as the element remains attached.
type Handle interface {
	// Selector returns the stable selector this handle is pinned by.
	Selector() string

	Click(ctx context.Context) error
	DoubleClick(ctx context.Context) error
	RightClick(ctx context.Context) error
	Hover(ctx context.Context) error
	Fill(ctx context.Context, text string) error
	Clear(ctx context.Context) error
	Check(ctx context.Context) error
	Uncheck(ctx context.Context) error
	SelectOption(ctx context.Context, value string) error
	DragTo(ctx context.Context, target Handle) error
	ScrollIntoView(ctx context.Context) error
	Press(ctx context.Context, key string) error
	GetAttribute(ctx context.Context, name string) (string, error)
	TextContent(ctx context.Context) (string, error)
	CSSValue(ctx context.Context, property string) (string, error)
	IsVisible(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	SetUploadFile(ctx context.Context, path string) error
}

// BrowsingContext is one scenario's isolated browser context: a Page for the
// active window plus window management across the targets the scenario opens.
type BrowsingContext interface {
	Page

	// SwitchWindowByIndex activates the window with the given zero-based index,
	// in creation order.
	SwitchWindowByIndex(ctx context.Context, index int) error

	// SwitchWindowByTitle activates the first window whose title contains the
	// given fragment.
	SwitchWindowByTitle(ctx context.Context, titleFragment string) error

	// TriggerAndSwitch runs trigger (typically a click) and switches to the
	// window it opened, waiting up to timeout for the new target.
	TriggerAndSwitch(ctx context.Context, timeout time.Duration, trigger func(context.Context) error) error

	// Close tears down every window of the context.
	Close(ctx context.Context) error
}
