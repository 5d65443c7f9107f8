// File: internal/runner/mocks_test.go
package runner

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/varekai/stepright/api/schemas"
	"github.com/varekai/stepright/internal/browser"
	"github.com/varekai/stepright/internal/resolve"
)

// -- Browsing Context Mock --

// MockBrowsingContext mocks the browser.BrowsingContext the sequencer drives.
type MockBrowsingContext struct {
	mock.Mock
}

func (m *MockBrowsingContext) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockBrowsingContext) Query(ctx context.Context, selector string) (browser.QueryResult, error) {
	args := m.Called(ctx, selector)
	return args.Get(0).(browser.QueryResult), args.Error(1)
}

func (m *MockBrowsingContext) QueryByLabel(ctx context.Context, text string) (browser.QueryResult, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(browser.QueryResult), args.Error(1)
}

func (m *MockBrowsingContext) QueryByRole(ctx context.Context, role, accessibleName string) (browser.QueryResult, error) {
	args := m.Called(ctx, role, accessibleName)
	return args.Get(0).(browser.QueryResult), args.Error(1)
}

func (m *MockBrowsingContext) QueryProximity(ctx context.Context, tag, nearbyText string) (browser.QueryResult, error) {
	args := m.Called(ctx, tag, nearbyText)
	return args.Get(0).(browser.QueryResult), args.Error(1)
}

func (m *MockBrowsingContext) QueryByClass(ctx context.Context, classToken string) (browser.QueryResult, error) {
	args := m.Called(ctx, classToken)
	return args.Get(0).(browser.QueryResult), args.Error(1)
}

func (m *MockBrowsingContext) DescribeElement(ctx context.Context, selector string) (schemas.LiveAttributes, error) {
	args := m.Called(ctx, selector)
	return args.Get(0).(schemas.LiveAttributes), args.Error(1)
}

func (m *MockBrowsingContext) WaitForState(ctx context.Context, selector string, state browser.ElementState, timeout time.Duration) error {
	return m.Called(ctx, selector, state, timeout).Error(0)
}

func (m *MockBrowsingContext) Evaluate(ctx context.Context, script string, out any) error {
	return m.Called(ctx, script, out).Error(0)
}

func (m *MockBrowsingContext) Press(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockBrowsingContext) SetDialogPolicy(accept bool) {
	m.Called(accept)
}

func (m *MockBrowsingContext) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	return m.Called(ctx, timeout).Error(0)
}

func (m *MockBrowsingContext) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBrowsingContext) Title(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockBrowsingContext) URL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockBrowsingContext) SwitchWindowByIndex(ctx context.Context, index int) error {
	return m.Called(ctx, index).Error(0)
}

func (m *MockBrowsingContext) SwitchWindowByTitle(ctx context.Context, titleFragment string) error {
	return m.Called(ctx, titleFragment).Error(0)
}

func (m *MockBrowsingContext) TriggerAndSwitch(ctx context.Context, timeout time.Duration, trigger func(context.Context) error) error {
	args := m.Called(ctx, timeout, trigger)
	if err := args.Error(0); err != nil {
		return err
	}
	// Run the trigger so the click behind the popup is exercised.
	return trigger(ctx)
}

func (m *MockBrowsingContext) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// -- Element Resolver Mock --

// MockResolver mocks the resolution pipeline the sequencer depends on.
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, d *schemas.ElementDescriptor) (*resolve.Result, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resolve.Result), args.Error(1)
}

// -- Handle Mock --

// MockHandle mocks a pinned element handle.
type MockHandle struct {
	mock.Mock
	selector string
}

func NewMockHandle(selector string) *MockHandle {
	return &MockHandle{selector: selector}
}

func (m *MockHandle) Selector() string { return m.selector }

func (m *MockHandle) Click(ctx context.Context) error       { return m.Called(ctx).Error(0) }
func (m *MockHandle) DoubleClick(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockHandle) RightClick(ctx context.Context) error  { return m.Called(ctx).Error(0) }
func (m *MockHandle) Hover(ctx context.Context) error       { return m.Called(ctx).Error(0) }

func (m *MockHandle) Fill(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

func (m *MockHandle) Clear(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *MockHandle) Check(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *MockHandle) Uncheck(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockHandle) SelectOption(ctx context.Context, value string) error {
	return m.Called(ctx, value).Error(0)
}

func (m *MockHandle) DragTo(ctx context.Context, target browser.Handle) error {
	return m.Called(ctx, target).Error(0)
}

func (m *MockHandle) ScrollIntoView(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockHandle) Press(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockHandle) GetAttribute(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockHandle) TextContent(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockHandle) CSSValue(ctx context.Context, property string) (string, error) {
	args := m.Called(ctx, property)
	return args.String(0), args.Error(1)
}

func (m *MockHandle) IsVisible(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockHandle) IsEnabled(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockHandle) SetUploadFile(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}
