// File: internal/resolve/mocks_test.go
package resolve

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/varekai/stepright/api/schemas"
	"github.com/varekai/stepright/internal/browser"
)

// -- Page Mock --

// MockPage mocks the browser.Page capability used by the resolution pipeline.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockPage) Query(ctx context.Context, selector string) (browser.QueryResult, error) {
	args := m.Called(ctx, selector)
	return args.Get(0).(browser.QueryResult), args.Error(1)
}

func (m *MockPage) QueryByLabel(ctx context.Context, text string) (browser.QueryResult, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(browser.QueryResult), args.Error(1)
}

func (m *MockPage) QueryByRole(ctx context.Context, role, accessibleName string) (browser.QueryResult, error) {
	args := m.Called(ctx, role, accessibleName)
	return args.Get(0).(browser.QueryResult), args.Error(1)
}

func (m *MockPage) QueryProximity(ctx context.Context, tag, nearbyText string) (browser.QueryResult, error) {
	args := m.Called(ctx, tag, nearbyText)
	return args.Get(0).(browser.QueryResult), args.Error(1)
}

func (m *MockPage) QueryByClass(ctx context.Context, classToken string) (browser.QueryResult, error) {
	args := m.Called(ctx, classToken)
	return args.Get(0).(browser.QueryResult), args.Error(1)
}

func (m *MockPage) DescribeElement(ctx context.Context, selector string) (schemas.LiveAttributes, error) {
	args := m.Called(ctx, selector)
	return args.Get(0).(schemas.LiveAttributes), args.Error(1)
}

func (m *MockPage) WaitForState(ctx context.Context, selector string, state browser.ElementState, timeout time.Duration) error {
	args := m.Called(ctx, selector, state, timeout)
	return args.Error(0)
}

func (m *MockPage) Evaluate(ctx context.Context, script string, out any) error {
	args := m.Called(ctx, script, out)
	return args.Error(0)
}

func (m *MockPage) Press(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockPage) SetDialogPolicy(accept bool) {
	m.Called(accept)
}

func (m *MockPage) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	args := m.Called(ctx, timeout)
	return args.Error(0)
}

func (m *MockPage) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPage) Title(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockPage) URL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// -- Handle Mock --

// MockHandle mocks a pinned element handle.
type MockHandle struct {
	mock.Mock
	selector string
}

// NewMockHandle creates a handle reporting the given pinned selector.
func NewMockHandle(selector string) *MockHandle {
	return &MockHandle{selector: selector}
}

func (m *MockHandle) Selector() string { return m.selector }

func (m *MockHandle) Click(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHandle) DoubleClick(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHandle) RightClick(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHandle) Hover(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHandle) Fill(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}

func (m *MockHandle) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHandle) Check(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHandle) Uncheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHandle) SelectOption(ctx context.Context, value string) error {
	return m.Called(ctx, value).Error(0)
}

func (m *MockHandle) DragTo(ctx context.Context, target browser.Handle) error {
	return m.Called(ctx, target).Error(0)
}

func (m *MockHandle) ScrollIntoView(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

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
