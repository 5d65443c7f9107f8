// File: internal/resolve/healing_test.go
package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/varekai/stepright/api/schemas"
	"github.com/varekai/stepright/internal/browser"
	"github.com/varekai/stepright/internal/config"
	"github.com/varekai/stepright/internal/observability"
)

func testResolverConfig() config.ResolverConfig {
	return config.NewDefaultConfig().Resolver
}

func descriptorWithFingerprint(fp schemas.Fingerprint) *schemas.ElementDescriptor {
	return &schemas.ElementDescriptor{
		ID:          schemas.Attr("stale"),
		Fingerprint: &fp,
	}
}

func TestHealRequiresFingerprint(t *testing.T) {
	page := new(MockPage)
	h := NewHealer(page, testResolverConfig(), observability.GetLogger())

	_, err := h.Heal(context.Background(), &schemas.ElementDescriptor{ID: schemas.Attr("x")})
	require.ErrorIs(t, err, ErrNoFingerprint)
}

func TestHealLabelStrategyWins(t *testing.T) {
	page := new(MockPage)
	handle := NewMockHandle(`[data-stepright-ref="pin-1"]`)
	d := descriptorWithFingerprint(schemas.Fingerprint{
		Context: schemas.FingerprintContext{NearbyText: "Email address"},
	})

	page.On("QueryByLabel", mock.Anything, "Email address").Return(oneMatch(handle), nil).Once()
	page.On("DescribeElement", mock.Anything, handle.Selector()).
		Return(schemas.LiveAttributes{Selector: "#email"}, nil).Once()

	h := NewHealer(page, testResolverConfig(), observability.GetLogger())
	outcome, err := h.Heal(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, "label", outcome.Strategy)
	assert.Equal(t, "#email", outcome.Selector)
	assert.Same(t, handle, outcome.Handle)
	page.AssertExpectations(t)
}

func TestHealCascadesPastFailedStrategy(t *testing.T) {
	page := new(MockPage)
	handle := NewMockHandle(`[data-stepright-ref="pin-2"]`)
	d := descriptorWithFingerprint(schemas.Fingerprint{
		Attributes: schemas.FingerprintAttributes{Role: "button", AriaLabel: "Save"},
		Context:    schemas.FingerprintContext{NearbyText: "Save changes"},
	})

	// Label misses, semantic finds it via the explicit role expression.
	page.On("QueryByLabel", mock.Anything, "Save changes").Return(noMatch(), nil).Once()
	page.On("QueryByRole", mock.Anything, "button", "Save").Return(oneMatch(handle), nil).Once()
	page.On("Query", mock.Anything, `[role="button"][aria-label="Save"]`).
		Return(browser.QueryResult{Count: 1}, nil).Once()

	h := NewHealer(page, testResolverConfig(), observability.GetLogger())
	outcome, err := h.Heal(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, "semantic", outcome.Strategy)
	assert.Equal(t, `[role="button"][aria-label="Save"]`, outcome.Selector)
	page.AssertExpectations(t)
}

func TestHealSemanticFallsBackToGeneratedPath(t *testing.T) {
	page := new(MockPage)
	handle := NewMockHandle(`[data-stepright-ref="pin-3"]`)
	d := descriptorWithFingerprint(schemas.Fingerprint{
		Attributes: schemas.FingerprintAttributes{Role: "button"},
	})

	// The role was implicit, so the role expression matches nothing directly
	// and the strategy derives the generated path instead.
	page.On("QueryByRole", mock.Anything, "button", "").Return(oneMatch(handle), nil).Once()
	page.On("Query", mock.Anything, `[role="button"]`).Return(noMatch(), nil).Once()
	page.On("DescribeElement", mock.Anything, handle.Selector()).
		Return(schemas.LiveAttributes{Selector: "form > button:nth-of-type(2)"}, nil).Once()

	h := NewHealer(page, testResolverConfig(), observability.GetLogger())
	outcome, err := h.Heal(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, "semantic", outcome.Strategy)
	assert.Equal(t, "form > button:nth-of-type(2)", outcome.Selector)
	page.AssertExpectations(t)
}

func TestHealProximityStrategy(t *testing.T) {
	page := new(MockPage)
	handle := NewMockHandle(`[data-stepright-ref="pin-4"]`)
	d := descriptorWithFingerprint(schemas.Fingerprint{
		Attributes: schemas.FingerprintAttributes{Type: "input"},
		Context:    schemas.FingerprintContext{NearbyText: "Billing address"},
	})

	page.On("QueryByLabel", mock.Anything, "Billing address").Return(noMatch(), nil).Once()
	page.On("QueryProximity", mock.Anything, "input", "Billing address").
		Return(oneMatch(handle), nil).Once()
	page.On("DescribeElement", mock.Anything, handle.Selector()).
		Return(schemas.LiveAttributes{Selector: "#billing input"}, nil).Once()

	h := NewHealer(page, testResolverConfig(), observability.GetLogger())
	outcome, err := h.Heal(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, "proximity", outcome.Strategy)
	assert.Equal(t, "#billing input", outcome.Selector)
	page.AssertExpectations(t)
}

func TestHealFuzzyClassAcceptsBoundedMatches(t *testing.T) {
	page := new(MockPage)
	handle := NewMockHandle(`[data-stepright-ref="pin-5"]`)
	d := descriptorWithFingerprint(schemas.Fingerprint{
		Attributes: schemas.FingerprintAttributes{ClassList: "btn btn-primary submit-order"},
	})

	// First token is too common, second is within bounds.
	page.On("QueryByClass", mock.Anything, "btn").
		Return(browser.QueryResult{Count: 12}, nil).Once()
	page.On("QueryByClass", mock.Anything, "btn-primary").
		Return(browser.QueryResult{Count: 2, Handle: handle}, nil).Once()

	h := NewHealer(page, testResolverConfig(), observability.GetLogger())
	outcome, err := h.Heal(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, "fuzzy_class", outcome.Strategy)
	assert.Equal(t, ".btn-primary", outcome.Selector)
	page.AssertExpectations(t)
	page.AssertNotCalled(t, "QueryByClass", mock.Anything, "submit-order")
}

func TestHealFuzzyClassRejectsAllTokens(t *testing.T) {
	page := new(MockPage)
	d := descriptorWithFingerprint(schemas.Fingerprint{
		Attributes: schemas.FingerprintAttributes{ClassList: "btn wrapper"},
	})

	page.On("QueryByClass", mock.Anything, "btn").
		Return(browser.QueryResult{Count: 40}, nil).Once()
	page.On("QueryByClass", mock.Anything, "wrapper").
		Return(noMatch(), nil).Once()

	h := NewHealer(page, testResolverConfig(), observability.GetLogger())
	_, err := h.Heal(context.Background(), d)

	require.ErrorIs(t, err, ErrAllHealingFailed)
	page.AssertExpectations(t)
}

func TestHealAllStrategiesExhausted(t *testing.T) {
	page := new(MockPage)
	d := descriptorWithFingerprint(schemas.Fingerprint{
		Attributes: schemas.FingerprintAttributes{Role: "textbox", Type: "input", ClassList: "field"},
		Context:    schemas.FingerprintContext{NearbyText: "Phone"},
	})

	page.On("QueryByLabel", mock.Anything, "Phone").Return(noMatch(), nil).Once()
	page.On("QueryByRole", mock.Anything, "textbox", "").Return(noMatch(), nil).Once()
	page.On("QueryProximity", mock.Anything, "input", "Phone").Return(noMatch(), nil).Once()
	page.On("QueryByClass", mock.Anything, "field").Return(noMatch(), nil).Once()

	h := NewHealer(page, testResolverConfig(), observability.GetLogger())
	_, err := h.Heal(context.Background(), d)

	require.ErrorIs(t, err, ErrAllHealingFailed)
	page.AssertExpectations(t)
}

func TestHealStrategyErrorDoesNotStopCascade(t *testing.T) {
	page := new(MockPage)
	handle := NewMockHandle(`[data-stepright-ref="pin-6"]`)
	d := descriptorWithFingerprint(schemas.Fingerprint{
		Attributes: schemas.FingerprintAttributes{ClassList: "cta"},
		Context:    schemas.FingerprintContext{NearbyText: "Continue"},
	})

	page.On("QueryByLabel", mock.Anything, "Continue").
		Return(noMatch(), errors.New("execution context destroyed")).Once()
	page.On("QueryByClass", mock.Anything, "cta").
		Return(oneMatch(handle), nil).Once()

	h := NewHealer(page, testResolverConfig(), observability.GetLogger())
	outcome, err := h.Heal(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, "fuzzy_class", outcome.Strategy)
	page.AssertExpectations(t)
}
