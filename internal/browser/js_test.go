// File: internal/browser/js_test.go
package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefSelector(t *testing.T) {
	assert.Equal(t, `[data-stepright-ref="abc-123"]`, refSelector("abc-123"))
}

func TestJSONEncodeEscapesInjectionAttempts(t *testing.T) {
	assert.Equal(t, `"plain"`, jsonEncode("plain"))
	assert.Equal(t, `"with \"quotes\""`, jsonEncode(`with "quotes"`))

	// A hostile selector must stay inside the string literal.
	encoded := jsonEncode(`'); alert(1); ('`)
	assert.True(t, strings.HasPrefix(encoded, `"`))
	assert.True(t, strings.HasSuffix(encoded, `"`))
	assert.NotContains(t, encoded, `');`)
}

func TestBuildQueryScriptEmbedsArguments(t *testing.T) {
	script := buildQueryScript("#login", "tok-1")

	assert.Contains(t, script, `"#login"`)
	assert.Contains(t, script, `"tok-1"`)
	assert.Contains(t, script, "collect(")
	assert.Contains(t, script, refAttr)
}

func TestBuildRoleQueryScriptWithAndWithoutName(t *testing.T) {
	withName := buildRoleQueryScript("button", "Save", "tok")
	assert.Contains(t, withName, `"button"`)
	assert.Contains(t, withName, `"Save"`)
	assert.Contains(t, withName, "accessibleName(")

	noName := buildRoleQueryScript("textbox", "", "tok")
	assert.Contains(t, noName, `""`)
}

func TestBuildProximityQueryScript(t *testing.T) {
	script := buildProximityQueryScript("input", "Billing address", "tok")

	assert.Contains(t, script, `"input"`)
	assert.Contains(t, script, `"Billing address"`)
	assert.Contains(t, script, "createTreeWalker")
}

func TestBuildStateScriptPredicates(t *testing.T) {
	assert.Contains(t, buildStateScript("#x", StateVisible), "visible(matches[0])")
	assert.Contains(t, buildStateScript("#x", StateHidden), "matches.length === 0 || !visible(matches[0])")
	assert.Contains(t, buildStateScript("#x", StateAttached), "matches.length > 0")

	// A malformed expression is treated as no match, not a thrown error.
	assert.Contains(t, buildStateScript(":::", StateAttached), "catch (e)")
}

func TestBuildDescribeScriptCoversAttributeSet(t *testing.T) {
	script := buildDescribeScript("#login")

	for _, field := range []string{
		"tagType", "id", "name", "selector", "cssSelector", "xpath", "text",
		"placeholder", "dataTestId", "ariaLabel", "role", "title", "alt",
		"className", "value", "href", "src",
	} {
		assert.Contains(t, script, field+":", "describe script must emit %q", field)
	}
}

func TestBuildSetCheckedScriptTransitionOnly(t *testing.T) {
	check := buildSetCheckedScript("#agree", true)
	assert.Contains(t, check, "node.checked !== true")

	uncheck := buildSetCheckedScript("#agree", false)
	assert.Contains(t, uncheck, "node.checked !== false")
}

func TestChromeKeyMapping(t *testing.T) {
	assert.Equal(t, "\r", chromeKey("Enter"))
	assert.Equal(t, "\r", chromeKey("enter"))
	assert.Equal(t, "\t", chromeKey("Tab"))
	// Unmapped names pass through for literal key input.
	assert.Equal(t, "a", chromeKey("a"))
}
