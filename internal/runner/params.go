// File: internal/runner/params.go
package runner

import (
	"fmt"
	"regexp"
)

// quotedLiteralRe extracts double-quoted literals from a step instruction.
// Empty quotes are a valid (empty) parameter.
var quotedLiteralRe = regexp.MustCompile(`"([^"]*)"`)

// ParamCursor walks the positional quoted literals of one step instruction.
// The cursor is scoped to the whole step: every parameter-consuming action in
// the step advances the same cursor by exactly one, so two sequential text
// entries consume the first and second literals respectively.
type ParamCursor struct {
	literals []string
	next     int
}

// NewParamCursor extracts the quoted literals from the instruction in order.
func NewParamCursor(instruction string) *ParamCursor {
	matches := quotedLiteralRe.FindAllStringSubmatch(instruction, -1)
	literals := make([]string, 0, len(matches))
	for _, m := range matches {
		literals = append(literals, m[1])
	}
	return &ParamCursor{literals: literals}
}

// Remaining reports how many literals have not been consumed yet.
func (c *ParamCursor) Remaining() int {
	return len(c.literals) - c.next
}

// Next consumes and returns the next positional literal.
func (c *ParamCursor) Next() (string, error) {
	if c.next >= len(c.literals) {
		return "", fmt.Errorf("%w: instruction holds %d quoted literal(s), parameter %d requested",
			ErrMissingInput, len(c.literals), c.next+1)
	}
	v := c.literals[c.next]
	c.next++
	return v, nil
}
