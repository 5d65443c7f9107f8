// File: internal/resolve/standard.go
package resolve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/varekai/stepright/api/schemas"
	"github.com/varekai/stepright/internal/browser"
)

// candidate is one query expression derived from a descriptor field.
type candidate struct {
	source string // descriptor field the expression came from
	expr   string
}

// Match is a successful standard resolution.
type Match struct {
	Handle browser.Handle
	// Source names the descriptor field that produced the winning candidate.
	Source string
	// Expr is the query expression that matched.
	Expr string
	// Count is the match count the winning expression produced.
	Count int
}

// StandardResolver tries query candidates derived from a descriptor's
// non-absent fields in fixed priority order.
type StandardResolver struct {
	page   browser.Page
	logger *zap.Logger
}

// NewStandardResolver creates a resolver bound to one page.
func NewStandardResolver(page browser.Page, logger *zap.Logger) *StandardResolver {
	return &StandardResolver{
		page:   page,
		logger: logger.Named("standard_resolver"),
	}
}

// candidates builds the ordered candidate list from non-absent fields only.
// The priority is fixed: id, name, css selector, selector, xpath, text,
// placeholder, then data-test-id under its two attribute-name variants.
func candidates(d *schemas.ElementDescriptor) []candidate {
	var out []candidate
	if d.ID != nil {
		out = append(out, candidate{source: "id", expr: "#" + *d.ID})
	}
	if d.Name != nil {
		out = append(out, candidate{source: "name", expr: fmt.Sprintf(`[name=%q]`, *d.Name)})
	}
	if d.CSSSelector != nil {
		out = append(out, candidate{source: "cssSelector", expr: *d.CSSSelector})
	}
	if d.Selector != nil {
		out = append(out, candidate{source: "selector", expr: *d.Selector})
	}
	if d.XPath != nil {
		out = append(out, candidate{source: "xpath", expr: *d.XPath})
	}
	if d.Text != nil {
		out = append(out, candidate{source: "text", expr: fmt.Sprintf(`//*[normalize-space(text())=%q]`, *d.Text)})
	}
	if d.Placeholder != nil {
		out = append(out, candidate{source: "placeholder", expr: fmt.Sprintf(`[placeholder=%q]`, *d.Placeholder)})
	}
	if d.DataTestID != nil {
		out = append(out,
			candidate{source: "dataTestId", expr: fmt.Sprintf(`[data-test-id=%q]`, *d.DataTestID)},
			candidate{source: "dataTestId", expr: fmt.Sprintf(`[data-testid=%q]`, *d.DataTestID)},
		)
	}
	return out
}

// Resolve walks the candidate list in order and accepts the first expression
// whose match count is greater than zero. A malformed or unsupported
// expression fails only that candidate; the loop continues. Exhausting all
// candidates returns (nil, nil): "not found" is a result here, not an error.
// A non-nil error is returned only when the page itself became unusable.
func (r *StandardResolver) Resolve(ctx context.Context, d *schemas.ElementDescriptor) (*Match, error) {
	for _, c := range candidates(d) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := r.page.Query(ctx, c.expr)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Malformed candidate expressions are expected with captured
			// descriptors; log and move on.
			r.logger.Debug("Candidate query failed.",
				zap.String("source", c.source),
				zap.String("expr", c.expr),
				zap.Error(err),
			)
			continue
		}
		if res.Count > 0 {
			r.logger.Debug("Candidate matched.",
				zap.String("source", c.source),
				zap.String("expr", c.expr),
				zap.Int("count", res.Count),
			)
			return &Match{Handle: res.Handle, Source: c.source, Expr: c.expr, Count: res.Count}, nil
		}
	}
	return nil, nil
}
