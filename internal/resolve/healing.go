// File: internal/resolve/healing.go
package resolve

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/varekai/stepright/api/schemas"
	"github.com/varekai/stepright/internal/browser"
	"github.com/varekai/stepright/internal/config"
)

// HealOutcome is a successful relocation of a lost element.
type HealOutcome struct {
	Handle browser.Handle
	// Selector is the durable expression the descriptor's selector field is
	// overwritten with; a later standard resolution must succeed on it alone.
	Selector string
	// Strategy names the strategy that won.
	Strategy string
}

// healStrategy is one recovery tactic. Strategies whose required fingerprint
// fields are absent report themselves inapplicable and are skipped without
// counting as failures. attempt returns (nil, nil) for "tried and missed".
type healStrategy struct {
	name       string
	applicable func(fp *schemas.Fingerprint) bool
	attempt    func(ctx context.Context, fp *schemas.Fingerprint) (*HealOutcome, error)
}

// Healer runs the cascaded self-healing strategies in fixed order:
// label, semantic, proximity, fuzzy class. The first to succeed wins.
type Healer struct {
	page       browser.Page
	logger     *zap.Logger
	minMatches int
	maxMatches int
	strategies []healStrategy
}

// NewHealer creates a healing engine bound to one page. The fuzzy-class
// ambiguity bounds come from configuration.
func NewHealer(page browser.Page, cfg config.ResolverConfig, logger *zap.Logger) *Healer {
	h := &Healer{
		page:       page,
		logger:     logger.Named("healer"),
		minMatches: cfg.FuzzyClassMinMatches,
		maxMatches: cfg.FuzzyClassMaxMatches,
	}
	if h.minMatches < 1 {
		h.minMatches = 1
	}
	if h.maxMatches < h.minMatches {
		h.maxMatches = h.minMatches + 2
	}

	h.strategies = []healStrategy{
		{
			name:       "label",
			applicable: func(fp *schemas.Fingerprint) bool { return fp.Context.NearbyText != "" },
			attempt:    h.healByLabel,
		},
		{
			name:       "semantic",
			applicable: func(fp *schemas.Fingerprint) bool { return fp.Attributes.Role != "" },
			attempt:    h.healByRole,
		},
		{
			name: "proximity",
			applicable: func(fp *schemas.Fingerprint) bool {
				return fp.Attributes.Type != "" && fp.Context.NearbyText != ""
			},
			attempt: h.healByProximity,
		},
		{
			name:       "fuzzy_class",
			applicable: func(fp *schemas.Fingerprint) bool { return fp.Attributes.ClassList != "" },
			attempt:    h.healByClassTokens,
		},
	}
	return h
}

// Heal cascades through the strategies. Inapplicable strategies are skipped;
// failing strategies are logged and the chain continues. When no strategy
// succeeds the engine reports ErrAllHealingFailed (wrapped with
// ErrNoFingerprint when there was nothing to work with).
func (h *Healer) Heal(ctx context.Context, d *schemas.ElementDescriptor) (*HealOutcome, error) {
	if !d.HasFingerprint() {
		return nil, ErrNoFingerprint
	}
	fp := d.Fingerprint

	for _, s := range h.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.applicable(fp) {
			h.logger.Debug("Healing strategy skipped: required fingerprint fields absent.",
				zap.String("strategy", s.name))
			continue
		}

		outcome, err := s.attempt(ctx, fp)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			h.logger.Debug("Healing strategy failed.", zap.String("strategy", s.name), zap.Error(err))
			continue
		}
		if outcome != nil {
			outcome.Strategy = s.name
			h.logger.Info("Self-healing succeeded.",
				zap.String("strategy", s.name),
				zap.String("selector", outcome.Selector),
			)
			return outcome, nil
		}
		h.logger.Debug("Healing strategy found nothing.", zap.String("strategy", s.name))
	}
	return nil, ErrAllHealingFailed
}

// durableSelector reads the generated css path of a freshly pinned handle so
// the outcome can be re-resolved by the standard resolver later.
func (h *Healer) durableSelector(ctx context.Context, handle browser.Handle) (string, error) {
	live, err := h.page.DescribeElement(ctx, handle.Selector())
	if err != nil {
		return "", fmt.Errorf("failed to derive durable selector: %w", err)
	}
	if live.Selector == "" {
		return "", fmt.Errorf("healed element produced no durable selector")
	}
	return live.Selector, nil
}

// healByLabel searches for a control associated with a label whose text equals
// the fingerprint's nearby text.
func (h *Healer) healByLabel(ctx context.Context, fp *schemas.Fingerprint) (*HealOutcome, error) {
	res, err := h.page.QueryByLabel(ctx, fp.Context.NearbyText)
	if err != nil {
		return nil, err
	}
	if res.Count == 0 {
		return nil, nil
	}
	selector, err := h.durableSelector(ctx, res.Handle)
	if err != nil {
		return nil, err
	}
	return &HealOutcome{Handle: res.Handle, Selector: selector}, nil
}

// healByRole searches by accessibility role, narrowed by the recorded
// aria-label as accessible name when present.
func (h *Healer) healByRole(ctx context.Context, fp *schemas.Fingerprint) (*HealOutcome, error) {
	res, err := h.page.QueryByRole(ctx, fp.Attributes.Role, fp.Attributes.AriaLabel)
	if err != nil {
		return nil, err
	}
	if res.Count == 0 {
		return nil, nil
	}

	// The role expression itself is durable when the role is explicit in the
	// markup; derive the generated path otherwise.
	selector := fmt.Sprintf(`[role=%q]`, fp.Attributes.Role)
	if fp.Attributes.AriaLabel != "" {
		selector = fmt.Sprintf(`[role=%q][aria-label=%q]`, fp.Attributes.Role, fp.Attributes.AriaLabel)
	}
	if check, err := h.page.Query(ctx, selector); err != nil || check.Count == 0 {
		selector, err = h.durableSelector(ctx, res.Handle)
		if err != nil {
			return nil, err
		}
	}
	return &HealOutcome{Handle: res.Handle, Selector: selector}, nil
}

// healByProximity searches for an element of the recorded tag near a text node
// matching the recorded nearby text. Tag equality is strict.
func (h *Healer) healByProximity(ctx context.Context, fp *schemas.Fingerprint) (*HealOutcome, error) {
	res, err := h.page.QueryProximity(ctx, fp.Attributes.Type, fp.Context.NearbyText)
	if err != nil {
		return nil, err
	}
	if res.Count == 0 {
		return nil, nil
	}
	selector, err := h.durableSelector(ctx, res.Handle)
	if err != nil {
		return nil, err
	}
	return &HealOutcome{Handle: res.Handle, Selector: selector}, nil
}

// healByClassTokens splits the recorded class list on whitespace and tries
// each token in order as a class selector. A token is trusted only when its
// match count falls inside the configured bounds: zero means "not this
// class", more than the maximum is too ambiguous to trust.
func (h *Healer) healByClassTokens(ctx context.Context, fp *schemas.Fingerprint) (*HealOutcome, error) {
	for _, token := range strings.Fields(fp.Attributes.ClassList) {
		res, err := h.page.QueryByClass(ctx, token)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			h.logger.Debug("Class token query failed.", zap.String("class", token), zap.Error(err))
			continue
		}
		if res.Count < h.minMatches || res.Count > h.maxMatches {
			h.logger.Debug("Class token rejected: match count outside accepted bounds.",
				zap.String("class", token),
				zap.Int("count", res.Count),
				zap.Int("min", h.minMatches),
				zap.Int("max", h.maxMatches),
			)
			continue
		}
		return &HealOutcome{Handle: res.Handle, Selector: "." + token}, nil
	}
	return nil, nil
}
