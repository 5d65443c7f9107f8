// File: internal/resolve/orchestrator.go
package resolve

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/varekai/stepright/api/schemas"
	"github.com/varekai/stepright/internal/browser"
	"github.com/varekai/stepright/internal/config"
)

// Result is the outcome of one resolution. The descriptor is mutated in place
// as well (selector update, Healed flag, attribute refresh); Result carries the
// same facts explicitly so callers never have to diff the descriptor.
type Result struct {
	Handle browser.Handle
	// ResolvedSelector is the expression the element was ultimately found by.
	ResolvedSelector string
	// Healed reports whether a self-healing strategy relocated the element.
	Healed bool
	// Report is populated only when Healed is true.
	Report *schemas.HealingReport
}

// ReportSink receives healing reports as they are produced. Optional.
type ReportSink func(schemas.HealingReport)

// Resolver is the resolution orchestrator: advisory wait, standard resolution,
// then the self-healing cascade, plus descriptor refresh and heal reporting.
type Resolver struct {
	page     browser.Page
	standard *StandardResolver
	healer   *Healer
	logger   *zap.Logger
	advisory time.Duration
	sink     ReportSink
}

// NewResolver wires the full pipeline against one page.
func NewResolver(page browser.Page, cfg config.ResolverConfig, logger *zap.Logger) *Resolver {
	return &Resolver{
		page:     page,
		standard: NewStandardResolver(page, logger),
		healer:   NewHealer(page, cfg, logger),
		logger:   logger.Named("resolver"),
		advisory: cfg.AdvisoryWait,
	}
}

// SetReportSink registers a consumer for healing reports. Reports are logged
// regardless of whether a sink is set.
func (r *Resolver) SetReportSink(sink ReportSink) { r.sink = sink }

// Resolve locates the element described by d, healing it if necessary.
// On success the descriptor's identifying fields are refreshed from the live
// element; a healed descriptor additionally gets its selector overwritten and
// Healed set. Failure of the whole pipeline yields ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, d *schemas.ElementDescriptor) (*Result, error) {
	r.advisoryWait(ctx, d)

	match, err := r.standard.Resolve(ctx, d)
	if err != nil {
		return nil, err
	}
	if match != nil {
		if err := r.refresh(ctx, d, match.Handle); err != nil {
			r.logger.Debug("Attribute refresh failed after standard resolution.", zap.Error(err))
		}
		return &Result{Handle: match.Handle, ResolvedSelector: match.Expr}, nil
	}

	r.logger.Warn("Standard resolution exhausted, engaging self-healing.",
		zap.String("selector", d.BestSelector()))

	before := d.SelectorSnapshot()
	outcome, err := r.healer.Heal(ctx, d)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		r.logger.Error("Self-healing exhausted, element is lost.", zap.Error(err))
		return nil, ErrNotFound
	}

	if err := r.refresh(ctx, d, outcome.Handle); err != nil {
		r.logger.Debug("Attribute refresh failed after healing.", zap.Error(err))
	}
	// The healed selector wins over whatever the refresh derived, so the next
	// run re-resolves it through the standard cascade alone.
	d.Selector = schemas.Attr(outcome.Selector)
	d.Healed = true

	report := schemas.HealingReport{
		Strategy:   outcome.Strategy,
		Selector:   outcome.Selector,
		Changes:    schemas.DiffSnapshots(before, d.SelectorSnapshot()),
		OccurredAt: time.Now().UTC(),
	}
	r.logger.Info("Element healed.",
		zap.String("strategy", report.Strategy),
		zap.String("selector", report.Selector),
		zap.Int("changed_attributes", len(report.Changes)),
	)
	if r.sink != nil {
		r.sink(report)
	}

	return &Result{
		Handle:           outcome.Handle,
		ResolvedSelector: outcome.Selector,
		Healed:           true,
		Report:           &report,
	}, nil
}

// advisoryWait gives a slow page a bounded chance to attach the element before
// resolution begins. It never fails the pipeline: a timeout here just means
// resolution proceeds against the page as-is.
func (r *Resolver) advisoryWait(ctx context.Context, d *schemas.ElementDescriptor) {
	sel := d.BestSelector()
	if sel == "" || r.advisory <= 0 {
		return
	}
	if err := r.page.WaitForState(ctx, sel, browser.StateAttached, r.advisory); err != nil {
		r.logger.Debug("Advisory wait elapsed without the element attaching.",
			zap.String("selector", sel),
			zap.Duration("wait", r.advisory),
		)
	}
}

// refresh overwrites the descriptor's identifying attributes from the live
// element behind the handle. The fingerprint is deliberately left alone.
func (r *Resolver) refresh(ctx context.Context, d *schemas.ElementDescriptor, h browser.Handle) error {
	live, err := r.page.DescribeElement(ctx, h.Selector())
	if err != nil {
		return err
	}
	d.Refresh(live)
	return nil
}
