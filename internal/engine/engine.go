// File: internal/engine/engine.go

// Package engine executes suites: scenarios run concurrently up to a
// configured limit, each inside its own isolated browser context, while the
// steps and actions within a scenario stay strictly sequential.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/varekai/stepright/api/schemas"
	"github.com/varekai/stepright/internal/browser"
	"github.com/varekai/stepright/internal/config"
	"github.com/varekai/stepright/internal/resolve"
	"github.com/varekai/stepright/internal/runner"
)

// ContextFactory hands out isolated browsing contexts, one per scenario.
type ContextFactory interface {
	NewBrowsingContext(ctx context.Context) (browser.BrowsingContext, error)
}

// Engine turns a suite definition into a run report.
type Engine struct {
	factory ContextFactory
	cfg     *config.Config
	logger  *zap.Logger
}

// New creates an engine over the given context factory.
func New(factory ContextFactory, cfg *config.Config, logger *zap.Logger) *Engine {
	return &Engine{
		factory: factory,
		cfg:     cfg,
		logger:  logger.Named("engine"),
	}
}

// RunSuite executes every scenario of the suite and assembles the report.
// A failed scenario never aborts its siblings; the report's Passed flag is
// the conjunction of all scenario outcomes.
func (e *Engine) RunSuite(ctx context.Context, suite *schemas.Suite) (*schemas.RunReport, error) {
	report := &schemas.RunReport{
		RunID:     uuid.NewString(),
		Suite:     suite.Name,
		Passed:    true,
		Scenarios: make([]schemas.ScenarioResult, len(suite.Scenarios)),
	}

	e.logger.Info("Starting suite run.",
		zap.String("run_id", report.RunID),
		zap.String("suite", suite.Name),
		zap.Int("scenarios", len(suite.Scenarios)),
		zap.Int("concurrency", e.cfg.Runner.ScenarioConcurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Runner.ScenarioConcurrency)

	var mu sync.Mutex
	for i := range suite.Scenarios {
		i := i
		g.Go(func() error {
			result := e.runScenario(gctx, &suite.Scenarios[i])
			mu.Lock()
			report.Scenarios[i] = result
			if !result.Passed {
				report.Passed = false
			}
			mu.Unlock()
			// Scenario failures are recorded, not propagated, so one broken
			// scenario cannot cancel the rest of the group.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	e.logger.Info("Suite run finished.",
		zap.String("run_id", report.RunID),
		zap.Bool("passed", report.Passed),
	)
	return report, ctx.Err()
}

// runScenario owns exactly one browsing context for its whole lifetime.
func (e *Engine) runScenario(ctx context.Context, sc *schemas.Scenario) schemas.ScenarioResult {
	result := schemas.ScenarioResult{
		Name:    sc.Name,
		Passed:  true,
		Started: time.Now().UTC(),
	}
	defer func() { result.Finished = time.Now().UTC() }()

	log := e.logger.With(zap.String("scenario", sc.Name))

	bc, err := e.factory.NewBrowsingContext(ctx)
	if err != nil {
		log.Error("Failed to open a browser context for the scenario.", zap.Error(err))
		result.Passed = false
		return result
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := bc.Close(closeCtx); err != nil {
			log.Warn("Failed to close the scenario's browser context.", zap.Error(err))
		}
	}()

	resolver := resolve.NewResolver(bc, e.cfg.Resolver, log)
	resolver.SetReportSink(func(rep schemas.HealingReport) {
		result.Healings = append(result.Healings, rep)
	})

	seq := runner.NewSequencer(bc, resolver, e.cfg, log)
	seq.SetScreenshotSink(e.screenshotSink(sc.Name))

	for i := range sc.Steps {
		step := &sc.Steps[i]
		stepResult := seq.RunStep(ctx, step, sc.BaseURL)
		result.Steps = append(result.Steps, stepResult)
		if !stepResult.Passed {
			log.Warn("Step failed, skipping the scenario's remaining steps.",
				zap.String("instruction", step.Instruction),
			)
			result.Passed = false
			break
		}
	}
	return result
}

// screenshotSink writes captures under the configured directory, namespaced
// by scenario.
func (e *Engine) screenshotSink(scenario string) runner.ScreenshotSink {
	return func(name string, png []byte) error {
		dir := filepath.Join(e.cfg.Runner.ScreenshotDir, sanitizeName(scenario))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create screenshot directory: %w", err)
		}
		path := filepath.Join(dir, sanitizeName(name))
		if err := os.WriteFile(path, png, 0o644); err != nil {
			return fmt.Errorf("failed to write screenshot: %w", err)
		}
		e.logger.Debug("Screenshot written.", zap.String("path", path))
		return nil
	}
}

// sanitizeName keeps file names portable.
func sanitizeName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			out = append(out, r)
		case r == ' ':
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "unnamed"
	}
	return string(out)
}
