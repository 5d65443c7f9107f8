// File: internal/engine/engine_test.go
package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zapcore"

	"github.com/varekai/stepright/api/schemas"
	"github.com/varekai/stepright/internal/browser"
	"github.com/varekai/stepright/internal/config"
	"github.com/varekai/stepright/internal/observability"
)

func TestMain(m *testing.M) {
	cfg := config.NewDefaultConfig()
	cfg.Logger.Level = "debug"
	cfg.Logger.ServiceName = "test-suite"
	cfg.Logger.Format = "console"
	cfg.Logger.LogFile = ""

	observability.Initialize(cfg.Logger, zapcore.Lock(os.Stdout))

	exitCode := m.Run()

	observability.Sync()
	observability.ResetForTest()

	os.Exit(exitCode)
}

// fakeContext is a minimal BrowsingContext for engine-level tests: it only
// answers the calls a navigation-only scenario issues.
type fakeContext struct {
	navigated   []string
	navigateErr error
	closed      bool
}

func (f *fakeContext) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return f.navigateErr
}

func (f *fakeContext) Query(context.Context, string) (browser.QueryResult, error) {
	return browser.QueryResult{}, nil
}

func (f *fakeContext) QueryByLabel(context.Context, string) (browser.QueryResult, error) {
	return browser.QueryResult{}, nil
}

func (f *fakeContext) QueryByRole(context.Context, string, string) (browser.QueryResult, error) {
	return browser.QueryResult{}, nil
}

func (f *fakeContext) QueryProximity(context.Context, string, string) (browser.QueryResult, error) {
	return browser.QueryResult{}, nil
}

func (f *fakeContext) QueryByClass(context.Context, string) (browser.QueryResult, error) {
	return browser.QueryResult{}, nil
}

func (f *fakeContext) DescribeElement(context.Context, string) (schemas.LiveAttributes, error) {
	return schemas.LiveAttributes{}, errors.New("no element matches")
}

func (f *fakeContext) WaitForState(context.Context, string, browser.ElementState, time.Duration) error {
	return nil
}

func (f *fakeContext) Evaluate(context.Context, string, any) error { return nil }
func (f *fakeContext) Press(context.Context, string) error         { return nil }
func (f *fakeContext) SetDialogPolicy(bool)                        {}

func (f *fakeContext) WaitNetworkIdle(context.Context, time.Duration) error { return nil }

func (f *fakeContext) Screenshot(context.Context) ([]byte, error) {
	return []byte("png"), nil
}

func (f *fakeContext) Title(context.Context) (string, error) { return "", nil }
func (f *fakeContext) URL(context.Context) (string, error)   { return "", nil }

func (f *fakeContext) SwitchWindowByIndex(context.Context, int) error    { return nil }
func (f *fakeContext) SwitchWindowByTitle(context.Context, string) error { return nil }

func (f *fakeContext) TriggerAndSwitch(ctx context.Context, _ time.Duration, trigger func(context.Context) error) error {
	return trigger(ctx)
}

func (f *fakeContext) Close(context.Context) error {
	f.closed = true
	return nil
}

// fakeFactory hands out one fakeContext per call.
type fakeFactory struct {
	contexts []*fakeContext
	err      error
}

func (f *fakeFactory) NewBrowsingContext(context.Context) (browser.BrowsingContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	fc := &fakeContext{}
	f.contexts = append(f.contexts, fc)
	return fc, nil
}

func navigationSuite() *schemas.Suite {
	step := func(url string) schemas.StepDescriptor {
		return schemas.StepDescriptor{
			Instruction: "opening " + url,
			Actions: []schemas.ActionDescriptor{
				{Position: 1, Kind: schemas.ActionNavigate, Value: url},
			},
		}
	}
	return &schemas.Suite{
		Name: "smoke",
		Scenarios: []schemas.Scenario{
			{Name: "first", Steps: []schemas.StepDescriptor{step("https://a.test/")}},
			{Name: "second", Steps: []schemas.StepDescriptor{step("https://b.test/")}},
		},
	}
}

func TestRunSuiteAllScenariosPass(t *testing.T) {
	defer goleak.VerifyNone(t)

	factory := &fakeFactory{}
	cfg := config.NewDefaultConfig()
	cfg.Runner.ScenarioConcurrency = 2

	report, err := New(factory, cfg, observability.GetLogger()).
		RunSuite(context.Background(), navigationSuite())

	require.NoError(t, err)
	assert.True(t, report.Passed)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Scenarios, 2)
	assert.Equal(t, "first", report.Scenarios[0].Name)
	assert.Equal(t, "second", report.Scenarios[1].Name)

	// Every scenario got its own context, and each was closed.
	require.Len(t, factory.contexts, 2)
	for _, fc := range factory.contexts {
		assert.True(t, fc.closed)
	}
}

func TestRunSuiteScenarioFailureIsIsolated(t *testing.T) {
	defer goleak.VerifyNone(t)

	factory := &fakeFactory{}
	cfg := config.NewDefaultConfig()

	suite := navigationSuite()
	// The first scenario's url is empty, which the navigate handler rejects.
	suite.Scenarios[0].Steps[0].Actions[0].Value = ""

	report, err := New(factory, cfg, observability.GetLogger()).
		RunSuite(context.Background(), suite)

	require.NoError(t, err)
	assert.False(t, report.Passed)
	assert.False(t, report.Scenarios[0].Passed)
	assert.True(t, report.Scenarios[1].Passed)
}

func TestRunSuiteFailingStepSkipsRemainingSteps(t *testing.T) {
	defer goleak.VerifyNone(t)

	factory := &fakeFactory{}
	cfg := config.NewDefaultConfig()

	suite := &schemas.Suite{
		Name: "abort",
		Scenarios: []schemas.Scenario{{
			Name: "only",
			Steps: []schemas.StepDescriptor{
				{
					Instruction: "a step with no url",
					Actions: []schemas.ActionDescriptor{
						{Position: 1, Kind: schemas.ActionNavigate, Value: ""},
					},
				},
				{
					Instruction: "never reached",
					Actions: []schemas.ActionDescriptor{
						{Position: 1, Kind: schemas.ActionNavigate, Value: "https://c.test/"},
					},
				},
			},
		}},
	}

	report, err := New(factory, cfg, observability.GetLogger()).
		RunSuite(context.Background(), suite)

	require.NoError(t, err)
	require.Len(t, report.Scenarios[0].Steps, 1)
	require.Len(t, factory.contexts, 1)
	assert.Empty(t, factory.contexts[0].navigated)
}

func TestRunSuiteFactoryFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	factory := &fakeFactory{err: errors.New("browser did not launch")}
	cfg := config.NewDefaultConfig()

	report, err := New(factory, cfg, observability.GetLogger()).
		RunSuite(context.Background(), navigationSuite())

	require.NoError(t, err)
	assert.False(t, report.Passed)
	for _, sc := range report.Scenarios {
		assert.False(t, sc.Passed)
	}
}

func TestWriteReportToFile(t *testing.T) {
	report := &schemas.RunReport{RunID: "r-1", Suite: "smoke", Passed: true}
	path := filepath.Join(t.TempDir(), "out", "report.json")

	require.NoError(t, WriteReport(report, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"runId": "r-1"`)
	assert.Contains(t, string(data), `"suite": "smoke"`)
}
