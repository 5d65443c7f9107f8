// File: cmd/run.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/varekai/stepright/internal/browser"
	"github.com/varekai/stepright/internal/engine"
	"github.com/varekai/stepright/internal/observability"
	"github.com/varekai/stepright/internal/steps"
)

var (
	runSuiteFile string
	runOutput    string
)

// runCmd executes a suite of scenarios against a live browser.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a suite of scenarios against a live browser.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Run.SuiteFile = runSuiteFile
		cfg.Run.Output = runOutput

		logger := observability.GetLogger()
		ctx := cmd.Context()

		suite, err := steps.NewFileStore(logger).LoadSuite(cfg.Run.SuiteFile)
		if err != nil {
			return err
		}

		manager := browser.NewManager(cfg, logger)
		defer manager.Shutdown(ctx)

		report, err := engine.New(manager, cfg, logger).RunSuite(ctx, suite)
		if err != nil {
			return fmt.Errorf("suite run aborted: %w", err)
		}
		if err := engine.WriteReport(report, cfg.Run.Output); err != nil {
			return err
		}
		if !report.Passed {
			return fmt.Errorf("suite %q failed", suite.Name)
		}

		logger.Info("Suite passed.",
			zap.String("suite", suite.Name),
			zap.String("run_id", report.RunID),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runSuiteFile, "suite", "s", "", "path to the suite definition file (required)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "path for the JSON run report (default stdout)")
	_ = runCmd.MarkFlagRequired("suite")
	rootCmd.AddCommand(runCmd)
}
