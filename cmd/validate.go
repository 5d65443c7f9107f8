// File: cmd/validate.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/varekai/stepright/internal/observability"
	"github.com/varekai/stepright/internal/steps"
)

var validateSuiteFile string

// validateCmd parses and normalizes a suite without touching a browser.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a suite definition without running it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()

		suite, err := steps.NewFileStore(logger).LoadSuite(validateSuiteFile)
		if err != nil {
			return err
		}

		stepCount, actionCount := 0, 0
		for _, sc := range suite.Scenarios {
			stepCount += len(sc.Steps)
			for _, st := range sc.Steps {
				actionCount += len(st.Actions)
			}
		}

		logger.Info("Suite definition is valid.",
			zap.String("suite", suite.Name),
			zap.Int("scenarios", len(suite.Scenarios)),
			zap.Int("steps", stepCount),
			zap.Int("actions", actionCount),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "suite %q: %d scenario(s), %d step(s), %d action(s)\n",
			suite.Name, len(suite.Scenarios), stepCount, actionCount)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateSuiteFile, "suite", "s", "", "path to the suite definition file (required)")
	_ = validateCmd.MarkFlagRequired("suite")
	rootCmd.AddCommand(validateCmd)
}
