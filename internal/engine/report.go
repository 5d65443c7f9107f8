// File: internal/engine/report.go
package engine

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/json-iterator/go"

	"github.com/varekai/stepright/api/schemas"
)

// WriteReport serializes the run report as indented JSON at path. An empty
// path writes to stdout.
func WriteReport(report *schemas.RunReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize run report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}
