// File: internal/steps/store.go

// Package steps loads step and suite definitions for the sequencer. The
// runner only consumes the declarative structure; this package owns the
// storage format.
package steps

import (
	"fmt"
	"os"
	"sort"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/varekai/stepright/api/schemas"
)

// Store supplies suite definitions to the run command.
type Store interface {
	// LoadSuite reads, validates and normalizes one suite definition.
	LoadSuite(path string) (*schemas.Suite, error)
}

// FileStore reads suite definitions from JSON files on disk.
type FileStore struct {
	logger *zap.Logger
}

// NewFileStore creates a file-backed suite store.
func NewFileStore(logger *zap.Logger) *FileStore {
	return &FileStore{logger: logger.Named("steps")}
}

// LoadSuite reads the suite at path. Draft steps are dropped, action order is
// normalized by position, and empty scenarios are rejected.
func (s *FileStore) LoadSuite(path string) (*schemas.Suite, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file %q: %w", path, err)
	}

	var suite schemas.Suite
	if err := json.Unmarshal(raw, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse suite file %q: %w", path, err)
	}
	if err := normalize(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite %q: %w", path, err)
	}

	s.logger.Info("Suite loaded.",
		zap.String("path", path),
		zap.String("suite", suite.Name),
		zap.Int("scenarios", len(suite.Scenarios)),
	)
	return &suite, nil
}

func normalize(suite *schemas.Suite) error {
	if len(suite.Scenarios) == 0 {
		return fmt.Errorf("suite contains no scenarios")
	}
	for si := range suite.Scenarios {
		sc := &suite.Scenarios[si]
		if sc.Name == "" {
			return fmt.Errorf("scenario %d has no name", si+1)
		}

		kept := sc.Steps[:0]
		for _, step := range sc.Steps {
			if step.Status == schemas.StepStatusDraft {
				continue
			}
			kept = append(kept, step)
		}
		sc.Steps = kept
		if len(sc.Steps) == 0 {
			return fmt.Errorf("scenario %q has no runnable steps", sc.Name)
		}

		for ti := range sc.Steps {
			step := &sc.Steps[ti]
			sort.SliceStable(step.Actions, func(i, j int) bool {
				return step.Actions[i].Position < step.Actions[j].Position
			})
			if step.ActionCount == 0 {
				step.ActionCount = len(step.Actions)
			}
		}
	}
	return nil
}
