// File: api/schemas/report.go
package schemas

import "time"

// AttributeChange is one before/after pair inside a healing report.
type AttributeChange struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// HealingReport is emitted whenever a self-healing strategy relocated an
// element. It is diagnostic output only; its shape carries no compatibility
// contract.
type HealingReport struct {
	Strategy   string                     `json:"strategy"`
	Selector   string                     `json:"selector"`
	Changes    map[string]AttributeChange `json:"changes"`
	OccurredAt time.Time                  `json:"occurredAt"`
}

// DiffSnapshots builds the per-attribute change set from two selector-family
// snapshots, keeping only attributes whose value actually changed.
func DiffSnapshots(before, after map[string]string) map[string]AttributeChange {
	changes := make(map[string]AttributeChange)
	for name, b := range before {
		if a := after[name]; a != b {
			changes[name] = AttributeChange{Before: b, After: a}
		}
	}
	for name, a := range after {
		if _, seen := before[name]; !seen && a != "" {
			changes[name] = AttributeChange{Before: "", After: a}
		}
	}
	return changes
}

// ActionResult records the outcome of one executed action for the run report.
type ActionResult struct {
	Position    int           `json:"position"`
	Kind        ActionKind    `json:"kind"`
	Description string        `json:"description,omitempty"`
	Passed      bool          `json:"passed"`
	Error       string        `json:"error,omitempty"`
	Healed      bool          `json:"healed,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// StepResult aggregates the action outcomes of one step.
type StepResult struct {
	Instruction string         `json:"instruction"`
	Passed      bool           `json:"passed"`
	Actions     []ActionResult `json:"actions"`
}

// ScenarioResult aggregates one scenario's steps plus its healing reports.
type ScenarioResult struct {
	Name     string          `json:"name"`
	Passed   bool            `json:"passed"`
	Steps    []StepResult    `json:"steps"`
	Healings []HealingReport `json:"healings,omitempty"`
	Started  time.Time       `json:"started"`
	Finished time.Time       `json:"finished"`
}

// RunReport is the full outcome of one suite execution.
type RunReport struct {
	RunID     string           `json:"runId"`
	Suite     string           `json:"suite"`
	Passed    bool             `json:"passed"`
	Scenarios []ScenarioResult `json:"scenarios"`
}
