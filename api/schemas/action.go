// File: api/schemas/action.go
package schemas

import "time"

// ActionKind is the closed enumeration of step actions the sequencer executes.
type ActionKind string

const (
	ActionNavigate      ActionKind = "navigate"
	ActionClick         ActionKind = "click"
	ActionDoubleClick   ActionKind = "double_click"
	ActionRightClick    ActionKind = "right_click"
	ActionHover         ActionKind = "hover"
	ActionDragAndDrop   ActionKind = "drag_and_drop"
	ActionType          ActionKind = "type"
	ActionClear         ActionKind = "clear"
	ActionCheck         ActionKind = "check"
	ActionUncheck       ActionKind = "uncheck"
	ActionPressKey      ActionKind = "press_key"
	ActionSelectOption  ActionKind = "select_option"
	ActionFillDate      ActionKind = "fill_date"
	ActionUploadFile    ActionKind = "upload_file"
	ActionAssertText    ActionKind = "assert_text"
	ActionAssertVisible ActionKind = "assert_visible"
	ActionAssertHidden  ActionKind = "assert_hidden"
	ActionAssertAttr    ActionKind = "assert_attribute"
	ActionAssertCSS     ActionKind = "assert_css"
	ActionScreenshot    ActionKind = "screenshot"
	ActionExecuteScript ActionKind = "execute_script"
	ActionAcceptDialogs ActionKind = "accept_dialogs"
	ActionDismissDialog ActionKind = "dismiss_dialogs"
	ActionWaitNetIdle   ActionKind = "wait_network_idle"
	ActionSwitchWindow  ActionKind = "switch_window"
	ActionClickSwitch   ActionKind = "click_and_switch"
)

// ParamSentinel in an action's Value field means "substitute the next
// positional quoted literal from the step's instruction text here".
const ParamSentinel = "{string}"

// ActionDescriptor is one atomic operation within a step.
type ActionDescriptor struct {
	// Position is 1-based within the owning step; ordering is meaningful.
	Position    int        `json:"position"`
	Kind        ActionKind `json:"kind"`
	Description string     `json:"description,omitempty"`

	// Element is the primary descriptor; nil for page-level actions such as
	// screenshots, script injection, or a global key press.
	Element *ElementDescriptor `json:"element,omitempty"`

	// Target is the second descriptor for two-element actions (drag_and_drop).
	Target *ElementDescriptor `json:"target,omitempty"`

	// Value may be a literal, the ParamSentinel, or a relative-date keyword.
	// For assert_attribute and assert_css it is "name=expected".
	Value string `json:"value,omitempty"`
}

// StepStatus tracks a step definition's authoring lifecycle.
type StepStatus string

const (
	StepStatusActive StepStatus = "active"
	StepStatusDraft  StepStatus = "draft"
)

// StepDescriptor is the declarative form of one BDD step: the natural-language
// instruction it was captured from and the ordered actions that realize it.
type StepDescriptor struct {
	Instruction string             `json:"instruction"`
	Actions     []ActionDescriptor `json:"actions"`
	Status      StepStatus         `json:"status,omitempty"`
	CreatedAt   time.Time          `json:"createdAt,omitempty"`
	ActionCount int                `json:"actionCount,omitempty"`
}

// Scenario is an ordered list of steps sharing one browser context.
type Scenario struct {
	Name    string           `json:"name"`
	BaseURL string           `json:"baseUrl,omitempty"`
	Steps   []StepDescriptor `json:"steps"`
}

// Suite is the top-level unit a run command loads and executes.
type Suite struct {
	Name      string     `json:"name"`
	Scenarios []Scenario `json:"scenarios"`
}
