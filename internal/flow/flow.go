// Package flow defines the conversation flows as a closed set of state
// variants. Each variant carries only the data its flow collects and
// serializes to a core/state record named "<flow>:<step>".
package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Step is a position inside a flow.
type Step string

const (
	AwaitName            Step = "await_name"
	AwaitDescription     Step = "await_description"
	AwaitURL             Step = "await_url"
	AwaitRubric          Step = "await_rubric"
	AwaitRubricChoice    Step = "await_rubric_choice"
	AwaitLinkDisposition Step = "await_link_disposition"
	AwaitTargetRubric    Step = "await_target_rubric"
	AwaitOperationChoice Step = "await_operation_choice"
	AwaitConfirmation    Step = "await_confirmation"
	AwaitLinkChoice      Step = "await_link_choice"
)

// Flow names.
const (
	FlowAddRubric    = "add_rubric"
	FlowAddLink      = "add_link"
	FlowDeleteRubric = "delete_rubric"
	FlowBulkDelete   = "bulk_delete"
	FlowDeleteLink   = "delete_link"
)

// ErrUnknownState reports a record that does not decode to any variant.
var ErrUnknownState = errors.New("flow: unknown state")

// State is implemented only by the variants in this package.
type State interface {
	Flow() string
	CurrentStep() Step
	sealed()
}

// Name returns the routing name of s, empty for nil.
func Name(s State) string {
	if s == nil {
		return ""
	}
	return StateName(s.Flow(), s.CurrentStep())
}

// StateName joins a flow and step into a routing name.
func StateName(flow string, step Step) string {
	return flow + ":" + string(step)
}

// AddRubric collects a new rubric.
type AddRubric struct {
	Step Step   `json:"step"`
	Name string `json:"name,omitempty"`
}

func (AddRubric) Flow() string        { return FlowAddRubric }
func (s AddRubric) CurrentStep() Step { return s.Step }
func (AddRubric) sealed()             {}

// AddLink collects a new link.
type AddLink struct {
	Step        Step    `json:"step"`
	URL         string  `json:"url,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (AddLink) Flow() string        { return FlowAddLink }
func (s AddLink) CurrentStep() Step { return s.Step }
func (AddLink) sealed()             {}

// DeleteRubric tracks the rubric being deleted until its links have a
// disposition.
type DeleteRubric struct {
	Step       Step   `json:"step"`
	RubricID   int64  `json:"rubric_id,omitempty"`
	RubricName string `json:"rubric_name,omitempty"`
}

func (DeleteRubric) Flow() string        { return FlowDeleteRubric }
func (s DeleteRubric) CurrentStep() Step { return s.Step }
func (DeleteRubric) sealed()             {}

// BulkOperation names a serious deletion.
type BulkOperation string

const (
	BulkAllLinks          BulkOperation = "all_links"
	BulkAllRubrics        BulkOperation = "all_rubrics"
	BulkAllRubricLinks    BulkOperation = "all_rubric_links"
	BulkAllNonRubricLinks BulkOperation = "all_non_rubric_links"
	BulkAllData           BulkOperation = "all_data"
)

// BulkOperations lists the operations in menu order.
var BulkOperations = []BulkOperation{
	BulkAllLinks,
	BulkAllRubrics,
	BulkAllRubricLinks,
	BulkAllNonRubricLinks,
	BulkAllData,
}

// Valid reports whether op is a known operation.
func (op BulkOperation) Valid() bool {
	for _, known := range BulkOperations {
		if op == known {
			return true
		}
	}
	return false
}

// BulkDelete holds the chosen operation until the user confirms it.
type BulkDelete struct {
	Step      Step          `json:"step"`
	Operation BulkOperation `json:"operation,omitempty"`
}

func (BulkDelete) Flow() string        { return FlowBulkDelete }
func (s BulkDelete) CurrentStep() Step { return s.Step }
func (BulkDelete) sealed()             {}

// DeleteLink waits for the link to delete.
type DeleteLink struct {
	Step Step `json:"step"`
}

func (DeleteLink) Flow() string        { return FlowDeleteLink }
func (s DeleteLink) CurrentStep() Step { return s.Step }
func (DeleteLink) sealed()             {}

var flowSteps = map[string][]Step{
	FlowAddRubric:    {AwaitName, AwaitDescription},
	FlowAddLink:      {AwaitURL, AwaitDescription, AwaitRubric},
	FlowDeleteRubric: {AwaitRubricChoice, AwaitLinkDisposition, AwaitTargetRubric},
	FlowBulkDelete:   {AwaitOperationChoice, AwaitConfirmation},
	FlowDeleteLink:   {AwaitLinkChoice},
}

// Encode serializes s to a state name and JSON data.
func Encode(s State) (string, json.RawMessage, error) {
	if err := validate(s.Flow(), s.CurrentStep()); err != nil {
		return "", nil, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", nil, fmt.Errorf("flow encode: %w", err)
	}
	return Name(s), data, nil
}

// Decode rebuilds the variant stored under name.
func Decode(name string, data json.RawMessage) (State, error) {
	flowName, step, ok := strings.Cut(name, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	if err := validate(flowName, Step(step)); err != nil {
		return nil, err
	}

	var s State
	var err error
	switch flowName {
	case FlowAddRubric:
		s, err = decodeInto[AddRubric](data)
	case FlowAddLink:
		s, err = decodeInto[AddLink](data)
	case FlowDeleteRubric:
		s, err = decodeInto[DeleteRubric](data)
	case FlowBulkDelete:
		s, err = decodeInto[BulkDelete](data)
	case FlowDeleteLink:
		s, err = decodeInto[DeleteLink](data)
	}
	if err != nil {
		return nil, fmt.Errorf("flow decode %s: %w", name, err)
	}
	if s.CurrentStep() != Step(step) {
		return nil, fmt.Errorf("%w: %q carries step %q", ErrUnknownState, name, s.CurrentStep())
	}
	return s, nil
}

func decodeInto[T State](data json.RawMessage) (State, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func validate(flowName string, step Step) error {
	steps, ok := flowSteps[flowName]
	if !ok {
		return fmt.Errorf("%w: flow %q", ErrUnknownState, flowName)
	}
	for _, s := range steps {
		if s == step {
			return nil
		}
	}
	return fmt.Errorf("%w: step %q of %s", ErrUnknownState, step, flowName)
}
