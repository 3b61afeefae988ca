package agentcli

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecisionType is the user's verdict on one pending tool call.
type DecisionType string

const (
	DecisionApprove DecisionType = "approve"
	DecisionReject  DecisionType = "reject"
	DecisionEdit    DecisionType = "edit"
)

// EditedAction replaces the tool call a decision applies to.
type EditedAction struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Decision answers one action request of an interrupt. Decisions are matched
// to action requests by position.
type Decision struct {
	Type DecisionType `json:"type"`
	// Message is the reason given to the model for a rejection.
	Message      string        `json:"message,omitempty"`
	EditedAction *EditedAction `json:"edited_action,omitempty"`
}

// Approve returns an approve decision.
func Approve() Decision {
	return Decision{Type: DecisionApprove}
}

// Reject returns a reject decision with an optional reason.
func Reject(message string) Decision {
	return Decision{Type: DecisionReject, Message: message}
}

// Edit returns a decision that runs the named tool with replacement args.
func Edit(name string, args map[string]any) Decision {
	return Decision{Type: DecisionEdit, EditedAction: &EditedAction{Name: name, Args: args}}
}

// Validate checks that the decision is well formed. A reject that also
// carries an edited action is refused: the two cannot both apply.
func (d Decision) Validate() error {
	switch d.Type {
	case DecisionApprove:
		if d.EditedAction != nil {
			return &InterruptProtocolError{Msg: "approve decision must not carry an edited action"}
		}
	case DecisionReject:
		if d.EditedAction != nil {
			return &InterruptProtocolError{Msg: "reject decision must not carry an edited action"}
		}
	case DecisionEdit:
		if d.EditedAction == nil || d.EditedAction.Name == "" {
			return &InterruptProtocolError{Msg: "edit decision requires edited_action with a name"}
		}
	default:
		return &InterruptProtocolError{Msg: fmt.Sprintf("unknown decision type %q", d.Type)}
	}
	return nil
}

// ResumePayload is the value handed back to a graph to resume an interrupt.
// It serializes to {"decisions":[...]}.
type ResumePayload struct {
	Decisions []Decision `json:"decisions"`
}

// Validate checks every decision.
func (p ResumePayload) Validate() error {
	for i, d := range p.Decisions {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("decision %d: %w", i, err)
		}
	}
	return nil
}

// ParseDecisions decodes a user-typed decision. It accepts a resume payload
// object ({"decisions":[...]}), an array of decisions, or a single decision
// object. Every decision is validated.
func ParseDecisions(data []byte) ([]Decision, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &InputError{Source: "decision", Msg: "empty decision"}
	}

	var decisions []Decision
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &decisions); err != nil {
			return nil, &InputError{Source: "decision", Msg: "malformed decision list", Err: err}
		}
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, &InputError{Source: "decision", Msg: "malformed decision", Err: err}
		}
		if raw, ok := fields["decisions"]; ok {
			if err := json.Unmarshal(raw, &decisions); err != nil {
				return nil, &InputError{Source: "decision", Msg: "malformed decision list", Err: err}
			}
		} else {
			var d Decision
			if err := json.Unmarshal(data, &d); err != nil {
				return nil, &InputError{Source: "decision", Msg: "malformed decision", Err: err}
			}
			decisions = []Decision{d}
		}
	default:
		return nil, &InputError{Source: "decision", Msg: "decision must be a JSON object or array"}
	}

	if err := (ResumePayload{Decisions: decisions}).Validate(); err != nil {
		return nil, err
	}
	return decisions, nil
}
