package loop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
)

// errExit is returned by decide when the user chose to leave the session.
var errExit = errors.New("exit requested")

const (
	choiceApprove = iota
	choiceReject
	choiceEdit
	choiceCustom
	choiceExit
)

var decisionMenu = []string{
	"Approve all actions",
	"Reject all actions",
	"Edit action arguments",
	"Provide custom decision (JSON)",
	"Exit",
}

// decide obtains one decision per action request of in.
func (r *Runner) decide(ctx context.Context, in *chunk.Interrupt) ([]ai.Decision, error) {
	if !r.opts.Interactive {
		r.log.Debug("auto-approving interrupt", "interrupt_id", in.ID, "actions", len(in.ActionRequests))
		decisions := autoDecisions(in)
		for i, a := range in.ActionRequests {
			verb := "Auto-approved"
			if decisions[i].Type == ai.DecisionReject {
				verb = "Auto-rejected"
			}
			r.opts.Sink.Notice(fmt.Sprintf("%s %s (non-interactive)", verb, a.Name))
		}
		return decisions, nil
	}

	r.opts.Sink.Interrupt(in)
	choice, err := r.opts.Prompter.Select(ctx, "How would you like to proceed?", decisionMenu, choiceApprove)
	if err != nil {
		return nil, err
	}

	switch choice {
	case choiceApprove:
		return repeat(ai.Approve(), len(in.ActionRequests)), nil
	case choiceReject:
		return repeat(ai.Reject(""), len(in.ActionRequests)), nil
	case choiceEdit:
		return r.editActions(ctx, in)
	case choiceCustom:
		return r.customDecisions(ctx, in)
	default:
		return nil, errExit
	}
}

// editActions asks for replacement arguments for every action. Invalid JSON
// keeps the original arguments.
func (r *Runner) editActions(ctx context.Context, in *chunk.Interrupt) ([]ai.Decision, error) {
	decisions := make([]ai.Decision, len(in.ActionRequests))
	for i, a := range in.ActionRequests {
		current, err := json.Marshal(a.Args)
		if err != nil || a.Args == nil {
			current = []byte("{}")
		}
		text, err := r.opts.Prompter.Input(ctx, fmt.Sprintf("Arguments for %s (JSON)", a.Name), string(current))
		if err != nil {
			return nil, err
		}
		var args map[string]any
		if err := json.Unmarshal([]byte(text), &args); err != nil {
			r.opts.Sink.Warn(fmt.Sprintf("Invalid JSON for %s: %v; keeping original arguments", a.Name, err))
			args = a.Args
		}
		decisions[i] = ai.Edit(a.Name, args)
	}
	return decisions, nil
}

// customDecisions reads a JSON decision. Malformed JSON degrades to rejecting
// every action; a well-formed but contradictory decision aborts the turn. A
// single decision applies to all actions.
func (r *Runner) customDecisions(ctx context.Context, in *chunk.Interrupt) ([]ai.Decision, error) {
	text, err := r.opts.Prompter.Input(ctx, `Enter your decision as JSON (e.g., {"type": "approve"}):`, "")
	if err != nil {
		return nil, err
	}
	decisions, err := ai.ParseDecisions([]byte(text))
	if err != nil {
		if ai.Category(err) == ai.CategoryInterruptProtocol {
			return nil, err
		}
		r.opts.Sink.Warn(fmt.Sprintf("Invalid decision: %v; rejecting", err))
		return repeat(ai.Reject(""), len(in.ActionRequests)), nil
	}
	if len(decisions) == 1 && len(in.ActionRequests) > 1 {
		return repeat(decisions[0], len(in.ActionRequests)), nil
	}
	return decisions, nil
}

// autoDecisions approves every action whose review config allows it and
// rejects the rest.
func autoDecisions(in *chunk.Interrupt) []ai.Decision {
	decisions := make([]ai.Decision, len(in.ActionRequests))
	for i, a := range in.ActionRequests {
		decisions[i] = ai.Approve()
		if rc, ok := in.ReviewFor(a.Name); ok && !rc.Allows(ai.DecisionApprove) {
			decisions[i] = ai.Reject("not approved in non-interactive mode")
		}
	}
	return decisions
}

func repeat(d ai.Decision, n int) []ai.Decision {
	out := make([]ai.Decision, n)
	for i := range out {
		out[i] = d
	}
	return out
}
