// Package chat provides a graph backed by a chat model: a single node that
// calls the model, runs the tools it asks for, and repeats until the model
// answers without tool calls.
//
// Tools named with [WithInterruptOn] do not run straight away. The graph
// saves the step, emits an interrupt listing the calls awaiting review, and
// continues when Resume supplies one decision per call:
//
//	g := chat.New(provider,
//	    chat.WithFileTools(tool.WithBasePath(".")),
//	    chat.WithInterruptOn(map[string]chat.Review{"write_file": {}}),
//	)
//
// Thread history lives in a checkpointer keyed by the thread ID of the run
// config, in memory unless [WithCheckpointer] says otherwise.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
	"github.com/spetersoncode/agentcli/graph"
	"github.com/spetersoncode/agentcli/internal/store"
	"github.com/spetersoncode/agentcli/tool"
)

// Node names reported on chunks.
const (
	NodeModel = "model"
	NodeTools = "tools"
)

// ErrRecursionLimit is reported when a run takes more model steps than its
// recursion limit allows.
var ErrRecursionLimit = errors.New("recursion limit reached")

// Graph is a tool-calling chat agent.
type Graph struct {
	provider       ai.ChatProvider
	registry       *tool.Registry
	todos          *tool.TodoList
	interruptOn    map[string]Review
	checkpoints    *store.Typed[Checkpoint]
	chatOpts       []ai.ChatOption
	recursionLimit int
	toolTimeout    time.Duration
	parallel       bool
	nextRunID      func() string
	closers        []io.Closer
	tracer         trace.Tracer
}

// New creates a chat graph over provider. The write_todos tool is always
// registered.
func New(provider ai.ChatProvider, opts ...Option) *Graph {
	g := &Graph{
		provider:       provider,
		registry:       tool.NewRegistry(),
		todos:          &tool.TodoList{},
		interruptOn:    make(map[string]Review),
		recursionLimit: ai.DefaultRecursionLimit,
		nextRunID:      ai.GenerateRunID,
		tracer:         otel.Tracer("github.com/spetersoncode/agentcli/graph/chat"),
	}
	g.registry.Add(tool.NewTodoTool(g.todos))
	for _, opt := range opts {
		opt(g)
	}
	if g.checkpoints == nil {
		g.checkpoints = store.NewTyped[Checkpoint](store.NewMemoryAdapter())
	}
	return g
}

// Registry returns the graph's tools. Tools added after the first run are
// offered to the model from the next step on.
func (g *Graph) Registry() *tool.Registry {
	return g.registry
}

// Close releases the checkpointer and any resources tied to the graph.
func (g *Graph) Close() error {
	var errs []error
	for _, c := range g.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Stream appends the input messages to the thread and runs the model.
// A step still waiting on decisions is abandoned.
func (g *Graph) Stream(ctx context.Context, in ai.Input, opts ...graph.Option) iter.Seq2[chunk.Chunk, error] {
	runID := g.nextRunID()
	mode := graph.ApplyOptions(opts...).StreamMode
	return func(yield func(chunk.Chunk, error) bool) {
		ctx, span := g.startRun(ctx, "chat.stream", runID, in.Config)
		defer span.End()

		key := checkpointKey(in.Config, runID)
		cp, err := g.load(ctx, key)
		if err != nil {
			g.fail(span, yield, &ai.StreamingError{RunID: runID, Err: err})
			return
		}
		cp.ThreadID = in.Config.ThreadID()
		cp.abandon()
		cp.Messages = append(cp.Messages, in.Messages...)
		g.todos.Set(cp.Todos)

		r := &run{g: g, id: runID, key: key, cp: cp, mode: mode, limit: in.Config.RecursionLimit(g.recursionLimit), yield: yield, span: span}
		r.loop(ctx, 0)
	}
}

// Resume applies decisions to the step paused under runID, runs the
// resulting tool calls, and continues the loop.
func (g *Graph) Resume(ctx context.Context, runID string, in ai.Input, opts ...graph.Option) iter.Seq2[chunk.Chunk, error] {
	mode := graph.ApplyOptions(opts...).StreamMode
	return func(yield func(chunk.Chunk, error) bool) {
		ctx, span := g.startRun(ctx, "chat.resume", runID, in.Config)
		defer span.End()

		key := checkpointKey(in.Config, runID)
		cp, err := g.load(ctx, key)
		if err != nil {
			g.fail(span, yield, &ai.StreamingError{RunID: runID, Err: err})
			return
		}
		p := cp.Pending
		if p == nil || p.RunID != runID {
			g.fail(span, yield, &ai.InterruptProtocolError{Msg: "resume run " + runID, Err: ai.ErrNoPendingInterrupt})
			return
		}
		if in.Resume == nil {
			g.fail(span, yield, &ai.InterruptProtocolError{InterruptID: p.Interrupt.ID, Msg: "resume without decisions"})
			return
		}
		if err := p.Interrupt.Validate(in.Resume.Decisions); err != nil {
			g.fail(span, yield, err)
			return
		}

		decisions := make(map[int]ai.Decision, len(p.Reviewed))
		for i, idx := range p.Reviewed {
			decisions[idx] = in.Resume.Decisions[i]
		}
		cp.Pending = nil
		g.todos.Set(cp.Todos)

		r := &run{g: g, id: runID, key: key, cp: cp, mode: mode, limit: in.Config.RecursionLimit(g.recursionLimit), yield: yield, span: span}
		if !r.runTools(ctx, p.Calls, decisions) {
			return
		}
		r.loop(ctx, p.Step)
	}
}

func (g *Graph) startRun(ctx context.Context, name, runID string, cfg ai.Config) (context.Context, trace.Span) {
	return g.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("agentcli.run_id", runID),
		attribute.String("agentcli.thread_id", cfg.ThreadID()),
	))
}

func (g *Graph) fail(span trace.Span, yield func(chunk.Chunk, error) bool, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	yield(chunk.Chunk{}, err)
}

// run is the state of one Stream or Resume call.
type run struct {
	g     *Graph
	id    string
	key   string
	cp    *Checkpoint
	mode  graph.StreamMode
	limit int
	yield func(chunk.Chunk, error) bool
	span  trace.Span
}

func (r *run) emit(c chunk.Chunk) bool {
	return r.yield(c, nil)
}

// fail saves what the run produced so far and reports err.
func (r *run) fail(ctx context.Context, node string, err error) {
	if saveErr := r.g.save(ctx, r.key, r.cp); saveErr != nil {
		err = errors.Join(err, saveErr)
	}
	r.g.fail(r.span, r.yield, &ai.StreamingError{RunID: r.id, Node: node, Err: err})
}

func (r *run) loop(ctx context.Context, step int) {
	for {
		if step >= r.limit {
			r.fail(ctx, NodeModel, fmt.Errorf("%w: %d steps", ErrRecursionLimit, r.limit))
			return
		}
		step++
		r.span.SetAttributes(attribute.Int("agentcli.steps", step))

		resp, ok, err := r.callModel(ctx, step)
		if err != nil {
			r.fail(ctx, NodeModel, err)
			return
		}
		if !ok {
			return
		}

		r.cp.Messages = append(r.cp.Messages, ai.Message{
			ID:        ai.GenerateMessageID(),
			Role:      ai.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		if r.mode != graph.ModeMessages && resp.Content != "" {
			if !r.emit(chunk.NewText(r.id, NodeModel, resp.Content)) {
				return
			}
		}

		if len(resp.ToolCalls) == 0 {
			if err := r.g.save(ctx, r.key, r.cp); err != nil {
				r.fail(ctx, NodeModel, err)
				return
			}
			r.emit(chunk.NewComplete(r.id))
			return
		}

		if !r.emit(chunk.NewToolCalls(r.id, NodeModel, resp.ToolCalls)) {
			return
		}

		if in, reviewed := r.g.interruptFor(r.id, step, resp.ToolCalls); in != nil {
			r.cp.Pending = &Pending{
				RunID:     r.id,
				Step:      step,
				Interrupt: in,
				Calls:     resp.ToolCalls,
				Reviewed:  reviewed,
			}
			if err := r.g.save(ctx, r.key, r.cp); err != nil {
				r.fail(ctx, NodeTools, err)
				return
			}
			r.emit(chunk.NewInterrupt(r.id, NodeTools, in))
			return
		}

		if !r.runTools(ctx, resp.ToolCalls, nil) {
			return
		}
	}
}

// callModel streams one model response. ok is false when the consumer
// stopped the run.
func (r *run) callModel(ctx context.Context, step int) (resp *ai.Response, ok bool, err error) {
	ctx, span := r.g.tracer.Start(ctx, "chat.model", trace.WithAttributes(attribute.Int("agentcli.step", step)))
	defer span.End()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := append(slices.Clone(r.g.chatOpts), ai.WithTools(r.g.registry.Tools()...))
	events, err := r.g.provider.ChatStream(ctx, r.cp.Messages, opts...)
	if err != nil {
		return nil, true, err
	}

	for ev := range events {
		switch {
		case ev.Err != nil:
			span.RecordError(ev.Err)
			return nil, true, ev.Err
		case ev.Done:
			resp = ev.Response
		case ev.Delta != "" && r.mode == graph.ModeMessages:
			if !r.emit(chunk.NewText(r.id, NodeModel, ev.Delta)) {
				return nil, false, nil
			}
		}
	}
	if resp == nil {
		if ctx.Err() != nil {
			return nil, true, ctx.Err()
		}
		return nil, true, errors.New("model stream ended without a response")
	}
	span.SetAttributes(
		attribute.Int("agentcli.input_tokens", resp.Usage.InputTokens),
		attribute.Int("agentcli.output_tokens", resp.Usage.OutputTokens),
	)
	return resp, true, nil
}

// interruptFor builds the interrupt for the calls that need review, or nil
// when none do. reviewed maps each action request to its call index.
func (g *Graph) interruptFor(runID string, step int, calls []ai.ToolCall) (*chunk.Interrupt, []int) {
	var in *chunk.Interrupt
	var reviewed []int
	for i, call := range calls {
		review, ok := g.interruptOn[call.Name]
		if !ok {
			continue
		}
		if in == nil {
			in = &chunk.Interrupt{ID: fmt.Sprintf("%s/%d", runID, step), RunID: runID}
		}
		args := map[string]any{}
		_ = json.Unmarshal([]byte(call.Arguments), &args)
		description := review.Description
		if description == "" {
			description = fmt.Sprintf("Tool execution requires approval\n\nTool: %s\nArgs: %s", call.Name, call.Arguments)
		}
		in.ActionRequests = append(in.ActionRequests, chunk.ActionRequest{
			Name:        call.Name,
			ToolCallID:  call.ID,
			Args:        args,
			Description: description,
		})
		in.ReviewConfigs = append(in.ReviewConfigs, chunk.ReviewConfig{
			ActionName:       call.Name,
			AllowedDecisions: review.AllowedDecisions,
		})
		reviewed = append(reviewed, i)
	}
	return in, reviewed
}

// runTools applies decisions, runs the remaining calls, reports their
// results in call order, and appends them to the history.
func (r *run) runTools(ctx context.Context, calls []ai.ToolCall, decisions map[int]ai.Decision) bool {
	results := make([]ai.ToolResult, len(calls))
	var todo []int
	for i, call := range calls {
		d, ok := decisions[i]
		switch {
		case ok && d.Type == ai.DecisionReject:
			results[i] = rejection(call, d.Message)
		case ok && d.Type == ai.DecisionEdit:
			calls[i] = r.applyEdit(i, call, *d.EditedAction)
			todo = append(todo, i)
		default:
			todo = append(todo, i)
		}
	}

	if r.g.parallel && len(todo) > 1 {
		var wg sync.WaitGroup
		for _, i := range todo {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = r.g.execute(ctx, calls[i])
			}()
		}
		wg.Wait()
	} else {
		for _, i := range todo {
			results[i] = r.g.execute(ctx, calls[i])
		}
	}

	r.cp.Messages = append(r.cp.Messages, ai.NewToolResultMessage(results...))
	planned := false
	for i, res := range results {
		if calls[i].Name == tool.TodoToolName && !res.IsError {
			planned = true
		}
	}
	if planned {
		r.cp.Todos = r.g.todos.Items()
	}
	if err := r.g.save(ctx, r.key, r.cp); err != nil {
		r.fail(ctx, NodeTools, err)
		return false
	}

	for _, res := range results {
		if !r.emit(chunk.NewToolResult(r.id, NodeTools, res)) {
			return false
		}
	}
	if planned && !r.emit(chunk.NewTodoList(r.id, NodeTools, r.cp.Todos)) {
		return false
	}
	if err := ctx.Err(); err != nil {
		r.fail(ctx, NodeTools, err)
		return false
	}
	return true
}

// applyEdit swaps the call for the edited one, in the history too, so the
// model sees what actually ran.
func (r *run) applyEdit(i int, call ai.ToolCall, edit ai.EditedAction) ai.ToolCall {
	args, _ := json.Marshal(edit.Args)
	if edit.Args == nil {
		args = []byte("{}")
	}
	edited := ai.ToolCall{ID: call.ID, Name: edit.Name, Arguments: string(args)}
	for m := len(r.cp.Messages) - 1; m >= 0; m-- {
		msg := &r.cp.Messages[m]
		if msg.Role != ai.RoleAssistant {
			continue
		}
		if i < len(msg.ToolCalls) && msg.ToolCalls[i].ID == call.ID {
			msg.ToolCalls = slices.Clone(msg.ToolCalls)
			msg.ToolCalls[i] = edited
		}
		break
	}
	return edited
}

func (g *Graph) execute(ctx context.Context, call ai.ToolCall) ai.ToolResult {
	if g.toolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.toolTimeout)
		defer cancel()
	}
	ctx, span := g.tracer.Start(ctx, "chat.tool", trace.WithAttributes(attribute.String("agentcli.tool", call.Name)))
	defer span.End()

	result, err := g.registry.Execute(ctx, call)
	if err != nil {
		result = ai.ToolResult{ToolCallID: call.ID, Name: call.Name, Content: err.Error(), IsError: true}
	}
	if result.IsError {
		span.SetStatus(codes.Error, result.Content)
	}
	return result
}

func rejection(call ai.ToolCall, reason string) ai.ToolResult {
	content := fmt.Sprintf("User rejected the tool call for `%s` with id %s", call.Name, call.ID)
	if reason != "" {
		content += ": " + reason
	}
	return ai.ToolResult{ToolCallID: call.ID, Name: call.Name, Content: content, IsError: true}
}

var (
	_ graph.Graph = (*Graph)(nil)
	_ io.Closer   = (*Graph)(nil)
)
