// Package loop drives a graph through conversation turns.
//
// A turn streams the graph's response to a user message, pausing on each
// interrupt to obtain decisions and resuming the same run until the graph
// finishes. [Runner.Run] wraps turns in a read-eval-print loop with
// slash-commands; [Runner.RunOnce] runs a single turn.
//
// The runner moves through [StateIdle], [StateStreaming] and
// [StateAwaitingDecision]. At most one interrupt is pending at any time.
package loop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
	"github.com/spetersoncode/agentcli/graph"
	"github.com/spetersoncode/agentcli/prompt"
)

const tracerName = "github.com/spetersoncode/agentcli/loop"

// errInterrupted is the cancellation cause of a turn stopped by a signal.
var errInterrupted = errors.New("turn interrupted")

// Runner drives one graph. It is not safe to run two turns concurrently;
// State and the accessors may be called from other goroutines.
type Runner struct {
	graph      graph.Graph
	opts       *Options
	log        *slog.Logger
	tracer     trace.Tracer
	transcript *Transcript

	mu     sync.Mutex
	state  State
	config ai.Config
}

// New creates a Runner for g.
func New(g graph.Graph, opts ...Option) *Runner {
	o := ApplyOptions(opts...)
	cfg := o.Config.Clone()
	if cfg.ThreadID() == "" {
		cfg = cfg.WithThreadID(ai.NewThreadID())
	}
	return &Runner{
		graph:      g,
		opts:       o,
		log:        o.Logger.With("component", "loop"),
		tracer:     otel.Tracer(tracerName),
		transcript: NewTranscript(),
		config:     cfg,
	}
}

// State returns the current loop state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	from := r.state
	r.state = s
	r.mu.Unlock()
	if from == s {
		return
	}
	r.log.Debug("state change", "from", from, "to", s)
	if r.opts.OnStateChange != nil {
		r.opts.OnStateChange(from, s)
	}
}

// Transcript returns the session transcript.
func (r *Runner) Transcript() *Transcript {
	return r.transcript
}

// Config returns a copy of the run config used for the next turn.
func (r *Runner) Config() ai.Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.config.Clone()
}

// ThreadID returns the thread the next turn is addressed to.
func (r *Runner) ThreadID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.config.ThreadID()
}

// NewThread switches to a fresh thread and returns its ID. The graph is not
// invoked.
func (r *Runner) NewThread() string {
	id := ai.NewThreadID()
	r.mu.Lock()
	r.config = r.config.WithThreadID(id)
	r.mu.Unlock()
	return id
}

// RunOnce runs a single turn. Choosing Exit at a decision prompt is not an
// error.
func (r *Runner) RunOnce(ctx context.Context, message string) error {
	_, err := r.RunTurn(ctx, message)
	if errors.Is(err, errExit) {
		return nil
	}
	return err
}

// Run reads messages until end of input, a quit command, or Ctrl-C at the
// prompt. Failed turns are reported and the loop continues.
func (r *Runner) Run(ctx context.Context) error {
	label := ""
	if r.opts.Interactive {
		label = "> "
		r.opts.Sink.Notice("Type /h for help, /q to quit.")
	}
	for {
		line, err := r.readLine(ctx, label)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, prompt.ErrAborted) {
				r.opts.Sink.TurnEnd(nil)
				return nil
			}
			return err
		}

		switch parseCommand(line) {
		case cmdQuit:
			return nil
		case cmdClear:
			r.transcript.Clear()
			r.opts.Sink.Notice("Transcript cleared.")
		case cmdHelp:
			r.opts.Sink.Notice(HelpText)
		case cmdThread:
			r.opts.Sink.Notice("Thread: " + r.ThreadID())
		case cmdNew:
			r.opts.Sink.Notice("Started new thread: " + r.NewThread())
		case cmdUnknown:
			name, _, _ := strings.Cut(strings.TrimSpace(line), " ")
			r.opts.Sink.Warn(fmt.Sprintf("Unknown command %s. Type /h for help.", name))
		default:
			if strings.TrimSpace(line) == "" {
				continue
			}
			if _, err := r.RunTurn(ctx, line); errors.Is(err, errExit) {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
}

// readLine reads a REPL line. A signal while waiting ends the session; the
// blocked read is abandoned since the process is about to exit.
func (r *Runner) readLine(ctx context.Context, label string) (string, error) {
	if r.opts.Signals == nil {
		return r.opts.Prompter.ReadLine(ctx, label)
	}
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := r.opts.Prompter.ReadLine(ctx, label)
		ch <- result{line, err}
	}()
	select {
	case res := <-ch:
		return res.line, res.err
	case <-r.opts.Signals:
		return "", prompt.ErrAborted
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// turnContext derives the context of one turn. A signal cancels it with
// errInterrupted as the cause.
func (r *Runner) turnContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(ctx)
	if r.opts.Signals == nil {
		return ctx, func() { cancel(nil) }
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-r.opts.Signals:
			cancel(errInterrupted)
		case <-done:
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		close(done)
		cancel(nil)
	}
}

// RunTurn sends message to the graph and streams the response, handling
// interrupts until the run completes. The returned error is also rendered.
func (r *Runner) RunTurn(ctx context.Context, message string) (Turn, error) {
	cfg := r.Config()
	turn := Turn{Message: message, ThreadID: cfg.ThreadID(), Started: time.Now()}

	ctx, span := r.tracer.Start(ctx, "agentcli.turn", trace.WithAttributes(
		attribute.String("agentcli.thread_id", turn.ThreadID),
		attribute.String("agentcli.stream_mode", string(r.opts.StreamMode)),
		attribute.Bool("agentcli.interactive", r.opts.Interactive),
		attribute.Bool("agentcli.async", r.opts.Async),
	))
	defer span.End()

	turnCtx, stop := r.turnContext(ctx)
	r.opts.Sink.TurnStart(turn.ThreadID)
	err := r.drive(turnCtx, cfg, message, &turn)
	if err != nil && errors.Is(context.Cause(turnCtx), errInterrupted) {
		err = &ai.StreamingError{Err: fmt.Errorf("%w: %w", errInterrupted, context.Canceled)}
	}
	stop()
	r.setState(StateIdle)

	turn.Err = err
	turn.Finished = time.Now()
	r.transcript.Append(turn)
	span.SetAttributes(
		attribute.Int("agentcli.chunks", len(turn.Chunks)),
		attribute.Int("agentcli.decisions", turn.Decisions),
	)

	switch {
	case err == nil:
	case errors.Is(err, errExit):
	case ai.Category(err) == ai.CategoryCanceled:
		r.opts.Sink.Notice("Turn interrupted.")
		span.SetStatus(codes.Error, "canceled")
	default:
		r.log.Debug("turn failed", "category", ai.Category(err), "error", err)
		r.opts.Sink.Error(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	r.opts.Sink.TurnEnd(err)
	return turn, err
}

func (r *Runner) drive(ctx context.Context, cfg ai.Config, message string, turn *Turn) error {
	opts := []graph.Option{graph.WithStreamMode(r.opts.StreamMode)}

	r.setState(StateStreaming)
	src := func(ctx context.Context) iter.Seq2[chunk.Chunk, error] {
		return r.graph.Stream(ctx, ai.PrepareInput(message, cfg), opts...)
	}
	for {
		pending, err := r.consume(ctx, src, turn)
		if err != nil {
			return err
		}
		if pending == nil {
			return nil
		}

		if r.opts.Interactive {
			r.setState(StateAwaitingDecision)
		}
		decisions, err := r.decide(ctx, pending)
		if err != nil {
			if errors.Is(err, prompt.ErrAborted) {
				return &ai.StreamingError{RunID: pending.RunID, Err: fmt.Errorf("%w: %w", err, context.Canceled)}
			}
			return err
		}
		if err := pending.Validate(decisions); err != nil {
			return err
		}
		turn.Decisions++

		r.setState(StateStreaming)
		resume := ai.PrepareInput("", cfg, ai.WithDecisions(decisions...))
		runID := pending.RunID
		src = func(ctx context.Context) iter.Seq2[chunk.Chunk, error] {
			return r.graph.Resume(ctx, runID, resume, opts...)
		}
	}
}

// consume writes every chunk of seq to the sink in order and returns the
// interrupt the stream ended on, if any. Chunks after an interrupt are still
// written; a second interrupt in the same stream is a protocol error.
func (r *Runner) consume(ctx context.Context, src graph.Source, turn *Turn) (*chunk.Interrupt, error) {
	var seq iter.Seq2[chunk.Chunk, error]
	if r.opts.Async {
		seq = graph.Async(ctx, src)
	} else {
		seq = src(ctx)
	}

	var pending *chunk.Interrupt
	for c, err := range seq {
		if err != nil {
			return nil, streamError(err)
		}
		switch c.Type {
		case chunk.TypeInterrupt:
			if pending != nil {
				return nil, &ai.InterruptProtocolError{
					InterruptID: pending.ID,
					Msg:         "received a second interrupt before the first was resolved",
				}
			}
			in, err := checkInterrupt(c)
			if err != nil {
				return nil, err
			}
			pending = in
			turn.Chunks = append(turn.Chunks, c)
			continue
		case chunk.TypeError:
			return nil, streamError(&ai.StreamingError{RunID: c.RunID, Node: c.Node, Err: c.Err})
		}
		turn.Chunks = append(turn.Chunks, c)
		r.opts.Sink.Chunk(c)
	}
	return pending, nil
}

func checkInterrupt(c chunk.Chunk) (*chunk.Interrupt, error) {
	in := c.Interrupt
	if in == nil || len(in.ActionRequests) == 0 {
		return nil, &ai.InterruptProtocolError{Msg: "interrupt carries no action requests"}
	}
	if in.RunID == "" {
		in.RunID = c.RunID
	}
	if in.RunID == "" {
		return nil, &ai.InterruptProtocolError{InterruptID: in.ID, Msg: "interrupt carries no run id"}
	}
	return in, nil
}

// streamError wraps err as a StreamingError unless it already belongs to the
// error taxonomy.
func streamError(err error) error {
	var (
		se *ai.StreamingError
		ie *ai.InterruptProtocolError
		in *ai.InputError
	)
	if errors.As(err, &se) || errors.As(err, &ie) || errors.As(err, &in) {
		return err
	}
	return &ai.StreamingError{Err: err}
}
