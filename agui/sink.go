package agui

import (
	"io"
	"log/slog"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/agentcli/chunk"
)

// Sink writes each turn as a run of AG-UI events, one JSON object per line.
// Notices and warnings are not protocol events; they go to the logger.
type Sink struct {
	w      io.Writer
	log    *slog.Logger
	mapper *Mapper
	failed bool
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithLogger sets the logger for notices, warnings, and write failures.
func WithLogger(l *slog.Logger) SinkOption {
	return func(s *Sink) {
		s.log = l
	}
}

// NewSink creates a Sink writing to w.
func NewSink(w io.Writer, opts ...SinkOption) *Sink {
	s := &Sink{w: w, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TurnStart emits RUN_STARTED for a new run on threadID.
func (s *Sink) TurnStart(threadID string) {
	s.mapper = NewMapper(threadID, "")
	s.failed = false
	s.write(s.mapper.RunStarted())
}

// Chunk emits the events of c.
func (s *Sink) Chunk(c chunk.Chunk) {
	if s.mapper == nil {
		return
	}
	s.write(s.mapper.MapChunk(c)...)
}

// Interrupt emits the pending actions as tool calls.
func (s *Sink) Interrupt(in *chunk.Interrupt) {
	if s.mapper == nil || in == nil {
		return
	}
	s.write(s.mapper.MapInterrupt(in)...)
}

// Notice logs msg at info level.
func (s *Sink) Notice(msg string) {
	s.log.Info(msg)
}

// Warn logs msg at warn level.
func (s *Sink) Warn(msg string) {
	s.log.Warn(msg)
}

// Error emits RUN_ERROR for the current run. Errors outside a run, such as a
// failed command, are logged instead.
func (s *Sink) Error(err error) {
	if s.mapper == nil {
		s.log.Error("agent error", "error", err)
		return
	}
	s.write(s.mapper.Close()...)
	s.write(s.mapper.RunError(err))
	s.failed = true
}

// TurnEnd closes the run: MESSAGES_SNAPSHOT and RUN_FINISHED on success,
// RUN_ERROR otherwise.
func (s *Sink) TurnEnd(err error) {
	if s.mapper == nil {
		return
	}
	s.write(s.mapper.Close()...)
	switch {
	case err == nil:
		s.write(s.mapper.MessagesSnapshot(), s.mapper.RunFinished())
	case !s.failed:
		s.write(s.mapper.RunError(err))
	}
	s.mapper = nil
}

func (s *Sink) write(evs ...events.Event) {
	for _, ev := range evs {
		if ev == nil {
			continue
		}
		data, err := ev.ToJSON()
		if err != nil {
			s.log.Error("encode agui event", "type", ev.Type(), "error", err)
			continue
		}
		if _, err := s.w.Write(append(data, '\n')); err != nil {
			s.log.Error("write agui event", "type", ev.Type(), "error", err)
			return
		}
	}
}
