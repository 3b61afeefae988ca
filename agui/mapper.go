package agui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/google/uuid"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
)

// Mapper converts chunks to AG-UI events.
//
// Create a new Mapper for each run using NewMapper. The Mapper tracks the
// open text message and step so that every START is matched by an END.
type Mapper struct {
	threadID string
	runID    string

	messageID string
	step      string
	inStep    bool

	// transcript of the run, for MessagesSnapshot
	messages []ai.Message
}

// NewMapper creates a new Mapper for a single run.
// The threadID and runID are used in lifecycle events (RUN_STARTED, RUN_FINISHED).
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{
		threadID: threadID,
		runID:    runID,
	}
}

// ThreadID returns the thread ID for this mapper.
func (m *Mapper) ThreadID() string {
	return m.threadID
}

// RunID returns the run ID for this mapper.
func (m *Mapper) RunID() string {
	return m.runID
}

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// RunError returns a RUN_ERROR event.
func (m *Mapper) RunError(err error) events.Event {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return events.NewRunErrorEvent(msg)
}

// MessagesSnapshot returns a MESSAGES_SNAPSHOT of everything mapped so far.
func (m *Mapper) MessagesSnapshot() events.Event {
	return events.NewMessagesSnapshotEvent(FromMessages(m.messages))
}

// MapChunk converts a chunk to zero or more AG-UI events.
func (m *Mapper) MapChunk(c chunk.Chunk) []events.Event {
	switch c.Type {
	case chunk.TypeText:
		if c.Text == "" {
			return nil
		}
		out := m.enterStep(c.Node)
		if m.messageID == "" {
			m.messageID = events.GenerateMessageID()
			out = append(out, events.NewTextMessageStartEvent(m.messageID, events.WithRole(RoleAssistant)))
			m.messages = append(m.messages, ai.Message{ID: m.messageID, Role: ai.RoleAssistant})
		}
		m.messages[len(m.messages)-1].Content += c.Text
		return append(out, events.NewTextMessageContentEvent(m.messageID, c.Text))

	case chunk.TypeToolCalls:
		out := m.enterStep(c.Node)
		out = append(out, m.endMessage()...)
		for _, tc := range c.ToolCalls {
			out = append(out, toolCallEvents(tc.ID, tc.Name, tc.Arguments)...)
		}
		m.messages = append(m.messages, ai.Message{
			ID:        events.GenerateMessageID(),
			Role:      ai.RoleAssistant,
			ToolCalls: c.ToolCalls,
		})
		return out

	case chunk.TypeToolResult:
		if c.ToolResult == nil {
			return nil
		}
		out := m.enterStep(c.Node)
		out = append(out, m.endMessage()...)
		messageID := events.GenerateMessageID()
		m.messages = append(m.messages, ai.Message{
			ID:          messageID,
			Role:        ai.RoleTool,
			ToolResults: []ai.ToolResult{*c.ToolResult},
		})
		return append(out, events.NewToolCallResultEvent(messageID, c.ToolResult.ToolCallID, c.ToolResult.Content))

	case chunk.TypeTodoList:
		out := m.enterStep(c.Node)
		out = append(out, m.endMessage()...)
		id := events.GenerateMessageID()
		text := todoText(c.Todos)
		m.messages = append(m.messages, ai.Message{ID: id, Role: ai.RoleAssistant, Content: text})
		return append(out,
			events.NewTextMessageStartEvent(id, events.WithRole(RoleAssistant)),
			events.NewTextMessageContentEvent(id, text),
			events.NewTextMessageEndEvent(id),
		)

	case chunk.TypeInterrupt:
		if c.Interrupt == nil {
			return nil
		}
		return m.MapInterrupt(c.Interrupt)

	case chunk.TypeComplete:
		return m.Close()

	default:
		return nil
	}
}

// MapInterrupt announces the actions awaiting a decision as tool calls.
func (m *Mapper) MapInterrupt(in *chunk.Interrupt) []events.Event {
	out := m.endMessage()
	for _, a := range in.ActionRequests {
		args, err := json.Marshal(a.Args)
		if err != nil || a.Args == nil {
			args = []byte("{}")
		}
		id := a.ToolCallID
		if id == "" {
			id = "call-" + uuid.NewString()
		}
		out = append(out, toolCallEvents(id, a.Name, string(args))...)
	}
	return out
}

// Close ends the open text message and step, if any.
func (m *Mapper) Close() []events.Event {
	out := m.endMessage()
	if m.inStep {
		out = append(out, events.NewStepFinishedEvent(m.step))
		m.inStep = false
		m.step = ""
	}
	return out
}

// enterStep switches to node, closing the previous step. Chunks without a
// node stay in the current step.
func (m *Mapper) enterStep(node string) []events.Event {
	if node == "" || (m.inStep && node == m.step) {
		return nil
	}
	out := m.Close()
	m.step = node
	m.inStep = true
	return append(out, events.NewStepStartedEvent(node))
}

func (m *Mapper) endMessage() []events.Event {
	if m.messageID == "" {
		return nil
	}
	ev := events.NewTextMessageEndEvent(m.messageID)
	m.messageID = ""
	return []events.Event{ev}
}

func toolCallEvents(id, name, args string) []events.Event {
	return []events.Event{
		events.NewToolCallStartEvent(id, name),
		events.NewToolCallArgsEvent(id, args),
		events.NewToolCallEndEvent(id),
	}
}

func todoText(todos []chunk.Todo) string {
	var b strings.Builder
	for _, t := range todos {
		mark := " "
		switch t.Status {
		case chunk.TodoCompleted:
			mark = "x"
		case chunk.TodoInProgress:
			mark = "~"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, t.Content)
	}
	return b.String()
}
