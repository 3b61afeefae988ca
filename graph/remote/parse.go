package remote

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
	"github.com/spetersoncode/agentcli/graph"
)

const interruptKey = "__interrupt__"

// parser turns server events into chunks. Which event carries the text
// depends on the stream mode; interrupts always come from updates.
type parser struct {
	mode        graph.StreamMode
	runID       string
	ended       bool
	interrupted bool

	// The first values event of a run repeats the thread state as it was
	// before the run. Messages up to the baseline are never reported.
	resumed bool
	primed  bool
	seen    int            // messages already reported from values events
	todos   string         // last todo list reported from values events
	partial map[string]int // text already reported per message, for messages/partial
}

func newParser(mode graph.StreamMode, resumed bool) *parser {
	return &parser{mode: mode, resumed: resumed, partial: make(map[string]int)}
}

func (p *parser) parse(event string, data []byte) ([]chunk.Chunk, error) {
	switch event {
	case "updates":
		return p.updates(gjson.ParseBytes(data))
	case "values":
		if p.mode == graph.ModeValues {
			return p.values(gjson.ParseBytes(data)), nil
		}
	case "messages":
		if p.mode == graph.ModeMessages {
			return p.messageTuple(gjson.ParseBytes(data)), nil
		}
	case "messages/partial":
		if p.mode == graph.ModeMessages {
			return p.messagePartial(gjson.ParseBytes(data)), nil
		}
	case "error":
		res := gjson.ParseBytes(data)
		msg := res.Get("message").String()
		if msg == "" {
			msg = res.Get("error").String()
		}
		if msg == "" {
			msg = string(data)
		}
		return nil, &ai.StreamingError{RunID: p.runID, Err: errors.New(msg)}
	case "end":
		p.ended = true
	}
	return nil, nil
}

// updates maps {"node": update, ...} in the order the server sent them.
func (p *parser) updates(data gjson.Result) ([]chunk.Chunk, error) {
	var out []chunk.Chunk
	var err error
	data.ForEach(func(key, update gjson.Result) bool {
		node := key.String()
		if node == interruptKey {
			var c chunk.Chunk
			c, err = p.interrupt(update)
			if err == nil {
				out = append(out, c)
			}
			return err == nil
		}
		if p.mode == graph.ModeValues {
			return true
		}
		forEachMessage(update.Get("messages"), func(msg gjson.Result) {
			out = append(out, p.message(node, msg, p.mode == graph.ModeUpdates)...)
		})
		if todos := update.Get("todos"); todos.IsArray() {
			out = append(out, chunk.NewTodoList(p.runID, node, parseTodos(todos)))
		}
		return true
	})
	return out, err
}

func (p *parser) interrupt(value gjson.Result) (chunk.Chunk, error) {
	if value.IsArray() {
		items := value.Array()
		if len(items) == 0 {
			return chunk.Chunk{}, &ai.InterruptProtocolError{Msg: "empty interrupt list"}
		}
		value = items[0]
	}
	in := &chunk.Interrupt{ID: value.Get("id").String()}
	if in.ID == "" {
		in.ID = value.Get("interrupt_id").String()
	}
	raw := value.Get("value")
	if raw.Exists() {
		if err := json.Unmarshal([]byte(raw.Raw), in); err != nil {
			in.ActionRequests = nil
			in.ReviewConfigs = nil
		}
		if len(in.ActionRequests) == 0 {
			in.Value = json.RawMessage(raw.Raw)
		}
	}
	p.interrupted = true
	return chunk.NewInterrupt(p.runID, interruptKey, in), nil
}

// values reports the messages and todos that are new since the last state.
// On a fresh run the baseline ends at the input's human message; on a resume
// the whole first state was shown before the interrupt.
func (p *parser) values(state gjson.Result) []chunk.Chunk {
	var out []chunk.Chunk
	msgs := state.Get("messages").Array()
	if !p.primed {
		p.primed = true
		p.seen = len(msgs)
		if !p.resumed {
			p.seen = afterLastHuman(msgs)
		}
		p.todos = state.Get("todos").Raw
	}
	if len(msgs) < p.seen {
		p.seen = 0
	}
	for _, msg := range msgs[p.seen:] {
		out = append(out, p.message("", msg, true)...)
	}
	p.seen = len(msgs)

	if todos := state.Get("todos"); todos.IsArray() && todos.Raw != p.todos {
		p.todos = todos.Raw
		out = append(out, chunk.NewTodoList(p.runID, "", parseTodos(todos)))
	}
	return out
}

func afterLastHuman(msgs []gjson.Result) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if messageType(msgs[i]) == "human" {
			return i + 1
		}
	}
	return 0
}

// message maps one serialized message. withText is false when text arrives
// separately as tokens.
func (p *parser) message(node string, msg gjson.Result, withText bool) []chunk.Chunk {
	var out []chunk.Chunk
	switch messageType(msg) {
	case "ai":
		if text := textOf(msg.Get("content")); withText && text != "" {
			out = append(out, chunk.NewText(p.runID, node, text))
		}
		if calls := toolCalls(msg.Get("tool_calls")); len(calls) > 0 {
			out = append(out, chunk.NewToolCalls(p.runID, node, calls))
		}
	case "tool":
		out = append(out, chunk.NewToolResult(p.runID, node, ai.ToolResult{
			ToolCallID: msg.Get("tool_call_id").String(),
			Name:       msg.Get("name").String(),
			Content:    textOf(msg.Get("content")),
			IsError:    msg.Get("status").String() == "error",
		}))
	}
	return out
}

// messageTuple maps a [message chunk, metadata] pair of the messages stream.
func (p *parser) messageTuple(data gjson.Result) []chunk.Chunk {
	msg, meta := data.Get("0"), data.Get("1")
	if messageType(msg) != "ai" {
		return nil
	}
	text := textOf(msg.Get("content"))
	if text == "" {
		return nil
	}
	return []chunk.Chunk{chunk.NewText(p.runID, meta.Get("langgraph_node").String(), text)}
}

// messagePartial maps cumulative message snapshots to the new text only.
func (p *parser) messagePartial(data gjson.Result) []chunk.Chunk {
	var out []chunk.Chunk
	forEachMessage(data, func(msg gjson.Result) {
		if messageType(msg) != "ai" {
			return
		}
		id := msg.Get("id").String()
		text := textOf(msg.Get("content"))
		done := p.partial[id]
		if len(text) <= done {
			return
		}
		p.partial[id] = len(text)
		out = append(out, chunk.NewText(p.runID, "", text[done:]))
	})
	return out
}

func forEachMessage(msgs gjson.Result, fn func(gjson.Result)) {
	switch {
	case msgs.IsArray():
		for _, m := range msgs.Array() {
			fn(m)
		}
	case msgs.IsObject():
		fn(msgs)
	}
}

// messageType normalizes the message type across serializations.
func messageType(msg gjson.Result) string {
	t := msg.Get("type").String()
	if t == "" {
		t = msg.Get("role").String()
	}
	switch strings.ToLower(strings.TrimSuffix(strings.TrimSuffix(t, "Chunk"), "Message")) {
	case "ai", "assistant":
		return "ai"
	case "tool":
		return "tool"
	case "human", "user":
		return "human"
	default:
		return t
	}
}

// textOf reads content that is either a string or a list of content blocks.
func textOf(content gjson.Result) string {
	if !content.IsArray() {
		return content.String()
	}
	var b strings.Builder
	for _, block := range content.Array() {
		switch {
		case block.Type == gjson.String:
			b.WriteString(block.String())
		case block.Get("type").String() == "text":
			b.WriteString(block.Get("text").String())
		}
	}
	return b.String()
}

func toolCalls(calls gjson.Result) []ai.ToolCall {
	var out []ai.ToolCall
	for _, c := range calls.Array() {
		args := c.Get("args").Raw
		if args == "" {
			args = "{}"
		}
		out = append(out, ai.ToolCall{
			ID:        c.Get("id").String(),
			Name:      c.Get("name").String(),
			Arguments: args,
		})
	}
	return out
}

func parseTodos(todos gjson.Result) []chunk.Todo {
	out := make([]chunk.Todo, 0, len(todos.Array()))
	for _, t := range todos.Array() {
		out = append(out, chunk.Todo{
			Content: t.Get("content").String(),
			Status:  chunk.TodoStatus(t.Get("status").String()),
		})
	}
	return out
}
