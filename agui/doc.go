// Package agui emits conversation turns as AG-UI protocol events.
//
// AG-UI (Agent-User Interface) is an open, event-based protocol that
// standardizes how agents stream to user-facing applications. This package
// converts chunks to AG-UI events so a frontend, or any line-oriented
// consumer, can follow a turn.
//
// # Overview
//
//   - [Mapper]: stateful chunk converter that handles AG-UI's
//     Start-Content-End pattern for text messages and steps
//   - [Sink]: a render sink that writes one JSON event per line
//   - [FromMessages]: message conversion for MESSAGES_SNAPSHOT events
//
// # Event Mapping
//
//   - text chunk → TEXT_MESSAGE_START (on first text of a node), TEXT_MESSAGE_CONTENT
//   - node change → TEXT_MESSAGE_END (if open), STEP_FINISHED, STEP_STARTED
//   - tool_calls chunk → TOOL_CALL_START, TOOL_CALL_ARGS, TOOL_CALL_END per call
//   - tool_result chunk → TOOL_CALL_RESULT
//   - todo_list chunk → a complete text message holding a checklist
//   - interrupt → TOOL_CALL_START, TOOL_CALL_ARGS, TOOL_CALL_END per action request
//   - complete chunk → TEXT_MESSAGE_END (if open), STEP_FINISHED
//
// # Thread Safety
//
// Mapper and Sink are NOT safe for concurrent use. The conversation loop
// calls its sink from a single goroutine.
package agui
