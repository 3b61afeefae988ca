// Package agentcli holds the types shared by the agent command-line front-end:
// the input payload handed to a graph, the passthrough run config, the
// decisions a user attaches to an interrupt, and the error taxonomy used to
// decide how a failure is reported.
//
// The rest of the module is split by concern:
//
//   - [github.com/spetersoncode/agentcli/resolve] turns a "location:attribute"
//     spec into a [github.com/spetersoncode/agentcli/graph.Graph].
//   - [github.com/spetersoncode/agentcli/loop] drives stream/resume calls,
//     interrupts, and the read-eval-print loop.
//   - [github.com/spetersoncode/agentcli/chunk] models what a graph streams.
//
// # Shaping Input
//
// [PrepareInput] is a pure function of its arguments:
//
//	cfg, err := agentcli.ParseConfig(`{"configurable": {"thread_id": "t-1"}}`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	in := agentcli.PrepareInput("Hello, agent!", cfg)
//	// json: {"messages":[{"role":"user","content":"Hello, agent!"}]}
//
// An empty or whitespace-only message yields an input without messages, which
// is what a resume carries:
//
//	in := agentcli.PrepareInput("", cfg, agentcli.WithDecisions(agentcli.Approve()))
//
// # Errors
//
// Every failure surfaced to the user is one of [ResolutionError],
// [InputError], [StreamingError], or [InterruptProtocolError]. Use [Category]
// to classify an arbitrary wrapped error.
package agentcli
