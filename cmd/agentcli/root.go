package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	ai "github.com/spetersoncode/agentcli"
)

// exitInterrupted is the exit code of a one-shot turn stopped by Ctrl-C.
const exitInterrupted = 130

// streams are the process streams the command runs against.
type streams struct {
	in      io.Reader
	out     io.Writer
	err     io.Writer
	signals <-chan os.Signal
}

// renderedError marks an error the sink has already shown to the user.
type renderedError struct {
	error
}

func (e renderedError) Unwrap() error {
	return e.error
}

// execute runs the command and returns the process exit code.
func execute(ctx context.Context, args []string, s streams) int {
	godotenv.Load()

	cmd := newRootCmd(s)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		var rendered renderedError
		if !errors.As(err, &rendered) {
			fmt.Fprintf(s.err, "Error: %v\n", err)
		}
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case ai.Category(err) == ai.CategoryCanceled:
		return exitInterrupted
	default:
		return 1
	}
}

func newRootCmd(s streams) *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "agentcli [flags] [MESSAGE]",
		Short: "Run an agent graph from the command line",
		Long: `Run an agent graph from the command line.

The agent is named by a location:attribute spec. The location is a module
registered in the binary, a Go plugin (.so), a graph definition file (.yaml,
.yml, .json), or the URL of a LangGraph server. The attribute defaults to
"graph"; for a server it is the assistant ID.

With a MESSAGE (or --file) one turn runs and the command exits. Otherwise a
REPL starts: /h for help, /q to quit.

Environment:
  DEEPAGENT_SPEC, DEEPAGENT_AGENT_SPEC   agent spec when --agent is not given
  DEEPAGENT_WORKSPACE_ROOT               directory to run in
  DEEPAGENT_CONFIG                       run config (JSON or file), under --config
  DEEPAGENT_STREAM_MODE                  stream mode when --stream-mode is not given
  DEEPAGENT_LOG_LEVEL                    debug, info, warn or error
  OTEL_EXPORTER_OTLP_ENDPOINT            export traces over OTLP/HTTP
  LANGGRAPH_API_KEY                      API key for remote graphs`,
		Example: `  agentcli -a demo:graph "Hello, agent!"
  agentcli -a agents.yaml:assistant --no-interactive -f task.txt
  agentcli -a http://localhost:2024:agent -c '{"configurable": {"thread_id": "1"}}'`,
		Version:       ai.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, args, s)
		},
	}
	cmd.SetIn(s.in)
	cmd.SetOut(s.out)
	cmd.SetErr(s.err)

	fs := cmd.Flags()
	fs.StringVarP(&f.agent, "agent", "a", "", "agent spec, location[:attribute]")
	fs.StringVarP(&f.graphName, "graph-name", "g", "", `attribute to load from the location (default "graph")`)
	fs.StringVarP(&f.file, "file", "f", "", "read the message from a file")
	fs.StringVarP(&f.message, "message", "m", "", "message to send")
	fs.StringVarP(&f.config, "config", "c", "", "run config as a JSON object or the path of a JSON file")
	fs.BoolVar(&f.interactive, "interactive", true, "prompt for decisions on interrupts")
	fs.BoolVar(&f.noInteractive, "no-interactive", false, "approve interrupts without prompting")
	fs.BoolVar(&f.asyncMode, "async-mode", false, "stream on a producer goroutine")
	fs.BoolVar(&f.syncMode, "sync-mode", false, "stream on the loop goroutine (default)")
	fs.StringVar(&f.streamMode, "stream-mode", "", "stream mode: updates, values or messages (default updates)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show node names, full tool output and error chains")
	fs.StringVar(&f.output, "output", outputText, "output format: text or agui")
	fs.StringVar(&f.threadID, "thread-id", "", "thread to continue (default: a new thread)")
	cmd.MarkFlagsMutuallyExclusive("interactive", "no-interactive")
	cmd.MarkFlagsMutuallyExclusive("async-mode", "sync-mode")

	return cmd
}
