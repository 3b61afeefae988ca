package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/agui"
	"github.com/spetersoncode/agentcli/graph"
	"github.com/spetersoncode/agentcli/graph/remote"
	"github.com/spetersoncode/agentcli/internal/telemetry"
	"github.com/spetersoncode/agentcli/loop"
	"github.com/spetersoncode/agentcli/prompt"
	"github.com/spetersoncode/agentcli/render"
	"github.com/spetersoncode/agentcli/resolve"

	// Registers the demo:graph and demo:approval graphs.
	_ "github.com/spetersoncode/agentcli/internal/demo"
)

const shutdownTimeout = 5 * time.Second

func run(ctx context.Context, f *flags, args []string, s streams) error {
	set, err := loadSettings(f, args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(s.err, &slog.HandlerOptions{Level: set.logLevel}))
	slog.SetDefault(logger)
	sink := newSink(set, s.out, logger)

	shutdown, err := telemetry.Setup(ctx, "agentcli", ai.Version)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				logger.Warn("flush traces", "error", err)
			}
		}()
	}

	if set.verbose && set.specFromEnv {
		sink.Notice("Using agent spec from environment: " + set.spec)
	}
	enterWorkspace(set, sink)
	if err := set.readMessageFile(); err != nil {
		return fail(sink, err)
	}

	cfg, err := set.runConfig()
	if err != nil {
		return fail(sink, err)
	}

	g, err := loadGraph(ctx, set, sink, logger)
	if err != nil {
		return fail(sink, err)
	}
	if c, ok := g.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				logger.Warn("close graph", "error", err)
			}
		}()
	}

	opts := []loop.Option{
		loop.WithInteractive(set.interactive),
		loop.WithAsync(set.async),
		loop.WithStreamMode(set.streamMode),
		loop.WithVerbose(set.verbose),
		loop.WithConfig(cfg),
		loop.WithPrompter(newPrompter(s, set.interactive)),
		loop.WithSink(sink),
		loop.WithLogger(logger),
	}
	if s.signals != nil {
		opts = append(opts, loop.WithSignals(s.signals))
	}
	runner := loop.New(g, opts...)

	if set.hasMessage {
		// The loop has rendered any failure of the turn.
		if err := runner.RunOnce(ctx, set.message); err != nil {
			return renderedError{err}
		}
		return nil
	}
	return runner.Run(ctx)
}

// fail renders err and marks it as shown.
func fail(sink render.Sink, err error) error {
	sink.Error(err)
	return renderedError{err}
}

// enterWorkspace changes into the workspace root. A missing directory is
// reported and ignored.
func enterWorkspace(set *settings, sink render.Sink) {
	if set.workspaceRoot == "" {
		return
	}
	dir, err := filepath.Abs(set.workspaceRoot)
	if err == nil {
		var info os.FileInfo
		if info, err = os.Stat(dir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err == nil {
		err = os.Chdir(dir)
	}
	if err != nil {
		sink.Warn(fmt.Sprintf("Warning: %s not usable: %s (%v)", envWorkspaceRoot, set.workspaceRoot, err))
		return
	}
	if set.verbose {
		sink.Notice("Changed to workspace: " + dir)
	}
}

func loadGraph(ctx context.Context, set *settings, sink render.Sink, logger *slog.Logger) (graph.Graph, error) {
	opts := []resolve.Option{
		resolve.WithGraphName(set.graphName),
		resolve.WithLogger(logger),
	}
	if key := os.Getenv(remote.APIKeyEnv); key != "" {
		opts = append(opts, resolve.WithRemoteOptions(remote.WithAPIKey(key)))
	}

	sink.Notice(fmt.Sprintf("Loading graph from %s...", set.spec))
	g, err := resolve.Resolve(ctx, set.spec, opts...)
	if err != nil {
		return nil, err
	}
	sink.Notice("✓ Graph loaded")
	return g, nil
}

func newSink(set *settings, out io.Writer, logger *slog.Logger) render.Sink {
	if set.output == outputAGUI {
		return agui.NewSink(out, agui.WithLogger(logger))
	}
	return render.NewText(out, render.WithVerbose(set.verbose))
}

// newPrompter uses huh forms when decisions are prompted on a terminal.
func newPrompter(s streams, interactive bool) prompt.Prompter {
	if f, ok := s.in.(*os.File); ok && interactive && prompt.IsTerminal(f) {
		return prompt.NewTerminal(s.in, s.out)
	}
	return prompt.NewLine(s.in, s.out)
}
