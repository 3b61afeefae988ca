package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/graph"
)

// Environment variables read at startup. Flags take precedence.
const (
	envSpec          = "DEEPAGENT_SPEC"
	envAgentSpec     = "DEEPAGENT_AGENT_SPEC"
	envWorkspaceRoot = "DEEPAGENT_WORKSPACE_ROOT"
	envConfig        = "DEEPAGENT_CONFIG"
	envStreamMode    = "DEEPAGENT_STREAM_MODE"
	envLogLevel      = "DEEPAGENT_LOG_LEVEL"
)

// Output formats.
const (
	outputText = "text"
	outputAGUI = "agui"
)

// flags holds the raw command-line values.
type flags struct {
	agent      string
	graphName  string
	file       string
	message    string
	config     string
	streamMode string
	output     string
	threadID   string

	interactive   bool
	noInteractive bool
	asyncMode     bool
	syncMode      bool
	verbose       bool
}

// settings is the startup configuration after flags and environment are
// combined. The run config is parsed later, once the workspace is entered,
// so relative config paths resolve against it.
type settings struct {
	spec          string
	specFromEnv   bool
	graphName     string
	workspaceRoot string
	envConfig     string
	cliConfig     string
	threadID      string
	streamMode    graph.StreamMode
	output        string
	logLevel      slog.Level

	// message is sent as a single turn when hasMessage is set. A message
	// file is read once the workspace is entered, like the config.
	message     string
	messageFile string
	hasMessage  bool

	interactive bool
	async       bool
	verbose     bool
}

func loadSettings(f *flags, args []string) (*settings, error) {
	s := &settings{
		spec:          f.agent,
		graphName:     f.graphName,
		workspaceRoot: os.Getenv(envWorkspaceRoot),
		envConfig:     os.Getenv(envConfig),
		cliConfig:     f.config,
		threadID:      f.threadID,
		output:        strings.ToLower(f.output),
		interactive:   f.interactive && !f.noInteractive,
		async:         f.asyncMode && !f.syncMode,
		verbose:       f.verbose,
	}

	if s.spec == "" {
		s.spec = getEnvOrDefault(envSpec, os.Getenv(envAgentSpec))
		s.specFromEnv = s.spec != ""
	}
	if s.spec == "" {
		return nil, &ai.InputError{Source: "--agent", Msg: fmt.Sprintf("no agent specified; pass -a SPEC or set %s", envSpec)}
	}

	mode, err := graph.ParseStreamMode(firstNonEmpty(f.streamMode, os.Getenv(envStreamMode)))
	if err != nil {
		return nil, &ai.InputError{Source: "--stream-mode", Msg: "unknown stream mode", Err: err}
	}
	s.streamMode = mode

	switch s.output {
	case outputText, outputAGUI:
	default:
		return nil, &ai.InputError{Source: "--output", Msg: fmt.Sprintf("unknown output format %q (want text or agui)", f.output)}
	}

	if s.logLevel, err = logLevel(f.verbose, os.Getenv(envLogLevel)); err != nil {
		return nil, err
	}

	if err := s.loadMessage(f, args); err != nil {
		return nil, err
	}
	return s, nil
}

// loadMessage takes the one-shot message from the MESSAGE argument,
// --message, or --file. At most one may be given.
func (s *settings) loadMessage(f *flags, args []string) error {
	var sources []string
	if len(args) > 0 {
		sources = append(sources, "MESSAGE")
		s.message = args[0]
	}
	if f.message != "" {
		sources = append(sources, "--message")
		s.message = f.message
	}
	if f.file != "" {
		sources = append(sources, "--file")
		s.messageFile = f.file
	}
	if len(sources) > 1 {
		return &ai.InputError{Source: strings.Join(sources, ", "), Msg: "give the message only once"}
	}
	s.hasMessage = len(sources) == 1
	return nil
}

// readMessageFile loads the --file message. Relative paths resolve against
// the working directory, which is the workspace root once entered.
func (s *settings) readMessageFile() error {
	if s.messageFile == "" {
		return nil
	}
	data, err := os.ReadFile(s.messageFile)
	if err != nil {
		return &ai.InputError{Source: "--file", Msg: "read message file", Err: err}
	}
	s.message = string(data)
	return nil
}

// logLevel is debug in verbose mode, otherwise the level named by the
// environment, defaulting to warn so diagnostics stay out of the way.
func logLevel(verbose bool, name string) (slog.Level, error) {
	if verbose {
		return slog.LevelDebug, nil
	}
	if name == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, &ai.InputError{Source: envLogLevel, Msg: "unknown log level", Err: err}
	}
	return level, nil
}

// runConfig parses the environment config and overlays the --config value
// on it, then applies --thread-id.
func (s *settings) runConfig() (ai.Config, error) {
	base, err := ai.ParseConfig(s.envConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", envConfig, err)
	}
	over, err := ai.ParseConfig(s.cliConfig)
	if err != nil {
		return nil, fmt.Errorf("--config: %w", err)
	}
	cfg := base.Merge(over)
	if s.threadID != "" {
		cfg = cfg.WithThreadID(s.threadID)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
