package resolve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"strings"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/graph"
	"github.com/spetersoncode/agentcli/graph/chat"
	"github.com/spetersoncode/agentcli/graph/remote"
)

// Options configures resolution.
type Options struct {
	// GraphName overrides the attribute of the spec.
	GraphName string
	// WorkspaceRoot anchors relative paths. Empty means the working directory.
	WorkspaceRoot string
	// RemoteOptions are applied to remote graphs.
	RemoteOptions []remote.Option
	// ChatOptions are applied to chat graphs from definition files.
	ChatOptions []chat.Option
	Logger      *slog.Logger
}

// Option is a functional option for Resolve.
type Option func(*Options)

// WithGraphName overrides the attribute named by the spec.
func WithGraphName(name string) Option {
	return func(o *Options) {
		o.GraphName = name
	}
}

// WithWorkspaceRoot resolves relative paths against dir.
func WithWorkspaceRoot(dir string) Option {
	return func(o *Options) {
		o.WorkspaceRoot = dir
	}
}

// WithRemoteOptions configures remote graphs.
func WithRemoteOptions(opts ...remote.Option) Option {
	return func(o *Options) {
		o.RemoteOptions = append(o.RemoteOptions, opts...)
	}
}

// WithChatOptions configures chat graphs built from definition files.
func WithChatOptions(opts ...chat.Option) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// Resolve loads the graph named by spec. Registry and plugin locations
// return the exported object itself. Every failure is a
// *agentcli.ResolutionError.
func Resolve(ctx context.Context, spec string, opts ...Option) (graph.Graph, error) {
	o := &Options{Logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	s, err := Parse(spec)
	if err != nil {
		return nil, err
	}
	if o.GraphName != "" {
		s.Attribute = o.GraphName
	}
	o.Logger.Debug("resolving agent", "location", s.Location, "attribute", s.Attribute)

	switch {
	case isURL(s.Location):
		return resolveRemote(ctx, s, o)
	case graph.HasModule(s.Location):
		return resolveModule(s)
	}

	path := s.Location
	if !filepath.IsAbs(path) && o.WorkspaceRoot != "" {
		path = filepath.Join(o.WorkspaceRoot, path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".so":
		return resolvePlugin(s, path)
	case ".yaml", ".yml", ".json":
		return resolveDefinition(ctx, s, path, o)
	}

	if _, err := os.Stat(path); err == nil {
		return nil, notFound(s, fmt.Errorf("unsupported location type %q (want a registered module, URL, .so, .yaml, .yml or .json)", filepath.Ext(path)))
	}
	return nil, notFound(s, fmt.Errorf("no registered module or file named %q", s.Location))
}

func notFound(s Spec, err error) *ai.ResolutionError {
	return &ai.ResolutionError{Spec: s.Raw, Location: s.Location, Attribute: s.Attribute, Kind: ai.LocationNotFound, Err: err}
}

func noAttribute(s Spec, available []string, err error) *ai.ResolutionError {
	return &ai.ResolutionError{Spec: s.Raw, Location: s.Location, Attribute: s.Attribute, Kind: ai.AttributeNotFound, Available: available, Err: err}
}

func resolveRemote(ctx context.Context, s Spec, o *Options) (graph.Graph, error) {
	g, err := remote.New(s.Location, s.Attribute, o.RemoteOptions...)
	if err != nil {
		return nil, notFound(s, err)
	}
	if err := g.Ping(ctx); err != nil {
		return nil, notFound(s, err)
	}
	return g, nil
}

func resolveModule(s Spec) (graph.Graph, error) {
	g, ok := graph.Lookup(s.Location, s.Attribute)
	if !ok {
		return nil, noAttribute(s, graph.Exports(s.Location), nil)
	}
	return g, nil
}

func resolvePlugin(s Spec, path string) (graph.Graph, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, notFound(s, err)
	}
	p, err := plugin.Open(path)
	if err != nil {
		return nil, notFound(s, err)
	}
	sym, err := p.Lookup(s.Attribute)
	if err != nil {
		return nil, noAttribute(s, nil, err)
	}
	g, err := fromSymbol(sym)
	if err != nil {
		return nil, noAttribute(s, nil, err)
	}
	return g, nil
}

// fromSymbol accepts a graph variable or a graph constructor.
func fromSymbol(sym any) (graph.Graph, error) {
	switch v := sym.(type) {
	case *graph.Graph:
		if *v == nil {
			return nil, errors.New("graph variable is nil")
		}
		return *v, nil
	case func() (graph.Graph, error):
		return v()
	case func() graph.Graph:
		return v(), nil
	case graph.Graph:
		return v, nil
	default:
		return nil, fmt.Errorf("symbol of type %T is not a graph", sym)
	}
}

func resolveDefinition(ctx context.Context, s Spec, path string, o *Options) (graph.Graph, error) {
	file, err := LoadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(s, err)
		}
		return nil, notFound(s, fmt.Errorf("load %s: %w", path, err))
	}
	def, ok := file.Graphs[s.Attribute]
	if !ok {
		return nil, noAttribute(s, file.Names(), nil)
	}
	g, err := def.Build(ctx, o)
	if err != nil {
		return nil, notFound(s, fmt.Errorf("build graph %q: %w", s.Attribute, err))
	}
	return g, nil
}
