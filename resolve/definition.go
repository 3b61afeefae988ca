package resolve

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spetersoncode/agentcli/graph"
	"github.com/spetersoncode/agentcli/graph/chat"
	"github.com/spetersoncode/agentcli/graph/remote"
	"github.com/spetersoncode/agentcli/graph/script"
)

// Graph kinds a definition file can declare.
const (
	KindScript = "script"
	KindRemote = "remote"
	KindChat   = "chat"
)

// File is a graph definition file. JSON files use the same shape.
//
//	graphs:
//	  graph:
//	    kind: script
//	    steps:
//	      - kind: text
//	        text: "You said: {input}"
type File struct {
	Graphs map[string]Definition `yaml:"graphs"`
}

// Names returns the sorted graph names.
func (f *File) Names() []string {
	return slices.Sorted(maps.Keys(f.Graphs))
}

// Definition declares one graph. Kind selects which fields apply.
type Definition struct {
	Kind string `yaml:"kind"`

	// script
	Delay time.Duration `yaml:"delay"`
	Steps []script.Step `yaml:"steps"`

	// remote
	URL         string `yaml:"url"`
	AssistantID string `yaml:"assistant_id"`

	// chat
	Chat chat.Config `yaml:",inline"`
}

// LoadFile reads a definition file. JSON is read as YAML, of which it is
// a subset.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Graphs) == 0 {
		return nil, fmt.Errorf("no graphs defined")
	}
	return &f, nil
}

// Build constructs the graph.
func (d Definition) Build(ctx context.Context, o *Options) (graph.Graph, error) {
	switch d.Kind {
	case KindScript:
		return script.New(d.Steps, script.WithDelay(d.Delay))
	case KindRemote:
		g, err := remote.New(d.URL, d.AssistantID, o.RemoteOptions...)
		if err != nil {
			return nil, err
		}
		if err := g.Ping(ctx); err != nil {
			return nil, err
		}
		return g, nil
	case KindChat:
		return chat.Build(ctx, d.Chat, o.ChatOptions...)
	default:
		return nil, fmt.Errorf("unknown graph kind %q (want script, remote or chat)", d.Kind)
	}
}
