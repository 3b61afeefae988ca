// Package resolve turns an agent spec of the form "location:attribute" into
// a graph.
//
// A location is, in order of precedence, the URL of a LangGraph-compatible
// server, a module registered with [graph.Register], a Go plugin (.so), or a
// graph definition file (.yaml, .yml, .json). The attribute names the graph
// within the location and defaults to [DefaultAttribute].
package resolve

import (
	"strings"

	ai "github.com/spetersoncode/agentcli"
)

// DefaultAttribute is the attribute used when a spec names none.
const DefaultAttribute = "graph"

// Spec is a parsed agent spec.
type Spec struct {
	Raw       string
	Location  string
	Attribute string
}

func (s Spec) String() string {
	return s.Location + ":" + s.Attribute
}

// Parse splits spec on its last colon. A spec without an attribute gets
// DefaultAttribute. The colons of a URL scheme or port do not start an
// attribute: "http://host:2024" is a location only.
func Parse(spec string) (Spec, error) {
	raw := spec
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Spec{}, &ai.ResolutionError{Spec: raw, Kind: ai.LocationNotFound, Err: ai.ErrEmptySpec}
	}

	location, attribute := spec, ""
	if i := strings.LastIndex(spec, ":"); i >= 0 {
		location, attribute = spec[:i], spec[i+1:]
		if strings.HasPrefix(attribute, "//") || (isURL(location) && isPort(attribute)) {
			location, attribute = spec, ""
		}
	}
	if location == "" {
		return Spec{}, &ai.ResolutionError{Spec: raw, Attribute: attribute, Kind: ai.LocationNotFound, Err: ai.ErrEmptySpec}
	}
	if attribute == "" {
		attribute = DefaultAttribute
	}
	return Spec{Raw: raw, Location: location, Attribute: attribute}, nil
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

func isPort(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
