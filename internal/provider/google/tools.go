package google

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	ai "github.com/spetersoncode/agentcli"
)

func functionDecls(tools []ai.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schemaParam(t.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// functionCalls synthesizes an ID when Gemini omits one so results can
// still be matched to their call.
func functionCalls(parts []*genai.Part) []ai.ToolCall {
	var calls []ai.ToolCall
	for i, part := range parts {
		fc := part.FunctionCall
		if fc == nil {
			continue
		}
		args, _ := json.Marshal(fc.Args)
		id := fc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d_%s", i, fc.Name)
		}
		calls = append(calls, ai.ToolCall{ID: id, Name: fc.Name, Arguments: string(args)})
	}
	return calls
}

var schemaTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// schemaParam maps a JSON schema onto Gemini's schema subset. Keywords
// Gemini has no field for are dropped.
func schemaParam(raw json.RawMessage) *genai.Schema {
	var node map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &node) != nil {
		return nil
	}
	return schemaNode(node)
}

func schemaNode(node map[string]any) *genai.Schema {
	typ, _ := node["type"].(string)
	desc, _ := node["description"].(string)
	s := &genai.Schema{
		Type:        schemaTypes[typ],
		Description: desc,
		Enum:        stringList(node["enum"]),
		Required:    stringList(node["required"]),
	}
	if props, ok := node["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if child, ok := prop.(map[string]any); ok {
				s.Properties[name] = schemaNode(child)
			}
		}
	}
	if items, ok := node["items"].(map[string]any); ok {
		s.Items = schemaNode(items)
	}
	return s
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
