// Package mcp connects chat graphs to MCP (Model Context Protocol) servers.
//
// A [RemoteRegistry] lists the tools of one server and proxies calls to it.
// [RemoteRegistry.AddTo] copies those tools into a [tool.Registry] so a
// chat graph offers them next to its built-in tools:
//
//	remote, err := mcp.Dial(ctx, mcp.ServerConfig{Command: "./my-mcp-server"})
//	if err != nil {
//	    return err
//	}
//	defer remote.Close()
//
//	registry := tool.NewRegistry().Add(tool.FileTools()...)
//	if err := remote.AddTo(registry); err != nil {
//	    return err
//	}
package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	ai "github.com/spetersoncode/agentcli"
)

// toolSpec describes a server tool for a provider. The raw schema wins over
// the structured one when the server sent both.
func toolSpec(t mcp.Tool) ai.Tool {
	spec := ai.Tool{Name: t.Name, Description: t.Description}
	switch {
	case len(t.RawInputSchema) > 0:
		spec.Parameters = t.RawInputSchema
	default:
		if data, err := json.Marshal(t.InputSchema); err == nil {
			spec.Parameters = data
		}
	}
	return spec
}

// callRequest builds the tools/call request for a model tool call. Arguments
// must be a JSON object; an empty string means no arguments.
func callRequest(call ai.ToolCall) (mcp.CallToolRequest, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = call.Name
	if strings.TrimSpace(call.Arguments) == "" {
		return req, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return req, fmt.Errorf("tool %s: arguments are not a JSON object: %w", call.Name, err)
	}
	req.Params.Arguments = args
	return req, nil
}

// flatten joins the content blocks of a call result into the text handed
// back to the model. Non-text blocks and structured content become JSON.
func flatten(result *mcp.CallToolResult) (string, bool) {
	if result == nil {
		return "empty result", true
	}
	var b strings.Builder
	add := func(s string) {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s)
	}
	for _, c := range result.Content {
		switch c := c.(type) {
		case mcp.TextContent:
			add(c.Text)
		case *mcp.TextContent:
			add(c.Text)
		default:
			if data, err := json.Marshal(c); err == nil {
				add(string(data))
			}
		}
	}
	if result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			add(string(data))
		}
	}
	return b.String(), result.IsError
}
