// Package tool provides the tools a chat graph can offer to a model.
//
// A [Registry] maps tool names to definitions and handlers. Handlers receive
// the raw [agentcli.ToolCall]; [Func] builds one from a typed function and
// derives the parameter schema with [SchemaFor].
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("weather", "Get weather", func(ctx context.Context, args WeatherArgs) (string, error) {
//	        return getWeather(args.Location), nil
//	    }),
//	)
//
// # Built-in tools
//
// [FileTools] returns ls, read_file, write_file, and edit_file, confined to a
// base directory with [WithBasePath]. [NewTodoTool] returns write_todos, which
// records the agent's plan so it can be shown to the user.
//
// # Errors
//
// Execute returns [ErrToolNotFound] for unknown tools. A handler error does
// not fail Execute: it becomes a [agentcli.ToolResult] with IsError set, so
// the model can see it and recover.
package tool
