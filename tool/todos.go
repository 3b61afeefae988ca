package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/spetersoncode/agentcli/chunk"
)

// TodoToolName is the name of the planning tool.
const TodoToolName = "write_todos"

// TodoItem is one plan entry as the model writes it.
type TodoItem struct {
	Content string `json:"content" jsonschema:"description=What needs to be done"`
	Status  string `json:"status" jsonschema:"enum=pending,enum=in_progress,enum=completed"`
}

// WriteTodosArgs are the arguments of the write_todos tool.
type WriteTodosArgs struct {
	Todos []TodoItem `json:"todos" jsonschema:"description=The complete updated plan; replaces the previous one"`
}

// TodoList holds the latest plan written by the model.
// It is safe for concurrent use.
type TodoList struct {
	mu    sync.RWMutex
	items []chunk.Todo
}

// Items returns a copy of the current plan.
func (l *TodoList) Items() []chunk.Todo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

// Set replaces the plan.
func (l *TodoList) Set(items []chunk.Todo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = slices.Clone(items)
}

// NewTodoTool returns the write_todos tool, which stores each plan in list.
func NewTodoTool(list *TodoList) Registration {
	return Func(TodoToolName,
		"Create or update the task plan for the current request. Mark an item in_progress before starting it and completed when done.",
		func(ctx context.Context, args WriteTodosArgs) (string, error) {
			todos, err := toTodos(args.Todos)
			if err != nil {
				return "", err
			}
			list.Set(todos)
			return fmt.Sprintf("Updated todo list to %d item(s)", len(todos)), nil
		},
	)
}

// ParseTodos decodes the arguments of a write_todos call.
func ParseTodos(arguments string) ([]chunk.Todo, error) {
	var args WriteTodosArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return nil, &ErrInvalidArguments{Name: TodoToolName, Err: err}
	}
	return toTodos(args.Todos)
}

func toTodos(items []TodoItem) ([]chunk.Todo, error) {
	todos := make([]chunk.Todo, len(items))
	for i, it := range items {
		status := chunk.TodoStatus(it.Status)
		switch status {
		case chunk.TodoPending, chunk.TodoInProgress, chunk.TodoCompleted:
		case "":
			status = chunk.TodoPending
		default:
			return nil, fmt.Errorf("todo %d: unknown status %q", i+1, it.Status)
		}
		todos[i] = chunk.Todo{Content: it.Content, Status: status}
	}
	return todos, nil
}
