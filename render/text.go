package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	ai "github.com/spetersoncode/agentcli"
	"github.com/spetersoncode/agentcli/chunk"
)

// maxResultLen truncates tool results outside verbose mode.
const maxResultLen = 400

var todoIcons = map[chunk.TodoStatus]string{
	chunk.TodoPending:    "⏳",
	chunk.TodoInProgress: "🔄",
	chunk.TodoCompleted:  "✅",
}

// TextOption configures a Text renderer.
type TextOption func(*Text)

// WithVerbose prefixes text with its node, shows full tool results, and
// prints the whole cause chain of errors.
func WithVerbose(v bool) TextOption {
	return func(t *Text) {
		t.verbose = v
	}
}

type styles struct {
	dim     lipgloss.Style
	title   lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	border  lipgloss.Style
	key     lipgloss.Style
	panel   lipgloss.Style
	errBox  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		dim:     r.NewStyle().Faint(true),
		title:   r.NewStyle().Bold(true),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
		err:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		border:  r.NewStyle().Foreground(lipgloss.Color("8")),
		key:     r.NewStyle().Foreground(lipgloss.Color("6")),
		panel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("3")).
			Padding(0, 1),
		errBox: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("1")).
			Padding(0, 1),
	}
}

// Text renders chunks for a terminal. Colors follow the capabilities of the
// writer, so output to a pipe or buffer is plain text.
type Text struct {
	w       io.Writer
	verbose bool
	styles  styles
	// midLine is set while streamed text has not ended with a newline.
	midLine bool
}

// NewText creates a terminal renderer writing to w.
func NewText(w io.Writer, opts ...TextOption) *Text {
	t := &Text{w: w, styles: newStyles(lipgloss.NewRenderer(w))}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Text) breakLine() {
	if t.midLine {
		fmt.Fprintln(t.w)
		t.midLine = false
	}
}

func (t *Text) println(s string) {
	t.breakLine()
	fmt.Fprintln(t.w, s)
}

// TurnStart resets line tracking.
func (t *Text) TurnStart(string) {
	t.midLine = false
}

// Chunk writes one chunk.
func (t *Text) Chunk(c chunk.Chunk) {
	switch c.Type {
	case chunk.TypeText:
		t.text(c)
	case chunk.TypeToolCalls:
		for _, call := range c.ToolCalls {
			t.toolCall(c.Node, call)
		}
	case chunk.TypeToolResult:
		if c.ToolResult != nil {
			t.toolResult(*c.ToolResult)
		}
	case chunk.TypeTodoList:
		t.todos(c.Todos)
	case chunk.TypeInterrupt:
		t.Interrupt(c.Interrupt)
	case chunk.TypeComplete:
		t.breakLine()
		fmt.Fprintln(t.w)
		t.println(t.styles.success.Render("✓ Complete"))
	case chunk.TypeError:
		t.Error(c.Err)
	}
}

func (t *Text) text(c chunk.Chunk) {
	if c.Text == "" {
		return
	}
	if t.verbose {
		node := c.Node
		if node == "" {
			node = "unknown"
		}
		t.println(t.styles.dim.Render("["+node+"]") + " " + c.Text)
		return
	}
	fmt.Fprint(t.w, c.Text)
	t.midLine = !strings.HasSuffix(c.Text, "\n")
}

func (t *Text) keyValueTable(rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(t.styles.border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return t.styles.key.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Rows(rows...).
		Render()
}

func (t *Text) toolCall(node string, call ai.ToolCall) {
	id := call.ID
	if id == "" {
		id = "N/A"
	}
	rows := [][]string{
		{"ID", id},
		{"Name", call.Name},
		{"Args", prettyJSON(call.Arguments)},
	}
	if t.verbose && node != "" {
		rows = append(rows, []string{"Node", node})
	}
	t.println(t.styles.title.Render("Tool Call: " + call.Name))
	t.println(t.keyValueTable(rows))
}

func (t *Text) toolResult(r ai.ToolResult) {
	content := r.Content
	if !t.verbose {
		content = truncate(content, maxResultLen)
	}
	label := "  ⎿ "
	if r.Name != "" {
		label += r.Name + ": "
	}
	if r.IsError {
		t.println(t.styles.err.Render(label + content))
		return
	}
	t.println(t.styles.dim.Render(label + content))
}

func (t *Text) todos(todos []chunk.Todo) {
	rows := make([][]string, 0, len(todos))
	for _, todo := range todos {
		status := todo.Status
		if status == "" {
			status = chunk.TodoPending
		}
		icon, ok := todoIcons[status]
		if !ok {
			icon = "❓"
		}
		rows = append(rows, []string{icon + " " + string(status), todo.Content})
	}
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(t.styles.border).
		Headers("Status", "Task").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return t.styles.title.Padding(0, 1)
			}
			if col == 0 {
				return t.styles.key.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Rows(rows...)
	t.println(t.styles.title.Render("Todo List"))
	t.println(tbl.Render())
}

// Interrupt shows the pending action requests and their review configs.
func (t *Text) Interrupt(in *chunk.Interrupt) {
	if in == nil {
		return
	}
	var b strings.Builder
	if len(in.ActionRequests) > 0 {
		b.WriteString(t.styles.warn.Bold(true).Render("Action Requests:"))
		for i, a := range in.ActionRequests {
			fmt.Fprintf(&b, "\n\n%d. Tool: %s", i+1, a.Name)
			if a.ToolCallID != "" {
				fmt.Fprintf(&b, "\n   ID: %s", a.ToolCallID)
			}
			if a.Description != "" {
				fmt.Fprintf(&b, "\n   Description: %s", a.Description)
			}
			fmt.Fprintf(&b, "\n   Args: %s", indent(prettyArgs(a.Args), "   "))
		}
	}
	if len(in.ReviewConfigs) > 0 {
		b.WriteString("\n\n" + t.styles.key.Bold(true).Render("Review Configs:"))
		for i, rc := range in.ReviewConfigs {
			allowed := make([]string, len(rc.AllowedDecisions))
			for j, d := range rc.AllowedDecisions {
				allowed[j] = string(d)
			}
			if len(allowed) == 0 {
				allowed = []string{"any"}
			}
			fmt.Fprintf(&b, "\n\n%d. %s allowed decisions: %s", i+1, rc.ActionName, strings.Join(allowed, ", "))
		}
	}
	t.println(t.styles.warn.Bold(true).Render("⚠  Interrupt"))
	t.println(t.styles.panel.Render(b.String()))
}

// Notice writes a dim informational line.
func (t *Text) Notice(msg string) {
	t.println(t.styles.dim.Render(msg))
}

// Warn writes a yellow warning line.
func (t *Text) Warn(msg string) {
	t.println(t.styles.warn.Render(msg))
}

// Error writes err in a red panel. In verbose mode every wrapped cause is
// listed below the message.
func (t *Text) Error(err error) {
	if err == nil {
		return
	}
	body := t.styles.err.Render(err.Error())
	if t.verbose {
		chain := ai.Chain(err)
		for _, cause := range chain[1:] {
			body += "\n" + t.styles.dim.Render("caused by: "+cause)
		}
	}
	t.println(t.styles.err.Render("Error"))
	t.println(t.styles.errBox.Render(body))
}

// TurnEnd terminates any partial line.
func (t *Text) TurnEnd(error) {
	t.breakLine()
}

// truncate cuts s to at most n bytes without splitting a character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}

func prettyJSON(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "{}"
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return raw
	}
	return string(out)
}

func prettyArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	out, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return fmt.Sprint(args)
	}
	return string(out)
}

func indent(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}

var _ Sink = (*Text)(nil)
