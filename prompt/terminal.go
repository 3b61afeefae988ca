package prompt

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Terminal reads REPL lines like Line and shows menus and text entry as huh
// forms.
type Terminal struct {
	*Line
	in  io.Reader
	out io.Writer
}

// NewTerminal creates a terminal prompter over in and out, typically
// os.Stdin and os.Stdout.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{Line: NewLine(in, out), in: in, out: out}
}

func (t *Terminal) run(ctx context.Context, fields ...huh.Field) error {
	err := huh.NewForm(huh.NewGroup(fields...)).
		WithShowHelp(true).
		WithInput(t.in).
		WithOutput(t.out).
		RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}

// Select shows a single-select list.
func (t *Terminal) Select(ctx context.Context, title string, options []string, def int) (int, error) {
	value := def
	opts := make([]huh.Option[int], len(options))
	for i, label := range options {
		opts[i] = huh.NewOption(label, i)
		if i == def {
			opts[i] = opts[i].Selected(true)
		}
	}
	sel := huh.NewSelect[int]().
		Title(title).
		Options(opts...).
		Value(&value)
	if err := t.run(ctx, sel); err != nil {
		return 0, err
	}
	return value, nil
}

// Input shows a text area prefilled with initial.
func (t *Terminal) Input(ctx context.Context, title, initial string) (string, error) {
	value := initial
	lines := strings.Count(initial, "\n") + 1
	text := huh.NewText().
		Title(title).
		Lines(min(max(lines, 3), 12)).
		Value(&value)
	if err := t.run(ctx, text); err != nil {
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return initial, nil
	}
	return value, nil
}

var _ Prompter = (*Terminal)(nil)
