// Package prompt reads user input for the conversation loop: REPL lines,
// menu choices, and free-form text such as edited tool arguments.
//
// [Line] works on any reader and is what non-terminal input and tests use.
// [Terminal] keeps line reading for the REPL but renders menus and text
// entry as huh forms.
package prompt

import (
	"context"
	"errors"
)

// ErrAborted is returned when the user cancels a prompt (Ctrl-C or Esc).
var ErrAborted = errors.New("prompt aborted")

// Prompter reads user input. Implementations return io.EOF once input is
// exhausted.
type Prompter interface {
	// ReadLine shows label and reads one line, without the line ending.
	ReadLine(ctx context.Context, label string) (string, error)

	// Select shows a menu and returns the index of the chosen option.
	// def is the index chosen on empty input.
	Select(ctx context.Context, title string, options []string, def int) (int, error)

	// Input reads free-form text. initial is returned on empty input.
	Input(ctx context.Context, title, initial string) (string, error)
}
