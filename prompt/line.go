package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxSelectAttempts bounds re-asking after invalid menu input.
const maxSelectAttempts = 3

// Line is a Prompter over a plain reader and writer. Reads honor ctx: a
// read abandoned by cancellation stays pending and its line goes to the next
// ReadLine, so no input is lost.
type Line struct {
	r       *bufio.Reader
	w       io.Writer
	pending chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// NewLine creates a line prompter. Labels and menus are written to w.
func NewLine(r io.Reader, w io.Writer) *Line {
	return &Line{r: bufio.NewReader(r), w: w}
}

// ReadLine reads one line. A final line without a newline is returned before
// io.EOF.
func (l *Line) ReadLine(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if label != "" {
		fmt.Fprint(l.w, label)
	}
	if l.pending == nil {
		ch := make(chan lineResult, 1)
		l.pending = ch
		go func() {
			line, err := l.r.ReadString('\n')
			ch <- lineResult{line, err}
		}()
	}
	var res lineResult
	select {
	case res = <-l.pending:
		l.pending = nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
	line, err := res.line, res.err
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Select prints a numbered menu and reads a 1-based choice.
func (l *Line) Select(ctx context.Context, title string, options []string, def int) (int, error) {
	fmt.Fprintf(l.w, "\n%s\n", title)
	for i, opt := range options {
		fmt.Fprintf(l.w, "%d. %s\n", i+1, opt)
	}

	label := fmt.Sprintf("Enter your choice [%d]: ", def+1)
	for attempt := 0; attempt < maxSelectAttempts; attempt++ {
		line, err := l.ReadLine(ctx, label)
		if err != nil {
			return 0, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return def, nil
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(l.w, "Please enter a number between 1 and %d.\n", len(options))
	}
	return 0, fmt.Errorf("no valid choice after %d attempts", maxSelectAttempts)
}

// Input prints title, showing initial when set, and reads one line.
func (l *Line) Input(ctx context.Context, title, initial string) (string, error) {
	fmt.Fprintln(l.w, title)
	label := "> "
	if initial != "" {
		fmt.Fprintf(l.w, "(press Enter to keep %s)\n", initial)
	}
	line, err := l.ReadLine(ctx, label)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) == "" {
		return initial, nil
	}
	return line, nil
}

var _ Prompter = (*Line)(nil)
