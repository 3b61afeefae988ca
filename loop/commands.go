package loop

import "strings"

type command int

const (
	cmdNone command = iota
	cmdQuit
	cmdClear
	cmdHelp
	cmdThread
	cmdNew
	cmdUnknown
)

var commands = map[string]command{
	"/q":      cmdQuit,
	"/quit":   cmdQuit,
	"/exit":   cmdQuit,
	"/c":      cmdClear,
	"/clear":  cmdClear,
	"/h":      cmdHelp,
	"/help":   cmdHelp,
	"/t":      cmdThread,
	"/thread": cmdThread,
	"/n":      cmdNew,
	"/new":    cmdNew,
}

// HelpText is printed by /h.
const HelpText = `Commands:
  /q, /quit, /exit   leave the session
  /c, /clear         clear the transcript
  /h, /help          show this help
  /t, /thread        show the current thread ID
  /n, /new           start a new thread
Anything else is sent to the agent. Press Ctrl-C to stop a running turn.`

// parseCommand classifies a REPL line. Lines not starting with "/" are
// messages.
func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return cmdNone
	}
	name, _, _ := strings.Cut(line, " ")
	if c, ok := commands[strings.ToLower(name)]; ok {
		return c
	}
	return cmdUnknown
}
