// Command agentcli loads an agent graph and talks to it from the terminal.
//
//	agentcli -a demo:graph "Hello, agent!"
//	agentcli -a ./agents.yaml:assistant
//	agentcli -a http://localhost:2024:agent --stream-mode messages
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)

	code := execute(context.Background(), os.Args[1:], streams{
		in:      os.Stdin,
		out:     os.Stdout,
		err:     os.Stderr,
		signals: signals,
	})
	signal.Stop(signals)
	os.Exit(code)
}
