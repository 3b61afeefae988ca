package loop

// State is the phase of the conversation loop.
type State int

const (
	// StateIdle waits for the next user message.
	StateIdle State = iota
	// StateStreaming is pulling chunks from the graph.
	StateStreaming
	// StateAwaitingDecision holds a pending interrupt until the user decides.
	StateAwaitingDecision
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateAwaitingDecision:
		return "awaiting_decision"
	default:
		return "unknown"
	}
}
