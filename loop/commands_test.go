package loop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want command
	}{
		{"/q", cmdQuit},
		{"/quit", cmdQuit},
		{"  /EXIT  ", cmdQuit},
		{"/c", cmdClear},
		{"/clear", cmdClear},
		{"/h", cmdHelp},
		{"/help me", cmdHelp},
		{"/t", cmdThread},
		{"/new", cmdNew},
		{"/frobnicate", cmdUnknown},
		{"hello /q", cmdNone},
		{"", cmdNone},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, parseCommand(tt.line))
		})
	}
}

func TestTranscript(t *testing.T) {
	tr := NewTranscript()
	_, ok := tr.Last()
	assert.False(t, ok)

	tr.Append(Turn{Message: "one"})
	tr.Append(Turn{Message: "two"})
	assert.Equal(t, 2, tr.Len())

	last, ok := tr.Last()
	assert.True(t, ok)
	assert.Equal(t, "two", last.Message)

	turns := tr.Turns()
	turns[0].Message = "changed"
	assert.Equal(t, "one", tr.Turns()[0].Message)

	tr.Clear()
	assert.Zero(t, tr.Len())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.Equal(t, "awaiting_decision", StateAwaitingDecision.String())
	assert.Equal(t, "unknown", State(42).String())
}
