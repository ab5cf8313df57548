package writers

import (
	"bufio"
	"bytes"
	"testing"

	"quizstream/internal/models"
	"quizstream/internal/services/stream/contracts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConnState is a controllable connection state for tests.
type fakeConnState struct {
	connected bool
	done      chan struct{}
}

func newFakeConnState(connected bool) *fakeConnState {
	done := make(chan struct{})
	if !connected {
		close(done)
	}
	return &fakeConnState{connected: connected, done: done}
}

func (c *fakeConnState) IsConnected() bool     { return c.connected }
func (c *fakeConnState) Done() <-chan struct{} { return c.done }

func TestSSEEventWriter_WriteQuestionFraming(t *testing.T) {
	var out bytes.Buffer
	writer := NewSSEEventWriter(bufio.NewWriter(&out), newFakeConnState(true), "req_test")

	err := writer.WriteQuestion(models.QuestionRecord{
		Kind:   models.KindOpen,
		Prompt: "What is osmosis?",
	})
	require.NoError(t, err)

	// Flushed immediately, framed as one data line.
	assert.Equal(t, "data: {\"question\":{\"type\":\"open\",\"question\":\"What is osmosis?\"}}\n\n", out.String())
}

func TestSSEEventWriter_WriteDoneFraming(t *testing.T) {
	var out bytes.Buffer
	writer := NewSSEEventWriter(bufio.NewWriter(&out), newFakeConnState(true), "req_test")

	require.NoError(t, writer.WriteDone(3))

	assert.Equal(t, "data: {\"done\":true,\"count\":3}\n\n", out.String())
}

func TestSSEEventWriter_WriteErrorFraming(t *testing.T) {
	var out bytes.Buffer
	writer := NewSSEEventWriter(bufio.NewWriter(&out), newFakeConnState(true), "req_test")

	require.NoError(t, writer.WriteError("upstream failed"))

	assert.Equal(t, "data: {\"error\":\"upstream failed\"}\n\n", out.String())
}

func TestSSEEventWriter_NoEventsAfterTerminal(t *testing.T) {
	var out bytes.Buffer
	writer := NewSSEEventWriter(bufio.NewWriter(&out), newFakeConnState(true), "req_test")

	require.NoError(t, writer.WriteDone(0))
	before := out.String()

	assert.Error(t, writer.WriteQuestion(models.QuestionRecord{Kind: models.KindOpen, Prompt: "Q?"}))
	assert.Error(t, writer.WriteError("late"))
	assert.Error(t, writer.WriteDone(1))

	// Nothing reached the transport after the terminal event.
	assert.Equal(t, before, out.String())
}

func TestSSEEventWriter_DisconnectedClient(t *testing.T) {
	var out bytes.Buffer
	writer := NewSSEEventWriter(bufio.NewWriter(&out), newFakeConnState(false), "req_test")

	err := writer.WriteQuestion(models.QuestionRecord{Kind: models.KindOpen, Prompt: "Q?"})
	assert.True(t, contracts.IsClientDisconnect(err))
	assert.Empty(t, out.String())

	// Close on a dead connection is a no-op, not an error.
	assert.NoError(t, writer.Close())
}

func TestSSEEventWriter_TotalBytes(t *testing.T) {
	var out bytes.Buffer
	writer := NewSSEEventWriter(bufio.NewWriter(&out), newFakeConnState(true), "req_test")

	require.NoError(t, writer.WriteQuestion(models.QuestionRecord{Kind: models.KindOpen, Prompt: "Q?"}))
	require.NoError(t, writer.WriteDone(1))

	assert.Equal(t, int64(out.Len()), writer.TotalBytes())
}
