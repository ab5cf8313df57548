package writers

import (
	"bufio"
	"encoding/json"
	"fmt"

	"quizstream/internal/models"
	"quizstream/internal/services/stream/contracts"

	"github.com/valyala/fasthttp"
)

// SSEEventWriter publishes question-stream events as SSE frames. Each
// event is written as one "data: <JSON>\n\n" frame and flushed before the
// call returns; latency to the first question is the whole point of
// streaming, so nothing is held back.
type SSEEventWriter struct {
	writer     *bufio.Writer
	connState  contracts.ConnectionState
	requestID  string
	totalBytes int64
	terminated bool
}

// NewSSEEventWriter creates a writer over an HTTP body stream.
func NewSSEEventWriter(writer *bufio.Writer, connState contracts.ConnectionState, requestID string) *SSEEventWriter {
	return &SSEEventWriter{
		writer:    writer,
		connState: connState,
		requestID: requestID,
	}
}

// WriteQuestion emits one question event.
func (w *SSEEventWriter) WriteQuestion(rec models.QuestionRecord) error {
	return w.writeEvent(models.StreamEvent{Question: &rec})
}

// WriteError emits the terminal error event. No events may follow it.
func (w *SSEEventWriter) WriteError(message string) error {
	if w.terminated {
		return contracts.NewInternalError(w.requestID, "event after stream terminated", nil)
	}
	err := w.writeEvent(models.StreamEvent{Error: message})
	w.terminated = true
	return err
}

// WriteDone emits the terminal done event with the delivered count. No
// events may follow it.
func (w *SSEEventWriter) WriteDone(count int) error {
	if w.terminated {
		return contracts.NewInternalError(w.requestID, "event after stream terminated", nil)
	}
	err := w.writeEvent(models.StreamEvent{Done: true, Count: &count})
	w.terminated = true
	return err
}

func (w *SSEEventWriter) writeEvent(event models.StreamEvent) error {
	if w.terminated {
		return contracts.NewInternalError(w.requestID, "event after stream terminated", nil)
	}
	if !w.connState.IsConnected() {
		return contracts.NewClientDisconnectError(w.requestID)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return contracts.NewInternalError(w.requestID, "event marshal failed", err)
	}

	n, err := fmt.Fprintf(w.writer, "data: %s\n\n", payload)
	w.totalBytes += int64(n)
	if err != nil {
		if contracts.IsConnectionClosed(err) {
			return contracts.NewClientDisconnectError(w.requestID)
		}
		return contracts.NewInternalError(w.requestID, "write failed", err)
	}

	if err := w.writer.Flush(); err != nil {
		if contracts.IsConnectionClosed(err) {
			return contracts.NewClientDisconnectError(w.requestID)
		}
		return contracts.NewInternalError(w.requestID, "flush failed", err)
	}
	return nil
}

// Close flushes anything still buffered. It does not write a terminal
// event; the session is responsible for ending the stream properly.
func (w *SSEEventWriter) Close() error {
	if !w.connState.IsConnected() {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		if contracts.IsConnectionClosed(err) {
			return contracts.NewClientDisconnectError(w.requestID)
		}
		return contracts.NewInternalError(w.requestID, "flush failed", err)
	}
	return nil
}

// TotalBytes returns the number of bytes written to the transport.
func (w *SSEEventWriter) TotalBytes() int64 {
	return w.totalBytes
}

// FastHTTPConnectionState adapts a fasthttp request context to the
// ConnectionState contract.
type FastHTTPConnectionState struct {
	ctx *fasthttp.RequestCtx
}

// NewFastHTTPConnectionState creates connection state from a fasthttp context.
func NewFastHTTPConnectionState(ctx *fasthttp.RequestCtx) *FastHTTPConnectionState {
	return &FastHTTPConnectionState{ctx: ctx}
}

// IsConnected reports whether the client is still connected.
func (c *FastHTTPConnectionState) IsConnected() bool {
	if c.ctx == nil {
		return false
	}
	select {
	case <-c.ctx.Done():
		return false
	default:
		return true
	}
}

// Done returns a channel that closes when the client disconnects.
func (c *FastHTTPConnectionState) Done() <-chan struct{} {
	if c.ctx == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return c.ctx.Done()
}
