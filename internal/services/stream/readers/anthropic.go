package readers

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// AnthropicDeltaReader decodes a native Anthropic message stream into
// plain text deltas. Only text_delta events carry content; everything
// else in the event union is skipped.
type AnthropicDeltaReader struct {
	stream    *ssestream.Stream[anthropic.MessageStreamEventUnion]
	requestID string
	done      bool
	closeOnce sync.Once
}

// NewAnthropicDeltaReader wraps an already-opened Anthropic stream.
func NewAnthropicDeltaReader(stream *ssestream.Stream[anthropic.MessageStreamEventUnion], requestID string) *AnthropicDeltaReader {
	return &AnthropicDeltaReader{stream: stream, requestID: requestID}
}

// Recv returns the next text delta, io.EOF at normal end of stream.
func (r *AnthropicDeltaReader) Recv() (string, error) {
	if r.done {
		return "", io.EOF
	}

	if !r.stream.Next() {
		r.done = true
		if err := r.stream.Err(); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return "", io.EOF
			}
			return "", err
		}
		return "", io.EOF
	}

	event := r.stream.Current()
	switch eventVariant := event.AsAny().(type) {
	case anthropic.ContentBlockDeltaEvent:
		if eventVariant.Delta.Type == "text_delta" {
			return eventVariant.Delta.Text, nil
		}
		return "", nil
	case anthropic.MessageStopEvent:
		r.done = true
		return "", nil
	default:
		return "", nil
	}
}

// Close releases the underlying stream.
func (r *AnthropicDeltaReader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.done = true
		if r.stream != nil {
			err = r.stream.Close()
		}
	})
	return err
}
