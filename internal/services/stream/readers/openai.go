package readers

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/openai/openai-go/v2"
	ssestream "github.com/openai/openai-go/v2/packages/ssestream"
)

// OpenAIDeltaReader decodes an OpenAI chat completion stream into plain
// text deltas. Only delta content is surfaced; chunk metadata stays here.
type OpenAIDeltaReader struct {
	stream    *ssestream.Stream[openai.ChatCompletionChunk]
	requestID string
	done      bool
	closeOnce sync.Once
}

// NewOpenAIDeltaReader wraps an already-opened OpenAI stream.
func NewOpenAIDeltaReader(stream *ssestream.Stream[openai.ChatCompletionChunk], requestID string) *OpenAIDeltaReader {
	return &OpenAIDeltaReader{stream: stream, requestID: requestID}
}

// Recv returns the next text delta. io.EOF signals normal termination,
// including client-side context cancellation.
func (r *OpenAIDeltaReader) Recv() (string, error) {
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

	chunk := r.stream.Current()
	if len(chunk.Choices) == 0 {
		return "", nil
	}
	if chunk.Choices[0].FinishReason != "" {
		r.done = true
	}
	return chunk.Choices[0].Delta.Content, nil
}

// Close releases the underlying stream.
func (r *OpenAIDeltaReader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.done = true
		if r.stream != nil {
			err = r.stream.Close()
		}
	})
	return err
}
