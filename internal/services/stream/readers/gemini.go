package readers

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"

	"google.golang.org/genai"
)

// GeminiDeltaReader decodes a Gemini content stream into plain text
// deltas. The SDK exposes the stream as iter.Seq2, so iter.Pull2 turns it
// into the same pull-based shape as the other readers.
type GeminiDeltaReader struct {
	next      func() (*genai.GenerateContentResponse, error, bool)
	stop      func()
	requestID string
	done      bool
	closeOnce sync.Once
}

// NewGeminiDeltaReader wraps a Gemini streaming iterator.
func NewGeminiDeltaReader(streamIter iter.Seq2[*genai.GenerateContentResponse, error], requestID string) *GeminiDeltaReader {
	nextFunc, stopFunc := iter.Pull2(streamIter)

	reader := &GeminiDeltaReader{stop: stopFunc, requestID: requestID}
	reader.next = func() (*genai.GenerateContentResponse, error, bool) {
		resp, err, more := nextFunc()
		if !more {
			return nil, io.EOF, false
		}
		if err != nil {
			return nil, err, false
		}
		return resp, nil, true
	}
	return reader
}

// Recv returns the next text delta, io.EOF at normal end of stream.
func (r *GeminiDeltaReader) Recv() (string, error) {
	if r.done {
		return "", io.EOF
	}

	resp, err, ok := r.next()
	if !ok {
		r.done = true
		r.stop()
		if err != nil && !errors.Is(err, io.EOF) {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return "", io.EOF
			}
			return "", err
		}
		return "", io.EOF
	}

	return resp.Text(), nil
}

// Close releases the iterator.
func (r *GeminiDeltaReader) Close() error {
	r.closeOnce.Do(func() {
		r.done = true
		if r.stop != nil {
			r.stop()
		}
	})
	return nil
}
