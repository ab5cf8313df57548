// Package client is a small Go client for the QuizStream question
// generation API. It posts study text and invokes callbacks as question
// events arrive over the server-sent event stream.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// QuestionKind identifies the shape of a generated question.
type QuestionKind string

const (
	KindOpen           QuestionKind = "open"
	KindMultipleChoice QuestionKind = "multiple_choice"
)

// QuestionRecord is one generated study question.
type QuestionRecord struct {
	Kind    QuestionKind `json:"type"`
	Prompt  string       `json:"question"`
	Options []string     `json:"options,omitempty"`
	Answer  string       `json:"answer,omitempty"`
}

// streamEvent mirrors the wire shape of one SSE data payload.
type streamEvent struct {
	Question *QuestionRecord `json:"question,omitempty"`
	Error    string          `json:"error,omitempty"`
	Done     bool            `json:"done,omitempty"`
	Count    *int            `json:"count,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// State describes how a generation stream ended.
type State string

const (
	// StateCompleted means the stream ended after questions were received,
	// whether or not the server sent its terminal done event.
	StateCompleted State = "completed"
	// StateFailed means the stream ended with an error event or a
	// transport failure.
	StateFailed State = "failed"
)

// Handler receives stream events. Nil callbacks are skipped.
type Handler struct {
	// OnQuestion is called for each question, with a running 1-based count.
	OnQuestion func(q QuestionRecord, n int)
	// OnError is called when the server reports a generation error.
	OnError func(message string)
	// OnDone is called when the stream ends, with the total received.
	OnDone func(count int)
}

// Client talks to a QuizStream server.
type Client struct {
	httpClient *resty.Client
}

// New creates a client for the given server base URL.
func New(baseURL string) *Client {
	httpClient := resty.New()
	httpClient.SetBaseURL(strings.TrimRight(baseURL, "/"))
	httpClient.SetHeader("Content-Type", "application/json")

	return &Client{httpClient: httpClient}
}

type questionsRequest struct {
	Text string `json:"text"`
}

// GenerateQuestions posts text and consumes the resulting event stream.
// It returns the final state of the stream. A non-nil error means the
// request itself failed; a server-side generation error is reported via
// Handler.OnError and StateFailed.
func (c *Client) GenerateQuestions(ctx context.Context, text string, h Handler) (State, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(questionsRequest{Text: text}).
		SetDoNotParseResponse(true).
		Post("/api/questions")
	if err != nil {
		return StateFailed, fmt.Errorf("httpClient.Post > %w", err)
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if resp.IsError() {
		var errBody errorResponse
		message := resp.Status()
		if err := json.NewDecoder(body).Decode(&errBody); err == nil && errBody.Error != "" {
			message = errBody.Error
		}
		return StateFailed, fmt.Errorf("response error %d: %s", resp.StatusCode(), message)
	}

	scanner := bufio.NewScanner(bufio.NewReaderSize(body, 4096))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	received := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return StateFailed, err
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		var event streamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			// Skip malformed frames rather than killing the stream.
			continue
		}

		switch {
		case event.Question != nil:
			received++
			if h.OnQuestion != nil {
				h.OnQuestion(*event.Question, received)
			}
		case event.Error != "":
			if h.OnError != nil {
				h.OnError(event.Error)
			}
			return StateFailed, nil
		case event.Done:
			count := received
			if event.Count != nil {
				count = *event.Count
			}
			if h.OnDone != nil {
				h.OnDone(count)
			}
			return StateCompleted, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return StateFailed, fmt.Errorf("reading stream: %w", err)
	}

	// The stream ended without a terminal event. Everything received so
	// far is still valid.
	if h.OnDone != nil {
		h.OnDone(received)
	}
	return StateCompleted, nil
}
