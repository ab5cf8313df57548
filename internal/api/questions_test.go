package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"quizstream/internal/config"
	"quizstream/internal/services/request"
	"quizstream/internal/services/response"
	"quizstream/internal/services/stream/contracts"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	deltas []string
	pos    int
}

func (r *fakeReader) Recv() (string, error) {
	if r.pos >= len(r.deltas) {
		return "", io.EOF
	}
	delta := r.deltas[r.pos]
	r.pos++
	return delta, nil
}

func (r *fakeReader) Close() error { return nil }

type fakeOpener struct {
	readyErr error
	openErr  error
	deltas   []string
	gotText  string
}

func (o *fakeOpener) Ready() error { return o.readyErr }

func (o *fakeOpener) OpenStream(ctx context.Context, text, requestID string) (contracts.DeltaReader, error) {
	o.gotText = text
	if o.openErr != nil {
		return nil, o.openErr
	}
	return &fakeReader{deltas: o.deltas}, nil
}

func newTestApp(opener *fakeOpener) *fiber.App {
	cfg := &config.Config{}
	handler := NewQuestionsHandler(cfg, request.NewService(), response.NewService(), opener)

	app := fiber.New()
	app.Post("/api/questions", handler.Generate)
	return app
}

func postQuestions(t *testing.T, app *fiber.App, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/api/questions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestQuestionsHandler_EmptyText(t *testing.T) {
	app := newTestApp(&fakeOpener{})

	for name, body := range map[string]string{
		"missing field":   `{}`,
		"empty string":    `{"text":""}`,
		"whitespace only": `{"text":"   \n\t"}`,
	} {
		t.Run(name, func(t *testing.T) {
			status, respBody := postQuestions(t, app, body)
			assert.Equal(t, fiber.StatusBadRequest, status)

			var errResp struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal([]byte(respBody), &errResp))
			assert.Equal(t, "text is required", errResp.Error)
		})
	}
}

func TestQuestionsHandler_InvalidBody(t *testing.T) {
	app := newTestApp(&fakeOpener{})

	status, _ := postQuestions(t, app, `not json at all`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestQuestionsHandler_NotReady(t *testing.T) {
	app := newTestApp(&fakeOpener{readyErr: errors.New("provider openai has no API key configured")})

	status, respBody := postQuestions(t, app, `{"text":"some study text"}`)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, respBody, "no API key")
}

func TestQuestionsHandler_StreamsQuestions(t *testing.T) {
	opener := &fakeOpener{
		deltas: []string{
			`{"type":"open","quest`,
			`ion":"What is osmosis?"}` + "\n",
			`{"type":"open","question":"What is diffusion?"}`,
		},
	}
	app := newTestApp(opener)

	status, body := postQuestions(t, app, `{"text":"  cell membrane transport  "}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "cell membrane transport", opener.gotText)

	frames := parseFrames(t, body)
	require.Len(t, frames, 3)
	assert.Equal(t, "What is osmosis?", frames[0].Question.Prompt)
	assert.Equal(t, "What is diffusion?", frames[1].Question.Prompt)
	assert.True(t, frames[2].Done)
	require.NotNil(t, frames[2].Count)
	assert.Equal(t, 2, *frames[2].Count)
}

func TestQuestionsHandler_OpenStreamFailure(t *testing.T) {
	app := newTestApp(&fakeOpener{openErr: errors.New("dial tcp: connection refused")})

	status, body := postQuestions(t, app, `{"text":"some study text"}`)
	// Headers are already sent, so the failure arrives as a stream event.
	require.Equal(t, fiber.StatusOK, status)

	frames := parseFrames(t, body)
	require.Len(t, frames, 1)
	assert.Contains(t, frames[0].Error, "connection refused")
}

type testFrame struct {
	Question *struct {
		Kind   string `json:"type"`
		Prompt string `json:"question"`
	} `json:"question"`
	Error string `json:"error"`
	Done  bool   `json:"done"`
	Count *int   `json:"count"`
}

func parseFrames(t *testing.T, body string) []testFrame {
	t.Helper()
	var frames []testFrame
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame testFrame
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame))
		frames = append(frames, frame)
	}
	return frames
}
