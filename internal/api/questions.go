package api

import (
	"bufio"
	"context"
	"strings"

	"quizstream/internal/config"
	"quizstream/internal/models"
	"quizstream/internal/services/request"
	"quizstream/internal/services/response"
	"quizstream/internal/services/stream/contracts"
	"quizstream/internal/services/stream/handlers"
	"quizstream/internal/services/stream/writers"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/valyala/fasthttp"
)

// StreamOpener is the part of the generation service the handler needs.
type StreamOpener interface {
	Ready() error
	OpenStream(ctx context.Context, text, requestID string) (contracts.DeltaReader, error)
}

// QuestionsHandler serves POST /api/questions: it validates the input,
// then hands the connection over to a streaming session that pushes
// question events as the model produces them.
type QuestionsHandler struct {
	cfg     *config.Config
	reqSvc  *request.Service
	respSvc *response.Service
	genSvc  StreamOpener
}

// NewQuestionsHandler wires up the questions handler.
func NewQuestionsHandler(cfg *config.Config, reqSvc *request.Service, respSvc *response.Service, genSvc StreamOpener) *QuestionsHandler {
	return &QuestionsHandler{
		cfg:     cfg,
		reqSvc:  reqSvc,
		respSvc: respSvc,
		genSvc:  genSvc,
	}
}

// Generate handles one question-generation request.
func (h *QuestionsHandler) Generate(c *fiber.Ctx) error {
	requestID := h.reqSvc.GetRequestID(c)

	var body models.QuestionsRequest
	if err := c.BodyParser(&body); err != nil {
		return h.respSvc.BadRequest(c, "invalid request body", requestID)
	}

	text := strings.TrimSpace(body.Text)
	if text == "" {
		return h.respSvc.BadRequest(c, "text is required", requestID)
	}

	// Credential problems fail fast as plain JSON, before any streaming.
	if err := h.genSvc.Ready(); err != nil {
		return h.respSvc.InternalError(c, err.Error(), requestID)
	}

	fiberlog.Infof("[%s] starting question generation for %d chars of input", requestID, len(text))

	h.respSvc.SetStreamHeaders(c)

	fasthttpCtx := c.Context()
	fasthttpCtx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		connState := writers.NewFastHTTPConnectionState(fasthttpCtx)
		eventWriter := writers.NewSSEEventWriter(w, connState, requestID)

		reader, err := h.genSvc.OpenStream(fasthttpCtx, text, requestID)
		if err != nil {
			fiberlog.Errorf("[%s] failed to open provider stream: %v", requestID, err)
			if werr := eventWriter.WriteError(err.Error()); werr != nil && !contracts.IsClientDisconnect(werr) {
				fiberlog.Errorf("[%s] error event write failed: %v", requestID, werr)
			}
			return
		}

		session := handlers.NewSession(reader, requestID)
		if err := session.Run(fasthttpCtx, eventWriter); err != nil {
			if contracts.IsExpectedError(err) {
				fiberlog.Infof("[%s] stream ended: %v", requestID, err)
			} else {
				fiberlog.Errorf("[%s] stream error: %v", requestID, err)
			}
		}
	}))

	return nil
}
