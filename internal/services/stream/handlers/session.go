package handlers

import (
	"context"
	"io"
	"time"

	"quizstream/internal/services/stream/contracts"
	"quizstream/internal/services/stream/extract"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Session owns one generation request end to end: it reads deltas from
// the provider, grows the session buffer, extracts newly completed
// question records, and publishes them downstream. A session is used by
// exactly one goroutine; nothing here is shared across requests.
type Session struct {
	reader    contracts.DeltaReader
	requestID string
}

// NewSession creates a session around an open provider stream.
func NewSession(reader contracts.DeltaReader, requestID string) *Session {
	return &Session{reader: reader, requestID: requestID}
}

// Run drives the session until the upstream ends, fails, or the client
// disconnects. Exactly one terminal event (done or error) is written
// unless the client is already gone.
func (s *Session) Run(ctx context.Context, writer contracts.EventWriter) error {
	startTime := time.Now()
	var totalDeltas int

	acc := extract.NewAccumulator()
	defer acc.Release()
	extractor := extract.NewExtractor(acc)
	tracker := extract.NewTracker()

	defer func() {
		fiberlog.Infof("[%s] session finished: %d questions from %d deltas (%d buffered bytes) in %v",
			s.requestID, tracker.Delivered(), totalDeltas, acc.Len(), time.Since(startTime))

		if err := s.reader.Close(); err != nil {
			fiberlog.Errorf("[%s] error closing provider stream: %v", s.requestID, err)
		}
		if err := writer.Close(); err != nil && !contracts.IsExpectedError(err) {
			fiberlog.Errorf("[%s] error closing event writer: %v", s.requestID, err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fiberlog.Infof("[%s] client disconnected, stopping provider stream", s.requestID)
			return contracts.NewClientDisconnectError(s.requestID)
		default:
		}

		delta, err := s.reader.Recv()
		if err == io.EOF {
			if werr := writer.WriteDone(tracker.Delivered()); werr != nil {
				if contracts.IsClientDisconnect(werr) {
					return werr
				}
				return contracts.NewInternalError(s.requestID, "done event write failed", werr)
			}
			return contracts.NewStreamCompleteError(s.requestID)
		}
		if err != nil {
			fiberlog.Errorf("[%s] provider stream failed: %v", s.requestID, err)
			if werr := writer.WriteError(err.Error()); werr != nil && !contracts.IsClientDisconnect(werr) {
				fiberlog.Errorf("[%s] error event write failed: %v", s.requestID, werr)
			}
			return contracts.NewProviderError(s.requestID, "upstream", err)
		}

		if delta == "" {
			continue
		}
		acc.Append(delta)
		totalDeltas++

		for _, rec := range tracker.Next(extractor.Records()) {
			if werr := writer.WriteQuestion(rec); werr != nil {
				if contracts.IsClientDisconnect(werr) {
					fiberlog.Infof("[%s] client disconnected during question write", s.requestID)
					return werr
				}
				return contracts.NewInternalError(s.requestID, "question event write failed", werr)
			}
		}
	}
}

// RequestID returns the request this session belongs to.
func (s *Session) RequestID() string {
	return s.requestID
}
