package contracts

import "quizstream/internal/models"

// DeltaReader yields incremental text fragments decoded from a provider
// stream. Recv returns io.EOF when the upstream stream ends normally; an
// empty delta with a nil error means "nothing useful in this chunk".
type DeltaReader interface {
	Recv() (string, error)
	Close() error
}

// EventWriter publishes question-stream events to the client. Every event
// is flushed to the transport before the call returns.
type EventWriter interface {
	WriteQuestion(rec models.QuestionRecord) error
	WriteError(message string) error
	WriteDone(count int) error
	Close() error
}

// ConnectionState tracks whether the downstream client is still connected.
type ConnectionState interface {
	IsConnected() bool
	Done() <-chan struct{}
}
