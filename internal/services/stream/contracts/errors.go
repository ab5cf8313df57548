package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// StreamErrorType categorizes how a streaming session ended.
type StreamErrorType int

const (
	// Expected terminations, logged at info level.
	ClientDisconnect StreamErrorType = iota
	StreamComplete

	// Unexpected terminations, logged as errors.
	ProviderError
	InternalError
)

// StreamError carries the termination cause of a session along with the
// request it belonged to.
type StreamError struct {
	Type      StreamErrorType
	Message   string
	Cause     error
	RequestID string
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

// IsExpected reports whether this termination is part of normal operation.
func (e *StreamError) IsExpected() bool {
	return e.Type == ClientDisconnect || e.Type == StreamComplete
}

func NewClientDisconnectError(requestID string) *StreamError {
	return &StreamError{Type: ClientDisconnect, Message: "client disconnected", RequestID: requestID}
}

func NewStreamCompleteError(requestID string) *StreamError {
	return &StreamError{Type: StreamComplete, Message: "stream completed", RequestID: requestID}
}

func NewProviderError(requestID, provider string, cause error) *StreamError {
	return &StreamError{
		Type:      ProviderError,
		Message:   fmt.Sprintf("provider %s error", provider),
		Cause:     cause,
		RequestID: requestID,
	}
}

func NewInternalError(requestID, message string, cause error) *StreamError {
	return &StreamError{Type: InternalError, Message: message, Cause: cause, RequestID: requestID}
}

// IsClientDisconnect checks whether err is a client disconnect.
func IsClientDisconnect(err error) bool {
	var streamErr *StreamError
	return errors.As(err, &streamErr) && streamErr.Type == ClientDisconnect
}

// IsExpectedError checks whether err is an expected termination.
func IsExpectedError(err error) bool {
	var streamErr *StreamError
	return errors.As(err, &streamErr) && streamErr.IsExpected()
}

// IsConnectionClosed checks whether a transport write failed because the
// peer went away.
func IsConnectionClosed(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection closed") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "use of closed network connection")
}
