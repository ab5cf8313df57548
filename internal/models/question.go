package models

import "strings"

// Question kinds emitted by the model.
const (
	KindOpen           = "open"
	KindMultipleChoice = "multiple_choice"
)

// OptionCount is the required number of choices for a multiple-choice question.
const OptionCount = 4

// QuestionRecord is one study question extracted from the model output.
// The JSON shape matches what the model is instructed to emit, so records
// pass through to the client unchanged.
type QuestionRecord struct {
	Kind    string   `json:"type"`
	Prompt  string   `json:"question"`
	Options []string `json:"options,omitempty"`
	Answer  string   `json:"answer,omitempty"`
}

// Complete reports whether the record satisfies the structural invariant:
// a known kind, a non-empty prompt, and for multiple-choice exactly four
// distinct options with an answer that is one of them.
func (q QuestionRecord) Complete() bool {
	if strings.TrimSpace(q.Prompt) == "" {
		return false
	}

	switch q.Kind {
	case KindOpen:
		return true
	case KindMultipleChoice:
		if len(q.Options) != OptionCount || q.Answer == "" {
			return false
		}
		seen := make(map[string]struct{}, OptionCount)
		answerFound := false
		for _, opt := range q.Options {
			if _, dup := seen[opt]; dup {
				return false
			}
			seen[opt] = struct{}{}
			if opt == q.Answer {
				answerFound = true
			}
		}
		return answerFound
	default:
		return false
	}
}

// StreamEvent is one frame on the question stream. Exactly one of the
// fields below is populated per event.
type StreamEvent struct {
	Question *QuestionRecord `json:"question,omitempty"`
	Error    string          `json:"error,omitempty"`
	Done     bool            `json:"done,omitempty"`
	Count    *int            `json:"count,omitempty"`
}

// QuestionsRequest is the body of POST /api/questions.
type QuestionsRequest struct {
	Text string `json:"text" validate:"required"`
}

// ErrorResponse is the JSON body for non-streaming failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
