package extract

import (
	"bytes"
	"encoding/json"

	"quizstream/internal/models"
)

// candidateResult classifies one closed candidate span.
type candidateResult int

const (
	// candidateInvalid means the span is structurally closed but is not a
	// usable question record. The source text won't change, so it is
	// dropped for good.
	candidateInvalid candidateResult = iota
	// candidateComplete means the span parsed into a record satisfying the
	// completeness invariant.
	candidateComplete
)

// spanResult describes what the scanner found after an opening brace.
type spanResult int

const (
	// spanIncomplete means the buffer ended before the closing brace. The
	// candidate is expected to close once more deltas arrive, so the scan
	// cursor stays put.
	spanIncomplete spanResult = iota
	// spanNested means another opening brace appeared first: the object is
	// a wrapper (an array or envelope the model put around the records)
	// and scanning descends into it.
	spanNested
	// spanClosed means a flat object span was found.
	spanClosed
)

// Extractor incrementally recognizes question records inside an
// accumulator. It keeps a cursor into the buffer and only ever scans
// forward, so the cost per delta is bounded by the new text plus at most
// one pending candidate, not the whole buffer.
//
// A candidate is a flat JSON object: from an opening brace, the scanner
// walks forward tracking string/escape state until the matching closing
// brace. Records never nest, since their options are plain strings.
type Extractor struct {
	acc     *Accumulator
	cursor  int
	records []models.QuestionRecord
	seen    map[string]struct{}
}

// NewExtractor creates an extractor over acc. The extractor does not own
// the accumulator; the session releases it.
func NewExtractor(acc *Accumulator) *Extractor {
	return &Extractor{
		acc:  acc,
		seen: make(map[string]struct{}),
	}
}

// Records scans any unprocessed buffer suffix and returns the ordered,
// deduplicated list of all complete records found so far. Calling it
// again on an unchanged buffer returns the identical list.
func (e *Extractor) Records() []models.QuestionRecord {
	e.scan()
	return e.records
}

func (e *Extractor) scan() {
	buf := e.acc.Bytes()
	for e.cursor < len(buf) {
		rel := bytes.IndexByte(buf[e.cursor:], '{')
		if rel < 0 {
			e.cursor = len(buf)
			return
		}
		start := e.cursor + rel

		span, next, res := flatSpan(buf, start)
		switch res {
		case spanIncomplete:
			// Still growing; retry from the same brace on the next delta.
			e.cursor = start
			return
		case spanNested:
			e.cursor = next
		case spanClosed:
			e.cursor = next
			e.keep(span)
		}
	}
}

// keep parses a closed candidate span and appends it if it is a complete,
// previously unseen record. Spans that fail to parse or fail the
// invariant are dropped permanently.
func (e *Extractor) keep(span []byte) {
	rec, res := classify(span)
	if res != candidateComplete {
		return
	}
	if _, dup := e.seen[rec.Prompt]; dup {
		return
	}
	e.seen[rec.Prompt] = struct{}{}
	e.records = append(e.records, rec)
}

// flatSpan walks the buffer from an opening brace at start looking for the
// end of a flat (non-nesting) object, ignoring braces inside JSON strings.
// It returns the span (for spanClosed) and the position to resume scanning
// from: past the closing brace, at the nested brace, or back at start for
// an incomplete span.
func flatSpan(buf []byte, start int) (span []byte, next int, res spanResult) {
	inString := false
	escaped := false
	for i := start + 1; i < len(buf); i++ {
		c := buf[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case c == '{' && !inString:
			return nil, i, spanNested
		case c == '}' && !inString:
			return buf[start : i+1], i + 1, spanClosed
		}
	}
	return nil, start, spanIncomplete
}

// classify attempts a structural parse of a closed span. A span that
// doesn't decode, or decodes into something violating the record
// invariant (unknown kind, empty prompt, wrong option count, answer not
// among the options), is invalid.
func classify(span []byte) (models.QuestionRecord, candidateResult) {
	var rec models.QuestionRecord
	if err := json.Unmarshal(span, &rec); err != nil {
		return rec, candidateInvalid
	}
	if !rec.Complete() {
		return rec, candidateInvalid
	}
	return rec, candidateComplete
}
