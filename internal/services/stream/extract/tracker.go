package extract

import "quizstream/internal/models"

// Tracker turns "re-scan the whole record list" into "emit only what's
// new". Extraction is monotonic and deduplicated, so the suffix past the
// delivered count is exactly the set of records not yet sent; advancing
// the count after each call gives at-most-once delivery per record.
type Tracker struct {
	delivered int
}

// NewTracker creates a tracker with nothing delivered yet.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Next returns the records in extracted that have not been delivered yet
// and marks them delivered.
func (t *Tracker) Next(extracted []models.QuestionRecord) []models.QuestionRecord {
	if t.delivered >= len(extracted) {
		return nil
	}
	fresh := extracted[t.delivered:]
	t.delivered = len(extracted)
	return fresh
}

// Delivered returns how many records have crossed the delivery boundary.
func (t *Tracker) Delivered() int {
	return t.delivered
}
