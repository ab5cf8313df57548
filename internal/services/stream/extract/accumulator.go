package extract

import (
	"quizstream/internal/utils"

	"github.com/valyala/bytebufferpool"
)

// Accumulator is the append-only text buffer for one generation session.
// Content is never truncated or rewritten mid-stream, which is what makes
// incremental extraction safe: every scan sees a superset of the previous
// buffer.
type Accumulator struct {
	buf *bytebufferpool.ByteBuffer
}

// NewAccumulator creates an accumulator backed by a pooled buffer.
func NewAccumulator() *Accumulator {
	return &Accumulator{buf: utils.Get()}
}

// Append adds one delta to the end of the buffer.
func (a *Accumulator) Append(delta string) {
	a.buf.B = append(a.buf.B, delta...)
}

// Bytes returns the full buffer contents. The slice is only valid until
// the next Append.
func (a *Accumulator) Bytes() []byte {
	return a.buf.B
}

// Len returns the number of bytes accumulated so far.
func (a *Accumulator) Len() int {
	return len(a.buf.B)
}

// Release returns the underlying buffer to the pool. The accumulator must
// not be used afterwards.
func (a *Accumulator) Release() {
	if a.buf != nil {
		utils.Put(a.buf)
		a.buf = nil
	}
}
