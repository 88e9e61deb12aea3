package server

// lineBuffer accumulates raw bytes read from one connection and extracts
// complete lines. A line ends at '\n' or '\r'; a "\r\n" pair produces a
// single line because the empty fragment between the two terminators is
// dropped. Fragments without a terminator are carried over to the next read,
// so a line split across reads is reassembled rather than truncated.
type lineBuffer struct {
	buf   []byte
	limit int
}

func newLineBuffer(limit int) *lineBuffer {
	if limit <= 0 {
		limit = 4096
	}
	return &lineBuffer{limit: limit}
}

// push appends p and returns every complete line now available, terminators
// trimmed and empty lines dropped. If the pending fragment exceeds the buffer
// limit without a terminator, it is flushed as one line to bound memory per
// connection.
func (b *lineBuffer) push(p []byte) []string {
	b.buf = append(b.buf, p...)

	var lines []string
	start := 0
	for i := 0; i < len(b.buf); i++ {
		if b.buf[i] != '\n' && b.buf[i] != '\r' {
			continue
		}
		if i > start {
			lines = append(lines, string(b.buf[start:i]))
		}
		start = i + 1
	}
	b.buf = b.buf[:copy(b.buf, b.buf[start:])]

	if len(b.buf) >= b.limit {
		lines = append(lines, string(b.buf))
		b.buf = b.buf[:0]
	}
	return lines
}
