package parse

import (
	"bufio"
	"bytes"
	"io"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

// LineReader yields the lines of a JSONL stream one at a time. Lines longer
// than the size limit are returned empty (Oversized reports true) so callers
// can count them without buffering them.
type LineReader struct {
	r         *bufio.Reader
	max       int
	buf       []byte
	line      int
	oversized bool
	err       error
}

// NewLineReader returns a LineReader over r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReaderSize(r, 64*1024), max: maxLineSize}
}

// Next advances to the next line. It returns false at EOF or on a read error.
func (l *LineReader) Next() bool {
	if l.err != nil {
		return false
	}
	l.buf = l.buf[:0]
	l.oversized = false

	read := false
	for {
		chunk, err := l.r.ReadSlice('\n')
		if len(chunk) > 0 {
			read = true
			if !l.oversized && len(l.buf)+len(chunk) <= l.max+1 {
				l.buf = append(l.buf, chunk...)
			} else {
				l.oversized = true
				l.buf = l.buf[:0]
			}
		}
		switch err {
		case nil:
			l.line++
			return true
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			l.err = io.EOF
			if !read {
				return false
			}
			l.line++
			return true
		default:
			l.err = err
			return false
		}
	}
}

// Bytes returns the current line without its trailing newline. The slice is
// only valid until the next call to Next.
func (l *LineReader) Bytes() []byte {
	return bytes.TrimRight(l.buf, "\r\n")
}

// Line returns the 1-based number of the current line.
func (l *LineReader) Line() int { return l.line }

// Oversized reports whether the current line exceeded the size limit.
func (l *LineReader) Oversized() bool { return l.oversized }

// Err returns the first non-EOF read error.
func (l *LineReader) Err() error {
	if l.err == io.EOF {
		return nil
	}
	return l.err
}
