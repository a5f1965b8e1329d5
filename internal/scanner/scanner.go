package scanner

import (
	"io"
)

// Pos is a position in the scanned input. Both fields start at 0.
type Pos struct {
	Line int
	Col  int
}

// A Scanner reads bytes one at a time from an io.Reader, keeping track
// of the current position and optionally capturing the bytes it
// consumes.  Lookahead is done with Peek, so callers decide what a byte
// means before consuming it; there is no unread operation.
type Scanner struct {
	reader io.Reader
	buf    []byte

	// Window of buffered, unconsumed bytes in buf.
	// 0 <= next <= filled <= len(buf)
	next, filled int

	// Position of the next byte to be consumed.
	pos Pos

	// Bytes consumed since StartCapture.  Only appended to while
	// capturing is true.
	capture   []byte
	capturing bool

	err error
}

func NewScanner(reader io.Reader) *Scanner {
	return NewScannerSize(reader, defaultBufSize)
}

func NewScannerSize(reader io.Reader, size int) *Scanner {
	return &Scanner{
		reader: reader,
		buf:    make([]byte, size),
	}
}

func (s *Scanner) fill() {
	if s.next == s.filled {
		s.next = 0
		s.filled = 0
	}
	for i := maxConsecutiveEmptyReads; i > 0; i-- {
		n, err := s.reader.Read(s.buf[s.filled:])
		s.filled += n
		if err != nil {
			s.err = err
			return
		}
		if n > 0 {
			return
		}
	}
	s.err = io.ErrNoProgress
}

// Read consumes and returns the next byte.  At the end of the input it
// returns (EOF, nil); a read failure is returned as (0, err).
func (s *Scanner) Read() (byte, error) {
	if s.next >= s.filled {
		s.fill()
	}
	if s.next < s.filled {
		b := s.buf[s.next]
		s.next++
		s.advance(b)
		if s.capturing {
			s.capture = append(s.capture, b)
		}
		return b, nil
	}
	if s.err == io.EOF {
		return EOF, nil
	}
	return 0, s.err
}

// Peek returns the next byte without consuming it, with the same EOF
// convention as Read.
func (s *Scanner) Peek() (byte, error) {
	if s.next >= s.filled {
		s.fill()
	}
	if s.next < s.filled {
		return s.buf[s.next], nil
	}
	return s.errOrEOF()
}

// SkipSpaceAndPeek consumes whitespace and returns the first byte after
// it without consuming it.
func (s *Scanner) SkipSpaceAndPeek() (byte, error) {
	for {
		for s.next < s.filled {
			b := s.buf[s.next]
			if b != ' ' && b != '\t' && b != '\r' && b != '\n' {
				return b, nil
			}
			s.next++
			s.advance(b)
			if s.capturing {
				s.capture = append(s.capture, b)
			}
		}
		s.fill()
		if s.next >= s.filled {
			return s.errOrEOF()
		}
	}
}

func (s *Scanner) errOrEOF() (byte, error) {
	if s.err == io.EOF {
		return EOF, nil
	}
	return 0, s.err
}

func (s *Scanner) advance(b byte) {
	switch {
	case b == '\n':
		s.pos.Line++
		s.pos.Col = 0
	case b < 0xC0:
		// Not a lead byte of a multi-byte UTF-8 sequence.
		s.pos.Col++
	}
}

// CurrentPos returns the position of the next byte to be consumed.
func (s *Scanner) CurrentPos() Pos {
	return s.pos
}

// StartCapture starts recording consumed bytes and returns the position
// of the next byte.  The recording is retrieved with StopCapture.
func (s *Scanner) StartCapture() Pos {
	if s.capturing {
		panic("already capturing")
	}
	s.capturing = true
	s.capture = nil
	return s.pos
}

// StopCapture stops recording and returns the bytes consumed since
// StartCapture.  The returned slice is owned by the caller.
func (s *Scanner) StopCapture() []byte {
	if !s.capturing {
		panic("not capturing")
	}
	s.capturing = false
	out := s.capture
	s.capture = nil
	return out
}

const (
	maxConsecutiveEmptyReads = 100
	defaultBufSize           = 8192
)

// 0xFF is a byte that cannot appear in a UTF-8 encoded stream of bytes.
const EOF byte = 0xFF
