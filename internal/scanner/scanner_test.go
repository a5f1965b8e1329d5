package scanner

import (
	"strings"
	"testing"
)

func strScanner(s string) *Scanner {
	return NewScanner(strings.NewReader(s))
}

func assertRead(t *testing.T, s *Scanner, xb byte, xerr error) {
	t.Helper()
	b, err := s.Read()
	if b != xb {
		t.Fatalf("Read: expected b = %q, got %q", xb, b)
	}
	if err != xerr {
		t.Fatalf("Read: expected err = %v, got %v", xerr, err)
	}
}

func assertPeek(t *testing.T, s *Scanner, xb byte, xerr error) {
	t.Helper()
	b, err := s.Peek()
	if b != xb {
		t.Fatalf("Peek: expected b = %q, got %q", xb, b)
	}
	if err != xerr {
		t.Fatalf("Peek: expected err = %v, got %v", xerr, err)
	}
}

func assertCurrentPos(t *testing.T, s *Scanner, line, col int) {
	t.Helper()
	pos := s.CurrentPos()
	if pos.Line != line || pos.Col != col {
		t.Fatalf("CurrentPos: expected (%d, %d) got (%d, %d)", line, col, pos.Line, pos.Col)
	}
}

func TestReadAndPeek(t *testing.T) {
	s := strScanner("ab\ncd")
	assertRead(t, s, 'a', nil)
	assertPeek(t, s, 'b', nil)
	assertCurrentPos(t, s, 0, 1)
	assertRead(t, s, 'b', nil)
	assertRead(t, s, '\n', nil)
	assertCurrentPos(t, s, 1, 0)
	assertRead(t, s, 'c', nil)
	assertRead(t, s, 'd', nil)
	assertRead(t, s, EOF, nil)
	assertRead(t, s, EOF, nil)
	assertPeek(t, s, EOF, nil)
}

func TestSkipSpaceAndPeek(t *testing.T) {
	s := strScanner("  \t\r\n  {}")
	b, err := s.SkipSpaceAndPeek()
	if b != '{' || err != nil {
		t.Fatalf("SkipSpaceAndPeek: expected ('{', nil), got (%q, %v)", b, err)
	}
	assertCurrentPos(t, s, 1, 2)
	assertRead(t, s, '{', nil)
	b, err = s.SkipSpaceAndPeek()
	if b != '}' || err != nil {
		t.Fatalf("SkipSpaceAndPeek: expected ('}', nil), got (%q, %v)", b, err)
	}
}

func TestSkipSpaceAtEOF(t *testing.T) {
	s := strScanner("   ")
	b, err := s.SkipSpaceAndPeek()
	if b != EOF || err != nil {
		t.Fatalf("SkipSpaceAndPeek: expected (EOF, nil), got (%q, %v)", b, err)
	}
}

func TestCapture(t *testing.T) {
	s := strScanner(`{"a": 1}rest`)
	pos := s.StartCapture()
	if pos.Line != 0 || pos.Col != 0 {
		t.Fatalf("StartCapture: expected (0, 0), got (%d, %d)", pos.Line, pos.Col)
	}
	for i := 0; i < 5; i++ {
		s.Read()
	}
	s.SkipSpaceAndPeek()
	for i := 0; i < 2; i++ {
		s.Read()
	}
	got := s.StopCapture()
	if string(got) != `{"a": 1}` {
		t.Fatalf("StopCapture: expected %q, got %q", `{"a": 1}`, got)
	}
	assertRead(t, s, 'r', nil)
}

func TestCaptureAcrossRefill(t *testing.T) {
	// Token much larger than the buffer, so the capture spans many
	// refills.
	long := strings.Repeat("0123456789", 50)
	s := NewScannerSize(strings.NewReader("x"+long+"y"), 16)
	assertRead(t, s, 'x', nil)
	s.StartCapture()
	for i := 0; i < len(long); i++ {
		if _, err := s.Read(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	got := s.StopCapture()
	if string(got) != long {
		t.Fatalf("StopCapture: captured %d bytes, expected %d", len(got), len(long))
	}
	assertRead(t, s, 'y', nil)
}

func TestCaptureMisuse(t *testing.T) {
	s := strScanner("abc")
	assertPanics(t, "not capturing", func() { s.StopCapture() })
	s.StartCapture()
	assertPanics(t, "already capturing", func() { s.StartCapture() })
}

func assertPanics(t *testing.T, expectedMsg string, f func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic with message %q, but no panic occurred", expectedMsg)
		} else if msg, ok := r.(string); !ok || !strings.Contains(msg, expectedMsg) {
			t.Errorf("panic message %v does not contain %q", r, expectedMsg)
		}
	}()
	f()
}
