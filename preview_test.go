package statusbar

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moamenhredeen/swaybar-status-manager/protocol"
)

// blockSource returns the same fully styled block on every call.
type blockSource struct {
	name  string
	block protocol.Block
}

func (s blockSource) Name() string { return s.name }

func (s blockSource) Block(ctx context.Context) (protocol.Block, error) {
	return s.block, nil
}

func startPreview(t *testing.T, p *Preview) (cancel func(), done chan error) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	done = make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return cancelCtx, done
}

func TestPreviewLines(t *testing.T) {
	texts := make(chan string)
	out := newCaptureWriter()
	p := NewPreview(out, feedSource(texts))
	p.Interval = time.Hour // only Refresh advances the preview

	cancel, done := startPreview(t, p)

	texts <- "A"
	if got := awaitWrite(t, out); got != "A\n" {
		t.Fatalf("first line: got %q", got)
	}
	p.Refresh()
	texts <- "B"
	if got := awaitWrite(t, out); got != "B\n" {
		t.Fatalf("second line: got %q", got)
	}
	awaitCancelled(t, cancel, done)

	if got, want := out.String(), "A\nB\n"; got != want {
		t.Fatalf("full output: got %q, want %q", got, want)
	}
}

func TestPreviewSeparators(t *testing.T) {
	out := newCaptureWriter()
	p := NewPreview(out,
		blockSource{name: "a", block: *protocol.NewBlock("A")},
		blockSource{name: "b", block: *protocol.NewBlock("B").SetSeparator(false)},
		blockSource{name: "c", block: *protocol.NewBlock("C")},
	)
	p.Interval = time.Hour

	cancel, done := startPreview(t, p)

	// A has no explicit separator choice, so it gets one.  B opts out.
	if got, want := awaitWrite(t, out), "A | B C\n"; got != want {
		t.Fatalf("line: got %q, want %q", got, want)
	}
	awaitCancelled(t, cancel, done)
}

func TestPreviewColors(t *testing.T) {
	out := newCaptureWriter()
	p := NewPreview(out,
		blockSource{name: "urgent", block: *protocol.NewBlock("U").SetUrgent(true)},
		blockSource{name: "colored", block: *protocol.NewBlock("C").SetColor("#cc0000")},
		blockSource{name: "plain", block: *protocol.NewBlock("P")},
	)
	p.Interval = time.Hour
	p.Colors = &Palette{
		UrgentCode:    []byte("<u>"),
		SeparatorCode: []byte("<s>"),
		ResetCode:     []byte("<r>"),
	}

	cancel, done := startPreview(t, p)

	want := "<u>U<r>" + "<s> | <r>" + "\033[38;2;204;0;0mC<r>" + "<s> | <r>" + "P\n"
	if got := awaitWrite(t, out); got != want {
		t.Fatalf("line: got %q, want %q", got, want)
	}
	awaitCancelled(t, cancel, done)
}

func TestPreviewBackground(t *testing.T) {
	out := newCaptureWriter()
	p := NewPreview(out,
		blockSource{name: "boxed", block: *protocol.NewBlock("X").SetColor("#ffffff").SetBackground("#000080")},
	)
	p.Interval = time.Hour
	p.Colors = &Palette{ResetCode: []byte("<r>")}

	cancel, done := startPreview(t, p)

	want := "\033[38;2;255;255;255m\033[48;2;0;0;128mX<r>\n"
	if got := awaitWrite(t, out); got != want {
		t.Fatalf("line: got %q, want %q", got, want)
	}
	awaitCancelled(t, cancel, done)
}

func TestPreviewBadColorFallsBack(t *testing.T) {
	out := newCaptureWriter()
	p := NewPreview(out,
		blockSource{name: "odd", block: *protocol.NewBlock("X").SetColor("red")},
	)
	p.Interval = time.Hour
	p.Colors = &Palette{ResetCode: []byte("<r>")}

	cancel, done := startPreview(t, p)

	// An unparseable color renders as plain text, with no stray reset.
	if got, want := awaitWrite(t, out), "X\n"; got != want {
		t.Fatalf("line: got %q, want %q", got, want)
	}
	awaitCancelled(t, cancel, done)
}

func TestPreviewSourceFailure(t *testing.T) {
	out := newCaptureWriter()
	p := NewPreview(out, NewTextSource("ok", func() string { return "ok" }), brokenSource{})
	p.Interval = time.Hour

	cancel, done := startPreview(t, p)

	if got, want := awaitWrite(t, out), "ok\n"; got != want {
		t.Fatalf("line: got %q, want %q", got, want)
	}
	awaitCancelled(t, cancel, done)
}

func TestPreviewOutputFailure(t *testing.T) {
	sinkGone := errors.New("sink gone")
	p := NewPreview(&failingWriter{err: sinkGone}, NewTextSource("x", func() string { return "x" }))

	err := p.Run(context.Background())
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("Run: expected a WriteError, got %v", err)
	}
	if writeErr.Op != "preview" {
		t.Fatalf("Op: got %q, want %q", writeErr.Op, "preview")
	}
	if !errors.Is(err, sinkGone) {
		t.Fatalf("expected the sink error in the chain, got %v", err)
	}
}

func TestForegroundCode(t *testing.T) {
	tests := []struct {
		color string
		want  string
		ok    bool
	}{
		{"#cc0000", "\033[38;2;204;0;0m", true},
		{"#CC0000", "\033[38;2;204;0;0m", true},
		{"#cc0000ff", "\033[38;2;204;0;0m", true},
		{"#000000", "\033[38;2;0;0;0m", true},
		{"red", "", false},
		{"#ccc", "", false},
		{"#cc00", "", false},
		{"#xyzxyz", "", false},
		{"", "", false},
	}
	for _, test := range tests {
		code, ok := foregroundCode(test.color)
		if ok != test.ok {
			t.Errorf("foregroundCode(%q): ok = %v, want %v", test.color, ok, test.ok)
			continue
		}
		if !bytes.Equal(code, []byte(test.want)) {
			t.Errorf("foregroundCode(%q): got %q, want %q", test.color, code, test.want)
		}
	}
}
