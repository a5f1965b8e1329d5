package protocol

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/moamenhredeen/swaybar-status-manager/internal/scanner"
)

// A ClientEvent reports a pointer interaction with one block.  The
// name/instance pair echoes the Block that was clicked; whether that
// pair matches a block the producer emitted is for the consumer to
// decide.
type ClientEvent struct {
	Name      string `json:"name"`
	Instance  string `json:"instance"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Button    int    `json:"button"`
	Event     int    `json:"event"`
	RelativeX int    `json:"relative_x"`
	RelativeY int    `json:"relative_y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// A MalformedEventError contains the error that made an input payload
// undecodable as a ClientEvent.  It is recoverable: the reader skips
// past the payload and later events remain readable.
type MalformedEventError struct {
	Err error
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed click event: %s", e.Err)
}

func (e *MalformedEventError) Unwrap() error {
	return e.Err
}

// An EventReader decodes the stream of click events a host writes to
// the producer's input.  It frames each event on a real JSON object
// boundary, so payloads containing '}' inside string values and several
// events arriving in one read are handled correctly.  Framing noise
// between events ('[', ']' and ',' from hosts that send their events as
// one long array, plus any whitespace) is skipped.
type EventReader struct {
	scanr *scanner.Scanner
}

// NewEventReader returns an EventReader decoding events from in.
func NewEventReader(in io.Reader) *EventReader {
	return &EventReader{scanr: scanner.NewScanner(in)}
}

// Next returns the next click event from the stream.  It returns io.EOF
// once the input is exhausted and a *MalformedEventError for a payload
// that does not decode to a valid ClientEvent; any other error comes
// from the underlying reader.
func (r *EventReader) Next() (ClientEvent, error) {
	for {
		b, err := r.scanr.SkipSpaceAndPeek()
		if err != nil {
			return ClientEvent{}, err
		}
		switch b {
		case scanner.EOF:
			return ClientEvent{}, io.EOF
		case '[', ']', ',':
			r.scanr.Read()
			continue
		}
		raw, err := r.captureObject()
		if err != nil {
			// The input is off the rails; skip through the next '}'
			// and report the payload as malformed.
			r.resync()
			return ClientEvent{}, &MalformedEventError{Err: err}
		}
		ev, err := decodeEvent(raw)
		if err != nil {
			return ClientEvent{}, &MalformedEventError{Err: err}
		}
		return ev, nil
	}
}

// captureObject scans one JSON object, validating its syntax, and
// returns its raw bytes.
func (r *EventReader) captureObject() ([]byte, error) {
	r.scanr.StartCapture()
	err := r.scanObject()
	raw := r.scanr.StopCapture()
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// resync discards input through the next '}', giving the reader a
// chance to find the start of the following event after a broken
// payload.
func (r *EventReader) resync() {
	for {
		b, err := r.scanr.Read()
		if err != nil || b == '}' || b == scanner.EOF {
			return
		}
	}
}

func (r *EventReader) scanValue() error {
	b, err := r.scanr.SkipSpaceAndPeek()
	if err != nil {
		return err
	}
	switch b {
	case '"':
		return r.scanString()
	case '{':
		return r.scanObject()
	case '[':
		return r.scanArray()
	case 't':
		return r.scanLiteral("true")
	case 'f':
		return r.scanLiteral("false")
	case 'n':
		return r.scanLiteral("null")
	default:
		if b == '-' || scanner.IsDigit(b) {
			return r.scanNumber()
		}
		return r.unexpectedByte("unexpected")
	}
}

func (r *EventReader) scanObject() error {
	if err := r.expectByte('{'); err != nil {
		return err
	}
	b, err := r.scanr.SkipSpaceAndPeek()
	if err != nil {
		return err
	}
	if b == '}' {
		r.scanr.Read()
		return nil
	}
	for {
		b, err = r.scanr.SkipSpaceAndPeek()
		if err != nil {
			return err
		}
		if b != '"' {
			return r.unexpectedByte("expected object key")
		}
		if err = r.scanString(); err != nil {
			return err
		}
		b, err = r.scanr.SkipSpaceAndPeek()
		if err != nil {
			return err
		}
		if b != ':' {
			return r.unexpectedByte("expected ':', got")
		}
		r.scanr.Read()
		if err = r.scanValue(); err != nil {
			return err
		}
		b, err = r.scanr.SkipSpaceAndPeek()
		if err != nil {
			return err
		}
		switch b {
		case '}':
			r.scanr.Read()
			return nil
		case ',':
			r.scanr.Read()
		default:
			return r.unexpectedByte("expected '}' or ',', got")
		}
	}
}

func (r *EventReader) scanArray() error {
	if err := r.expectByte('['); err != nil {
		return err
	}
	b, err := r.scanr.SkipSpaceAndPeek()
	if err != nil {
		return err
	}
	if b == ']' {
		r.scanr.Read()
		return nil
	}
	for {
		if err = r.scanValue(); err != nil {
			return err
		}
		b, err = r.scanr.SkipSpaceAndPeek()
		if err != nil {
			return err
		}
		switch b {
		case ']':
			r.scanr.Read()
			return nil
		case ',':
			r.scanr.Read()
		default:
			return r.unexpectedByte("expected ']' or ',', got")
		}
	}
}

func (r *EventReader) scanString() error {
	if err := r.expectByte('"'); err != nil {
		return err
	}
	for {
		b, err := r.scanr.Read()
		if err != nil {
			return err
		}
		switch b {
		case '"':
			return nil
		case '\\':
			x, err := r.scanr.Read()
			if err != nil {
				return err
			}
			switch x {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
			case 'u':
				for i := 0; i < 4; i++ {
					b, err = r.scanr.Read()
					if err != nil {
						return err
					}
					if !scanner.IsHexDigit(b) {
						return r.syntaxError("expected hex digit, got %s", byteLabel(b))
					}
				}
			default:
				return r.syntaxError("invalid escape character %s", byteLabel(x))
			}
		case scanner.EOF:
			return r.syntaxError("unterminated string")
		default:
			if scanner.IsCtrl(b) {
				return r.syntaxError("invalid control character in string")
			}
		}
	}
}

func (r *EventReader) scanLiteral(lit string) error {
	for i := 0; i < len(lit); i++ {
		if err := r.expectByte(lit[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *EventReader) scanNumber() error {
	b, err := r.scanr.Peek()
	if err != nil {
		return err
	}
	if b == '-' {
		r.scanr.Read()
		b, err = r.scanr.Peek()
		if err != nil {
			return err
		}
	}

	// Integer part
	if b == '0' {
		r.scanr.Read()
	} else if scanner.IsDigit(b) {
		r.scanDigits()
	} else {
		return r.unexpectedByte("expected digit, got")
	}

	// Fraction part
	if b, err = r.scanr.Peek(); err != nil {
		return err
	}
	if b == '.' {
		r.scanr.Read()
		if r.scanDigits() == 0 {
			return r.unexpectedByte("expected digit, got")
		}
		if b, err = r.scanr.Peek(); err != nil {
			return err
		}
	}

	// Exponent part
	if b == 'e' || b == 'E' {
		r.scanr.Read()
		if b, err = r.scanr.Peek(); err != nil {
			return err
		}
		if b == '-' || b == '+' {
			r.scanr.Read()
		}
		if r.scanDigits() == 0 {
			return r.unexpectedByte("expected digit, got")
		}
	}
	return nil
}

func (r *EventReader) scanDigits() int {
	var n int
	for {
		b, err := r.scanr.Peek()
		if err != nil || !scanner.IsDigit(b) {
			return n
		}
		r.scanr.Read()
		n++
	}
}

func (r *EventReader) expectByte(xb byte) error {
	b, err := r.scanr.Peek()
	if err != nil {
		return err
	}
	if b != xb {
		return r.unexpectedByte("expected %q, got", xb)
	}
	r.scanr.Read()
	return nil
}

// unexpectedByte returns a syntax error naming the next byte of input
// without consuming it.
func (r *EventReader) unexpectedByte(expected string, args ...interface{}) error {
	b, err := r.scanr.Peek()
	if err != nil {
		return err
	}
	return r.syntaxError("%s %s", fmt.Sprintf(expected, args...), byteLabel(b))
}

// syntaxError formats an error at the scanner's current position,
// reported 1-based.
func (r *EventReader) syntaxError(format string, args ...interface{}) error {
	pos := r.scanr.CurrentPos()
	return fmt.Errorf("syntax error at L%d,C%d: %s", pos.Line+1, pos.Col+1, fmt.Sprintf(format, args...))
}

func byteLabel(b byte) string {
	if b == scanner.EOF {
		return "<EOF>"
	}
	return fmt.Sprintf("%q", b)
}

// clientEventWire mirrors ClientEvent with pointer fields so that
// missing keys can be told apart from zero values after unmarshaling.
type clientEventWire struct {
	Name      *string `json:"name"`
	Instance  *string `json:"instance"`
	X         *int    `json:"x"`
	Y         *int    `json:"y"`
	Button    *int    `json:"button"`
	Event     *int    `json:"event"`
	RelativeX *int    `json:"relative_x"`
	RelativeY *int    `json:"relative_y"`
	Width     *int    `json:"width"`
	Height    *int    `json:"height"`
}

// decodeEvent unmarshals a syntactically valid JSON object and checks
// the ClientEvent contract: all ten fields present, numeric fields
// non-negative.  Unknown fields are ignored.
func decodeEvent(raw []byte) (ClientEvent, error) {
	var w clientEventWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return ClientEvent{}, err
	}
	required := []struct {
		name string
		ok   bool
	}{
		{"name", w.Name != nil},
		{"instance", w.Instance != nil},
		{"x", w.X != nil},
		{"y", w.Y != nil},
		{"button", w.Button != nil},
		{"event", w.Event != nil},
		{"relative_x", w.RelativeX != nil},
		{"relative_y", w.RelativeY != nil},
		{"width", w.Width != nil},
		{"height", w.Height != nil},
	}
	for _, f := range required {
		if !f.ok {
			return ClientEvent{}, fmt.Errorf("missing required field %q", f.name)
		}
	}
	numbers := []struct {
		name  string
		value int
	}{
		{"x", *w.X},
		{"y", *w.Y},
		{"button", *w.Button},
		{"event", *w.Event},
		{"relative_x", *w.RelativeX},
		{"relative_y", *w.RelativeY},
		{"width", *w.Width},
		{"height", *w.Height},
	}
	for _, f := range numbers {
		if f.value < 0 {
			return ClientEvent{}, fmt.Errorf("field %q is negative: %d", f.name, f.value)
		}
	}
	return ClientEvent{
		Name:      *w.Name,
		Instance:  *w.Instance,
		X:         *w.X,
		Y:         *w.Y,
		Button:    *w.Button,
		Event:     *w.Event,
		RelativeX: *w.RelativeX,
		RelativeY: *w.RelativeY,
		Width:     *w.Width,
		Height:    *w.Height,
	}, nil
}
