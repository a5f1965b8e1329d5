package protocol

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
)

var testEvent = ClientEvent{
	Name:      "clock",
	Instance:  "local",
	X:         1920,
	Y:         10,
	Button:    1,
	Event:     32,
	RelativeX: 12,
	RelativeY: 8,
	Width:     120,
	Height:    24,
}

// eventJSON builds a click event payload from testEvent with the given
// keys removed or overridden.
func eventJSON(t *testing.T, remove []string, override map[string]any) string {
	t.Helper()
	m := map[string]any{
		"name":       testEvent.Name,
		"instance":   testEvent.Instance,
		"x":          testEvent.X,
		"y":          testEvent.Y,
		"button":     testEvent.Button,
		"event":      testEvent.Event,
		"relative_x": testEvent.RelativeX,
		"relative_y": testEvent.RelativeY,
		"width":      testEvent.Width,
		"height":     testEvent.Height,
	}
	for _, k := range remove {
		delete(m, k)
	}
	for k, v := range override {
		m[k] = v
	}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("cannot build event payload: %v", err)
	}
	return string(b)
}

func eventReader(s string) *EventReader {
	return NewEventReader(strings.NewReader(s))
}

func assertNextEvent(t *testing.T, r *EventReader, want ClientEvent) {
	t.Helper()
	ev, err := r.Next()
	if err != nil {
		t.Fatalf("Next: unexpected error: %v", err)
	}
	if ev != want {
		t.Fatalf("Next: got %+v, want %+v", ev, want)
	}
}

func assertMalformed(t *testing.T, r *EventReader) {
	t.Helper()
	_, err := r.Next()
	var malformed *MalformedEventError
	if !errors.As(err, &malformed) {
		t.Fatalf("Next: expected malformed event error, got %v", err)
	}
}

func assertEndOfEvents(t *testing.T, r *EventReader) {
	t.Helper()
	_, err := r.Next()
	if err != io.EOF {
		t.Fatalf("Next: expected io.EOF, got %v", err)
	}
}

func TestEventRoundTrip(t *testing.T) {
	raw, err := json.Marshal(testEvent)
	if err != nil {
		t.Fatalf("cannot marshal event: %v", err)
	}
	r := eventReader(string(raw))
	assertNextEvent(t, r, testEvent)
	assertEndOfEvents(t, r)
}

func TestEventUnknownFieldsIgnored(t *testing.T) {
	r := eventReader(eventJSON(t, nil, map[string]any{"modifiers": []any{"Shift"}, "scale": 2}))
	assertNextEvent(t, r, testEvent)
}

func TestEventStreamShapes(t *testing.T) {
	payload := eventJSON(t, nil, nil)
	tests := []struct {
		name  string
		input string
		count int
	}{
		{"bare object", payload, 1},
		{"surrounding whitespace", "\n  " + payload + "\n", 1},
		{"concatenated objects", payload + payload + payload, 3},
		{"newline delimited", payload + "\n" + payload + "\n", 2},
		{"infinite array style", "[\n" + payload + "\n," + payload, 2},
		{"closed array", "[" + payload + "," + payload + "]", 2},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := eventReader(test.input)
			for i := 0; i < test.count; i++ {
				assertNextEvent(t, r, testEvent)
			}
			assertEndOfEvents(t, r)
		})
	}
}

// A '}' inside a string value must not be mistaken for the end of the
// event object.
func TestEventBraceInsideString(t *testing.T) {
	want := testEvent
	want.Name = "odd}name"
	r := eventReader(eventJSON(t, nil, map[string]any{"name": "odd}name"}))
	assertNextEvent(t, r, want)
	assertEndOfEvents(t, r)
}

func TestEventEscapes(t *testing.T) {
	want := testEvent
	want.Name = "a\"b\\cA"
	r := eventReader(`{"name":"a\"b\\cA","instance":"local","x":1920,"y":10,"button":1,` +
		`"event":32,"relative_x":12,"relative_y":8,"width":120,"height":24}`)
	assertNextEvent(t, r, want)
}

func TestEventMissingFields(t *testing.T) {
	fields := []string{
		"name", "instance", "x", "y", "button",
		"event", "relative_x", "relative_y", "width", "height",
	}
	for _, field := range fields {
		t.Run(field, func(t *testing.T) {
			r := eventReader(eventJSON(t, []string{field}, nil))
			assertMalformed(t, r)
		})
	}
}

func TestEventNegativeFields(t *testing.T) {
	fields := []string{
		"x", "y", "button", "event",
		"relative_x", "relative_y", "width", "height",
	}
	for _, field := range fields {
		t.Run(field, func(t *testing.T) {
			r := eventReader(eventJSON(t, nil, map[string]any{field: -1}))
			assertMalformed(t, r)
		})
	}
}

func TestEventWrongFieldType(t *testing.T) {
	r := eventReader(eventJSON(t, nil, map[string]any{"x": "far left"}))
	assertMalformed(t, r)
}

func TestEventSyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not an object", `42`},
		{"unterminated object", `{"name":"a"`},
		{"unterminated string", `{"name":"a`},
		{"missing colon", `{"name" "a"}`},
		{"missing value", `{"name":}`},
		{"bad escape", `{"name":"\q"}`},
		{"control character in string", "{\"name\":\"a\x01b\"}"},
		{"leading zero", `{"x":01}`},
		{"bare minus", `{"x":-}`},
		{"garbage", `@@@`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := eventReader(test.input)
			assertMalformed(t, r)
		})
	}
}

// After a malformed payload the reader resynchronizes past the next '}'
// and keeps decoding.
func TestEventResync(t *testing.T) {
	r := eventReader(`{"name":}` + eventJSON(t, nil, nil))
	assertMalformed(t, r)
	assertNextEvent(t, r, testEvent)
	assertEndOfEvents(t, r)
}

// A payload that is valid JSON but not a valid event consumes exactly
// its own bytes; no resynchronization is needed.
func TestEventInvalidThenValid(t *testing.T) {
	r := eventReader(eventJSON(t, []string{"button"}, nil) + eventJSON(t, nil, nil))
	assertMalformed(t, r)
	assertNextEvent(t, r, testEvent)
	assertEndOfEvents(t, r)
}

func TestEventEndOfInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t"},
		{"array open only", "[\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assertEndOfEvents(t, eventReader(test.input))
		})
	}
}

func TestEventNestedValuesSkipped(t *testing.T) {
	// Hosts may grow nested payload fields; they are scanned and
	// ignored like any other unknown field.
	r := eventReader(eventJSON(t, nil, map[string]any{
		"modifiers": []any{"Shift", "Control"},
		"pointer":   map[string]any{"kind": "mouse"},
	}))
	assertNextEvent(t, r, testEvent)
}
