package statusbar

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/moamenhredeen/swaybar-status-manager/protocol"
)

// A WriteError is a failure to write to or flush the output stream.
// It is fatal to the feed: the host that was reading it is gone.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %s", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// An Engine drives the status feed: it writes the protocol header
// followed by an endless array of snapshots to its output stream, one
// snapshot per tick, and reads click events from its input stream
// without ever blocking the feed.
//
// Create an Engine with NewEngine, adjust the exported fields before
// calling Run, and do not touch them afterwards.
type Engine struct {
	// Header is written once before the block stream opens.
	Header *protocol.Header

	// Interval is the time between snapshots.
	Interval time.Duration

	// OnEvent, when set, receives every decoded click event.  Events
	// are dispatched on the engine's goroutine, between snapshots.
	OnEvent func(protocol.ClientEvent)

	// Log receives diagnostics.  The feed itself never goes through it.
	Log zerolog.Logger

	out     *bufio.Writer
	in      io.Reader
	sources []Source
	refresh chan struct{}
}

// NewEngine returns an Engine writing the feed to out and reading
// click events from in.  A nil in means there are no click events to
// read.  Snapshots contain one block per source, in the given order.
func NewEngine(out io.Writer, in io.Reader, sources ...Source) *Engine {
	return &Engine{
		Header:   protocol.NewHeader(protocol.Version),
		Interval: time.Second,
		Log:      zerolog.Nop(),
		out:      bufio.NewWriter(out),
		in:       in,
		sources:  sources,
		refresh:  make(chan struct{}, 1),
	}
}

// Refresh makes the engine emit the next snapshot immediately instead
// of waiting out the current tick.  It is safe to call from any
// goroutine; concurrent refreshes coalesce into one.
func (e *Engine) Refresh() {
	select {
	case e.refresh <- struct{}{}:
	default:
	}
}

// Run writes the header and then streams snapshots until ctx is
// cancelled or the output stream fails.  The outer array is never
// closed, whatever the exit path: the protocol has no terminal state.
func (e *Engine) Run(ctx context.Context) error {
	interval := e.Interval
	if interval <= 0 {
		interval = time.Second
	}
	if err := e.writeHeader(); err != nil {
		return err
	}
	events := e.startEventPump(ctx)
	for {
		if err := e.writeSnapshot(ctx); err != nil {
			return err
		}
		timer := time.NewTimer(interval)
	waiting:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case ev, ok := <-events:
				if !ok {
					// Input is exhausted; the feed carries on without
					// click events.
					events = nil
					continue
				}
				e.dispatch(ev)
			case <-e.refresh:
				timer.Stop()
				break waiting
			case <-timer.C:
				break waiting
			}
		}
	}
}

func (e *Engine) writeHeader() error {
	hdr := e.Header
	if hdr == nil {
		hdr = protocol.NewHeader(protocol.Version)
	}
	b, err := hdr.Encode()
	if err != nil {
		return &WriteError{Op: "header", Err: err}
	}
	b = append(b, '\n', '[')
	if _, err := e.out.Write(b); err != nil {
		return &WriteError{Op: "header", Err: err}
	}
	if err := e.out.Flush(); err != nil {
		return &WriteError{Op: "header", Err: err}
	}
	e.Log.Debug().Int("version", hdr.Version).Msg("feed opened")
	return nil
}

func (e *Engine) writeSnapshot(ctx context.Context) error {
	b, err := collectBlocks(ctx, e.Log, e.sources).Encode()
	if err != nil {
		return &WriteError{Op: "snapshot", Err: err}
	}
	b = append(b, ',')
	if _, err := e.out.Write(b); err != nil {
		return &WriteError{Op: "snapshot", Err: err}
	}
	if err := e.out.Flush(); err != nil {
		return &WriteError{Op: "snapshot", Err: err}
	}
	return nil
}

// startEventPump reads click events on its own goroutine, so a
// blocking input read can never hold up the feed.  The returned
// channel is closed once the input is exhausted.
func (e *Engine) startEventPump(ctx context.Context) <-chan protocol.ClientEvent {
	events := make(chan protocol.ClientEvent, eventBufferSize)
	if e.in == nil {
		close(events)
		return events
	}
	go func() {
		defer close(events)
		reader := protocol.NewEventReader(e.in)
		for {
			ev, err := reader.Next()
			if err != nil {
				var malformed *protocol.MalformedEventError
				if errors.As(err, &malformed) {
					e.Log.Debug().Err(err).Msg("discarding malformed click event")
					continue
				}
				if err != io.EOF {
					e.Log.Debug().Err(err).Msg("input stream failed, no more click events")
				}
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events
}

func (e *Engine) dispatch(ev protocol.ClientEvent) {
	e.Log.Debug().
		Str("name", ev.Name).
		Str("instance", ev.Instance).
		Int("button", ev.Button).
		Msg("click event")
	if e.OnEvent != nil {
		e.OnEvent(ev)
	}
}

const eventBufferSize = 16
