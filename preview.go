package statusbar

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/moamenhredeen/swaybar-status-manager/protocol"
)

// A Palette holds the ANSI escape codes used by the terminal preview.
// The zero value renders nothing; callers fill in the codes they want.
type Palette struct {
	// UrgentCode is written before the text of an urgent block.
	UrgentCode []byte

	// SeparatorCode is written before the separator between blocks.
	SeparatorCode []byte

	// ResetCode restores the default rendition.
	ResetCode []byte
}

// A Preview renders the status line as human readable text instead of
// the wire format, for trying out a configuration on a terminal.  Each
// snapshot becomes one line of output.
//
// The rendering is an approximation: colors and urgency are honored,
// pixel sizing and alignment are not.
type Preview struct {
	// Interval is the time between snapshots.
	Interval time.Duration

	// Colors enables ANSI rendering.  When nil the output is plain
	// text, which is what you want when redirecting to a file.
	Colors *Palette

	// Log receives diagnostics.
	Log zerolog.Logger

	out     *bufio.Writer
	sources []Source
	refresh chan struct{}
}

// NewPreview returns a Preview writing to out, one block per source in
// the given order.
func NewPreview(out io.Writer, sources ...Source) *Preview {
	return &Preview{
		Interval: time.Second,
		Log:      zerolog.Nop(),
		out:      bufio.NewWriter(out),
		sources:  sources,
		refresh:  make(chan struct{}, 1),
	}
}

// Refresh makes the preview render the next line immediately instead
// of waiting out the current tick.  It is safe to call from any
// goroutine; concurrent refreshes coalesce into one.
func (p *Preview) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Run renders one line per snapshot until ctx is cancelled or the
// output stream fails.
func (p *Preview) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}
	for {
		if err := p.writeLine(ctx); err != nil {
			return err
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-p.refresh:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (p *Preview) writeLine(ctx context.Context) error {
	var buf bytes.Buffer
	snap := collectBlocks(ctx, p.Log, p.sources)
	for i, block := range snap {
		if i > 0 {
			p.renderSeparator(&buf, snap[i-1])
		}
		p.renderBlock(&buf, block)
	}
	buf.WriteByte('\n')
	if _, err := p.out.Write(buf.Bytes()); err != nil {
		return &WriteError{Op: "preview", Err: err}
	}
	if err := p.out.Flush(); err != nil {
		return &WriteError{Op: "preview", Err: err}
	}
	return nil
}

func (p *Preview) renderBlock(buf *bytes.Buffer, block protocol.Block) {
	colored := false
	if p.Colors != nil {
		switch {
		case block.Urgent != nil && *block.Urgent:
			buf.Write(p.Colors.UrgentCode)
			colored = true
		default:
			if block.Color != nil {
				if code, ok := foregroundCode(*block.Color); ok {
					buf.Write(code)
					colored = true
				}
			}
			if block.Background != nil {
				if code, ok := backgroundCode(*block.Background); ok {
					buf.Write(code)
					colored = true
				}
			}
		}
	}
	buf.WriteString(block.FullText)
	if colored {
		buf.Write(p.Colors.ResetCode)
	}
}

// renderSeparator draws the gap between two blocks, honoring the
// separator choice of the block before it.  A block without an
// explicit choice gets a separator, as on the bar itself.
func (p *Preview) renderSeparator(buf *bytes.Buffer, prev protocol.Block) {
	if prev.Separator != nil && !*prev.Separator {
		buf.WriteString(" ")
		return
	}
	if p.Colors != nil {
		buf.Write(p.Colors.SeparatorCode)
		buf.WriteString(" | ")
		buf.Write(p.Colors.ResetCode)
		return
	}
	buf.WriteString(" | ")
}

// foregroundCode translates a #RRGGBB or #RRGGBBAA color into the ANSI
// escape selecting it as the foreground.  The alpha channel, when
// present, is ignored: terminals have no use for it.
func foregroundCode(color string) ([]byte, bool) {
	rgb, ok := parseColor(color)
	if !ok {
		return nil, false
	}
	return []byte(fmt.Sprintf("\033[38;2;%d;%d;%dm", rgb[0], rgb[1], rgb[2])), true
}

func backgroundCode(color string) ([]byte, bool) {
	rgb, ok := parseColor(color)
	if !ok {
		return nil, false
	}
	return []byte(fmt.Sprintf("\033[48;2;%d;%d;%dm", rgb[0], rgb[1], rgb[2])), true
}

func parseColor(color string) ([]byte, bool) {
	if len(color) == 0 || color[0] != '#' {
		return nil, false
	}
	rgb, err := hex.DecodeString(color[1:])
	if err != nil || (len(rgb) != 3 && len(rgb) != 4) {
		return nil, false
	}
	return rgb, true
}
