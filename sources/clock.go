// Package sources provides ready-made status sources for the feed
// engine: a clock, an external command runner and system meters (CPU,
// memory, load average, battery).
package sources

import (
	"context"
	"time"

	"github.com/moamenhredeen/swaybar-status-manager/protocol"
)

// DefaultClockLayout is the classic bar clock: time, two spaces, date.
const DefaultClockLayout = "15:04:05  2006.01.02"

// A Clock displays the current time.
type Clock struct {
	layout string
	now    func() time.Time
}

// NewClock returns a clock source formatting the time with the given
// layout, in the reference layout syntax of the time package.  An
// empty layout means DefaultClockLayout.
func NewClock(layout string) *Clock {
	if layout == "" {
		layout = DefaultClockLayout
	}
	return &Clock{layout: layout, now: time.Now}
}

func (c *Clock) Name() string {
	return "clock"
}

// Block renders the current time, asking the host to draw a separator
// after it.
func (c *Clock) Block(ctx context.Context) (protocol.Block, error) {
	return *protocol.NewBlock(c.now().Format(c.layout)).SetSeparator(true), nil
}
