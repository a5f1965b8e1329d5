package statusbar

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/moamenhredeen/swaybar-status-manager/protocol"
)

// A Source produces the current content of one status block.  The
// engine asks every source once per snapshot, in configured order.
//
// Sources own the styling of their blocks: the engine never adds or
// rewrites block attributes, so what a source returns is what goes on
// the wire.
type Source interface {
	// Name identifies the source in logs and click events.
	Name() string

	// Block returns the block to display.  Returning an error skips
	// this source for the current snapshot; it does not stop the feed.
	Block(ctx context.Context) (protocol.Block, error)
}

// NewTextSource adapts a plain text-producing function to the Source
// interface.  The returned block carries only the text, no display
// attributes.
func NewTextSource(name string, fn func() string) Source {
	return &textSource{name: name, fn: fn}
}

type textSource struct {
	name string
	fn   func() string
}

func (s *textSource) Name() string {
	return s.name
}

func (s *textSource) Block(ctx context.Context) (protocol.Block, error) {
	return *protocol.NewBlock(s.fn()), nil
}

// collectBlocks polls every source once and collects the blocks into a
// snapshot.  A failing source is logged and skipped; its block simply
// does not appear until it recovers.
func collectBlocks(ctx context.Context, log zerolog.Logger, srcs []Source) protocol.Snapshot {
	snap := make(protocol.Snapshot, 0, len(srcs))
	for _, src := range srcs {
		block, err := src.Block(ctx)
		if err != nil {
			log.Warn().Err(err).Str("source", src.Name()).Msg("source failed, skipping its block")
			continue
		}
		snap = append(snap, block)
	}
	return snap
}
