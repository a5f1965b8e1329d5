// Package protocol implements version 1 of the JSON status feed
// protocol spoken over standard streams between a status producer and a
// bar host process such as swaybar or i3bar.
//
// The producer side of the conversation is a Header object followed by
// an infinite JSON array of snapshots, where each snapshot is an array
// of Blocks describing one status line.  The host side is a stream of
// click events, decoded here by EventReader.
//
// All optional fields are pointer-typed: a nil field is omitted from
// the encoded object entirely, so a value that is set to false or zero
// still appears on the wire.
package protocol

import (
	"encoding/json"
)

// Version is the protocol version implemented by this package.
const Version = 1

// Alignment values accepted by (*Block).SetAlign.
const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// Markup values accepted by (*Block).SetMarkup.
const (
	MarkupPango = "pango"
	MarkupNone  = "none"
)

// A Header is the first message sent to the host.  It announces the
// protocol version and, optionally, that the producer wants click
// events and which signals the host may use to pause and resume it.
// The signal numbers are advisory: the producer does not install
// handlers for them.
type Header struct {
	Version     int   `json:"version"`
	ClickEvents *bool `json:"click_events,omitempty"`
	ConstSignal *int  `json:"const_signal,omitempty"`
	StopSignal  *int  `json:"stop_signal,omitempty"`
}

// NewHeader returns a Header for the given protocol version with no
// optional fields set.
func NewHeader(version int) *Header {
	return &Header{Version: version}
}

// SetClickEvents announces whether the producer reads click events.
func (h *Header) SetClickEvents(on bool) *Header {
	h.ClickEvents = &on
	return h
}

// SetConstSignal sets the signal number the host may send to resume a
// paused producer.
func (h *Header) SetConstSignal(sig int) *Header {
	h.ConstSignal = &sig
	return h
}

// SetStopSignal sets the signal number the host may send to pause the
// producer.
func (h *Header) SetStopSignal(sig int) *Header {
	h.StopSignal = &sig
	return h
}

// Encode returns the header as a single-line JSON object.
func (h *Header) Encode() ([]byte, error) {
	return json.Marshal(h)
}

// A Block is one segment of a status line: a piece of text plus
// optional display attributes.  Unset attributes are left to the host's
// defaults and do not appear in the encoded object.
type Block struct {
	FullText            string  `json:"full_text"`
	ShortText           *string `json:"short_text,omitempty"`
	Name                *string `json:"name,omitempty"`
	Instance            *string `json:"instance,omitempty"`
	Color               *string `json:"color,omitempty"`
	Background          *string `json:"background,omitempty"`
	Border              *string `json:"border,omitempty"`
	BorderTop           *int    `json:"border_top,omitempty"`
	BorderRight         *int    `json:"border_right,omitempty"`
	BorderBottom        *int    `json:"border_bottom,omitempty"`
	BorderLeft          *int    `json:"border_left,omitempty"`
	MinWidth            *int    `json:"min_width,omitempty"`
	Align               *string `json:"align,omitempty"`
	Urgent              *bool   `json:"urgent,omitempty"`
	Separator           *bool   `json:"separator,omitempty"`
	SeparatorBlockWidth *int    `json:"separator_block_width,omitempty"`
	Markup              *string `json:"markup,omitempty"`
}

// NewBlock returns a Block displaying the given text, with no optional
// attributes set.
func NewBlock(fullText string) *Block {
	return &Block{FullText: fullText}
}

// Each mutator below sets exactly one attribute and leaves the others
// alone, so they can be chained in any order.

// SetShortText sets the text shown when the status line is too long.
func (b *Block) SetShortText(text string) *Block {
	b.ShortText = &text
	return b
}

// SetName sets the block name.  Together with the instance it
// identifies the block in click events.
func (b *Block) SetName(name string) *Block {
	b.Name = &name
	return b
}

// SetInstance sets the block instance.  Together with the name it
// identifies the block in click events.
func (b *Block) SetInstance(instance string) *Block {
	b.Instance = &instance
	return b
}

// SetColor sets the text color, as "#RRGGBB" or "#RRGGBBAA".
func (b *Block) SetColor(color string) *Block {
	b.Color = &color
	return b
}

// SetBackground sets the background color, as "#RRGGBB" or "#RRGGBBAA".
func (b *Block) SetBackground(color string) *Block {
	b.Background = &color
	return b
}

// SetBorder sets the border color, as "#RRGGBB" or "#RRGGBBAA".
func (b *Block) SetBorder(color string) *Block {
	b.Border = &color
	return b
}

// SetBorderTop sets the top border width in pixels.
func (b *Block) SetBorderTop(width int) *Block {
	b.BorderTop = &width
	return b
}

// SetBorderRight sets the right border width in pixels.
func (b *Block) SetBorderRight(width int) *Block {
	b.BorderRight = &width
	return b
}

// SetBorderBottom sets the bottom border width in pixels.
func (b *Block) SetBorderBottom(width int) *Block {
	b.BorderBottom = &width
	return b
}

// SetBorderLeft sets the left border width in pixels.
func (b *Block) SetBorderLeft(width int) *Block {
	b.BorderLeft = &width
	return b
}

// SetMinWidth sets the minimum width of the block in pixels.
func (b *Block) SetMinWidth(width int) *Block {
	b.MinWidth = &width
	return b
}

// SetAlign sets how the text is aligned inside the block: AlignLeft,
// AlignCenter or AlignRight.
func (b *Block) SetAlign(align string) *Block {
	b.Align = &align
	return b
}

// SetUrgent marks the block as urgent.
func (b *Block) SetUrgent(on bool) *Block {
	b.Urgent = &on
	return b
}

// SetSeparator sets whether the host draws a separator after the block.
func (b *Block) SetSeparator(on bool) *Block {
	b.Separator = &on
	return b
}

// SetSeparatorBlockWidth sets the width in pixels of the separator gap
// after the block.
func (b *Block) SetSeparatorBlockWidth(width int) *Block {
	b.SeparatorBlockWidth = &width
	return b
}

// SetMarkup sets how the host interprets the block text: MarkupPango or
// MarkupNone.
func (b *Block) SetMarkup(markup string) *Block {
	b.Markup = &markup
	return b
}

// A Snapshot is one full status line: an ordered sequence of Blocks in
// left-to-right display order.
type Snapshot []Block

// Encode returns the snapshot as a single-line JSON array.  A nil
// snapshot encodes as an empty array, never as null.
func (s Snapshot) Encode() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}
