// Package statusbar implements the producer side of the swaybar/i3bar
// status line protocol: a JSON header followed by an infinite array of
// status snapshots written to the bar host, with click events read back
// concurrently from the host.
//
// The package is organized into several sub-packages:
//
// - protocol: wire types (Header, Block, ClientEvent) and the click
//   event decoder
// - sources: ready-made status sources (clock, command, CPU, memory,
//   load, battery)
// - config: YAML configuration for the swaybar-status command
//
// The Engine in this package ties them together: it owns the output
// and input streams, emits one snapshot per tick from its configured
// Sources, and drains click events without ever blocking the feed.
// The output array is opened once and never closed; that is what the
// protocol requires, so there is no clean shutdown path on the wire.
//
// The command line producer is in cmd/swaybar-status. You can install
// it with:
//
//	go install github.com/moamenhredeen/swaybar-status-manager/cmd/swaybar-status
package statusbar
