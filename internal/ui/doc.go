// Package ui implements the relay monitor, a terminal interface using bubbletea's Elm architecture.
//
// The [Monitor] shows the scan URL, the relay's status, and a live feed of events as they reach the bus:
//  1. [FeedView] : Browse received scans and OAuth codes, newest first
//  2. [DetailView] : Inspect a single event
//
// Events flow in through a channel fed by a bus subscription; the monitor reads one event per command,
// so a slow terminal applies backpressure instead of dropping deliveries.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, c, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
