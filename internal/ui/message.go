package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scanlink/internal/events"
)

// MsgKind enumerates all message types in the monitor.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgEventReceived MsgKind = iota
	MsgFeedClosed
	MsgRelayFailed
)

// eventReceivedMsg is the constructor for [MsgEventReceived]
func eventReceivedMsg(e events.Event) Msg {
	return Msg{kind: MsgEventReceived, data: e}
}

// feedClosedMsg is the constructor for [MsgFeedClosed]
func feedClosedMsg() Msg {
	return Msg{kind: MsgFeedClosed}
}

// RelayFailedMsg is the constructor for [MsgRelayFailed], sent when the relay stops serving.
func RelayFailedMsg(err error) Msg {
	return Msg{kind: MsgRelayFailed, data: err}
}
