package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scanlink/internal/events"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	FeedView ViewState = iota
	DetailView
)

// Monitor represents the relay monitor state.
type Monitor struct {
	view     ViewState
	feed     <-chan events.Event
	scanURL  string
	width    int
	height   int
	list     list.Model
	selected *eventItem
	scans    int
	codes    int
	closed   bool
	relayErr error
	help     help.Model
	keys     keyMap
}

// NewMonitor creates a monitor reading from feed. scanURL is shown so a phone can be pointed at it.
func NewMonitor(feed <-chan events.Event, scanURL string) *Monitor {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Relayed events"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return &Monitor{
		view:    FeedView,
		feed:    feed,
		scanURL: scanURL,
		list:    l,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts listening for events.
func (m *Monitor) Init() tea.Cmd {
	return m.waitForEvent()
}

// Update handles incoming messages and updates the monitor state.
func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(max(0, msg.Width-4), max(0, msg.Height-10))
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case FeedView:
			return m.handleFeedKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Monitor) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgEventReceived:
		e := msg.data.(events.Event)
		switch e.Name {
		case events.ScanReceived:
			m.scans++
		case events.OAuthCodeReceived:
			m.codes++
		}
		cmd := m.list.InsertItem(0, newEventItem(e))
		if n := len(m.list.Items()); n > maxItems {
			m.list.RemoveItem(n - 1)
		}
		return m, tea.Batch(cmd, m.waitForEvent())

	case MsgFeedClosed:
		m.closed = true
		return m, nil

	case MsgRelayFailed:
		m.relayErr, _ = msg.data.(error)
		return m, nil
	}
	return m, nil
}

func (m *Monitor) handleFeedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.list.SelectedItem().(eventItem); ok {
			m.selected = &item
			m.view = DetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.clear):
		m.list.SetItems(nil)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Monitor) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = FeedView
		m.selected = nil
	}
	return m, nil
}

// waitForEvent reads a single event; the next read is scheduled once it is handled.
func (m *Monitor) waitForEvent() tea.Cmd {
	if m.feed == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-m.feed
		if !ok {
			return feedClosedMsg()
		}
		return eventReceivedMsg(e)
	}
}

// View renders the UI based on the current view state.
func (m *Monitor) View() string {
	switch m.view {
	case DetailView:
		return m.renderDetail()
	default:
		return m.renderFeed()
	}
}

func (m *Monitor) renderHeader() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("scanlink relay"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Scan URL: %s\n", m.scanURL)

	switch {
	case m.relayErr != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Relay unavailable: %v", m.relayErr)))
	case m.closed:
		b.WriteString(styles.warn.Render("Event feed closed"))
	default:
		b.WriteString(styles.ok.Render("Listening"))
	}
	fmt.Fprintf(&b, "  scans: %d  codes: %d\n", m.scans, m.codes)
	return b.String()
}

func (m *Monitor) renderFeed() string {
	body := m.list.View()
	if len(m.list.Items()) == 0 {
		body = styles.help.Render("Waiting for a scan or sign-in...")
	}
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n%s\n\n%s", m.renderHeader(), body, helpView)
}

func (m *Monitor) renderDetail() string {
	if m.selected == nil {
		return m.renderFeed()
	}

	item := m.selected
	title := styles.title.Render(item.Title())
	info := fmt.Sprintf("\nEvent: %s\nID: %s\nReceived: %s\n", item.name, item.id, item.at.Local().Format("2006-01-02 15:04:05"))

	switch item.name {
	case events.ScanReceived:
		info += fmt.Sprintf("Type: %s\nSize: %s\n", item.mime, humanBytes(item.size))
	case events.OAuthCodeReceived:
		info += fmt.Sprintf("Code: %s\n", item.code)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}
