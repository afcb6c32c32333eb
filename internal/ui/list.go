package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/scanlink/internal/events"
)

var (
	_ list.Item = eventItem{}
)

// maxItems bounds the feed; older entries are dropped first.
const maxItems = 200

// eventItem is the displayed summary of an [events.Event]. Scan bytes are not kept.
type eventItem struct {
	id   string
	name string
	at   time.Time
	mime string
	size int
	code string // masked
}

func newEventItem(e events.Event) eventItem {
	item := eventItem{id: e.ID, name: e.Name, at: e.OccurredAt}
	if scan, ok := e.Scan(); ok {
		item.mime = scan.Mime
		item.size = scan.DecodedSize()
	}
	if code, ok := e.Code(); ok {
		item.code = maskCode(code)
	}
	return item
}

func (i eventItem) FilterValue() string { return i.name }

func (i eventItem) Title() string {
	switch i.name {
	case events.ScanReceived:
		return "Scan received"
	case events.OAuthCodeReceived:
		return "Authorization code received"
	default:
		return i.name
	}
}

func (i eventItem) Description() string {
	at := i.at.Local().Format(time.TimeOnly)
	switch i.name {
	case events.ScanReceived:
		return fmt.Sprintf("%s • %s • %s", i.mime, humanBytes(i.size), at)
	case events.OAuthCodeReceived:
		return fmt.Sprintf("%s • %s", i.code, at)
	}
	return at
}

// humanBytes formats n with a binary unit.
func humanBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := int64(n) / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// maskCode keeps the first four characters of an authorization code.
func maskCode(code string) string {
	if len(code) <= 4 {
		return "****"
	}
	return code[:4] + "…"
}
