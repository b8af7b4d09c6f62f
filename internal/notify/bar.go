package notify

import (
	"fmt"
	"time"
)

// Kind classifies a notification.
type Kind int

const (
	KindInfo Kind = iota
	KindReloaded
	KindLoadFailed
	KindExported
	KindExportFailed
)

// String returns the label shown in the bar.
func (k Kind) String() string {
	switch k {
	case KindReloaded:
		return "reloaded"
	case KindLoadFailed:
		return "load failed"
	case KindExported:
		return "saved"
	case KindExportFailed:
		return "export failed"
	default:
		return "info"
	}
}

// Failure reports whether the kind describes an error.
func (k Kind) Failure() bool {
	return k == KindLoadFailed || k == KindExportFailed
}

// Notification is a single user-facing event.
type Notification struct {
	Kind      Kind
	Message   string
	Timestamp time.Time
}

// Bar manages a FIFO queue of notification entries.
type Bar struct {
	items    []Notification
	maxStore int
}

// NewBar creates a notification bar with the given buffer size.
func NewBar(maxStore int) *Bar {
	if maxStore < 1 {
		maxStore = 1
	}
	return &Bar{
		items:    make([]Notification, 0, maxStore),
		maxStore: maxStore,
	}
}

// Push adds a notification, trimming oldest if at capacity.
func (b *Bar) Push(n Notification) {
	b.items = append(b.items, n)
	if len(b.items) > b.maxStore {
		b.items = b.items[len(b.items)-b.maxStore:]
	}
}

// Visible returns the most recent notifications (max 2).
func (b *Bar) Visible() []Notification {
	if len(b.items) <= 2 {
		return b.items
	}
	return b.items[len(b.items)-2:]
}

// Latest returns the newest notification, if any.
func (b *Bar) Latest() (Notification, bool) {
	if len(b.items) == 0 {
		return Notification{}, false
	}
	return b.items[len(b.items)-1], true
}

// ClearKind removes all notifications of the given kind.
func (b *Bar) ClearKind(k Kind) {
	filtered := b.items[:0]
	for _, n := range b.items {
		if n.Kind != k {
			filtered = append(filtered, n)
		}
	}
	b.items = filtered
}

// Len returns the total number of buffered notifications.
func (b *Bar) Len() int {
	return len(b.items)
}

// Render formats the visible notifications for display within the given width.
func (b *Bar) Render(width int, now time.Time) string {
	visible := b.Visible()
	if len(visible) == 0 || width <= 0 {
		return ""
	}

	result := ""
	for i, n := range visible {
		if i > 0 {
			result += " │ "
		}
		result += formatNotification(n, now)
	}
	if hidden := b.Len() - len(visible); hidden > 0 {
		result += fmt.Sprintf(" (+%d older)", hidden)
	}

	runes := []rune(result)
	if len(runes) > width {
		if width > 1 {
			result = string(runes[:width-1]) + "…"
		} else {
			result = string(runes[:width])
		}
	}

	return result
}

func formatNotification(n Notification, now time.Time) string {
	age := now.Sub(n.Timestamp).Truncate(time.Second)
	if age < 0 {
		age = 0
	}
	var ageStr string
	if age < time.Minute {
		ageStr = fmt.Sprintf("%ds ago", int(age.Seconds()))
	} else if age < time.Hour {
		ageStr = fmt.Sprintf("%dm ago", int(age.Minutes()))
	} else {
		ageStr = fmt.Sprintf("%dh ago", int(age.Hours()))
	}

	marker := "●"
	if n.Kind.Failure() {
		marker = "✖"
	}
	return fmt.Sprintf("%s %s: %s (%s)", marker, n.Kind, n.Message, ageStr)
}
