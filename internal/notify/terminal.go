package notify

import (
	"fmt"
	"io"
	"time"
)

// Bell rings the terminal bell for selected notification kinds, with
// debounce and suspension.
type Bell struct {
	out       io.Writer
	debounce  time.Duration
	lastRing  time.Time
	suspended bool
	triggerOn map[Kind]bool
}

// NewBell creates a Bell that writes to out with the given debounce interval
// and trigger kinds.
func NewBell(out io.Writer, debounce time.Duration, kinds ...Kind) *Bell {
	triggerOn := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		triggerOn[k] = true
	}
	return &Bell{
		out:       out,
		debounce:  debounce,
		triggerOn: triggerOn,
	}
}

// Ring attempts to ring the terminal bell for the given kind.
// Returns true if the bell actually rang.
func (b *Bell) Ring(k Kind, now time.Time) bool {
	if b == nil || b.out == nil || b.suspended {
		return false
	}
	if !b.triggerOn[k] {
		return false
	}
	if !b.lastRing.IsZero() && now.Sub(b.lastRing) < b.debounce {
		return false
	}

	fmt.Fprint(b.out, "\a")
	b.lastRing = now
	return true
}

// Toggle flips suspension and reports whether the bell is now active.
func (b *Bell) Toggle() bool {
	b.suspended = !b.suspended
	return !b.suspended
}

// IsSuspended returns whether the bell is currently suspended.
func (b *Bell) IsSuspended() bool {
	return b == nil || b.suspended
}
