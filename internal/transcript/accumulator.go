package transcript

import (
	"strings"
	"sync"
)

// Event is one speech-recognition result: zero or more finalized segments
// and zero or one interim (provisional) segment. Finalized segments are
// immutable once received; the interim segment is replaced wholesale by the
// next event.
type Event struct {
	Final   []string
	Interim string
}

// Accumulator merges recognition events into a durable running transcript.
// Committed text only grows by appending trimmed, non-empty finalized
// segments; it is never rewritten or shortened except by Reset.
type Accumulator struct {
	mu        sync.Mutex
	committed string
	interim   string

	// onCommit is invoked once per event that appended at least one
	// finalized segment, after the committed text is updated.
	onCommit func(committed string)
}

// NewAccumulator constructs an empty Accumulator. onCommit may be nil.
func NewAccumulator(onCommit func(committed string)) *Accumulator {
	return &Accumulator{onCommit: onCommit}
}

// Apply folds one recognition event into the transcript.
func (a *Accumulator) Apply(ev Event) {
	a.mu.Lock()
	appended := false
	for _, seg := range ev.Final {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if a.committed == "" {
			a.committed = seg
		} else {
			a.committed += " " + seg
		}
		appended = true
	}
	a.interim = ev.Interim
	committed := a.committed
	hook := a.onCommit
	a.mu.Unlock()

	if appended && hook != nil {
		hook(committed)
	}
}

// Committed returns the finalized transcript accumulated since the last Reset.
func (a *Accumulator) Committed() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.committed
}

// Display returns the text to show live: committed plus the current interim.
func (a *Accumulator) Display() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.interim == "" {
		return a.committed
	}
	if a.committed == "" {
		return a.interim
	}
	return a.committed + " " + a.interim
}

// Reset clears both committed and interim text.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	a.committed = ""
	a.interim = ""
	a.mu.Unlock()
}
