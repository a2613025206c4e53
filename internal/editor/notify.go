package editor

import (
	"sync"
	"time"
)

// DefaultStatusDelay is how long a status toast stays visible.
const DefaultStatusDelay = 1800 * time.Millisecond

// Severity classifies a status notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Status is a transient user-facing message.
type Status struct {
	Text     string
	Severity Severity
	Visible  bool
}

// Notifier implements the status notification protocol: each new message
// replaces the currently visible one and auto-dismisses after a fixed delay.
type Notifier struct {
	mu       sync.Mutex
	current  Status
	seq      uint64
	delay    time.Duration
	onChange func(Status)
}

// NewNotifier creates a notifier with the default dismiss delay.
func NewNotifier() *Notifier {
	return NewNotifierWithDelay(DefaultStatusDelay)
}

// NewNotifierWithDelay creates a notifier with a custom dismiss delay.
func NewNotifierWithDelay(delay time.Duration) *Notifier {
	return &Notifier{delay: delay}
}

// OnChange registers a callback invoked whenever the visible status changes.
func (n *Notifier) OnChange(fn func(Status)) {
	n.mu.Lock()
	n.onChange = fn
	n.mu.Unlock()
}

// Notify shows a message, pre-empting any currently visible one. The message
// auto-dismisses after the configured delay unless another Notify arrives
// first.
func (n *Notifier) Notify(text string, severity Severity) {
	n.mu.Lock()
	n.seq++
	seq := n.seq
	n.current = Status{Text: text, Severity: severity, Visible: true}
	fn := n.onChange
	status := n.current
	n.mu.Unlock()

	if fn != nil {
		fn(status)
	}

	time.AfterFunc(n.delay, func() {
		n.dismissIfCurrent(seq)
	})
}

// Status returns the current notification state.
func (n *Notifier) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Dismiss hides the current notification immediately.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	n.seq++
	n.hideLocked()
}

// dismissIfCurrent hides the notification only if no newer message replaced
// it while the timer was pending.
func (n *Notifier) dismissIfCurrent(seq uint64) {
	n.mu.Lock()
	if n.seq != seq {
		n.mu.Unlock()
		return
	}
	n.hideLocked()
}

// hideLocked hides the status and fires the change callback. Releases the
// lock.
func (n *Notifier) hideLocked() {
	n.current.Visible = false
	fn := n.onChange
	status := n.current
	n.mu.Unlock()

	if fn != nil {
		fn(status)
	}
}
