package editor

import (
	"sync"
	"testing"
	"time"
)

func TestNotifyPreemptsAndAutoDismisses(t *testing.T) {
	n := NewNotifierWithDelay(30 * time.Millisecond)

	var mu sync.Mutex
	var seen []Status
	n.OnChange(func(s Status) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	n.Notify("first", SeverityInfo)
	n.Notify("second", SeverityError)

	if got := n.Status(); got.Text != "second" || !got.Visible {
		t.Fatalf("Status() = %+v, want visible second", got)
	}

	// The first message's timer must not dismiss the second message early;
	// only the second message's own timer hides it.
	time.Sleep(80 * time.Millisecond)
	if got := n.Status(); got.Visible {
		t.Fatalf("Status() still visible after delay: %+v", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) < 3 {
		t.Fatalf("change callbacks = %d, want at least 3", len(seen))
	}
	last := seen[len(seen)-1]
	if last.Visible {
		t.Errorf("last change still visible: %+v", last)
	}
}

func TestNotifyTimerDoesNotDismissNewerMessage(t *testing.T) {
	n := NewNotifierWithDelay(40 * time.Millisecond)

	n.Notify("old", SeverityInfo)
	time.Sleep(25 * time.Millisecond)
	n.Notify("new", SeveritySuccess)

	// The old message's timer fires around 40ms; the new message must
	// survive it.
	time.Sleep(25 * time.Millisecond)
	if got := n.Status(); !got.Visible || got.Text != "new" {
		t.Errorf("Status() = %+v, want new still visible", got)
	}

	time.Sleep(40 * time.Millisecond)
	if got := n.Status(); got.Visible {
		t.Errorf("Status() = %+v, want dismissed", got)
	}
}

func TestDismissHidesImmediately(t *testing.T) {
	n := NewNotifierWithDelay(time.Hour)
	n.Notify("sticky", SeverityInfo)
	n.Dismiss()
	if got := n.Status(); got.Visible {
		t.Errorf("Status() = %+v after Dismiss", got)
	}
}

func TestModeString(t *testing.T) {
	if ModeLocked.String() != "locked" || ModeAdjust.String() != "adjust" {
		t.Errorf("mode strings = %q, %q", ModeLocked.String(), ModeAdjust.String())
	}
}
