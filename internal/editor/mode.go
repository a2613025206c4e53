package editor

// Mode is the exclusive editing state of one editor instance. In ModeLocked
// the transform is frozen and marks may be placed, selected, moved, and
// deleted. In ModeAdjust pan/zoom input is accepted and mark editing is
// disabled; the mark overlay stays visible but does not intercept pointer
// events.
type Mode int

const (
	ModeLocked Mode = iota
	ModeAdjust
)

func (m Mode) String() string {
	if m == ModeAdjust {
		return "adjust"
	}
	return "locked"
}
