package verification

// ProgressSimulator advances the visible progress bar while the real outcome is unknown.
// It never reaches Cap on its own; the session jumps to 100 once the outcome is known.
type ProgressSimulator struct {
	Step int
	Cap  int
}

// Advance returns the next visible value. It never decreases and never passes Cap.
func (p ProgressSimulator) Advance(current int) int {
	if current >= p.Cap {
		return current
	}
	next := current + p.Step
	if next > p.Cap {
		next = p.Cap
	}
	return next
}
