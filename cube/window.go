package cube

import "fmt"

// Window is a half-open channel range [Start, End).
type Window struct {
	Start int
	End   int
}

// Len returns the number of channels in the window.
func (w Window) Len() int {
	return w.End - w.Start
}

// Last returns the index of the last channel inside the window.
func (w Window) Last() int {
	return w.End - 1
}

// Contains reports whether channel k lies inside the window.
func (w Window) Contains(k int) bool {
	return k >= w.Start && k < w.End
}

// Overlaps reports whether w and o share at least one channel.
func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && o.Start < w.End
}

// Validate checks 0 <= Start < End <= channels.
func (w Window) Validate(channels int) error {
	if w.Start < 0 || w.End > channels || w.Start >= w.End {
		return fmt.Errorf("%w: [%d,%d) for %d channels", ErrInvalidWindow, w.Start, w.End, channels)
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("[%d,%d)", w.Start, w.End)
}
