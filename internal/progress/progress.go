// Package progress maps phase-local completion fractions onto one caller
// supplied progress sink and checks for cancellation at every checkpoint.
package progress

import "context"

// Func receives completion fractions in [0, 1].
type Func func(float64)

// Tracker reports into the sub-range [lo, hi] of a Func.
type Tracker struct {
	ctx    context.Context
	fn     Func
	lo, hi float64
}

// New returns a Tracker covering the whole range. fn may be nil.
func New(ctx context.Context, fn Func) Tracker {
	return Tracker{ctx: ctx, fn: fn, lo: 0, hi: 1}
}

// Sub returns a Tracker whose [0, 1] maps onto [from, to] of t.
func (t Tracker) Sub(from, to float64) Tracker {
	span := t.hi - t.lo
	return Tracker{
		ctx: t.ctx,
		fn:  t.fn,
		lo:  t.lo + span*clamp(from),
		hi:  t.lo + span*clamp(to),
	}
}

// Report checks the context and, if it is still live, forwards frac.
func (t Tracker) Report(frac float64) error {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	if t.fn != nil {
		t.fn(t.lo + (t.hi-t.lo)*clamp(frac))
	}
	return nil
}

// Loop reports step i of n.
func (t Tracker) Loop(i, n int) error {
	if n <= 0 {
		return t.Report(1)
	}
	return t.Report(float64(i) / float64(n))
}

// Func returns a progress function reporting into t's range without
// checking the context. It returns nil when t has no sink.
func (t Tracker) Func() Func {
	if t.fn == nil {
		return nil
	}
	return func(frac float64) {
		t.fn(t.lo + (t.hi-t.lo)*clamp(frac))
	}
}

// Context returns the tracked context.
func (t Tracker) Context() context.Context { return t.ctx }

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
