package progress

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestTrackerSubRanges(t *testing.T) {
	var got []float64
	tr := New(context.Background(), func(f float64) { got = append(got, f) })

	sub := tr.Sub(0.5, 1).Sub(0, 0.5)
	for _, f := range []float64{0, 0.5, 1, 2, -1} {
		if err := sub.Report(f); err != nil {
			t.Fatal(err)
		}
	}
	want := []float64{0.5, 0.625, 0.75, 0.75, 0.5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestTrackerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	tr := New(ctx, func(float64) { called = true })
	if err := tr.Loop(1, 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if called {
		t.Fatal("progress reported after cancellation")
	}
}

func TestTrackerNilSink(t *testing.T) {
	tr := New(context.Background(), nil)
	if err := tr.Report(0.3); err != nil {
		t.Fatal(err)
	}
	if tr.Func() != nil {
		t.Fatal("Func should be nil without a sink")
	}
	if err := tr.Loop(0, 0); err != nil {
		t.Fatal(err)
	}
}

func TestTrackerFunc(t *testing.T) {
	var last float64
	fn := New(context.Background(), func(f float64) { last = f }).Sub(0.2, 0.4).Func()
	fn(0.5)
	if math.Abs(last-0.3) > 1e-15 {
		t.Fatalf("last = %g, want 0.3", last)
	}
}
