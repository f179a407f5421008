package analyzer_test

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-csi/analyzer"
	"github.com/cwbudde/algo-csi/cube"
	"github.com/cwbudde/algo-csi/fit"
)

func ExampleIntegrate() {
	// Five channels over a 1x2 map: background 7+3x plus a peak of 100 in
	// channel 2.
	data := []float64{
		7, 7,
		10, 10,
		113, 113,
		16, 16,
		19, 19,
	}
	c, err := cube.New(5, 1, 2, data, cube.Channels(5))
	if err != nil {
		fmt.Println(err)
		return
	}

	m, err := analyzer.Integrate(context.Background(), analyzer.Request{
		Cube:      c,
		Model:     fit.Linear,
		FitWindow: cube.Window{Start: 3, End: 5},
		IntWindow: cube.Window{Start: 0, End: 5},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%.1f %.1f\n", m.At(0, 0), m.At(0, 1))

	// Output:
	// 100.0 100.0
}
