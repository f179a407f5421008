package blur_test

import (
	"fmt"

	"github.com/cwbudde/algo-csi/blur"
)

func ExampleKernel() {
	k, _ := blur.Kernel(blur.SigmaFromFWHM(2))
	fmt.Printf("taps: %d\n", len(k))
	fmt.Printf("center: %.4f\n", k[len(k)/2])

	// Output:
	// taps: 7
	// center: 0.4697
}
