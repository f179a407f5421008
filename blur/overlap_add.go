package blur

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// overlapAdd convolves long lines with a fixed kernel in the frequency
// domain. The input is split into blocks; each block is zero-padded,
// multiplied with the kernel spectrum and the partial results are summed.
type overlapAdd struct {
	kernelFFT []complex128
	kernelLen int
	blockSize int
	fftSize   int

	plan *algofft.Plan[complex128]

	inputPadded  []complex128
	outputPadded []complex128
}

func newOverlapAdd(kernel []float64) (*overlapAdd, error) {
	kernelLen := len(kernel)
	blockSize := max(nextPowerOf2(kernelLen), 64)
	fftSize := nextPowerOf2(blockSize + kernelLen - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("blur: failed to create FFT plan: %w", err)
	}

	oa := &overlapAdd{
		kernelFFT:    make([]complex128, fftSize),
		kernelLen:    kernelLen,
		blockSize:    blockSize,
		fftSize:      fftSize,
		plan:         plan,
		inputPadded:  make([]complex128, fftSize),
		outputPadded: make([]complex128, fftSize),
	}

	kernelPadded := make([]complex128, fftSize)
	for i, v := range kernel {
		kernelPadded[i] = complex(v, 0)
	}
	if err := plan.Forward(oa.kernelFFT, kernelPadded); err != nil {
		return nil, fmt.Errorf("blur: failed to compute kernel FFT: %w", err)
	}
	return oa, nil
}

// convolve writes the full linear convolution of input with the kernel into
// output, which must hold len(input)+kernelLen-1 values.
func (oa *overlapAdd) convolve(output, input []float64) error {
	if want := len(input) + oa.kernelLen - 1; len(output) != want {
		return fmt.Errorf("%w: convolution output %d, want %d", ErrShape, len(output), want)
	}
	clear(output)

	for start := 0; start < len(input); start += oa.blockSize {
		end := min(start+oa.blockSize, len(input))
		blockLen := end - start

		clear(oa.inputPadded)
		for i := 0; i < blockLen; i++ {
			oa.inputPadded[i] = complex(input[start+i], 0)
		}

		if err := oa.plan.Forward(oa.inputPadded, oa.inputPadded); err != nil {
			return fmt.Errorf("blur: forward FFT failed: %w", err)
		}
		for i := range oa.outputPadded {
			oa.outputPadded[i] = oa.inputPadded[i] * oa.kernelFFT[i]
		}
		if err := oa.plan.Inverse(oa.outputPadded, oa.outputPadded); err != nil {
			return fmt.Errorf("blur: inverse FFT failed: %w", err)
		}

		resultLen := blockLen + oa.kernelLen - 1
		for i := 0; i < resultLen && start+i < len(output); i++ {
			output[start+i] += real(oa.outputPadded[i])
		}
	}
	return nil
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
