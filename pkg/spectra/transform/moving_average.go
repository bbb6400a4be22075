package transform

import (
	"github.com/mjibson/go-dsp/fft"

	"github.com/Boliti/Website/pkg/models"
)

// directKernelLimit is the longest kernel convolved in the time domain.
const directKernelLimit = 64

// MovingAverage returns the centred moving average of the signal with a
// uniform window. The output has the input's length; near the ends the
// window runs past the signal and the missing samples count as zero.
func MovingAverage(amplitudes []float64, windowSize int) ([]float64, error) {
	if len(amplitudes) == 0 {
		return nil, models.NewValidationError("amplitudes", "array is empty")
	}
	if windowSize <= 0 {
		return nil, models.NewValidationError("moving_average_window", "must be positive, got %d", windowSize)
	}
	if windowSize > len(amplitudes) {
		return nil, models.NewValidationError("moving_average_window",
			"window %d exceeds signal length %d", windowSize, len(amplitudes))
	}

	kernel := make([]float64, windowSize)
	for i := range kernel {
		kernel[i] = 1 / float64(windowSize)
	}

	var full []float64
	if windowSize <= directKernelLimit {
		full = convolveDirect(amplitudes, kernel)
	} else {
		full = convolveFFT(amplitudes, kernel)
	}

	start := (windowSize - 1) / 2
	return full[start : start+len(amplitudes)], nil
}

// convolveDirect returns the full linear convolution of a and b.
func convolveDirect(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}

// convolveFFT returns the full linear convolution of a and b computed as a
// circular convolution over zero-padded inputs.
func convolveFFT(a, b []float64) []float64 {
	size := len(a) + len(b) - 1
	ca := make([]complex128, size)
	cb := make([]complex128, size)
	for i, v := range a {
		ca[i] = complex(v, 0)
	}
	for i, v := range b {
		cb[i] = complex(v, 0)
	}

	conv := fft.Convolve(ca, cb)
	out := make([]float64, size)
	for i, v := range conv {
		out[i] = real(v)
	}
	return out
}
