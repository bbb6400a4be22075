// Package transform holds the per-spectrum operators of the processing
// pipeline. Every function is pure: inputs are never modified and no state is
// kept between calls.
package transform

import (
	"github.com/Boliti/Website/pkg/models"
)

// FilterFrequencyRange keeps the points whose frequency lies in [minFreq, maxFreq].
func FilterFrequencyRange(frequencies, amplitudes []float64, minFreq, maxFreq float64) ([]float64, []float64, error) {
	if len(frequencies) == 0 || len(amplitudes) == 0 {
		return nil, nil, models.NewValidationError("spectrum", "empty frequency or amplitude array")
	}
	if len(frequencies) != len(amplitudes) {
		return nil, nil, models.NewValidationError("spectrum",
			"frequency and amplitude arrays differ in length (%d vs %d)", len(frequencies), len(amplitudes))
	}
	if minFreq > maxFreq {
		return nil, nil, models.NewValidationError("min_freq",
			"min_freq (%g) cannot be greater than max_freq (%g)", minFreq, maxFreq)
	}

	freqs := make([]float64, 0, len(frequencies))
	ampls := make([]float64, 0, len(amplitudes))
	for i, f := range frequencies {
		if f >= minFreq && f <= maxFreq {
			freqs = append(freqs, f)
			ampls = append(ampls, amplitudes[i])
		}
	}

	if len(freqs) == 0 {
		return nil, nil, &models.EmptyRangeError{Min: minFreq, Max: maxFreq}
	}
	return freqs, ampls, nil
}
