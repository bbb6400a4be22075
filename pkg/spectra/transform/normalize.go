package transform

import (
	"gonum.org/v1/gonum/stat"

	"github.com/Boliti/Website/pkg/models"
)

// NormalizeSNV applies Standard Normal Variate scaling: (x - mean) / std,
// using the population standard deviation.
func NormalizeSNV(amplitudes []float64) ([]float64, error) {
	if len(amplitudes) == 0 {
		return nil, models.NewValidationError("amplitudes", "array is empty")
	}

	mean, std := stat.PopMeanStdDev(amplitudes, nil)
	if std == 0 {
		return nil, &models.ComputationError{
			Op:  "normalization",
			Msg: "standard deviation is zero, SNV normalization is undefined",
		}
	}

	out := make([]float64, len(amplitudes))
	for i, v := range amplitudes {
		out[i] = (v - mean) / std
	}
	return out, nil
}
