package aggregate

import (
	"gonum.org/v1/gonum/stat"

	"github.com/Boliti/Website/pkg/models"
)

// MeanStd returns the per-bin mean and population standard deviation of
// equally long arrays.
func MeanStd(arrays [][]float64) (models.BatchStats, error) {
	if len(arrays) == 0 {
		return models.BatchStats{}, models.NewValidationError("arrays", "no arrays to average")
	}

	width := len(arrays[0])
	if width == 0 {
		return models.BatchStats{}, models.NewValidationError("arrays", "array 0 is empty")
	}
	for i, a := range arrays[1:] {
		if len(a) != width {
			return models.BatchStats{}, models.NewValidationError("arrays",
				"array %d has %d points, expected %d; spectra must share one frequency grid", i+1, len(a), width)
		}
	}

	mean := make([]float64, width)
	std := make([]float64, width)
	column := make([]float64, len(arrays))
	for j := 0; j < width; j++ {
		for i, a := range arrays {
			column[i] = a[j]
		}
		mean[j], std[j] = stat.PopMeanStdDev(column, nil)
	}

	return models.BatchStats{Mean: mean, Std: std}, nil
}
