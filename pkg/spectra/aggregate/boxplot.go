// Package aggregate computes statistics across a batch of processed spectra.
package aggregate

import (
	"math"
	"slices"

	"github.com/Boliti/Website/pkg/models"
)

// whiskerScale multiplies the interquartile range to place the outlier fences.
const whiskerScale = 1.5

// BoxplotStats returns quartiles, 1.5·IQR fences and outliers for each non-empty
// array, in input order. Outliers keep their original order.
func BoxplotStats(arrays [][]float64) ([]models.BoxplotStats, error) {
	if len(arrays) == 0 {
		return nil, models.NewValidationError("arrays", "no arrays to summarize")
	}

	stats := make([]models.BoxplotStats, 0, len(arrays))
	for _, values := range arrays {
		if len(values) == 0 {
			continue
		}

		sorted := slices.Clone(values)
		slices.Sort(sorted)

		q1 := percentile(sorted, 25)
		median := percentile(sorted, 50)
		q3 := percentile(sorted, 75)
		iqr := q3 - q1
		lower := q1 - whiskerScale*iqr
		upper := q3 + whiskerScale*iqr

		outliers := []float64{}
		for _, v := range values {
			if v < lower || v > upper {
				outliers = append(outliers, v)
			}
		}

		stats = append(stats, models.BoxplotStats{
			Q1:         q1,
			Median:     median,
			Q3:         q3,
			LowerBound: lower,
			UpperBound: upper,
			Outliers:   outliers,
		})
	}

	if len(stats) == 0 {
		return nil, models.NewValidationError("arrays", "all arrays are empty")
	}
	return stats, nil
}

// percentile interpolates linearly between the two closest ranks of sorted
// data (rank = q/100 * (n-1)).
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := q / 100 * float64(len(sorted)-1)
	lo := math.Floor(rank)
	i := int(lo)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - lo
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}
