// Package export renders processed spectra into downloadable formats.
package export

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/Boliti/Website/pkg/models"
)

// FormatSpectralData renders one spectrum as tab-separated lines of
// frequency (2 decimals) and amplitude (6 decimals).
func FormatSpectralData(frequencies, amplitudes []float64) (string, error) {
	if len(frequencies) != len(amplitudes) {
		return "", models.NewValidationError("spectrum",
			"frequency and amplitude arrays differ in length (%d vs %d)", len(frequencies), len(amplitudes))
	}

	lines := make([]string, len(frequencies))
	for i := range frequencies {
		lines[i] = fmt.Sprintf("%.2f\t%.6f", frequencies[i], amplitudes[i])
	}
	return strings.Join(lines, "\n"), nil
}

// MeanSpectrumCSV renders the mean spectrum with a single metadata header
// line built from params (keys sorted), followed by a column header and one
// "frequency,amplitude" row per point.
//
// Each column is written as an integer column when every value in it is
// integral, and otherwise as floats that always carry a decimal point or
// exponent ("2.0", "1.5", "1e-05").
func MeanSpectrumCSV(frequencies, mean []float64, params map[string]any) ([]byte, error) {
	if len(frequencies) == 0 || len(mean) == 0 {
		return nil, models.NewValidationError("mean_amplitude", "no mean spectrum to export")
	}
	if len(frequencies) != len(mean) {
		return nil, models.NewValidationError("mean_amplitude",
			"frequency and mean arrays differ in length (%d vs %d)", len(frequencies), len(mean))
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	meta := []string{"# Metadata"}
	for _, k := range keys {
		meta = append(meta, fmt.Sprintf("# %s: %v", k, params[k]))
	}

	freqFmt, meanFmt := columnFormatter(frequencies), columnFormatter(mean)

	var b strings.Builder
	b.WriteString(strings.Join(meta, "; "))
	b.WriteString("\n#frequency,mean_amplitude\n")
	for i := range frequencies {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(freqFmt(frequencies[i]))
		b.WriteByte(',')
		b.WriteString(meanFmt(mean[i]))
	}
	return []byte(b.String()), nil
}

func columnFormatter(values []float64) func(float64) string {
	for _, v := range values {
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return formatFloat
		}
	}
	return formatInt
}

func formatInt(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// formatFloat writes the shortest representation that round-trips, in
// positional notation for 1e-4 <= |v| < 1e16 and in exponent notation
// otherwise.
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
