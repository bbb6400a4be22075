package analysis

import (
	"fmt"
	"strings"

	"github.com/Boliti/Website/pkg/spectra/pipeline"
)

// maxPeaksPerSpectrum bounds the prompt size for dense spectra.
const maxPeaksPerSpectrum = 30

// Summarize renders a processed batch as a compact text prompt: one peak
// table per spectrum, followed by batch statistics when they were computed.
func Summarize(names []string, res *pipeline.Result) string {
	if res == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Processed batch of %d spectra.\n", len(res.Amplitudes))
	for i := range res.Amplitudes {
		name := fmt.Sprintf("spectrum %d", i+1)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}

		freqs := res.Frequencies[i]
		if len(freqs) > 0 {
			fmt.Fprintf(&b, "\n%s: %d points, %.2f to %.2f\n", name, len(freqs), freqs[0], freqs[len(freqs)-1])
		} else {
			fmt.Fprintf(&b, "\n%s: no points\n", name)
		}

		if i >= len(res.PeaksInfo) || len(res.PeaksInfo[i]) == 0 {
			b.WriteString("  no peaks detected\n")
			continue
		}
		peaks := res.PeaksInfo[i]
		b.WriteString("  peak, frequency, amplitude\n")
		for j, p := range peaks {
			if j == maxPeaksPerSpectrum {
				fmt.Fprintf(&b, "  ... %d more peaks\n", len(peaks)-j)
				break
			}
			fmt.Fprintf(&b, "  %d, %.2f, %.4f\n", p.Order, p.Frequency, p.Amplitude)
		}
	}

	if len(res.Mean) > 0 {
		lo, hi := 0, 0
		for i, v := range res.Mean {
			if v < res.Mean[lo] {
				lo = i
			}
			if v > res.Mean[hi] {
				hi = i
			}
		}
		fmt.Fprintf(&b, "\nMean spectrum: %d bins, min %.4f at bin %d, max %.4f at bin %d\n",
			len(res.Mean), res.Mean[lo], lo, res.Mean[hi], hi)
	}

	for i, s := range res.Boxplot {
		if i == 0 {
			b.WriteString("\nBoxplot (q1, median, q3, outliers):\n")
		}
		fmt.Fprintf(&b, "  %d: %.4f, %.4f, %.4f, %d\n", i+1, s.Q1, s.Median, s.Q3, len(s.Outliers))
	}

	return b.String()
}
