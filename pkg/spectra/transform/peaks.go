package transform

// peakRelHeight is the fraction of the prominence at which widths are measured.
const peakRelHeight = 0.5

// PeakProperties holds per-peak measurements, aligned with the returned indices.
type PeakProperties struct {
	Prominences  []float64
	LeftBases    []int
	RightBases   []int
	Widths       []float64
	WidthHeights []float64
	LeftIPs      []float64
	RightIPs     []float64
}

// FindPeaks locates local maxima whose topographic prominence is at least
// minProminence and whose width at half prominence is at least minWidth.
// Flat tops report their middle sample. The first and last samples are never
// peaks. Empty input yields an empty result.
func FindPeaks(amplitudes []float64, minWidth, minProminence float64) ([]int, PeakProperties) {
	peaks := []int{}
	var props PeakProperties

	for _, pk := range localMaxima(amplitudes) {
		prom, left, right := peakProminence(amplitudes, pk)
		if prom < minProminence {
			continue
		}

		height, lip, rip := peakWidth(amplitudes, pk, prom, left, right)
		width := rip - lip
		if width < minWidth {
			continue
		}

		peaks = append(peaks, pk)
		props.Prominences = append(props.Prominences, prom)
		props.LeftBases = append(props.LeftBases, left)
		props.RightBases = append(props.RightBases, right)
		props.Widths = append(props.Widths, width)
		props.WidthHeights = append(props.WidthHeights, height)
		props.LeftIPs = append(props.LeftIPs, lip)
		props.RightIPs = append(props.RightIPs, rip)
	}

	return peaks, props
}

// localMaxima returns samples strictly higher than their neighbours, taking
// the middle (rounded down) of flat plateaus.
func localMaxima(x []float64) []int {
	var out []int
	last := len(x) - 1
	for i := 1; i < last; i++ {
		if !(x[i-1] < x[i]) {
			continue
		}
		ahead := i + 1
		for ahead < last && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			out = append(out, (i+ahead-1)/2)
			i = ahead
		}
	}
	return out
}

// peakProminence walks outwards from the peak until a higher sample (or the
// signal edge) is reached on each side and records the lowest point passed.
func peakProminence(x []float64, peak int) (prominence float64, leftBase, rightBase int) {
	leftMin := x[peak]
	leftBase = peak
	for i := peak; i >= 0 && x[i] <= x[peak]; i-- {
		if x[i] < leftMin {
			leftMin = x[i]
			leftBase = i
		}
	}

	rightMin := x[peak]
	rightBase = peak
	for i := peak; i < len(x) && x[i] <= x[peak]; i++ {
		if x[i] < rightMin {
			rightMin = x[i]
			rightBase = i
		}
	}

	reference := leftMin
	if rightMin > reference {
		reference = rightMin
	}
	return x[peak] - reference, leftBase, rightBase
}

// peakWidth measures the peak at height x[peak] - prominence*peakRelHeight,
// interpolating linearly between samples. The search is bounded by the bases.
func peakWidth(x []float64, peak int, prominence float64, leftBase, rightBase int) (height, leftIP, rightIP float64) {
	height = x[peak] - prominence*peakRelHeight

	i := peak
	for leftBase < i && height < x[i] {
		i--
	}
	leftIP = float64(i)
	if x[i] < height {
		leftIP += (height - x[i]) / (x[i+1] - x[i])
	}

	i = peak
	for i < rightBase && height < x[i] {
		i++
	}
	rightIP = float64(i)
	if x[i] < height {
		rightIP -= (height - x[i]) / (x[i-1] - x[i])
	}

	return height, leftIP, rightIP
}
