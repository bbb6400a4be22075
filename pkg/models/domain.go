package models

// Spectrum is one measured spectrum as parallel frequency/amplitude sequences.
type Spectrum struct {
	Name        string    // Source file name (if known)
	Format      string    // Parser that produced it: csv, txt, esp or generic
	Frequencies []float64 // Wavenumbers / frequencies, in source order
	Amplitudes  []float64 // Intensities, same length as Frequencies
}

// Len returns the number of points in the spectrum.
func (s Spectrum) Len() int {
	return len(s.Frequencies)
}

// PeakRecord describes one detected peak. Order is the 1-based rank by position.
type PeakRecord struct {
	Index     int     `json:"index"`
	Order     int     `json:"order"`
	Frequency float64 `json:"frequency"`
	Amplitude float64 `json:"amplitude"`
}

// BoxplotStats holds the five-number summary of one amplitude array.
type BoxplotStats struct {
	Q1         float64   `json:"q1"`
	Median     float64   `json:"median"`
	Q3         float64   `json:"q3"`
	LowerBound float64   `json:"lower_bound"`
	UpperBound float64   `json:"upper_bound"`
	Outliers   []float64 `json:"outliers"`
}

// BatchStats holds per-bin mean and population standard deviation.
type BatchStats struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}
