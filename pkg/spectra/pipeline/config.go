// Package pipeline runs a batch of spectra through the transform stages in
// a fixed order and aggregates the results.
package pipeline

import (
	"github.com/Boliti/Website/pkg/models"
)

// TransformConfig selects the stages of a run and carries their parameters.
// Frequency filtering always runs.
type TransformConfig struct {
	MinFreq float64 `json:"min_freq" yaml:"min_freq"`
	MaxFreq float64 `json:"max_freq" yaml:"max_freq"`

	RemoveBaseline bool    `json:"remove_baseline" yaml:"remove_baseline"`
	Lam            float64 `json:"lam" yaml:"lam"`
	P              float64 `json:"p" yaml:"p"`

	ApplySmoothing bool `json:"apply_smoothing" yaml:"apply_smoothing"`
	WindowLength   int  `json:"window_length" yaml:"window_length"`
	PolyOrder      int  `json:"polyorder" yaml:"polyorder"`

	Normalize bool `json:"normalize" yaml:"normalize"`

	FindPeaks  bool    `json:"find_peaks" yaml:"find_peaks"`
	Width      float64 `json:"width" yaml:"width"`
	Prominence float64 `json:"prominence" yaml:"prominence"`

	CalculateBoxplot bool `json:"calculate_boxplot" yaml:"calculate_boxplot"`
	CalculateMeanStd bool `json:"calculate_mean_std" yaml:"calculate_mean_std"`

	ShowMovingAverage   bool `json:"show_moving_average" yaml:"show_moving_average"`
	MovingAverageWindow int  `json:"moving_average_window" yaml:"moving_average_window"`
}

// DefaultTransformConfig returns the parameters used when a request leaves
// them out. All optional stages are disabled.
func DefaultTransformConfig() TransformConfig {
	return TransformConfig{
		MinFreq:             0,
		MaxFreq:             10000,
		Lam:                 1000,
		P:                   0.001,
		WindowLength:        25,
		PolyOrder:           2,
		Width:               1,
		Prominence:          1,
		MovingAverageWindow: 5,
	}
}

// Validate checks the parameters of the enabled stages. Checks that depend
// on the signal length are left to the stages themselves.
func (c TransformConfig) Validate() error {
	if c.MinFreq > c.MaxFreq {
		return models.NewValidationError("min_freq",
			"min_freq (%g) cannot be greater than max_freq (%g)", c.MinFreq, c.MaxFreq)
	}

	if c.RemoveBaseline {
		if c.Lam <= 0 {
			return models.NewValidationError("lam", "must be positive, got %g", c.Lam)
		}
		if !(c.P > 0 && c.P < 1) {
			return models.NewValidationError("p", "must be within (0, 1), got %g", c.P)
		}
	}

	if c.ApplySmoothing {
		if c.WindowLength < 1 {
			return models.NewValidationError("window_length", "must be positive, got %d", c.WindowLength)
		}
		if c.PolyOrder < 0 {
			return models.NewValidationError("polyorder", "must not be negative, got %d", c.PolyOrder)
		}
		if c.PolyOrder >= c.WindowLength {
			return models.NewValidationError("polyorder",
				"polynomial order %d must be less than the window length %d", c.PolyOrder, c.WindowLength)
		}
	}

	if c.FindPeaks {
		if c.Width < 0 {
			return models.NewValidationError("width", "must not be negative, got %g", c.Width)
		}
		if c.Prominence < 0 {
			return models.NewValidationError("prominence", "must not be negative, got %g", c.Prominence)
		}
	}

	if c.ShowMovingAverage && c.MovingAverageWindow <= 0 {
		return models.NewValidationError("moving_average_window", "must be positive, got %d", c.MovingAverageWindow)
	}

	return nil
}
