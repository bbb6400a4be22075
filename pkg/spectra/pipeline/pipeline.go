package pipeline

import (
	"context"
	"fmt"

	"github.com/Boliti/Website/pkg/models"
	"github.com/Boliti/Website/pkg/spectra/aggregate"
	"github.com/Boliti/Website/pkg/spectra/transform"
)

// Result holds the processed batch. Per-spectrum slices are indexed like the
// input; optional fields are nil when the stage was not requested.
type Result struct {
	Frequencies    [][]float64           `json:"frequencies"`
	Amplitudes     [][]float64           `json:"processed_amplitudes"`
	Peaks          [][]int               `json:"peaks"`
	PeakValues     [][]float64           `json:"peaks_values"`
	PeaksInfo      [][]models.PeakRecord `json:"peaks_info"`
	Mean           []float64             `json:"mean_amplitude,omitempty"`
	Std            []float64             `json:"std_amplitude,omitempty"`
	Boxplot        []models.BoxplotStats `json:"boxplot_stats,omitempty"`
	MovingAverages [][]float64           `json:"moving_averages,omitempty"`
}

// Run processes every spectrum in order:
//
//	filter -> [baseline] -> [smoothing] -> [normalization] -> [peaks] -> [moving average]
//
// and then computes the requested batch statistics over the final
// amplitudes. The first failing spectrum aborts the batch; no partial result
// is returned.
func Run(ctx context.Context, spectra []models.Spectrum, cfg TransformConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		Frequencies: make([][]float64, 0, len(spectra)),
		Amplitudes:  make([][]float64, 0, len(spectra)),
		Peaks:       make([][]int, 0, len(spectra)),
		PeakValues:  make([][]float64, 0, len(spectra)),
		PeaksInfo:   make([][]models.PeakRecord, 0, len(spectra)),
	}
	if cfg.ShowMovingAverage {
		res.MovingAverages = make([][]float64, 0, len(spectra))
	}

	for i, s := range spectra {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline cancelled before spectrum %d: %w", i, err)
		}

		processed, err := processSpectrum(s, cfg)
		if err != nil {
			return nil, fmt.Errorf("spectrum %d (%s): %w", i, displayName(s, i), err)
		}

		res.Frequencies = append(res.Frequencies, processed.frequencies)
		res.Amplitudes = append(res.Amplitudes, processed.amplitudes)
		res.Peaks = append(res.Peaks, processed.peaks)
		res.PeakValues = append(res.PeakValues, processed.peakValues)
		res.PeaksInfo = append(res.PeaksInfo, processed.peaksInfo)
		if cfg.ShowMovingAverage {
			res.MovingAverages = append(res.MovingAverages, processed.movingAverage)
		}
	}

	if len(res.Amplitudes) == 0 {
		return res, nil
	}

	if cfg.CalculateBoxplot {
		stats, err := aggregate.BoxplotStats(res.Amplitudes)
		if err != nil {
			return nil, fmt.Errorf("boxplot statistics: %w", err)
		}
		res.Boxplot = stats
	}

	if cfg.CalculateMeanStd {
		stats, err := aggregate.MeanStd(res.Amplitudes)
		if err != nil {
			return nil, fmt.Errorf("mean spectrum: %w", err)
		}
		res.Mean = stats.Mean
		res.Std = stats.Std
	}

	return res, nil
}

type spectrumResult struct {
	frequencies   []float64
	amplitudes    []float64
	peaks         []int
	peakValues    []float64
	peaksInfo     []models.PeakRecord
	movingAverage []float64
}

func processSpectrum(s models.Spectrum, cfg TransformConfig) (*spectrumResult, error) {
	freqs, ampls, err := transform.FilterFrequencyRange(s.Frequencies, s.Amplitudes, cfg.MinFreq, cfg.MaxFreq)
	if err != nil {
		return nil, fmt.Errorf("frequency filter: %w", err)
	}

	if cfg.RemoveBaseline {
		baseline, err := transform.BaselineALS(ampls, cfg.Lam, cfg.P, transform.DefaultALSIterations)
		if err != nil {
			return nil, fmt.Errorf("baseline removal: %w", err)
		}
		corrected := make([]float64, len(ampls))
		for i := range ampls {
			corrected[i] = ampls[i] - baseline[i]
		}
		ampls = corrected
	}

	if cfg.ApplySmoothing {
		if ampls, err = transform.SavitzkyGolay(ampls, cfg.WindowLength, cfg.PolyOrder); err != nil {
			return nil, fmt.Errorf("smoothing: %w", err)
		}
	}

	if cfg.Normalize {
		if ampls, err = transform.NormalizeSNV(ampls); err != nil {
			return nil, fmt.Errorf("normalization: %w", err)
		}
	}

	out := &spectrumResult{
		frequencies: freqs,
		amplitudes:  ampls,
		peaks:       []int{},
		peakValues:  []float64{},
		peaksInfo:   []models.PeakRecord{},
	}

	if cfg.FindPeaks {
		peaks, _ := transform.FindPeaks(ampls, cfg.Width, cfg.Prominence)
		out.peaks = peaks
		for order, idx := range peaks {
			out.peakValues = append(out.peakValues, ampls[idx])
			out.peaksInfo = append(out.peaksInfo, models.PeakRecord{
				Index:     idx,
				Order:     order + 1,
				Frequency: freqs[idx],
				Amplitude: ampls[idx],
			})
		}
	}

	if cfg.ShowMovingAverage {
		if out.movingAverage, err = transform.MovingAverage(ampls, cfg.MovingAverageWindow); err != nil {
			return nil, fmt.Errorf("moving average: %w", err)
		}
	}

	return out, nil
}

func displayName(s models.Spectrum, i int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("#%d", i+1)
}
