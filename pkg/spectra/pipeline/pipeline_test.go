package pipeline

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Boliti/Website/pkg/models"
	"github.com/Boliti/Website/pkg/spectra/transform"
)

// syntheticSpectrum returns a sloped baseline with two Gaussian bands.
func syntheticSpectrum(name string, n int, scale float64) models.Spectrum {
	s := models.Spectrum{Name: name, Format: "txt"}
	for i := 0; i < n; i++ {
		f := 100 + float64(i)*5
		a := 0.01*float64(i) + 1 +
			scale*math.Exp(-math.Pow((float64(i)-60)/4, 2)) +
			0.5*scale*math.Exp(-math.Pow((float64(i)-140)/6, 2))
		s.Frequencies = append(s.Frequencies, f)
		s.Amplitudes = append(s.Amplitudes, a)
	}
	return s
}

func TestRunFilterOnly(t *testing.T) {
	cfg := DefaultTransformConfig()
	cfg.MinFreq = 150
	cfg.MaxFreq = 250

	spectra := []models.Spectrum{{
		Name:        "sample.txt",
		Frequencies: []float64{100, 200, 300},
		Amplitudes:  []float64{0.5, 0.8, 0.3},
	}}

	res, err := Run(context.Background(), spectra, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Frequencies) != 1 || len(res.Frequencies[0]) != 1 || res.Frequencies[0][0] != 200 {
		t.Errorf("expected frequencies [[200]], got %v", res.Frequencies)
	}
	if res.Amplitudes[0][0] != 0.8 {
		t.Errorf("expected amplitudes [[0.8]], got %v", res.Amplitudes)
	}
	if res.Mean != nil || res.Boxplot != nil || res.MovingAverages != nil {
		t.Error("expected optional outputs to stay empty")
	}
	if len(res.Peaks[0]) != 0 {
		t.Errorf("expected no peaks when detection is off, got %v", res.Peaks[0])
	}
}

func TestRunBaselineIdentity(t *testing.T) {
	cfg := DefaultTransformConfig()
	cfg.RemoveBaseline = true
	cfg.Lam = 1e5
	cfg.P = 0.01

	s := syntheticSpectrum("a", 200, 10)
	res, err := Run(context.Background(), []models.Spectrum{s}, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	baseline, err := transform.BaselineALS(s.Amplitudes, cfg.Lam, cfg.P, transform.DefaultALSIterations)
	if err != nil {
		t.Fatalf("BaselineALS failed: %v", err)
	}
	for i, processed := range res.Amplitudes[0] {
		if diff := s.Amplitudes[i] - processed; math.Abs(diff-baseline[i]) > 1e-9 {
			t.Fatalf("point %d: original - processed = %g, baseline = %g", i, diff, baseline[i])
		}
	}
}

func TestRunFullChain(t *testing.T) {
	cfg := DefaultTransformConfig()
	cfg.RemoveBaseline = true
	cfg.Lam = 1e5
	cfg.P = 0.01
	cfg.ApplySmoothing = true
	cfg.WindowLength = 7
	cfg.PolyOrder = 2
	cfg.Normalize = true
	cfg.FindPeaks = true
	cfg.Width = 1
	cfg.Prominence = 1
	cfg.CalculateBoxplot = true
	cfg.CalculateMeanStd = true
	cfg.ShowMovingAverage = true
	cfg.MovingAverageWindow = 5

	spectra := []models.Spectrum{
		syntheticSpectrum("first", 200, 10),
		syntheticSpectrum("second", 200, 8),
	}

	res, err := Run(context.Background(), spectra, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Amplitudes) != 2 || len(res.Boxplot) != 2 || len(res.MovingAverages) != 2 {
		t.Fatalf("expected per-spectrum outputs for both spectra, got %d/%d/%d",
			len(res.Amplitudes), len(res.Boxplot), len(res.MovingAverages))
	}
	if len(res.Mean) != 200 || len(res.Std) != 200 {
		t.Errorf("expected 200-point mean/std, got %d/%d", len(res.Mean), len(res.Std))
	}

	for i, peaks := range res.Peaks {
		if len(peaks) == 0 {
			t.Errorf("spectrum %d: expected peaks", i)
			continue
		}
		found := false
		for j, idx := range peaks {
			info := res.PeaksInfo[i][j]
			if info.Order != j+1 || info.Index != idx {
				t.Errorf("spectrum %d: peak %d has order %d index %d", i, j, info.Order, info.Index)
			}
			if info.Frequency != res.Frequencies[i][idx] || res.PeakValues[i][j] != res.Amplitudes[i][idx] {
				t.Errorf("spectrum %d: peak %d values do not match the processed arrays", i, j)
			}
			if idx >= 57 && idx <= 63 {
				found = true
			}
		}
		if !found {
			t.Errorf("spectrum %d: main band near index 60 not detected in %v", i, peaks)
		}
	}
}

func TestRunAbortsBatch(t *testing.T) {
	cfg := DefaultTransformConfig()
	cfg.Normalize = true

	spectra := []models.Spectrum{
		syntheticSpectrum("good", 50, 3),
		{Name: "flat.csv", Frequencies: []float64{1, 2, 3}, Amplitudes: []float64{5, 5, 5}},
	}

	res, err := Run(context.Background(), spectra, cfg)
	if err == nil {
		t.Fatal("expected the flat spectrum to fail normalization")
	}
	if res != nil {
		t.Error("expected no partial result")
	}

	var cerr *models.ComputationError
	if !errors.As(err, &cerr) {
		t.Errorf("expected a wrapped ComputationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "flat.csv") {
		t.Errorf("expected the error to name the spectrum, got %q", err.Error())
	}
}

func TestRunEmptyRange(t *testing.T) {
	cfg := DefaultTransformConfig()
	cfg.MinFreq = 50000
	cfg.MaxFreq = 60000

	_, err := Run(context.Background(), []models.Spectrum{syntheticSpectrum("a", 10, 1)}, cfg)
	var rerr *models.EmptyRangeError
	if !errors.As(err, &rerr) {
		t.Errorf("expected EmptyRangeError, got %v", err)
	}
}

func TestRunRaggedMeanStd(t *testing.T) {
	cfg := DefaultTransformConfig()
	cfg.CalculateMeanStd = true

	spectra := []models.Spectrum{syntheticSpectrum("a", 10, 1), syntheticSpectrum("b", 12, 1)}
	_, err := Run(context.Background(), spectra, cfg)
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for ragged spectra, got %v", err)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	cfg := DefaultTransformConfig()
	cfg.CalculateMeanStd = true
	cfg.CalculateBoxplot = true

	res, err := Run(context.Background(), nil, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Amplitudes) != 0 || res.Mean != nil || res.Boxplot != nil {
		t.Errorf("expected an empty result, got %+v", res)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, []models.Spectrum{syntheticSpectrum("a", 10, 1)}, DefaultTransformConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTransformConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*TransformConfig)
		valid  bool
	}{
		{"defaults", func(c *TransformConfig) {}, true},
		{"inverted range", func(c *TransformConfig) { c.MinFreq, c.MaxFreq = 500, 100 }, false},
		{"bad lam ignored when disabled", func(c *TransformConfig) { c.Lam = -1 }, true},
		{"bad lam", func(c *TransformConfig) { c.RemoveBaseline = true; c.Lam = 0 }, false},
		{"bad p", func(c *TransformConfig) { c.RemoveBaseline = true; c.P = 1.5 }, false},
		{"polyorder too high", func(c *TransformConfig) { c.ApplySmoothing = true; c.PolyOrder = 25 }, false},
		{"negative prominence", func(c *TransformConfig) { c.FindPeaks = true; c.Prominence = -1 }, false},
		{"zero moving average window", func(c *TransformConfig) { c.ShowMovingAverage = true; c.MovingAverageWindow = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTransformConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.valid && err != nil {
				t.Errorf("expected valid config, got %v", err)
			}
			if !tt.valid {
				var verr *models.ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("expected ValidationError, got %v", err)
				}
			}
		})
	}
}
