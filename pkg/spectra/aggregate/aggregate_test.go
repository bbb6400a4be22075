package aggregate

import (
	"errors"
	"math"
	"testing"

	"github.com/Boliti/Website/pkg/models"
)

func TestMeanStd(t *testing.T) {
	stats, err := MeanStd([][]float64{{1, 2, 3}, {3, 2, 1}})
	if err != nil {
		t.Fatalf("MeanStd failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if math.Abs(stats.Mean[i]-2) > 1e-12 {
			t.Errorf("mean[%d]: expected 2, got %g", i, stats.Mean[i])
		}
	}
	wantStd := []float64{1, 0, 1}
	for i, want := range wantStd {
		if math.Abs(stats.Std[i]-want) > 1e-12 {
			t.Errorf("std[%d]: expected %g, got %g", i, want, stats.Std[i])
		}
	}
}

func TestMeanStdSingleArray(t *testing.T) {
	stats, err := MeanStd([][]float64{{4, 5}})
	if err != nil {
		t.Fatalf("MeanStd failed: %v", err)
	}
	if stats.Mean[0] != 4 || stats.Mean[1] != 5 {
		t.Errorf("unexpected mean: %v", stats.Mean)
	}
	if stats.Std[0] != 0 || stats.Std[1] != 0 {
		t.Errorf("expected zero std, got %v", stats.Std)
	}
}

func TestMeanStdErrors(t *testing.T) {
	tests := []struct {
		name   string
		arrays [][]float64
	}{
		{"no arrays", nil},
		{"empty array", [][]float64{{}}},
		{"ragged", [][]float64{{1, 2, 3}, {1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MeanStd(tt.arrays)
			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestBoxplotStats(t *testing.T) {
	stats, err := BoxplotStats([][]float64{{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}})
	if err != nil {
		t.Fatalf("BoxplotStats failed: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected 1 result, got %d", len(stats))
	}

	s := stats[0]
	// Linear interpolation between ranks: q1 at 2.25, median at 4.5, q3 at 6.75.
	if s.Q1 != 3.25 || s.Median != 5.5 || s.Q3 != 7.75 {
		t.Errorf("unexpected quartiles: %+v", s)
	}
	if s.LowerBound != -3.5 || s.UpperBound != 14.5 {
		t.Errorf("unexpected fences: lower %g, upper %g", s.LowerBound, s.UpperBound)
	}
	if len(s.Outliers) != 1 || s.Outliers[0] != 100 {
		t.Errorf("expected outliers [100], got %v", s.Outliers)
	}
}

func TestBoxplotStatsOrdering(t *testing.T) {
	arrays := [][]float64{
		{5, -3, 12, 0.5, 7, 7, 2},
		{42},
		{-1, -1, -1, 30, -50},
	}

	stats, err := BoxplotStats(arrays)
	if err != nil {
		t.Fatalf("BoxplotStats failed: %v", err)
	}
	for i, s := range stats {
		if !(s.LowerBound <= s.Q1 && s.Q1 <= s.Median && s.Median <= s.Q3 && s.Q3 <= s.UpperBound) {
			t.Errorf("array %d: fences out of order: %+v", i, s)
		}
	}

	// Outliers keep input order.
	last := stats[2].Outliers
	if len(last) != 2 || last[0] != 30 || last[1] != -50 {
		t.Errorf("expected outliers [30 -50], got %v", last)
	}
}

func TestBoxplotStatsSkipsEmptyArrays(t *testing.T) {
	stats, err := BoxplotStats([][]float64{{}, {1, 2, 3}})
	if err != nil {
		t.Fatalf("BoxplotStats failed: %v", err)
	}
	if len(stats) != 1 || stats[0].Median != 2 {
		t.Errorf("expected a single summary with median 2, got %+v", stats)
	}

	for _, arrays := range [][][]float64{nil, {{}, {}}} {
		_, err := BoxplotStats(arrays)
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("expected ValidationError for %v, got %v", arrays, err)
		}
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	tests := []struct {
		q    float64
		want float64
	}{
		{0, 10},
		{25, 17.5},
		{50, 25},
		{75, 32.5},
		{100, 40},
	}

	for _, tt := range tests {
		if got := percentile(sorted, tt.q); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("percentile(%g): expected %g, got %g", tt.q, tt.want, got)
		}
	}
}
