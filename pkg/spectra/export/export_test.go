package export

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	parquet "github.com/parquet-go/parquet-go"

	"github.com/Boliti/Website/pkg/models"
	"github.com/Boliti/Website/pkg/spectra/parser"
)

func testBundle() Bundle {
	return Bundle{
		Names:       []string{"uploads/first.esp", "second.txt"},
		Frequencies: [][]float64{{100, 200, 300}, {100, 200, 300}},
		Amplitudes:  [][]float64{{0.5, 0.8, 0.3}, {0.25, 1.5, 0.125}},
		PeaksInfo: [][]models.PeakRecord{
			{{Index: 1, Order: 1, Frequency: 200, Amplitude: 0.8}},
			{{Index: 1, Order: 1, Frequency: 200, Amplitude: 1.5}},
		},
		MeanFrequencies: []float64{100, 200, 300},
		Mean:            []float64{0.375, 1.15, 0.2125},
		Params:          map[string]any{"normalize": true, "lam": 1000},
	}
}

func TestFormatSpectralData(t *testing.T) {
	got, err := FormatSpectralData([]float64{100, 200.456}, []float64{0.5, 0.1234567})
	if err != nil {
		t.Fatalf("FormatSpectralData failed: %v", err)
	}
	want := "100.00\t0.500000\n200.46\t0.123457"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if _, err := FormatSpectralData([]float64{1}, nil); err == nil {
		t.Error("expected an error for mismatched lengths")
	}
}

func TestFormatSpectralDataRoundTrip(t *testing.T) {
	freqs := []float64{400, 401.5, 403, 404.5, 406}
	ampls := []float64{1.2, 3.4, 5.6, 3.4, 1.2}

	text, err := FormatSpectralData(freqs, ampls)
	if err != nil {
		t.Fatalf("FormatSpectralData failed: %v", err)
	}
	s, err := parser.ParseAny(text)
	if err != nil {
		t.Fatalf("ParseAny failed: %v", err)
	}
	if s.Len() != len(freqs) {
		t.Errorf("expected %d points after round trip, got %d", len(freqs), s.Len())
	}
}

func TestMeanSpectrumCSV(t *testing.T) {
	data, err := MeanSpectrumCSV([]float64{100, 200}, []float64{0.5, 1.25},
		map[string]any{"window_length": 25, "apply_smoothing": true})
	if err != nil {
		t.Fatalf("MeanSpectrumCSV failed: %v", err)
	}

	want := "# Metadata; # apply_smoothing: true; # window_length: 25\n" +
		"#frequency,mean_amplitude\n" +
		"100,0.5\n" +
		"200,1.25"
	if string(data) != want {
		t.Errorf("unexpected CSV:\n%s\nwant:\n%s", data, want)
	}

	_, err = MeanSpectrumCSV([]float64{1, 2}, []float64{1}, nil)
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestWriteZip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteZip(&buf, testBundle()); err != nil {
		t.Fatalf("WriteZip failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}

	contents := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read %s: %v", f.Name, err)
		}
		contents[f.Name] = string(data)
	}

	for _, name := range []string{"first_processed.txt", "second_processed.txt", "peaks.csv", "mean_spectrum.csv"} {
		if _, ok := contents[name]; !ok {
			t.Errorf("archive is missing %s", name)
		}
	}

	if got := contents["first_processed.txt"]; !strings.HasPrefix(got, "100.00\t0.500000") {
		t.Errorf("unexpected spectrum file: %q", got)
	}
	if got := contents["peaks.csv"]; !strings.Contains(got, "second,1,1,200,1.5") {
		t.Errorf("unexpected peaks table: %q", got)
	}
}

func TestWriteZipDuplicateNames(t *testing.T) {
	b := testBundle()
	b.Names = []string{"a.txt", "a.csv"}
	b.Mean = nil

	var buf bytes.Buffer
	if err := WriteZip(&buf, b); err != nil {
		t.Fatalf("WriteZip failed: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["a_processed.txt"] || !names["a_2_processed.txt"] {
		t.Errorf("expected distinct entries for duplicate names, got %v", names)
	}
	if names["mean_spectrum.csv"] {
		t.Error("mean spectrum should be omitted when not computed")
	}
}

func TestWriteZipSuffixCollision(t *testing.T) {
	b := Bundle{
		Names:       []string{"a.txt", "a.csv", "a_2.txt", "a.esp"},
		Frequencies: [][]float64{{1, 2}, {1, 2}, {1, 2}, {1, 2}},
		Amplitudes:  [][]float64{{1, 1}, {2, 2}, {3, 3}, {4, 4}},
	}

	var buf bytes.Buffer
	if err := WriteZip(&buf, b); err != nil {
		t.Fatalf("WriteZip failed: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}

	counts := make(map[string]int)
	for _, f := range zr.File {
		counts[f.Name]++
	}
	for _, want := range []string{"a_processed.txt", "a_2_processed.txt", "a_2_2_processed.txt", "a_3_processed.txt"} {
		if counts[want] != 1 {
			t.Errorf("expected exactly one %s, got %d (%v)", want, counts[want], counts)
		}
	}
}

func TestUniqueName(t *testing.T) {
	taken := make(map[string]bool)
	got := []string{
		uniqueName("a", taken),
		uniqueName("a", taken),
		uniqueName("a_2", taken),
		uniqueName("a", taken),
		uniqueName("b", taken),
	}
	want := []string{"a", "a_2", "a_2_2", "a_3", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("uniqueName #%d = %q, expected %q", i, got[i], want[i])
		}
	}
}

func TestMeanSpectrumCSVNumberFormat(t *testing.T) {
	tests := []struct {
		name  string
		freqs []float64
		mean  []float64
		want  string
	}{
		{"integer columns", []float64{100, 200}, []float64{1, 2}, "100,1\n200,2"},
		{"mixed mean column", []float64{100, 200}, []float64{1.5, 2}, "100,1.5\n200,2.0"},
		{"float frequency column", []float64{100, 200.5}, []float64{0.5, 0.25}, "100.0,0.5\n200.5,0.25"},
		{"small and large values", []float64{1, 2}, []float64{0.00001, 1.5e16}, "1,1e-05\n2,1.5e+16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MeanSpectrumCSV(tt.freqs, tt.mean, nil)
			if err != nil {
				t.Fatalf("MeanSpectrumCSV failed: %v", err)
			}
			want := "# Metadata\n#frequency,mean_amplitude\n" + tt.want
			if string(data) != want {
				t.Errorf("expected %q, got %q", want, data)
			}
		})
	}
}

func TestWriteParquet(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteParquet(&buf, testBundle()); err != nil {
		t.Fatalf("WriteParquet failed: %v", err)
	}

	gr := parquet.NewGenericReader[ParquetRow](bytes.NewReader(buf.Bytes()))
	defer gr.Close()

	var rows []ParquetRow
	batch := make([]ParquetRow, 4)
	for {
		n, err := gr.Read(batch)
		rows = append(rows, batch[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read parquet rows: %v", err)
		}
	}
	if len(rows) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(rows))
	}
	if rows[4].File != "second" || rows[4].Index != 1 || rows[4].Amplitude != 1.5 {
		t.Errorf("unexpected row: %+v", rows[4])
	}
}

func TestExportRejectsBadBundles(t *testing.T) {
	tests := []struct {
		name   string
		bundle Bundle
	}{
		{"empty", Bundle{}},
		{"count mismatch", Bundle{Frequencies: [][]float64{{1}}, Amplitudes: [][]float64{{1}, {2}}}},
		{"length mismatch", Bundle{Frequencies: [][]float64{{1, 2}}, Amplitudes: [][]float64{{1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := WriteZip(io.Discard, tt.bundle); !models.IsInputError(err) {
				t.Errorf("WriteZip: expected an input error, got %v", err)
			}
			if err := WriteParquet(io.Discard, tt.bundle); !models.IsInputError(err) {
				t.Errorf("WriteParquet: expected an input error, got %v", err)
			}
		})
	}
}
