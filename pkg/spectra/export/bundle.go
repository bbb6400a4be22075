package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
	parquet "github.com/parquet-go/parquet-go"

	"github.com/Boliti/Website/pkg/models"
)

// Bundle is a processed batch ready for export.
type Bundle struct {
	Names       []string
	Frequencies [][]float64
	Amplitudes  [][]float64
	PeaksInfo   [][]models.PeakRecord

	// Mean spectrum, written when MeanFrequencies and Mean are both set.
	MeanFrequencies []float64
	Mean            []float64
	Params          map[string]any
}

func (b Bundle) validate() error {
	if len(b.Amplitudes) == 0 {
		return models.NewValidationError("amplitudes", "nothing to export")
	}
	if len(b.Frequencies) != len(b.Amplitudes) {
		return models.NewValidationError("frequencies",
			"got %d frequency arrays for %d amplitude arrays", len(b.Frequencies), len(b.Amplitudes))
	}
	for i := range b.Amplitudes {
		if len(b.Frequencies[i]) != len(b.Amplitudes[i]) {
			return models.NewValidationError("spectrum",
				"%s: frequency and amplitude arrays differ in length", b.name(i))
		}
	}
	return nil
}

// name returns a file-safe base name for spectrum i.
func (b Bundle) name(i int) string {
	if i < len(b.Names) && b.Names[i] != "" {
		base := path.Base(strings.ReplaceAll(b.Names[i], "\\", "/"))
		return strings.TrimSuffix(base, path.Ext(base))
	}
	return fmt.Sprintf("spectrum_%d", i+1)
}

// WriteZip writes one tab-separated file per spectrum, a peaks.csv table and,
// when present, mean_spectrum.csv.
func WriteZip(w io.Writer, b Bundle) error {
	if err := b.validate(); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	taken := make(map[string]bool)
	for i := range b.Amplitudes {
		body, err := FormatSpectralData(b.Frequencies[i], b.Amplitudes[i])
		if err != nil {
			return err
		}

		name := uniqueName(b.name(i), taken)
		if err := writeZipEntry(zw, name+"_processed.txt", []byte(body)); err != nil {
			return err
		}
	}

	peaks, err := peaksCSV(b)
	if err != nil {
		return err
	}
	if err := writeZipEntry(zw, "peaks.csv", peaks); err != nil {
		return err
	}

	if len(b.Mean) > 0 && len(b.MeanFrequencies) > 0 {
		mean, err := MeanSpectrumCSV(b.MeanFrequencies, b.Mean, b.Params)
		if err != nil {
			return err
		}
		if err := writeZipEntry(zw, "mean_spectrum.csv", mean); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip archive: %w", err)
	}
	return nil
}

// uniqueName returns base, or base_N with the smallest N >= 2 that is not yet
// taken, and marks the result as taken.
func uniqueName(base string, taken map[string]bool) string {
	name := base
	for n := 2; taken[name]; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	taken[name] = true
	return name
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s in archive: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", name, err)
	}
	return nil
}

func peaksCSV(b Bundle) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write([]string{"file", "order", "index", "frequency", "amplitude"}); err != nil {
		return nil, err
	}
	for i, peaks := range b.PeaksInfo {
		for _, p := range peaks {
			row := []string{
				b.name(i),
				strconv.Itoa(p.Order),
				strconv.Itoa(p.Index),
				strconv.FormatFloat(p.Frequency, 'g', -1, 64),
				strconv.FormatFloat(p.Amplitude, 'g', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return nil, err
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("failed to write peaks table: %w", err)
	}
	return buf.Bytes(), nil
}

// ParquetRow is one point of one spectrum in the long-format export.
type ParquetRow struct {
	File      string  `parquet:"file"`
	Index     int32   `parquet:"index"`
	Frequency float64 `parquet:"frequency"`
	Amplitude float64 `parquet:"amplitude"`
}

// ParquetRows flattens the bundle into long-format rows.
func ParquetRows(b Bundle) []ParquetRow {
	var rows []ParquetRow
	for i := range b.Amplitudes {
		name := b.name(i)
		for j := range b.Amplitudes[i] {
			rows = append(rows, ParquetRow{
				File:      name,
				Index:     int32(j),
				Frequency: b.Frequencies[i][j],
				Amplitude: b.Amplitudes[i][j],
			})
		}
	}
	return rows
}

// WriteParquet writes the bundle as zstd-compressed long-format Parquet.
func WriteParquet(w io.Writer, b Bundle) error {
	if err := b.validate(); err != nil {
		return err
	}

	pw := parquet.NewGenericWriter[ParquetRow](w, parquet.Compression(&parquet.Zstd))
	if _, err := pw.Write(ParquetRows(b)); err != nil {
		_ = pw.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
