// Package parser turns raw spectral file content into frequency/amplitude pairs.
//
// Three line-oriented formats are understood (CSV, TXT, ESP). ParseAny tries
// them in that order and falls back to a permissive numeric scanner.
package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/Boliti/Website/pkg/models"
)

// Format tags recorded in models.Spectrum.Format.
const (
	FormatCSV     = "csv"
	FormatTXT     = "txt"
	FormatESP     = "esp"
	FormatGeneric = "generic"
)

// Parser extracts a spectrum from text content.
type Parser interface {
	Format() string
	Parse(content string) (models.Spectrum, error)
}

// Default is the ordered chain tried by ParseAny before the generic fallback.
var Default = []Parser{CSV{}, TXT{}, ESP{}}

// ParseAny tries each parser of Default in order and returns the first
// non-empty result. When all of them fail, the generic scanner is used.
func ParseAny(content string) (models.Spectrum, error) {
	return ParseWith(Default, content)
}

// ParseWith is ParseAny over an explicit parser chain.
func ParseWith(chain []Parser, content string) (models.Spectrum, error) {
	var lastErr error
	for _, p := range chain {
		spec, err := p.Parse(content)
		if err != nil {
			lastErr = err
			continue
		}
		if spec.Len() > 0 {
			return spec, nil
		}
	}

	spec, err := Generic{}.Parse(content)
	if err == nil {
		return spec, nil
	}
	lastErr = err

	return models.Spectrum{}, &models.ParseError{Msg: lastErr.Error()}
}

// ForExtension returns the parser registered for a file extension such as
// ".csv". The boolean is false for unsupported extensions.
func ForExtension(ext string) (Parser, bool) {
	switch strings.ToLower(ext) {
	case ".csv":
		return CSV{}, true
	case ".txt":
		return TXT{}, true
	case ".esp":
		return ESP{}, true
	}
	return nil, false
}

// dataLines yields trimmed lines that are neither blank nor comments. Lines
// end at "\n", "\r\n", a bare "\r" or any other Unicode line boundary.
func dataLines(content string) []string {
	raw := strings.FieldsFunc(content, isLineBreak)
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// parsePair converts the first two fields. ok is false when either fails.
func parsePair(fields []string) (freq, ampl float64, ok bool) {
	if len(fields) < 2 {
		return 0, 0, false
	}
	if freq, ok = parseNumber(fields[0]); !ok {
		return 0, 0, false
	}
	if ampl, ok = parseNumber(fields[1]); !ok {
		return 0, 0, false
	}
	return freq, ampl, true
}

// parseNumber accepts finite decimal numbers only. NaN, infinities and hex
// float literals are rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// collect builds a spectrum from the accepted pairs or a ParseError if none.
func collect(format string, freqs, ampls []float64) (models.Spectrum, error) {
	if len(freqs) == 0 {
		return models.Spectrum{}, &models.ParseError{
			Source: format,
			Msg:    "no valid frequency/amplitude pairs found",
		}
	}
	return models.Spectrum{Format: format, Frequencies: freqs, Amplitudes: ampls}, nil
}
