package parser

import (
	"regexp"
	"strings"

	"github.com/Boliti/Website/pkg/models"
)

// CSV parses "freq,ampl" or "freq;ampl" lines. A line containing ';' is
// split on ';' so that decimal commas inside its fields survive.
type CSV struct{}

func (CSV) Format() string { return FormatCSV }

func (CSV) Parse(content string) (models.Spectrum, error) {
	var freqs, ampls []float64
	for _, line := range dataLines(content) {
		var delim string
		switch {
		case strings.Contains(line, ";"):
			delim = ";"
		case strings.Contains(line, ","):
			delim = ","
		default:
			continue
		}
		parts := strings.Split(line, delim)
		for i := range parts {
			parts[i] = strings.ReplaceAll(parts[i], ",", ".")
		}
		f, a, ok := parsePair(parts)
		if !ok {
			continue
		}
		freqs = append(freqs, f)
		ampls = append(ampls, a)
	}
	return collect(FormatCSV, freqs, ampls)
}

// TXT parses whitespace separated pairs; decimal commas are normalised first.
type TXT struct{}

func (TXT) Format() string { return FormatTXT }

func (TXT) Parse(content string) (models.Spectrum, error) {
	var freqs, ampls []float64
	for _, line := range dataLines(content) {
		f, a, ok := parsePair(strings.Fields(strings.ReplaceAll(line, ",", ".")))
		if !ok {
			continue
		}
		freqs = append(freqs, f)
		ampls = append(ampls, a)
	}
	return collect(FormatTXT, freqs, ampls)
}

// ESP parses the whitespace separated export of ESP instruments. Header
// lines start with '#'.
type ESP struct{}

func (ESP) Format() string { return FormatESP }

func (ESP) Parse(content string) (models.Spectrum, error) {
	var freqs, ampls []float64
	for _, line := range dataLines(content) {
		f, a, ok := parsePair(strings.Fields(line))
		if !ok {
			continue
		}
		freqs = append(freqs, f)
		ampls = append(ampls, a)
	}
	return collect(FormatESP, freqs, ampls)
}

var numberToken = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)

// Generic takes the first two numeric tokens of every line, whatever
// separates them.
type Generic struct{}

func (Generic) Format() string { return FormatGeneric }

func (Generic) Parse(content string) (models.Spectrum, error) {
	var freqs, ampls []float64
	for _, line := range dataLines(content) {
		tokens := numberToken.FindAllString(strings.ReplaceAll(line, ",", "."), 2)
		f, a, ok := parsePair(tokens)
		if !ok {
			continue
		}
		freqs = append(freqs, f)
		ampls = append(ampls, a)
	}
	if len(freqs) == 0 {
		return models.Spectrum{}, &models.ParseError{
			Source: FormatGeneric,
			Msg:    "no numeric frequency/amplitude pairs found in content",
		}
	}
	return models.Spectrum{Format: FormatGeneric, Frequencies: freqs, Amplitudes: ampls}, nil
}
