// Package tabular turns raw delimited-text uploads into column-oriented
// tables for the inference engine.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ekaya-inc/schemasense/pkg/apperrors"
	"github.com/ekaya-inc/schemasense/pkg/models"
)

// DefaultMaxFileSize is 100 MiB.
const DefaultMaxFileSize int64 = 100 << 20

// fallbackSeparators are tried in order after the detected separator.
var fallbackSeparators = []string{",", ";", "\t", "|"}

// nullTokens are the exact cell values read as null.
var nullTokens = map[string]struct{}{
	"": {}, "NULL": {}, "null": {}, "None": {}, "none": {},
	"N/A": {}, "n/a": {}, "NA": {}, "na": {},
}

// Options controls parsing.
type Options struct {
	Separators  []string // candidates for detection
	Encodings   []string // decoding fallbacks after the detected encoding
	MaxFileSize int64
}

// DefaultOptions returns the built-in separators, encodings and size limit.
func DefaultOptions() Options {
	return Options{
		Separators:  []string{",", ";", "\t", "|", " "},
		Encodings:   []string{"utf-8", "latin1", "cp1252", "iso-8859-1"},
		MaxFileSize: DefaultMaxFileSize,
	}
}

// Parse decodes content, detects its separator and returns the table. Input
// problems are reported as errors wrapping apperrors.ErrInvalidInput.
func Parse(content []byte, opts Options) (*models.Table, error) {
	if len(content) == 0 {
		return nil, apperrors.ErrEmptyFile
	}
	if opts.MaxFileSize > 0 && int64(len(content)) > opts.MaxFileSize {
		return nil, fmt.Errorf("%w (max %dMB)", apperrors.ErrFileTooLarge, opts.MaxFileSize>>20)
	}

	text, enc := decode(content, opts.Encodings)
	detected := DetectSeparator(text, opts.Separators)

	for _, sep := range parseAttempts(detected) {
		table, err := parseWith(text, sep)
		if err != nil {
			continue
		}
		if table.ColumnCount() > 1 && table.RowCount > 0 {
			table.Encoding = enc
			table.Separator = sep
			return table, nil
		}
	}
	return nil, fmt.Errorf("%w\n%s", apperrors.ErrUnparseable, apperrors.UnparseableDetail)
}

func parseAttempts(detected string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, sep := range append([]string{detected}, fallbackSeparators...) {
		if _, dup := seen[sep]; dup {
			continue
		}
		seen[sep] = struct{}{}
		out = append(out, sep)
	}
	return out
}

func parseWith(text, sep string) (*models.Table, error) {
	comma, size := utf8.DecodeRuneInString(sep)
	if size != len(sep) || comma == utf8.RuneError {
		return nil, fmt.Errorf("separator %q is not a single character", sep)
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	names := columnNames(header)

	cells := make([][]*string, len(names))
	rows := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		// Rows wider than the header are malformed and skipped.
		if len(record) > len(names) {
			continue
		}

		row := make([]*string, len(names))
		empty := true
		for i := range names {
			if i >= len(record) {
				continue
			}
			if _, isNull := nullTokens[record[i]]; isNull {
				continue
			}
			v := record[i]
			row[i] = &v
			empty = false
		}
		if empty {
			continue
		}
		for i := range names {
			cells[i] = append(cells[i], row[i])
		}
		rows++
	}

	table := &models.Table{RowCount: rows, Columns: make([]models.Column, len(names))}
	for i, name := range names {
		table.Columns[i] = models.Column{Name: name, Values: cells[i]}
	}
	return table, nil
}

// columnNames trims header cells, names empty ones after their position and
// suffixes repeats with _1, _2, ... skipping any name already taken, so the
// result never holds the same name twice.
func columnNames(header []string) []string {
	next := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	names := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		unique := name
		for taken[unique] {
			next[name]++
			unique = fmt.Sprintf("%s_%d", name, next[name])
		}
		taken[unique] = true
		names[i] = unique
	}
	return names
}
