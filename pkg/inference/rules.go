// Package inference classifies raw string columns into logical and MySQL
// target types and reports data-quality findings for them.
//
// Everything in this package is pure and synchronous: no I/O, no shared
// mutable state. A single *Rules value is built once at startup and may be
// shared by any number of concurrent analyses.
package inference

import (
	"math/big"
	"regexp"

	"github.com/ekaya-inc/schemasense/pkg/models"
)

// PatternSpec declares one pattern type. Order in a slice of specs is
// significant: the first pattern to clear the threshold wins.
type PatternSpec struct {
	Type       models.LogicalType
	Expr       string
	TargetType string
}

// DefaultPatternSpecs returns the built-in pattern table in evaluation order.
func DefaultPatternSpecs() []PatternSpec {
	return []PatternSpec{
		{models.LogicalTypeEmail, `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`, "VARCHAR(100)"},
		{models.LogicalTypePhone, `^[\+]?[\d\s\-\(\)\.]{7,20}$`, "VARCHAR(25)"},
		{models.LogicalTypeURL, `^https?://[^\s]+$`, "VARCHAR(500)"},
		{models.LogicalTypeDate, `^\d{4}-\d{2}-\d{2}|\d{2}[/\-]\d{2}[/\-]\d{4}|\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}$`, "DATE"},
		{models.LogicalTypeTime, `^\d{1,2}:\d{2}(:\d{2})?(\s?(AM|PM|am|pm))?$`, "TIME"},
		{models.LogicalTypeBoolean, `^(true|false|yes|no|y|n|1|0|t|f)$`, "BOOLEAN"},
		{models.LogicalTypeUUID, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, "CHAR(36)"},
	}
}

type compiledPattern struct {
	PatternSpec
	re *regexp.Regexp
}

// IntegerBand maps an inclusive value range to an integer type.
type IntegerBand struct {
	Min        int64
	Max        uint64
	Type       models.LogicalType
	TargetType string
}

// Contains reports whether v lies within the band.
func (b IntegerBand) Contains(v *big.Int) bool {
	return v.Cmp(new(big.Int).SetInt64(b.Min)) >= 0 && v.Cmp(new(big.Int).SetUint64(b.Max)) <= 0
}

// Rules is the immutable configuration shared by the classifier and the
// quality analyzer.
type Rules struct {
	patterns []compiledPattern
	// Skipped holds pattern types whose expression failed to compile.
	Skipped []models.LogicalType

	PatternThreshold float64 // strictly greater than
	NumericThreshold float64 // greater than or equal

	UnsignedBands []IntegerBand
	SignedBands   []IntegerBand

	ShortStringMax  int
	StringMax       int
	VarcharMax      int
	MediumStringMax int

	HighNullPct     float64
	MediumNullPct   float64
	LowNullPct      float64
	OutlierIQRScale float64
	VeryLongText    int
	PhoneLengthStd  float64
}

// NewRules compiles the given pattern table. Patterns that fail to compile
// are recorded in Skipped and never evaluated.
func NewRules(specs []PatternSpec) *Rules {
	r := &Rules{
		PatternThreshold: 0.8,
		NumericThreshold: 0.9,
		UnsignedBands: []IntegerBand{
			{0, 255, models.LogicalTypeTinyIntUnsigned, "TINYINT UNSIGNED"},
			{0, 65535, models.LogicalTypeSmallIntUnsigned, "SMALLINT UNSIGNED"},
			{0, 4294967295, models.LogicalTypeIntUnsigned, "INT UNSIGNED"},
			{0, 18446744073709551615, models.LogicalTypeBigIntUnsigned, "BIGINT UNSIGNED"},
		},
		SignedBands: []IntegerBand{
			{-128, 127, models.LogicalTypeTinyInt, "TINYINT"},
			{-32768, 32767, models.LogicalTypeSmallInt, "SMALLINT"},
			{-2147483648, 2147483647, models.LogicalTypeInt, "INT"},
			{-9223372036854775808, 9223372036854775807, models.LogicalTypeBigInt, "BIGINT"},
		},
		ShortStringMax:  10,
		StringMax:       100,
		VarcharMax:      255,
		MediumStringMax: 1000,
		HighNullPct:     50,
		MediumNullPct:   20,
		LowNullPct:      5,
		OutlierIQRScale: 1.5,
		VeryLongText:    1000,
		PhoneLengthStd:  2,
	}

	for _, spec := range specs {
		// Anchor at the start only and ignore case: a value matches when the
		// expression matches a prefix of it.
		re, err := regexp.Compile(`(?i)^(?:` + spec.Expr + `)`)
		if err != nil {
			r.Skipped = append(r.Skipped, spec.Type)
			continue
		}
		r.patterns = append(r.patterns, compiledPattern{PatternSpec: spec, re: re})
	}
	return r
}

var defaultRules = NewRules(DefaultPatternSpecs())

// DefaultRules returns the shared built-in rule set.
func DefaultRules() *Rules {
	return defaultRules
}

// PatternTypes returns the compiled pattern types in evaluation order.
func (r *Rules) PatternTypes() []models.LogicalType {
	out := make([]models.LogicalType, 0, len(r.patterns))
	for _, p := range r.patterns {
		out = append(out, p.Type)
	}
	return out
}
