package inference

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ekaya-inc/schemasense/pkg/models"
)

// Finding texts. Percentages are rendered with one decimal place.
const (
	findingHighNull     = "High null rate (%.1f%%) - evaluate column necessity"
	findingMediumNull   = "Significant null rate (%.1f%%) - implement null handling strategy"
	findingLowNull      = "Moderate null rate (%.1f%%) - consider default values"
	findingWhitespace   = "Leading/trailing whitespace detected - consider trimming"
	findingCasing       = "Inconsistent casing detected - standardize case if needed"
	findingVeryLongText = "Very long text values detected - consider TEXT type or truncation"
	findingEmptyStrings = "Empty strings detected (%.1f%%) - standardize with nulls"
	findingOutliers     = "Statistical outliers detected (%.1f%%) - review extreme values"
	findingConstant     = "All numeric values are identical - consider constant handling"
	findingNumericParse = "Numeric parsing issues detected - verify data format"
	findingMultipleAt   = "Multiple @ symbols detected in some email addresses"
	findingPhoneFormats = "Inconsistent phone number formats - consider standardization"
)

// Analyzer produces ordered data-quality findings for a classified column.
type Analyzer struct {
	rules *Rules
}

// NewAnalyzer creates an analyzer over the given rules (DefaultRules when nil).
func NewAnalyzer(rules *Rules) *Analyzer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Analyzer{rules: rules}
}

// Analyze returns findings for the raw non-null values of a column. The
// null-rate finding, if any, always comes first.
func (a *Analyzer) Analyze(values []string, nullPct float64, logical models.LogicalType) []string {
	findings := []string{}

	switch {
	case nullPct > a.rules.HighNullPct:
		findings = append(findings, fmt.Sprintf(findingHighNull, nullPct))
	case nullPct > a.rules.MediumNullPct:
		findings = append(findings, fmt.Sprintf(findingMediumNull, nullPct))
	case nullPct > a.rules.LowNullPct:
		findings = append(findings, fmt.Sprintf(findingLowNull, nullPct))
	}

	if len(values) == 0 {
		return findings
	}

	switch {
	case logical.IsString():
		findings = append(findings, a.stringFindings(values)...)
	case logical.IsNumeric():
		findings = append(findings, a.numericFindings(values)...)
	case logical == models.LogicalTypeEmail:
		findings = append(findings, emailFindings(values)...)
	case logical == models.LogicalTypePhone:
		findings = append(findings, a.phoneFindings(values)...)
	}
	return findings
}

func (a *Analyzer) stringFindings(values []string) []string {
	var findings []string

	for _, v := range values {
		if strings.TrimSpace(v) != v {
			findings = append(findings, findingWhitespace)
			break
		}
	}

	exact := make(map[string]struct{}, len(values))
	folded := make(map[string]struct{}, len(values))
	maxLen, empty := 0, 0
	for _, v := range values {
		exact[v] = struct{}{}
		folded[strings.ToLower(v)] = struct{}{}
		maxLen = max(maxLen, utf8.RuneCountInString(v))
		if v == "" {
			empty++
		}
	}

	if len(exact) != len(folded) {
		findings = append(findings, findingCasing)
	}
	if maxLen > a.rules.VeryLongText {
		findings = append(findings, findingVeryLongText)
	}
	if empty > 0 {
		findings = append(findings, fmt.Sprintf(findingEmptyStrings, percent(empty, len(values))))
	}
	return findings
}

func (a *Analyzer) numericFindings(values []string) []string {
	numbers := parseNumbers(values)
	if len(numbers) == 0 {
		return nil
	}
	sort.Float64s(numbers)

	q1 := quantile(numbers, 0.25)
	q3 := quantile(numbers, 0.75)
	iqr := q3 - q1
	spread := numbers[len(numbers)-1] - numbers[0]
	if math.IsNaN(iqr) || math.IsInf(iqr, 0) || math.IsInf(spread, 0) {
		return []string{findingNumericParse}
	}

	var findings []string
	if iqr > 0 {
		lower := q1 - a.rules.OutlierIQRScale*iqr
		upper := q3 + a.rules.OutlierIQRScale*iqr
		outliers := 0
		for _, f := range numbers {
			if f < lower || f > upper {
				outliers++
			}
		}
		if outliers > 0 {
			findings = append(findings, fmt.Sprintf(findingOutliers, percent(outliers, len(numbers))))
		}
	}
	if spread == 0 {
		findings = append(findings, findingConstant)
	}
	return findings
}

func emailFindings(values []string) []string {
	for _, v := range values {
		if strings.Count(v, "@") >= 2 {
			return []string{findingMultipleAt}
		}
	}
	return nil
}

func (a *Analyzer) phoneFindings(values []string) []string {
	lengths := make([]float64, len(values))
	for i, v := range values {
		lengths[i] = float64(utf8.RuneCountInString(v))
	}
	if sampleStdDev(lengths) > a.rules.PhoneLengthStd {
		return []string{findingPhoneFormats}
	}
	return nil
}

// quantile uses linear interpolation between closest ranks over sorted data.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := min(lo+1, len(sorted)-1)
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// sampleStdDev is the n-1 standard deviation; zero for fewer than two values.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
