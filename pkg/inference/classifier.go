package inference

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ekaya-inc/schemasense/pkg/models"
)

// phaseOutcome is the result of one classification phase. A phaseError is
// never surfaced; it degrades to notApplicable and the next phase runs.
type phaseOutcome int

const (
	notApplicable phaseOutcome = iota
	matched
	phaseError
)

type phaseResult struct {
	outcome    phaseOutcome
	logical    models.LogicalType
	targetType string
	err        error
}

func match(logical models.LogicalType, targetType string) phaseResult {
	return phaseResult{outcome: matched, logical: logical, targetType: targetType}
}

// Classifier decides a logical type and MySQL target type for a column.
type Classifier struct {
	rules *Rules
}

// NewClassifier creates a classifier over the given rules (DefaultRules when nil).
func NewClassifier(rules *Rules) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify returns (logicalType, targetType) for the non-null, trimmed values
// of a column. It never fails: an empty input is unknown/TEXT and any phase
// that cannot decide falls through to the next.
func (c *Classifier) Classify(values []string) (models.LogicalType, string) {
	if len(values) == 0 {
		return models.LogicalTypeUnknown, "TEXT"
	}

	phases := []func([]string) phaseResult{
		c.detectPattern,
		c.detectNumeric,
	}
	for _, phase := range phases {
		if res := phase(values); res.outcome == matched {
			return res.logical, res.targetType
		}
	}

	return c.sizeString(values)
}

// detectPattern accepts the first pattern, in declaration order, that matches
// more than PatternThreshold of the values.
func (c *Classifier) detectPattern(values []string) phaseResult {
	total := float64(len(values))
	for _, p := range c.rules.patterns {
		hits := 0
		for _, v := range values {
			if p.re.MatchString(v) {
				hits++
			}
		}
		if float64(hits) > total*c.rules.PatternThreshold {
			return match(p.Type, p.TargetType)
		}
	}
	return phaseResult{outcome: notApplicable}
}

// detectNumeric qualifies a column as numeric when at least NumericThreshold
// of the values coerce to finite numbers.
func (c *Classifier) detectNumeric(values []string) phaseResult {
	texts, numbers := numericValues(values)

	if float64(len(numbers)) < float64(len(values))*c.rules.NumericThreshold || len(numbers) == 0 {
		return phaseResult{outcome: notApplicable}
	}

	integral := true
	for _, f := range numbers {
		if math.Mod(f, 1) != 0 {
			integral = false
			break
		}
	}

	if integral {
		if res := c.classifyInteger(texts, numbers); res.outcome == matched {
			return res
		}
		// Integers beyond 64 bits only fit a floating point column.
		return match(models.LogicalTypeFloat, "FLOAT")
	}
	return c.classifyDecimal(numbers)
}

// classifyInteger picks the smallest MySQL integer container that holds
// every observed value. Bounds are compared exactly, not in float64.
func (c *Classifier) classifyInteger(texts []string, numbers []float64) phaseResult {
	var lo, hi *big.Int
	for i, text := range texts {
		v := exactInteger(text, numbers[i])
		if lo == nil || v.Cmp(lo) < 0 {
			lo = v
		}
		if hi == nil || v.Cmp(hi) > 0 {
			hi = v
		}
	}

	if lo.Sign() >= 0 {
		for _, band := range c.rules.UnsignedBands {
			if band.Contains(hi) {
				return match(band.Type, band.TargetType)
			}
		}
		return phaseResult{outcome: phaseError, err: fmt.Errorf("value %s exceeds BIGINT UNSIGNED", hi)}
	}

	for _, band := range c.rules.SignedBands {
		if band.Contains(lo) && band.Contains(hi) {
			return match(band.Type, band.TargetType)
		}
	}
	return phaseResult{outcome: phaseError, err: fmt.Errorf("range [%s, %s] exceeds BIGINT", lo, hi)}
}

// exactInteger returns the integer written in text, or the exact value of
// its integral float form for inputs such as "5.0" or "1e3".
func exactInteger(text string, f float64) *big.Int {
	if v, ok := new(big.Int).SetString(strings.TrimSpace(text), 10); ok {
		return v
	}
	v, _ := big.NewFloat(f).Int(nil)
	return v
}

// classifyDecimal sizes a fractional column by its maximum number of digits
// after the decimal point.
func (c *Classifier) classifyDecimal(numbers []float64) phaseResult {
	places, err := maxDecimalPlaces(numbers)
	if err != nil {
		return match(models.LogicalTypeDecimal, "DECIMAL(15,4)")
	}
	switch {
	case places <= 4:
		return match(models.LogicalTypeDecimal, "DECIMAL(15,4)")
	case places <= 6:
		return match(models.LogicalTypeDecimal, "DECIMAL(20,6)")
	default:
		return match(models.LogicalTypeFloat, "FLOAT")
	}
}

// sizeString picks the narrowest VARCHAR/TEXT band for the longest value.
func (c *Classifier) sizeString(values []string) (models.LogicalType, string) {
	maxLen := 0
	for _, v := range values {
		if n := utf8.RuneCountInString(v); n > maxLen {
			maxLen = n
		}
	}

	r := c.rules
	switch {
	case maxLen <= r.ShortStringMax:
		return models.LogicalTypeShortString, fmt.Sprintf("VARCHAR(%d)", min(50, maxLen+10))
	case maxLen <= r.StringMax:
		return models.LogicalTypeString, fmt.Sprintf("VARCHAR(%d)", min(255, maxLen+20))
	case maxLen <= r.VarcharMax:
		return models.LogicalTypeString, "VARCHAR(255)"
	case maxLen <= r.MediumStringMax:
		return models.LogicalTypeMediumString, "TEXT"
	default:
		return models.LogicalTypeLongString, "LONGTEXT"
	}
}

// parseNumber coerces a trimmed string to a finite float. NaN, infinities
// and hex literals such as 0x1p4 are treated as non-numeric.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || isHexLiteral(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// parseNumbers returns the values that coerce to finite numbers.
func parseNumbers(values []string) []float64 {
	_, numbers := numericValues(values)
	return numbers
}

// numericValues returns the values that coerce to finite numbers alongside
// their parsed form.
func numericValues(values []string) ([]string, []float64) {
	texts := make([]string, 0, len(values))
	numbers := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := parseNumber(v); ok {
			texts = append(texts, v)
			numbers = append(numbers, f)
		}
	}
	return texts, numbers
}

// maxDecimalPlaces counts fractional digits in the shortest decimal
// rendering of each number.
func maxDecimalPlaces(numbers []float64) (int, error) {
	maxPlaces := 0
	for _, f := range numbers {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("non-finite value %g", f)
		}
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if i := strings.IndexByte(s, '.'); i >= 0 {
			maxPlaces = max(maxPlaces, len(s)-i-1)
		}
	}
	return maxPlaces, nil
}
