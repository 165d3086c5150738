package inference

import (
	"strings"

	"github.com/ekaya-inc/schemasense/pkg/models"
)

const maxSampleValues = 5

// Engine runs the classifier and quality analyzer over every column of a table.
type Engine struct {
	classifier *Classifier
	analyzer   *Analyzer
}

// NewEngine creates an engine over the given rules (DefaultRules when nil).
func NewEngine(rules *Rules) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Engine{
		classifier: NewClassifier(rules),
		analyzer:   NewAnalyzer(rules),
	}
}

// AnalyzeTable returns one analysis per column, in column order.
func (e *Engine) AnalyzeTable(table *models.Table) []*models.ColumnAnalysis {
	out := make([]*models.ColumnAnalysis, 0, table.ColumnCount())
	for _, col := range table.Columns {
		out = append(out, e.AnalyzeColumn(col))
	}
	return out
}

// AnalyzeColumn computes counts, samples, type and findings for one column.
// Empty and all-null columns are valid input.
func (e *Engine) AnalyzeColumn(col models.Column) *models.ColumnAnalysis {
	nonNull := col.NonNull()
	total := len(col.Values)
	nullCount := total - len(nonNull)

	var nullPct float64
	if total > 0 {
		nullPct = float64(nullCount) / float64(total) * 100
	}

	distinct := make(map[string]struct{}, len(nonNull))
	trimmed := make([]string, len(nonNull))
	for i, v := range nonNull {
		distinct[v] = struct{}{}
		trimmed[i] = strings.TrimSpace(v)
	}

	samples := make([]string, min(maxSampleValues, len(nonNull)))
	copy(samples, nonNull)

	logical, target := e.classifier.Classify(trimmed)

	return &models.ColumnAnalysis{
		Name:                    col.Name,
		LogicalType:             logical,
		TargetType:              target,
		SampleValues:            samples,
		NullCount:               nullCount,
		UniqueCount:             len(distinct),
		TotalCount:              total,
		NullPercentage:          models.Round2(nullPct),
		CleaningRecommendations: e.analyzer.Analyze(nonNull, nullPct, logical),
	}
}
