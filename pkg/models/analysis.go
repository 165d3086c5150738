package models

import (
	"math"

	"github.com/google/uuid"
)

// LogicalType is the engine's classification tag for a column.
type LogicalType string

const (
	LogicalTypeUnknown LogicalType = "unknown"

	// Pattern types.
	LogicalTypeEmail   LogicalType = "email"
	LogicalTypePhone   LogicalType = "phone"
	LogicalTypeURL     LogicalType = "url"
	LogicalTypeDate    LogicalType = "date"
	LogicalTypeTime    LogicalType = "time"
	LogicalTypeBoolean LogicalType = "boolean"
	LogicalTypeUUID    LogicalType = "uuid"

	// Numeric types.
	LogicalTypeTinyIntUnsigned  LogicalType = "tinyint_unsigned"
	LogicalTypeSmallIntUnsigned LogicalType = "smallint_unsigned"
	LogicalTypeIntUnsigned      LogicalType = "int_unsigned"
	LogicalTypeBigIntUnsigned   LogicalType = "bigint_unsigned"
	LogicalTypeTinyInt          LogicalType = "tinyint"
	LogicalTypeSmallInt         LogicalType = "smallint"
	LogicalTypeInt              LogicalType = "int"
	LogicalTypeBigInt           LogicalType = "bigint"
	LogicalTypeDecimal          LogicalType = "decimal"
	LogicalTypeFloat            LogicalType = "float"

	// String length tiers.
	LogicalTypeShortString  LogicalType = "short_string"
	LogicalTypeString       LogicalType = "string"
	LogicalTypeMediumString LogicalType = "medium_string"
	LogicalTypeLongString   LogicalType = "long_string"
)

// IsString reports whether the type belongs to the string-length family.
func (t LogicalType) IsString() bool {
	switch t {
	case LogicalTypeShortString, LogicalTypeString, LogicalTypeMediumString, LogicalTypeLongString:
		return true
	}
	return false
}

// IsNumeric reports whether the type is an integer, decimal or float variant.
func (t LogicalType) IsNumeric() bool {
	switch t {
	case LogicalTypeTinyIntUnsigned, LogicalTypeSmallIntUnsigned, LogicalTypeIntUnsigned, LogicalTypeBigIntUnsigned,
		LogicalTypeTinyInt, LogicalTypeSmallInt, LogicalTypeInt, LogicalTypeBigInt,
		LogicalTypeDecimal, LogicalTypeFloat:
		return true
	}
	return false
}

// ColumnAnalysis is everything known about one column after analysis.
// Description is empty until the description provider fills it in.
type ColumnAnalysis struct {
	Name                    string      `json:"name" yaml:"name"`
	LogicalType             LogicalType `json:"data_type" yaml:"data_type"`
	TargetType              string      `json:"mysql_type" yaml:"mysql_type"`
	SampleValues            []string    `json:"sample_values" yaml:"sample_values"`
	NullCount               int         `json:"null_count" yaml:"null_count"`
	UniqueCount             int         `json:"unique_count" yaml:"unique_count"`
	TotalCount              int         `json:"total_count" yaml:"total_count"`
	NullPercentage          float64     `json:"null_percentage" yaml:"null_percentage"`
	Description             string      `json:"description" yaml:"description"`
	CleaningRecommendations []string    `json:"cleaning_recommendations" yaml:"cleaning_recommendations"`
}

// FileInfo is basic metadata about the parsed file.
type FileInfo struct {
	Name      string `json:"name" yaml:"name"`
	Separator string `json:"separator" yaml:"separator"`
	Encoding  string `json:"encoding" yaml:"encoding"`
	Rows      int    `json:"rows" yaml:"rows"`
	Columns   int    `json:"columns" yaml:"columns"`
}

// AnalysisSummary holds table-level statistics.
type AnalysisSummary struct {
	TotalColumns         int     `json:"total_columns" yaml:"total_columns"`
	ColumnsWithNulls     int     `json:"columns_with_nulls" yaml:"columns_with_nulls"`
	AvgNullPercentage    float64 `json:"avg_null_percentage" yaml:"avg_null_percentage"`
	TotalRecommendations int     `json:"total_recommendations" yaml:"total_recommendations"`
}

// AnalysisResult is the complete artifact returned for one analyzed file.
type AnalysisResult struct {
	Success    bool              `json:"success" yaml:"success"`
	AnalysisID uuid.UUID         `json:"analysis_id" yaml:"analysis_id"`
	TableName  string            `json:"table_name" yaml:"table_name"`
	FileInfo   FileInfo          `json:"file_info" yaml:"file_info"`
	DDL        string            `json:"ddl" yaml:"ddl"`
	Columns    []*ColumnAnalysis `json:"columns" yaml:"columns"`
	Summary    AnalysisSummary   `json:"summary" yaml:"summary"`
}

// NewAnalysisSummary computes summary statistics over analyzed columns.
func NewAnalysisSummary(columns []*ColumnAnalysis) AnalysisSummary {
	summary := AnalysisSummary{TotalColumns: len(columns)}
	if len(columns) == 0 {
		return summary
	}

	var nullPctSum float64
	for _, col := range columns {
		if col.NullCount > 0 {
			summary.ColumnsWithNulls++
		}
		nullPctSum += col.NullPercentage
		summary.TotalRecommendations += len(col.CleaningRecommendations)
	}
	summary.AvgNullPercentage = Round2(nullPctSum / float64(len(columns)))
	return summary
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
