package sql

import (
	"strings"

	"github.com/ekaya-inc/schemasense/pkg/models"
)

const (
	commentLimit = 100
	columnIndent = "    "
	tableOptions = ") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;"
)

// GenerateCreateTable renders a MySQL CREATE TABLE statement for the analyzed
// columns, in input order. It never fails: every name is sanitized and every
// comment escaped.
func GenerateCreateTable(tableName string, columns []*models.ColumnAnalysis) string {
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}
	idents := ColumnIdentifiers(names)

	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = columnDefinition(idents[i], col)
	}

	parts := []string{
		"CREATE TABLE " + QuoteIdentifier(SanitizeIdentifier(tableName)) + " (",
		strings.Join(defs, ",\n"),
		tableOptions,
	}
	return strings.Join(parts, "\n")
}

func columnDefinition(ident string, col *models.ColumnAnalysis) string {
	parts := []string{columnIndent + QuoteIdentifier(ident), col.TargetType}
	if col.NullCount > 0 {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}
	if col.Description != "" {
		parts = append(parts, "COMMENT '"+EscapeComment(col.Description, commentLimit)+"'")
	}
	return strings.Join(parts, " ")
}

// ColumnIdentifiers returns the identifiers GenerateCreateTable would emit
// for the given column names.
func ColumnIdentifiers(names []string) []string {
	used := identifierSet{}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = used.claim(ColumnIdentifier(name))
	}
	return out
}
