package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ekaya-inc/schemasense/pkg/models"
)

// MaxDescriptionLength bounds every description, remote or rule-based.
const MaxDescriptionLength = 200

// highNullRate is the null percentage above which a description mentions it,
// and above which the remote prompt includes it.
const highNullRate = 20.0

// nameRule maps column-name keywords to a description. Rules are checked in
// order and keywords match anywhere in the lowercased name.
type nameRule struct {
	keywords []string
	describe func(human string) string
}

var nameRules = []nameRule{
	{[]string{"id", "key", "pk"}, func(h string) string { return "Unique identifier field for " + h }},
	{[]string{"name", "title"}, func(string) string { return "Name or title field containing descriptive text" }},
	{[]string{"date", "time", "created", "updated", "modified"}, func(h string) string { return "Timestamp field for " + h + " events" }},
	{[]string{"email", "mail"}, func(string) string { return "Email address field with validation format requirements" }},
	{[]string{"phone", "tel", "mobile"}, func(string) string { return "Phone number field supporting various international formats" }},
	{[]string{"url", "link", "website"}, func(string) string { return "URL field for web addresses and external links" }},
	{[]string{"address", "addr", "location"}, func(h string) string { return "Address field storing " + h + " information" }},
	{[]string{"amount", "price", "cost", "value", "total", "sum"}, func(h string) string { return "Monetary value field for " + h + " calculations" }},
	{[]string{"count", "number", "qty", "quantity"}, func(h string) string { return "Numeric count field for " + h + " tracking" }},
	{[]string{"status", "state", "flag"}, func(h string) string { return "Status indicator field for " + h }},
	{[]string{"description", "desc", "comment", "note"}, func(h string) string { return "Descriptive text field containing " + h + " details" }},
}

// RuleBasedDescription derives a description from the column name, falling
// back to its type, with a data-quality suffix where relevant. The result is
// never empty and at most MaxDescriptionLength characters.
func RuleBasedDescription(col *models.ColumnAnalysis) string {
	desc := baseDescription(col)

	switch {
	case col.NullPercentage > highNullRate:
		desc += " (High null rate: " + formatPercent(col.NullPercentage) + "%)"
	case len(col.CleaningRecommendations) > 2:
		desc += " (Multiple data quality issues detected)"
	}

	return truncateRunes(desc, MaxDescriptionLength)
}

func baseDescription(col *models.ColumnAnalysis) string {
	lower := strings.ToLower(col.Name)
	human := humanize(col.Name)

	for _, rule := range nameRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.describe(human)
			}
		}
	}

	switch {
	case col.LogicalType == models.LogicalTypeBoolean:
		return fmt.Sprintf("Boolean flag indicating %s state", human)
	case col.LogicalType.IsNumeric():
		return fmt.Sprintf("Numeric field (%s) with %d unique values", col.TargetType, col.UniqueCount)
	case col.LogicalType.IsString():
		return fmt.Sprintf("Text field (%s) containing %s data", col.TargetType, human)
	default:
		return fmt.Sprintf("Data field of type %s with %d distinct values", col.TargetType, col.UniqueCount)
	}
}

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// humanize turns "orderDate" or "order_date" into "order date".
func humanize(name string) string {
	h := strings.ReplaceAll(name, "_", " ")
	h = camelBoundary.ReplaceAllString(h, "$1 $2")
	return strings.TrimSpace(strings.ToLower(h))
}

// formatPercent renders a rounded percentage with at least one decimal,
// e.g. 25 -> "25.0", 33.33 -> "33.33".
func formatPercent(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
