package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/schemasense/pkg/models"
)

const (
	formatDDL   = "ddl"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

func validateFormat(format string) error {
	switch format {
	case formatDDL, formatJSON, formatYAML, formatTable:
		return nil
	}
	return fmt.Errorf("unsupported output format %q: use ddl, json, yaml or table", format)
}

func render(w io.Writer, result *models.AnalysisResult, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	case formatTable:
		return renderTable(w, result)
	default:
		_, err := fmt.Fprintln(w, result.DDL)
		return err
	}
}

func renderTable(w io.Writer, result *models.AnalysisResult) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s (%s, %d rows, separator %q, %s)",
		result.TableName, result.FileInfo.Name, result.FileInfo.Rows, result.FileInfo.Separator, result.FileInfo.Encoding))

	t.AppendHeader(table.Row{"Column", "Type", "MySQL", "Nulls", "Null %", "Unique", "Issues", "Description"})
	for _, col := range result.Columns {
		t.AppendRow(table.Row{
			col.Name,
			col.LogicalType,
			col.TargetType,
			col.NullCount,
			fmt.Sprintf("%.2f", col.NullPercentage),
			col.UniqueCount,
			len(col.CleaningRecommendations),
			col.Description,
		})
	}

	s := result.Summary
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d columns", s.TotalColumns), "", "",
		fmt.Sprintf("%d with nulls", s.ColumnsWithNulls),
		fmt.Sprintf("avg %.2f", s.AvgNullPercentage), "",
		s.TotalRecommendations, "",
	})

	t.Render()
	return nil
}
