package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/chartdeck-go/internal/branding"
	"github.com/user/chartdeck-go/internal/models"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the XLSX report.
const (
	SheetSummary     = "Summary"
	SheetColumns     = "Columns"
	SheetStats       = "Numeric Stats"
	SheetCorrelation = "Correlation"
)

// XLSXReportAdapter generates a workbook with one sheet per insight section.
type XLSXReportAdapter struct {
	// Theme colours the header rows; the zero value uses the default theme.
	Theme branding.Theme
	file  *excelize.File
}

// PrepareData builds the workbook in memory.
func (xra *XLSXReportAdapter) PrepareData(in *models.Insights) error {
	theme := xra.Theme
	if theme.Colors.PrimaryBlue == "" {
		theme = branding.Default()
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: strings.TrimPrefix(theme.Colors.White, "#")},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(theme.Colors.PrimaryBlue, "#")}},
	})
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create header style: %w", err)
	}

	primary := in.Primary.Error
	if in.Primary.Kind != "" {
		primary = fmt.Sprintf("%s (%.0f%%)", in.Primary.Kind, 100*in.Primary.Confidence)
	}
	summary := [][]interface{}{
		{"Metric", "Value"},
		{"Dataset", in.Name},
		{"Rows", in.Rows},
		{"Columns", in.Columns},
		{"Missing values", in.TotalMissing()},
		{"Completeness %", in.Quality.Completeness},
		{"Numeric ratio %", in.Quality.NumericRatio},
		{"Categorical ratio %", in.Quality.CategoricalRatio},
		{"Suggested chart", primary},
		{"Analyzed at", in.AnalyzedAt.Format("2006-01-02 15:04:05")},
	}

	columns := [][]interface{}{{"Column", "Type", "Missing", "Unique"}}
	for _, c := range columnRows(in) {
		columns = append(columns, []interface{}{c.Name, string(c.Type), c.Missing, c.Unique})
	}

	sheets := []struct {
		name string
		rows [][]interface{}
	}{
		{SheetSummary, summary},
		{SheetColumns, columns},
	}

	if rows := statsRows(in); len(rows) > 0 {
		stats := [][]interface{}{{"Column", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max"}}
		for _, s := range rows {
			stats = append(stats, []interface{}{s.Name, s.Count, s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max})
		}
		sheets = append(sheets, struct {
			name string
			rows [][]interface{}
		}{SheetStats, stats})
	}

	if in.Correlation != nil {
		head := []interface{}{""}
		for _, name := range in.Correlation.Columns {
			head = append(head, name)
		}
		corr := [][]interface{}{head}
		for i, name := range in.Correlation.Columns {
			row := []interface{}{name}
			for _, v := range in.Correlation.Values[i] {
				row = append(row, v)
			}
			corr = append(corr, row)
		}
		sheets = append(sheets, struct {
			name string
			rows [][]interface{}
		}{SheetCorrelation, corr})
	}

	for i, sheet := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(sheet.name); err != nil {
				f.Close()
				return fmt.Errorf("failed to add sheet %s: %w", sheet.name, err)
			}
		}
		if err := writeRows(f, sheet.name, sheet.rows, header); err != nil {
			f.Close()
			return err
		}
	}
	f.SetActiveSheet(0)

	if xra.file != nil {
		xra.file.Close()
	}
	xra.file = f
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, r+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

// Write saves the workbook to the specified output file.
func (xra *XLSXReportAdapter) Write(outputFilePath string) error {
	if xra.file == nil {
		return fmt.Errorf("no report prepared")
	}
	if err := os.MkdirAll(filepath.Dir(outputFilePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for report file %s: %w", outputFilePath, err)
	}
	if err := xra.file.SaveAs(outputFilePath); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", outputFilePath, err)
	}
	return nil
}
