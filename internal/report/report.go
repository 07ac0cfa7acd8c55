package report

import (
	"bytes"
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/user/chartdeck-go/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ReportAdapter defines the interface for generating different report formats.
type ReportAdapter interface {
	PrepareData(in *models.Insights) error
	Write(outputFilePath string) error
}

// Formats lists the report formats accepted by NewReportAdapter.
var Formats = []string{"json", "yaml", "xlsx", "html"}

// NewReportAdapter returns the adapter for format.
func NewReportAdapter(format string) (ReportAdapter, error) {
	switch strings.ToLower(format) {
	case "json":
		return &JSONReportAdapter{}, nil
	case "yaml", "yml":
		return &YAMLReportAdapter{}, nil
	case "xlsx", "excel":
		return &XLSXReportAdapter{}, nil
	case "html":
		return &HTMLReportAdapter{}, nil
	}
	return nil, fmt.Errorf("unsupported report format %q, valid formats: %s", format, strings.Join(Formats, ", "))
}

func writeFile(outputFilePath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(outputFilePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for report file %s: %w", outputFilePath, err)
	}
	return os.WriteFile(outputFilePath, data, 0644)
}

// --- JSON Report Adapter ---

// JSONReportAdapter generates reports in JSON format.
type JSONReportAdapter struct {
	reportData []byte
}

// PrepareData marshals the insights into indented JSON.
func (jra *JSONReportAdapter) PrepareData(in *models.Insights) error {
	jsonData, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data to JSON: %w", err)
	}
	jra.reportData = jsonData
	return nil
}

// Write saves the JSON report data to the specified output file.
func (jra *JSONReportAdapter) Write(outputFilePath string) error {
	return writeFile(outputFilePath, jra.reportData)
}

// --- YAML Report Adapter ---

// YAMLReportAdapter generates reports in YAML format.
type YAMLReportAdapter struct {
	reportData []byte
}

// PrepareData marshals the insights into YAML.
func (yra *YAMLReportAdapter) PrepareData(in *models.Insights) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(in); err != nil {
		return fmt.Errorf("failed to marshal data to YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal data to YAML: %w", err)
	}
	yra.reportData = buf.Bytes()
	return nil
}

// Write saves the YAML report data to the specified output file.
func (yra *YAMLReportAdapter) Write(outputFilePath string) error {
	return writeFile(outputFilePath, yra.reportData)
}

// --- HTML Report Adapter ---

//go:embed templates/report.html.tmpl
var templateFS embed.FS

// ChartImage is a rendered chart embedded in the HTML report.
type ChartImage struct {
	Title string
	PNG   []byte
}

// HTMLReportAdapter generates a standalone HTML page.
type HTMLReportAdapter struct {
	// Charts are inlined as data URIs after the tables.
	Charts    []ChartImage
	reportBuf bytes.Buffer
}

// FuncMap returns the helpers available to the HTML template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"Title": func(s string) string { return cases.Title(language.English).String(s) },
		"Comma": func(n int) string { return humanize.Comma(int64(n)) },
		"Float": func(v float64) string { return humanize.FormatFloat("#,###.##", v) },
		"Percent": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v)
		},
		"Confidence": func(v float64) string {
			return fmt.Sprintf("%.0f%%", 100*v)
		},
		"FormatDateTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05 MST")
		},
		"DataURI": func(png []byte) template.URL {
			return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
		},
	}
}

type columnRow struct {
	Name    string
	Type    models.ColumnType
	Missing int
	Unique  int
}

type statsRow struct {
	Name string
	models.NumericStats
}

// PrepareData renders the HTML page.
func (hra *HTMLReportAdapter) PrepareData(in *models.Insights) error {
	tmpl, err := template.New("report.html.tmpl").Funcs(FuncMap()).ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return fmt.Errorf("failed to parse HTML template: %w", err)
	}

	templateData := struct {
		Data    *models.Insights
		Columns []columnRow
		Stats   []statsRow
		Charts  []ChartImage
	}{
		Data:    in,
		Columns: columnRows(in),
		Stats:   statsRows(in),
		Charts:  hra.Charts,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData); err != nil {
		return fmt.Errorf("failed to execute HTML template: %w", err)
	}
	hra.reportBuf = buf
	return nil
}

// Write saves the HTML report data to the specified output file.
func (hra *HTMLReportAdapter) Write(outputFilePath string) error {
	return writeFile(outputFilePath, hra.reportBuf.Bytes())
}

// columnRows lists columns in dataset order, falling back to name order for
// insights decoded without ColumnNames.
func columnRows(in *models.Insights) []columnRow {
	names := in.ColumnNames
	if len(names) == 0 {
		for name := range in.ColumnTypes {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	rows := make([]columnRow, 0, len(names))
	for _, name := range names {
		rows = append(rows, columnRow{
			Name:    name,
			Type:    in.ColumnTypes[name],
			Missing: in.MissingValues[name],
			Unique:  in.UniqueCounts[name],
		})
	}
	return rows
}

func statsRows(in *models.Insights) []statsRow {
	rows := make([]statsRow, 0, len(in.NumericColumns))
	for _, name := range in.NumericColumns {
		if s, ok := in.NumericStats[name]; ok {
			rows = append(rows, statsRow{Name: name, NumericStats: s})
		}
	}
	return rows
}
