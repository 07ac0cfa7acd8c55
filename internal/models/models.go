package models

import (
	"fmt"
	"strings"
	"time"
)

// ColumnType is the inferred type of a tabular column.
type ColumnType string

const (
	Numeric     ColumnType = "numeric"
	Categorical ColumnType = "categorical"
	Temporal    ColumnType = "temporal"
)

// Valid reports whether t is one of the known column types.
func (t ColumnType) Valid() bool {
	switch t {
	case Numeric, Categorical, Temporal:
		return true
	}
	return false
}

// ColumnDescriptor describes one column of a dataset shape.
type ColumnDescriptor struct {
	Name     string     `json:"name" yaml:"name"`
	Type     ColumnType `json:"type" yaml:"type"`
	Distinct int        `json:"distinct,omitempty" yaml:"distinct,omitempty"` // 0 when unknown
}

// Shape is the structural summary of a dataset that chart selection works on.
type Shape struct {
	Columns []ColumnDescriptor `json:"columns" yaml:"columns"`
	Rows    int                `json:"rows" yaml:"rows"`
}

// Column returns the descriptor with the given name.
func (s Shape) Column(name string) (ColumnDescriptor, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// ColumnsOf returns the names of the columns of type t, in column order.
func (s Shape) ColumnsOf(t ColumnType) []string {
	var names []string
	for _, c := range s.Columns {
		if c.Type == t {
			names = append(names, c.Name)
		}
	}
	return names
}

// Project returns a shape restricted to the named columns, keeping their order in the shape.
func (s Shape) Project(names ...string) Shape {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	projected := Shape{Rows: s.Rows}
	for _, c := range s.Columns {
		if keep[c.Name] {
			projected.Columns = append(projected.Columns, c)
		}
	}
	return projected
}

// ChartKind identifies a chart type.
type ChartKind string

const (
	Bar       ChartKind = "bar"
	Line      ChartKind = "line"
	Pie       ChartKind = "pie"
	Scatter   ChartKind = "scatter"
	Area      ChartKind = "area"
	Histogram ChartKind = "histogram"
)

// ChartKinds lists every supported chart kind.
var ChartKinds = []ChartKind{Bar, Line, Pie, Scatter, Area, Histogram}

// Role is the semantic purpose of a column in a chart.
type Role string

const (
	RoleCategory Role = "category"
	RoleValue    Role = "value"
	RoleSeries   Role = "series"
)

// RoleAssignment maps chart roles to column names.
type RoleAssignment struct {
	Category string   `json:"category,omitempty" yaml:"category,omitempty"`
	Value    string   `json:"value" yaml:"value"`
	Series   []string `json:"series,omitempty" yaml:"series,omitempty"`
}

// Columns returns every column referenced by the assignment, category first.
func (r RoleAssignment) Columns() []string {
	var cols []string
	if r.Category != "" {
		cols = append(cols, r.Category)
	}
	if r.Value != "" {
		cols = append(cols, r.Value)
	}
	return append(cols, r.Series...)
}

// ValueColumns returns the value column followed by the series columns.
func (r RoleAssignment) ValueColumns() []string {
	cols := []string{r.Value}
	return append(cols, r.Series...)
}

// Equal reports whether two assignments reference the same columns in the same roles.
func (r RoleAssignment) Equal(o RoleAssignment) bool {
	if r.Category != o.Category || r.Value != o.Value || len(r.Series) != len(o.Series) {
		return false
	}
	for i := range r.Series {
		if r.Series[i] != o.Series[i] {
			return false
		}
	}
	return true
}

// Recommendation is the outcome of chart selection.
type Recommendation struct {
	Kind       ChartKind      `json:"chart_type" yaml:"chart_type"`
	Roles      RoleAssignment `json:"roles" yaml:"roles"`
	Confidence float64        `json:"confidence" yaml:"confidence"`
	Bins       int            `json:"bins,omitempty" yaml:"bins,omitempty"`
	Reason     string         `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Same reports whether two recommendations describe the same chart, ignoring confidence and reason.
func (r Recommendation) Same(o Recommendation) bool {
	return r.Kind == o.Kind && r.Bins == o.Bins && r.Roles.Equal(o.Roles)
}

// String renders a short description, e.g. "bar(Region -> Sales)".
func (r Recommendation) String() string {
	var b strings.Builder
	b.WriteString(string(r.Kind))
	b.WriteString("(")
	if r.Roles.Category != "" {
		b.WriteString(r.Roles.Category)
		b.WriteString(" -> ")
	}
	b.WriteString(strings.Join(r.Roles.ValueColumns(), ", "))
	b.WriteString(")")
	return b.String()
}

// Column holds the values of one loaded column.
// Numbers is populated for numeric columns and Times for temporal ones;
// a missing value is NaN or the zero time.
type Column struct {
	Name    string
	Type    ColumnType
	Raw     []string
	Numbers []float64
	Times   []time.Time
}

// Missing reports whether row i has no usable value.
func (c *Column) Missing(i int) bool {
	switch c.Type {
	case Numeric:
		return c.Numbers[i] != c.Numbers[i]
	case Temporal:
		return c.Times[i].IsZero()
	default:
		return IsMissing(c.Raw[i])
	}
}

// Dataset is a loaded table.
type Dataset struct {
	Name    string
	Columns []*Column
	Rows    int
}

// Column returns the named column.
func (d *Dataset) Column(name string) (*Column, error) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("column %q not found in dataset %s", name, d.Name)
}

// Project returns a dataset holding only the named columns, in the order given.
// The columns are shared with d.
func (d *Dataset) Project(names ...string) (*Dataset, error) {
	projected := &Dataset{Name: d.Name, Rows: d.Rows, Columns: make([]*Column, 0, len(names))}
	for _, name := range names {
		c, err := d.Column(name)
		if err != nil {
			return nil, err
		}
		projected.Columns = append(projected.Columns, c)
	}
	return projected, nil
}

// Shape summarises the dataset for chart selection.
func (d *Dataset) Shape() Shape {
	shape := Shape{Rows: d.Rows, Columns: make([]ColumnDescriptor, 0, len(d.Columns))}
	for _, c := range d.Columns {
		distinct := make(map[string]struct{})
		for i, v := range c.Raw {
			if !c.Missing(i) {
				distinct[strings.TrimSpace(v)] = struct{}{}
			}
		}
		shape.Columns = append(shape.Columns, ColumnDescriptor{Name: c.Name, Type: c.Type, Distinct: len(distinct)})
	}
	return shape
}

// IsMissing reports whether a raw cell value denotes a missing value.
func IsMissing(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "null", "NULL", "NaN", "nan", "N/A", "n/a", "NA", "-":
		return true
	}
	return false
}

// NumericStats holds the descriptive statistics of a numeric column.
type NumericStats struct {
	Count float64 `json:"count" yaml:"count"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Std   float64 `json:"std" yaml:"std"`
	Min   float64 `json:"min" yaml:"min"`
	Q25   float64 `json:"25%" yaml:"25%"`
	Q50   float64 `json:"50%" yaml:"50%"`
	Q75   float64 `json:"75%" yaml:"75%"`
	Max   float64 `json:"max" yaml:"max"`
}

// Correlation is a Pearson correlation matrix over numeric columns.
type Correlation struct {
	Columns []string    `json:"columns" yaml:"columns"`
	Values  [][]float64 `json:"values" yaml:"values"`
}

// DataQuality summarises completeness and column mix, as percentages.
type DataQuality struct {
	Completeness     float64 `json:"completeness" yaml:"completeness"`
	NumericRatio     float64 `json:"numeric_ratio" yaml:"numeric_ratio"`
	CategoricalRatio float64 `json:"categorical_ratio" yaml:"categorical_ratio"`
}

// PrimaryChart is the best single chart for a dataset, or why none could be chosen.
type PrimaryChart struct {
	Kind       ChartKind `json:"primary_chart,omitempty" yaml:"primary_chart,omitempty"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Insights is the analysis of a dataset.
type Insights struct {
	Name               string                  `json:"name" yaml:"name"`
	Rows               int                     `json:"rows" yaml:"rows"`
	Columns            int                     `json:"columns" yaml:"columns"`
	ColumnNames        []string                `json:"column_names" yaml:"column_names"`
	ColumnTypes        map[string]ColumnType   `json:"dtypes" yaml:"dtypes"`
	NumericColumns     []string                `json:"numeric_columns" yaml:"numeric_columns"`
	CategoricalColumns []string                `json:"categorical_columns" yaml:"categorical_columns"`
	TemporalColumns    []string                `json:"datetime_columns" yaml:"datetime_columns"`
	MissingValues      map[string]int          `json:"missing_values" yaml:"missing_values"`
	UniqueCounts       map[string]int          `json:"unique_counts" yaml:"unique_counts"`
	NumericStats       map[string]NumericStats `json:"numeric_stats,omitempty" yaml:"numeric_stats,omitempty"`
	Correlation        *Correlation            `json:"correlation_matrix,omitempty" yaml:"correlation_matrix,omitempty"`
	Quality            DataQuality             `json:"data_quality" yaml:"data_quality"`
	Primary            PrimaryChart            `json:"recommendations" yaml:"recommendations"`
	AnalyzedAt         time.Time               `json:"analyzed_at" yaml:"analyzed_at"`
}

// TotalMissing sums missing values across columns.
func (in *Insights) TotalMissing() int {
	total := 0
	for _, n := range in.MissingValues {
		total += n
	}
	return total
}
