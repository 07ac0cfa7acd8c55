// Package selector chooses a chart type and column roles from the shape of a dataset.
package selector

import (
	"fmt"

	"github.com/user/chartdeck-go/internal/models"
)

const (
	// DefaultPieMaxCategories is the largest category count still drawn as a pie.
	DefaultPieMaxCategories = 8
	// DefaultHistogramMinRows is the fewest rows a single numeric column needs for a histogram.
	DefaultHistogramMinRows = 20
)

// Options tunes the selection thresholds.
type Options struct {
	PieMaxCategories int `yaml:"pie_max_categories"`
	HistogramMinRows int `yaml:"histogram_min_rows"`
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		PieMaxCategories: DefaultPieMaxCategories,
		HistogramMinRows: DefaultHistogramMinRows,
	}
}

func (o Options) withDefaults() Options {
	if o.PieMaxCategories <= 0 {
		o.PieMaxCategories = DefaultPieMaxCategories
	}
	if o.HistogramMinRows <= 0 {
		o.HistogramMinRows = DefaultHistogramMinRows
	}
	return o
}

// Select picks the chart for shape using the default thresholds.
func Select(shape models.Shape) (models.Recommendation, error) {
	return SelectWithOptions(shape, DefaultOptions())
}

// SelectWithOptions picks the chart for shape. It fails with *InvalidShapeError for
// malformed input and *AmbiguousShapeError when no rule applies.
func SelectWithOptions(shape models.Shape, opts Options) (models.Recommendation, error) {
	return selectChart(shape, opts.withDefaults())
}

func selectChart(shape models.Shape, opts Options) (models.Recommendation, error) {
	if err := checkShape(shape); err != nil {
		return models.Recommendation{}, err
	}

	numeric := shape.ColumnsOf(models.Numeric)
	categorical := shape.ColumnsOf(models.Categorical)
	temporal := shape.ColumnsOf(models.Temporal)
	n, c, t := len(numeric), len(categorical), len(temporal)

	switch {
	case t == 1 && n == 1 && c == 0:
		return models.Recommendation{
			Kind:       models.Line,
			Roles:      models.RoleAssignment{Category: temporal[0], Value: numeric[0]},
			Confidence: 0.9,
			Reason:     fmt.Sprintf("%s changes over %s", numeric[0], temporal[0]),
		}, nil

	case c == 1 && n == 1 && t == 0:
		roles := models.RoleAssignment{Category: categorical[0], Value: numeric[0]}
		count := categoryCount(shape, categorical[0])
		if count <= opts.PieMaxCategories {
			return models.Recommendation{
				Kind:       models.Pie,
				Roles:      roles,
				Confidence: 0.8,
				Reason:     fmt.Sprintf("%d categories of %s share %s", count, categorical[0], numeric[0]),
			}, nil
		}
		return models.Recommendation{
			Kind:       models.Bar,
			Roles:      roles,
			Confidence: 0.8,
			Reason:     fmt.Sprintf("%s compared across %d categories of %s", numeric[0], count, categorical[0]),
		}, nil

	case n == 2 && c == 0 && t == 0:
		return models.Recommendation{
			Kind:       models.Scatter,
			Roles:      models.RoleAssignment{Category: numeric[0], Value: numeric[1]},
			Confidence: 0.8,
			Reason:     fmt.Sprintf("relationship between %s and %s", numeric[0], numeric[1]),
		}, nil

	case n == 1 && c == 0 && t == 0 && shape.Rows >= opts.HistogramMinRows:
		return models.Recommendation{
			Kind:       models.Histogram,
			Roles:      models.RoleAssignment{Value: numeric[0]},
			Confidence: 0.8,
			Bins:       HistogramBins(shape.Rows),
			Reason:     fmt.Sprintf("distribution of %s over %d rows", numeric[0], shape.Rows),
		}, nil

	case n >= 2 && c+t == 1:
		roles := models.RoleAssignment{Value: numeric[0], Series: append([]string(nil), numeric[1:]...)}
		if t == 1 {
			roles.Category = temporal[0]
			return models.Recommendation{
				Kind:       models.Area,
				Roles:      roles,
				Confidence: 0.7,
				Reason:     fmt.Sprintf("%d series over %s", n, temporal[0]),
			}, nil
		}
		roles.Category = categorical[0]
		return models.Recommendation{
			Kind:       models.Bar,
			Roles:      roles,
			Confidence: 0.7,
			Reason:     fmt.Sprintf("%d series compared across %s", n, categorical[0]),
		}, nil
	}

	return models.Recommendation{}, &AmbiguousShapeError{Numeric: n, Categorical: c, Temporal: t, Rows: shape.Rows}
}

// HistogramBins returns the bin count for a histogram over rows values.
func HistogramBins(rows int) int {
	bins := rows / 10
	if bins < 5 {
		bins = 5
	}
	if bins > 30 {
		bins = 30
	}
	return bins
}

func categoryCount(shape models.Shape, name string) int {
	col, _ := shape.Column(name)
	if col.Distinct > 0 {
		return col.Distinct
	}
	return shape.Rows
}

func checkShape(shape models.Shape) error {
	if len(shape.Columns) == 0 {
		return &InvalidShapeError{Reason: "no columns"}
	}
	if shape.Rows <= 0 {
		return &InvalidShapeError{Reason: fmt.Sprintf("row count %d", shape.Rows)}
	}
	seen := make(map[string]bool, len(shape.Columns))
	for i, c := range shape.Columns {
		if c.Name == "" {
			return &InvalidShapeError{Reason: fmt.Sprintf("column %d has no name", i)}
		}
		if seen[c.Name] {
			return &InvalidShapeError{Reason: fmt.Sprintf("duplicate column %q", c.Name)}
		}
		seen[c.Name] = true
		if !c.Type.Valid() {
			return &InvalidShapeError{Reason: fmt.Sprintf("column %q has unknown type %q", c.Name, c.Type)}
		}
		if c.Distinct < 0 {
			return &InvalidShapeError{Reason: fmt.Sprintf("column %q has negative distinct count", c.Name)}
		}
	}
	return nil
}
