// Package analyzer computes descriptive insights for a loaded dataset.
package analyzer

import (
	"math"
	"sort"
	"time"

	"github.com/user/chartdeck-go/internal/models"
	"github.com/user/chartdeck-go/internal/selector"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Analyze summarises ds. Statistics that are undefined for the data (for
// example the deviation of a single value) are reported as 0 so the result
// always serialises.
func Analyze(ds *models.Dataset, opts selector.Options) *models.Insights {
	shape := ds.Shape()
	in := &models.Insights{
		Name:          ds.Name,
		Rows:          ds.Rows,
		Columns:       len(ds.Columns),
		ColumnTypes:   make(map[string]models.ColumnType, len(ds.Columns)),
		MissingValues: make(map[string]int, len(ds.Columns)),
		UniqueCounts:  make(map[string]int, len(ds.Columns)),
		AnalyzedAt:    time.Now().UTC(),
	}

	totalMissing := 0
	for i, col := range ds.Columns {
		in.ColumnNames = append(in.ColumnNames, col.Name)
		in.ColumnTypes[col.Name] = col.Type
		in.UniqueCounts[col.Name] = shape.Columns[i].Distinct
		missing := 0
		for r := 0; r < ds.Rows; r++ {
			if col.Missing(r) {
				missing++
			}
		}
		in.MissingValues[col.Name] = missing
		totalMissing += missing

		switch col.Type {
		case models.Numeric:
			in.NumericColumns = append(in.NumericColumns, col.Name)
		case models.Categorical:
			in.CategoricalColumns = append(in.CategoricalColumns, col.Name)
		case models.Temporal:
			in.TemporalColumns = append(in.TemporalColumns, col.Name)
		}
	}

	if len(in.NumericColumns) > 0 {
		in.NumericStats = make(map[string]models.NumericStats, len(in.NumericColumns))
		for _, name := range in.NumericColumns {
			col, _ := ds.Column(name)
			in.NumericStats[name] = Describe(col.Numbers)
		}
	}
	if len(in.NumericColumns) >= 2 {
		in.Correlation = correlate(ds, in.NumericColumns)
	}

	if cells := ds.Rows * len(ds.Columns); cells > 0 {
		in.Quality.Completeness = 100 * (1 - float64(totalMissing)/float64(cells))
	}
	if n := len(ds.Columns); n > 0 {
		in.Quality.NumericRatio = 100 * float64(len(in.NumericColumns)) / float64(n)
		in.Quality.CategoricalRatio = 100 * float64(len(in.CategoricalColumns)) / float64(n)
	}

	rec, err := selector.SelectWithOptions(shape, opts)
	if err != nil {
		in.Primary.Error = err.Error()
	} else {
		in.Primary.Kind = rec.Kind
		in.Primary.Confidence = rec.Confidence
	}
	return in
}

// Describe computes count, mean, sample standard deviation, quartiles and range
// of the non-NaN values.
func Describe(values []float64) models.NumericStats {
	xs := present(values)
	if len(xs) == 0 {
		return models.NumericStats{}
	}
	sort.Float64s(xs)
	mean, std := stat.MeanStdDev(xs, nil)
	return models.NumericStats{
		Count: float64(len(xs)),
		Mean:  finite(mean),
		Std:   finite(std),
		Min:   floats.Min(xs),
		Q25:   quantile(0.25, xs),
		Q50:   quantile(0.50, xs),
		Q75:   quantile(0.75, xs),
		Max:   floats.Max(xs),
	}
}

// quantile interpolates linearly between the closest ranks of sorted xs.
func quantile(p float64, xs []float64) float64 {
	if len(xs) == 1 {
		return xs[0]
	}
	pos := p * float64(len(xs)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return xs[lo] + frac*(xs[hi]-xs[lo])
}

func correlate(ds *models.Dataset, names []string) *models.Correlation {
	n := len(names)
	corr := &models.Correlation{Columns: names, Values: make([][]float64, n)}
	cols := make([][]float64, n)
	for i, name := range names {
		col, _ := ds.Column(name)
		cols[i] = col.Numbers
		corr.Values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		corr.Values[i][i] = 1
		for j := i + 1; j < n; j++ {
			x, y := pairwise(cols[i], cols[j])
			v := 0.0
			if len(x) >= 2 {
				v = finite(stat.Correlation(x, y, nil))
			}
			corr.Values[i][j] = v
			corr.Values[j][i] = v
		}
	}
	return corr
}

// pairwise keeps the rows where both x and y are present.
func pairwise(x, y []float64) ([]float64, []float64) {
	var px, py []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		px = append(px, x[i])
		py = append(py, y[i])
	}
	return px, py
}

func present(values []float64) []float64 {
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			xs = append(xs, v)
		}
	}
	return xs
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
