package chart

import (
	"fmt"
	"math"
	"sort"

	"github.com/user/chartdeck-go/internal/models"
)

// maxBarCategories bounds the bars drawn per series; the largest totals are kept.
const maxBarCategories = 25

// maxPieSlices bounds pie wedges; smaller categories are folded into "Other".
const maxPieSlices = 12

// label returns the display label of row i of c.
func label(c *models.Column, i int) string {
	if c.Type == models.Temporal && !c.Times[i].IsZero() {
		return c.Times[i].Format("2006-01-02")
	}
	return c.Raw[i]
}

// grouped holds per-category sums of one or more value columns, in first-seen category order.
type grouped struct {
	categories []string
	sums       [][]float64 // [series][category]
}

func groupSums(ds *models.Dataset, category string, values []string) (*grouped, error) {
	cat, err := ds.Column(category)
	if err != nil {
		return nil, err
	}
	cols := make([]*models.Column, len(values))
	for i, name := range values {
		if cols[i], err = ds.Column(name); err != nil {
			return nil, err
		}
		if cols[i].Type != models.Numeric {
			return nil, fmt.Errorf("value column %q is %s, want numeric", name, cols[i].Type)
		}
	}

	g := &grouped{sums: make([][]float64, len(values))}
	index := make(map[string]int)
	for r := 0; r < ds.Rows; r++ {
		if cat.Missing(r) {
			continue
		}
		key := label(cat, r)
		k, ok := index[key]
		if !ok {
			k = len(g.categories)
			index[key] = k
			g.categories = append(g.categories, key)
			for s := range g.sums {
				g.sums[s] = append(g.sums[s], 0)
			}
		}
		for s, col := range cols {
			if v := col.Numbers[r]; !math.IsNaN(v) {
				g.sums[s][k] += v
			}
		}
	}
	if len(g.categories) == 0 {
		return nil, fmt.Errorf("no rows with a %s value", category)
	}
	return g, nil
}

// top keeps the n categories with the largest absolute total across series, preserving order.
func (g *grouped) top(n int) {
	if len(g.categories) <= n {
		return
	}
	totals := make([]float64, len(g.categories))
	for _, series := range g.sums {
		for k, v := range series {
			totals[k] += math.Abs(v)
		}
	}
	order := make([]int, len(totals))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return totals[order[a]] > totals[order[b]] })
	keep := order[:n]
	sort.Ints(keep)

	cats := make([]string, n)
	sums := make([][]float64, len(g.sums))
	for s := range sums {
		sums[s] = make([]float64, n)
	}
	for i, k := range keep {
		cats[i] = g.categories[k]
		for s := range sums {
			sums[s][i] = g.sums[s][k]
		}
	}
	g.categories, g.sums = cats, sums
}

// xValue maps row i of an axis column onto a float: unix seconds for times,
// the number itself for numeric columns.
func xValue(c *models.Column, i int) (float64, bool) {
	switch c.Type {
	case models.Temporal:
		if c.Times[i].IsZero() {
			return 0, false
		}
		return float64(c.Times[i].Unix()), true
	case models.Numeric:
		v := c.Numbers[i]
		return v, !math.IsNaN(v)
	}
	return 0, false
}

// finiteValues returns the non-NaN values of a numeric column.
func finiteValues(c *models.Column) []float64 {
	out := make([]float64, 0, len(c.Numbers))
	for _, v := range c.Numbers {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
