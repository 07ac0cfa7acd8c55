package chart

import (
	"fmt"
	"math"
	"sort"

	"github.com/user/chartdeck-go/internal/branding"
	"github.com/user/chartdeck-go/internal/models"
	"github.com/user/chartdeck-go/internal/selector"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

func drawBar(p *plot.Plot, ds *models.Dataset, rec models.Recommendation, style branding.Style, opts RenderOptions) error {
	if rec.Roles.Category == "" {
		return fmt.Errorf("category column required")
	}
	names := rec.Roles.ValueColumns()
	g, err := groupSums(ds, rec.Roles.Category, names)
	if err != nil {
		return err
	}
	g.top(maxBarCategories)

	addGrid(p, style)
	n := len(g.sums)
	width := opts.Width * 0.8 / vg.Length(len(g.categories)) * 0.8
	if !opts.Stacked && n > 1 {
		width /= vg.Length(n)
	}
	edge := branding.MustParseHex(style.EdgeColor)

	var prev *plotter.BarChart
	for s, sums := range g.sums {
		bars, err := plotter.NewBarChart(plotter.Values(sums), width)
		if err != nil {
			return fmt.Errorf("series %s: %w", names[s], err)
		}
		bars.Color = seriesColor(style, s)
		bars.LineStyle.Color = edge
		bars.LineStyle.Width = vg.Points(style.EdgeWidth)
		switch {
		case opts.Stacked && prev != nil:
			bars.StackOn(prev)
		case !opts.Stacked && n > 1:
			bars.Offset = width * (vg.Length(s) - vg.Length(n-1)/2)
		}
		p.Add(bars)
		if n > 1 {
			p.Legend.Add(names[s], bars)
		}
		prev = bars
	}

	p.NominalX(g.categories...)
	if len(g.categories) > 6 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
	}
	p.X.Label.Text = rec.Roles.Category
	if n == 1 {
		p.Y.Label.Text = rec.Roles.Value
	}
	return nil
}

// drawLine draws line and area charts. Rows are ordered by the category axis;
// stacked areas treat missing values as zero.
func drawLine(p *plot.Plot, ds *models.Dataset, rec models.Recommendation, style branding.Style, fill, stacked bool) error {
	if rec.Roles.Category == "" {
		return fmt.Errorf("category column required")
	}
	axis, err := ds.Column(rec.Roles.Category)
	if err != nil {
		return err
	}
	names := rec.Roles.ValueColumns()
	cols := make([]*models.Column, len(names))
	for i, name := range names {
		if cols[i], err = ds.Column(name); err != nil {
			return err
		}
		if cols[i].Type != models.Numeric {
			return fmt.Errorf("value column %q is %s, want numeric", name, cols[i].Type)
		}
	}

	type row struct {
		x  float64
		ys []float64
	}
	var (
		rows    []row
		nominal []string
	)
	index := make(map[string]int)
	for r := 0; r < ds.Rows; r++ {
		x, ok := xValue(axis, r)
		if axis.Type == models.Categorical {
			if axis.Missing(r) {
				continue
			}
			key := axis.Raw[r]
			k, seen := index[key]
			if !seen {
				k = len(nominal)
				index[key] = k
				nominal = append(nominal, key)
			}
			x, ok = float64(k), true
		}
		if !ok {
			continue
		}
		ys := make([]float64, len(cols))
		for s, c := range cols {
			ys[s] = c.Numbers[r]
		}
		rows = append(rows, row{x: x, ys: ys})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].x < rows[j].x })

	series := make([]plotter.XYs, len(cols))
	for _, r := range rows {
		base := 0.0
		for s, y := range r.ys {
			if stacked {
				if !math.IsNaN(y) {
					base += y
				}
				series[s] = append(series[s], plotter.XY{X: r.x, Y: base})
				continue
			}
			if !math.IsNaN(y) {
				series[s] = append(series[s], plotter.XY{X: r.x, Y: y})
			}
		}
	}

	addGrid(p, style)
	drawn := 0
	add := func(s int) error {
		pts := series[s]
		if len(pts) == 0 {
			return nil
		}
		c := seriesColor(style, s)
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("series %s: %w", names[s], err)
		}
		line.Color = c
		line.Width = vg.Points(style.LineWidth)
		if fill {
			line.FillColor = branding.WithAlpha(c, style.Alpha)
		}
		p.Add(line)
		if style.MarkerSize > 0 && len(pts) <= 60 {
			marks, err := plotter.NewScatter(pts)
			if err != nil {
				return fmt.Errorf("series %s: %w", names[s], err)
			}
			marks.GlyphStyle.Color = c
			marks.GlyphStyle.Radius = vg.Points(style.MarkerSize / 2)
			marks.GlyphStyle.Shape = draw.CircleGlyph{}
			p.Add(marks)
		}
		if len(cols) > 1 {
			p.Legend.Add(names[s], line)
		}
		drawn++
		return nil
	}
	// stacked bands are drawn from the top down so lower fills stay visible
	for i := range series {
		s := i
		if stacked {
			s = len(series) - 1 - i
		}
		if err := add(s); err != nil {
			return err
		}
	}
	if drawn == 0 {
		return fmt.Errorf("no rows with both %s and a value", rec.Roles.Category)
	}

	switch axis.Type {
	case models.Temporal:
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	case models.Categorical:
		p.NominalX(nominal...)
	}
	if fill && p.Y.Min > 0 {
		p.Y.Min = 0
	}
	p.X.Label.Text = rec.Roles.Category
	if len(cols) == 1 {
		p.Y.Label.Text = rec.Roles.Value
	}
	return nil
}

type wedge struct {
	label string
	value float64
}

func drawPie(p *plot.Plot, ds *models.Dataset, rec models.Recommendation, theme branding.Theme, style branding.Style, opts RenderOptions) error {
	if rec.Roles.Category == "" {
		return fmt.Errorf("category column required")
	}
	g, err := groupSums(ds, rec.Roles.Category, []string{rec.Roles.Value})
	if err != nil {
		return err
	}
	var wedges []wedge
	total := 0.0
	for k, v := range g.sums[0] {
		if v > 0 {
			wedges = append(wedges, wedge{label: g.categories[k], value: v})
			total += v
		}
	}
	if len(wedges) == 0 {
		return fmt.Errorf("no positive %s values", rec.Roles.Value)
	}
	if len(wedges) > maxPieSlices {
		sort.SliceStable(wedges, func(i, j int) bool { return wedges[i].value > wedges[j].value })
		other := wedge{label: "Other"}
		for _, w := range wedges[maxPieSlices-1:] {
			other.value += w.value
		}
		wedges = append(wedges[:maxPieSlices-1], other)
	}

	edge := branding.MustParseHex(style.EdgeColor)
	labels := plotter.XYLabels{}
	start := math.Pi / 2
	for i, w := range wedges {
		frac := w.value / total
		sweep := 2 * math.Pi * frac
		steps := int(math.Max(2, math.Ceil(frac*120)))
		pts := plotter.XYs{{X: 0, Y: 0}}
		for j := 0; j <= steps; j++ {
			a := start - sweep*float64(j)/float64(steps)
			pts = append(pts, plotter.XY{X: math.Cos(a), Y: math.Sin(a)})
		}
		poly, err := plotter.NewPolygon(pts)
		if err != nil {
			return fmt.Errorf("wedge %s: %w", w.label, err)
		}
		poly.Color = seriesColor(style, i)
		poly.LineStyle.Color = edge
		poly.LineStyle.Width = vg.Points(style.EdgeWidth)
		p.Add(poly)
		p.Legend.Add(w.label, poly)

		if frac >= 0.03 {
			mid := start - sweep/2
			labels.XYs = append(labels.XYs, plotter.XY{X: 1.15 * math.Cos(mid), Y: 1.15 * math.Sin(mid)})
			labels.Labels = append(labels.Labels, fmt.Sprintf("%.1f%%", 100*frac))
		}
		start -= sweep
	}
	if len(labels.Labels) > 0 {
		l, err := plotter.NewLabels(labels)
		if err != nil {
			return err
		}
		for i := range l.TextStyle {
			l.TextStyle[i].Font = sansFont(theme.FontSizes.DataLabel)
			l.TextStyle[i].Color = branding.MustParseHex(style.LabelColor)
			l.TextStyle[i].XAlign = draw.XCenter
			l.TextStyle[i].YAlign = draw.YCenter
		}
		p.Add(l)
	}

	p.HideAxes()
	// keep the pie round on a wide canvas
	r := 1.3
	aspect := float64(opts.Width / opts.Height)
	p.Y.Min, p.Y.Max = -r, r
	p.X.Min, p.X.Max = -r*aspect, r*aspect
	return nil
}

func drawScatter(p *plot.Plot, ds *models.Dataset, rec models.Recommendation, style branding.Style) error {
	if rec.Roles.Category == "" {
		return fmt.Errorf("x column required")
	}
	xc, err := ds.Column(rec.Roles.Category)
	if err != nil {
		return err
	}
	yc, err := ds.Column(rec.Roles.Value)
	if err != nil {
		return err
	}
	if xc.Type != models.Numeric || yc.Type != models.Numeric {
		return fmt.Errorf("scatter needs numeric columns, got %s and %s", xc.Type, yc.Type)
	}

	var xs, ys []float64
	pts := plotter.XYs{}
	for r := 0; r < ds.Rows; r++ {
		x, y := xc.Numbers[r], yc.Numbers[r]
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	if len(pts) == 0 {
		return fmt.Errorf("no rows with both %s and %s", rec.Roles.Category, rec.Roles.Value)
	}

	addGrid(p, style)
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = branding.WithAlpha(seriesColor(style, 0), style.Alpha)
	sc.GlyphStyle.Radius = vg.Points(style.MarkerSize / 2)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)

	if lo, hi := minMax(xs); len(xs) >= 2 && hi > lo {
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		trend, err := plotter.NewLine(plotter.XYs{{X: lo, Y: alpha + beta*lo}, {X: hi, Y: alpha + beta*hi}})
		if err != nil {
			return err
		}
		trend.Color = seriesColor(style, 1)
		trend.Width = vg.Points(2)
		trend.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		p.Add(trend)
		p.Legend.Add("Trend", trend)
	}

	p.X.Label.Text = rec.Roles.Category
	p.Y.Label.Text = rec.Roles.Value
	return nil
}

func drawHistogram(p *plot.Plot, ds *models.Dataset, rec models.Recommendation, style branding.Style) error {
	col, err := ds.Column(rec.Roles.Value)
	if err != nil {
		return err
	}
	if col.Type != models.Numeric {
		return fmt.Errorf("value column %q is %s, want numeric", col.Name, col.Type)
	}
	values := finiteValues(col)
	if len(values) == 0 {
		return fmt.Errorf("no %s values", col.Name)
	}
	bins := rec.Bins
	if bins <= 0 {
		bins = selector.HistogramBins(len(values))
	}

	addGrid(p, style)
	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return err
	}
	h.FillColor = branding.WithAlpha(seriesColor(style, 0), style.Alpha)
	h.LineStyle.Color = branding.MustParseHex(style.EdgeColor)
	h.LineStyle.Width = vg.Points(style.EdgeWidth)
	p.Add(h)

	p.X.Label.Text = col.Name
	p.Y.Label.Text = "Frequency"
	return nil
}

func minMax(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}
