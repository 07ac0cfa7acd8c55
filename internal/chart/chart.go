// Package chart renders chart recommendations over a dataset to PNG images.
package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/user/chartdeck-go/internal/branding"
	"github.com/user/chartdeck-go/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	DefaultWidth  = 9 * vg.Inch
	DefaultHeight = 4.5 * vg.Inch
)

// RenderOptions controls the image produced by Render.
type RenderOptions struct {
	Width, Height vg.Length
	// Title overrides the generated chart title.
	Title string
	// Stacked stacks the series of multi-series bar and area charts.
	Stacked bool
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	return o
}

// KindTitle returns the display name of a chart kind, e.g. "Histogram".
func KindTitle(kind models.ChartKind) string {
	return cases.Title(language.English).String(string(kind))
}

// DefaultTitle describes rec in words, e.g. "Sales by Region".
func DefaultTitle(rec models.Recommendation) string {
	values := strings.Join(rec.Roles.ValueColumns(), ", ")
	switch rec.Kind {
	case models.Histogram:
		return "Distribution of " + rec.Roles.Value
	case models.Scatter:
		return fmt.Sprintf("%s vs %s", rec.Roles.Value, rec.Roles.Category)
	}
	if rec.Roles.Category == "" {
		return values
	}
	return fmt.Sprintf("%s by %s", values, rec.Roles.Category)
}

// Render draws rec over ds and returns the PNG bytes.
func Render(ds *models.Dataset, rec models.Recommendation, theme branding.Theme, opts RenderOptions) ([]byte, error) {
	opts = opts.withDefaults()
	if rec.Roles.Value == "" {
		return nil, fmt.Errorf("%s chart has no value column", rec.Kind)
	}
	for _, name := range rec.Roles.Columns() {
		if _, err := ds.Column(name); err != nil {
			return nil, err
		}
	}

	style := theme.StyleFor(rec.Kind)
	p := plot.New()
	applyTheme(p, theme, style)
	p.Title.Text = opts.Title
	if p.Title.Text == "" {
		p.Title.Text = DefaultTitle(rec)
	}

	var err error
	switch rec.Kind {
	case models.Bar:
		err = drawBar(p, ds, rec, style, opts)
	case models.Line:
		err = drawLine(p, ds, rec, style, false, false)
	case models.Area:
		err = drawLine(p, ds, rec, style, true, opts.Stacked)
	case models.Pie:
		err = drawPie(p, ds, rec, theme, style, opts)
	case models.Scatter:
		err = drawScatter(p, ds, rec, style)
	case models.Histogram:
		err = drawHistogram(p, ds, rec, style)
	default:
		err = fmt.Errorf("unsupported chart type %q", rec.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s chart: %w", rec.Kind, err)
	}
	return encodePNG(p, opts.Width, opts.Height)
}

func encodePNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	writer, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func sansFont(size int) font.Font {
	return font.Font{Typeface: "Liberation", Variant: "Sans", Size: vg.Points(float64(size))}
}

func applyTheme(p *plot.Plot, theme branding.Theme, style branding.Style) {
	title := branding.MustParseHex(style.TitleColor)
	label := branding.MustParseHex(style.LabelColor)
	spine := branding.MustParseHex(style.SpineColor)

	p.BackgroundColor = branding.MustParseHex(style.Background)
	p.Title.TextStyle.Font = sansFont(theme.FontSizes.Heading)
	p.Title.TextStyle.Color = title
	p.Title.Padding = vg.Points(8)
	p.Legend.TextStyle.Font = sansFont(theme.FontSizes.Legend)
	p.Legend.TextStyle.Color = label
	p.Legend.Top = true

	for _, axis := range []*plot.Axis{&p.X, &p.Y} {
		axis.Label.TextStyle.Font = sansFont(theme.FontSizes.AxisLabel)
		axis.Label.TextStyle.Color = label
		axis.Tick.Label.Font = sansFont(theme.FontSizes.AxisLabel)
		axis.Tick.Label.Color = label
		axis.LineStyle.Color = spine
		axis.Tick.LineStyle.Color = spine
	}
}

func addGrid(p *plot.Plot, style branding.Style) {
	grid := plotter.NewGrid()
	c := branding.MustParseHex(style.GridColor)
	grid.Vertical.Color = c
	grid.Horizontal.Color = c
	p.Add(grid)
}

func seriesColor(style branding.Style, i int) color.RGBA {
	if len(style.SeriesColors) == 0 {
		return color.RGBA{A: 0xFF}
	}
	return branding.MustParseHex(style.SeriesColors[i%len(style.SeriesColors)])
}
