// Package branding holds the colour palette, typography and per-chart styling
// shared by the chart renderer and the slide builder.
package branding

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/user/chartdeck-go/internal/models"
)

// Colors are the named brand colours as #RRGGBB strings.
type Colors struct {
	PrimaryBlue  string `yaml:"primary_blue"`
	AccentYellow string `yaml:"accent_yellow"`
	White        string `yaml:"white"`
	LightBlue    string `yaml:"light_blue"`
	DarkBlue     string `yaml:"dark_blue"`
	GrayLight    string `yaml:"gray_light"`
	GrayMedium   string `yaml:"gray_medium"`
	GrayDark     string `yaml:"gray_dark"`
	Black        string `yaml:"black"`
}

// Fonts are font family names.
type Fonts struct {
	Primary    string `yaml:"primary"`
	Secondary  string `yaml:"secondary"`
	Heading    string `yaml:"heading"`
	Body       string `yaml:"body"`
	DataLabels string `yaml:"data_labels"`
}

// FontSizes are point sizes.
type FontSizes struct {
	Title     int `yaml:"title"`
	Subtitle  int `yaml:"subtitle"`
	Heading   int `yaml:"heading"`
	Body      int `yaml:"body"`
	Caption   int `yaml:"caption"`
	DataLabel int `yaml:"data_label"`
	AxisLabel int `yaml:"axis_label"`
	Legend    int `yaml:"legend"`
}

// Theme is a complete visual identity.
type Theme struct {
	Colors    Colors              `yaml:"colors"`
	Fonts     Fonts               `yaml:"fonts"`
	FontSizes FontSizes           `yaml:"font_sizes"`
	Palettes  map[string][]string `yaml:"palettes"`
}

// Palette names.
const (
	PalettePrimary     = "primary"
	PaletteSequential  = "sequential"
	PaletteDiverging   = "diverging"
	PaletteCategorical = "categorical"
)

// Default returns the built-in blue and yellow theme.
func Default() Theme {
	return Theme{
		Colors: Colors{
			PrimaryBlue:  "#005DAA",
			AccentYellow: "#FFD200",
			White:        "#FFFFFF",
			LightBlue:    "#E6F2FF",
			DarkBlue:     "#003D73",
			GrayLight:    "#F5F5F5",
			GrayMedium:   "#CCCCCC",
			GrayDark:     "#666666",
			Black:        "#000000",
		},
		Fonts: Fonts{
			Primary:    "Arial",
			Secondary:  "Calibri",
			Heading:    "Arial Bold",
			Body:       "Arial",
			DataLabels: "Calibri",
		},
		FontSizes: FontSizes{
			Title:     24,
			Subtitle:  18,
			Heading:   16,
			Body:      12,
			Caption:   10,
			DataLabel: 11,
			AxisLabel: 10,
			Legend:    10,
		},
		Palettes: map[string][]string{
			PalettePrimary:     {"#005DAA", "#FFD200", "#666666", "#CCCCCC", "#003D73"},
			PaletteSequential:  {"#E6F2FF", "#B3D9FF", "#80C0FF", "#4DA7FF", "#1A8EFF", "#0075E6", "#005DAA", "#00458E", "#002D72"},
			PaletteDiverging:   {"#003D73", "#005DAA", "#4DA7FF", "#FFFFFF", "#FFD200", "#FFB300", "#FF9400"},
			PaletteCategorical: {"#005DAA", "#FFD200", "#666666", "#CCCCCC", "#003D73", "#FF9400", "#4DA7FF", "#FFB300"},
		},
	}
}

// Merge returns t with every non-zero field of override applied on top.
func (t Theme) Merge(override Theme) Theme {
	mergeString := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	mergeInt := func(dst *int, src int) {
		if src > 0 {
			*dst = src
		}
	}
	c, o := &t.Colors, override.Colors
	mergeString(&c.PrimaryBlue, o.PrimaryBlue)
	mergeString(&c.AccentYellow, o.AccentYellow)
	mergeString(&c.White, o.White)
	mergeString(&c.LightBlue, o.LightBlue)
	mergeString(&c.DarkBlue, o.DarkBlue)
	mergeString(&c.GrayLight, o.GrayLight)
	mergeString(&c.GrayMedium, o.GrayMedium)
	mergeString(&c.GrayDark, o.GrayDark)
	mergeString(&c.Black, o.Black)

	f, of := &t.Fonts, override.Fonts
	mergeString(&f.Primary, of.Primary)
	mergeString(&f.Secondary, of.Secondary)
	mergeString(&f.Heading, of.Heading)
	mergeString(&f.Body, of.Body)
	mergeString(&f.DataLabels, of.DataLabels)

	s, ofs := &t.FontSizes, override.FontSizes
	mergeInt(&s.Title, ofs.Title)
	mergeInt(&s.Subtitle, ofs.Subtitle)
	mergeInt(&s.Heading, ofs.Heading)
	mergeInt(&s.Body, ofs.Body)
	mergeInt(&s.Caption, ofs.Caption)
	mergeInt(&s.DataLabel, ofs.DataLabel)
	mergeInt(&s.AxisLabel, ofs.AxisLabel)
	mergeInt(&s.Legend, ofs.Legend)

	palettes := make(map[string][]string, len(t.Palettes)+len(override.Palettes))
	for name, p := range t.Palettes {
		palettes[name] = p
	}
	for name, p := range override.Palettes {
		if len(p) > 0 {
			palettes[name] = p
		}
	}
	t.Palettes = palettes
	return t
}

// Validate checks that every colour in the theme parses.
func (t Theme) Validate() error {
	named := map[string]string{
		"primary_blue":  t.Colors.PrimaryBlue,
		"accent_yellow": t.Colors.AccentYellow,
		"white":         t.Colors.White,
		"light_blue":    t.Colors.LightBlue,
		"dark_blue":     t.Colors.DarkBlue,
		"gray_light":    t.Colors.GrayLight,
		"gray_medium":   t.Colors.GrayMedium,
		"gray_dark":     t.Colors.GrayDark,
		"black":         t.Colors.Black,
	}
	for name, hex := range named {
		if _, err := ParseHex(hex); err != nil {
			return fmt.Errorf("color %s: %w", name, err)
		}
	}
	for name, p := range t.Palettes {
		for i, hex := range p {
			if _, err := ParseHex(hex); err != nil {
				return fmt.Errorf("palette %s[%d]: %w", name, i, err)
			}
		}
	}
	return nil
}

// Palette returns n colours from the named palette, cycling when n exceeds its length.
// Unknown names fall back to the primary palette.
func (t Theme) Palette(name string, n int) []string {
	p, ok := t.Palettes[name]
	if !ok || len(p) == 0 {
		p = t.Palettes[PalettePrimary]
	}
	if n <= 0 || len(p) == 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = p[i%len(p)]
	}
	return out
}

// Style is the rendering configuration for one chart kind.
type Style struct {
	SeriesColors []string
	EdgeColor    string
	EdgeWidth    float64
	LineWidth    float64
	MarkerSize   float64
	MarkerColor  string
	Alpha        float64
	TitleColor   string
	LabelColor   string
	GridColor    string
	SpineColor   string
	Background   string
}

// StyleFor returns the style for kind. Stacked bar and area charts share the
// style of their unstacked form.
func (t Theme) StyleFor(kind models.ChartKind) Style {
	s := Style{
		TitleColor: t.Colors.DarkBlue,
		LabelColor: t.Colors.DarkBlue,
		GridColor:  t.Colors.GrayLight,
		SpineColor: t.Colors.GrayMedium,
		Background: t.Colors.White,
		LineWidth:  1,
		Alpha:      1,
	}
	switch kind {
	case models.Bar:
		s.SeriesColors = t.Palette(PaletteCategorical, 8)
		s.EdgeColor = t.Colors.White
		s.EdgeWidth = 0.5
	case models.Line:
		s.SeriesColors = t.Palette(PalettePrimary, 5)
		s.LineWidth = 2.5
		s.MarkerSize = 6
		s.MarkerColor = t.Colors.PrimaryBlue
	case models.Pie:
		s.SeriesColors = t.Palette(PaletteCategorical, 8)
		s.EdgeColor = t.Colors.White
		s.EdgeWidth = 1
	case models.Scatter:
		s.SeriesColors = t.Palette(PalettePrimary, 3)
		s.Alpha = 0.7
		s.EdgeColor = t.Colors.White
		s.EdgeWidth = 0.5
		s.MarkerSize = 6
	case models.Area:
		// darker half of the sequential palette
		seq := t.Palette(PaletteSequential, 9)
		s.SeriesColors = append([]string{t.Colors.PrimaryBlue}, seq[len(seq)/2:]...)
		s.Alpha = 0.7
	case models.Histogram:
		s.SeriesColors = []string{t.Colors.PrimaryBlue}
		s.EdgeColor = t.Colors.White
		s.EdgeWidth = 0.5
		s.Alpha = 0.8
	default:
		s.SeriesColors = t.Palette(PalettePrimary, 5)
	}
	return s
}

// ParseHex parses "#RRGGBB", "RRGGBB" or "#RGB" into an opaque colour.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}

// MustParseHex is ParseHex for colours already checked by Validate; invalid input yields black.
func MustParseHex(s string) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		return color.RGBA{A: 0xFF}
	}
	return c
}

// WithAlpha returns c with its alpha channel set to alpha in [0,1], premultiplied.
func WithAlpha(c color.RGBA, alpha float64) color.RGBA {
	if alpha >= 1 {
		return c
	}
	if alpha < 0 {
		alpha = 0
	}
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: uint8(255 * alpha),
	}
}

// ARGB converts "#RRGGBB" to the "FFRRGGBB" form used by slide shapes.
func ARGB(hex string) string {
	c := MustParseHex(hex)
	return fmt.Sprintf("FF%02X%02X%02X", c.R, c.G, c.B)
}
