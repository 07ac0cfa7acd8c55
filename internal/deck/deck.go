// Package deck assembles PowerPoint presentations from titles, dataset summaries and chart images.
package deck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	ppt "github.com/VantageDataChat/GoPPT"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/user/chartdeck-go/internal/branding"
	"github.com/user/chartdeck-go/internal/chart"
	"github.com/user/chartdeck-go/internal/models"
	"github.com/viant/afs"
)

// 16:9 layout, in EMU.
const (
	emuPerInch = 914400

	slideWidth   = int64(10.0 * emuPerInch)
	marginLeft   = int64(0.4 * emuPerInch)
	contentWidth = int64(9.2 * emuPerInch)

	imageLeft   = int64(0.8 * emuPerInch)
	imageTop    = int64(0.95 * emuPerInch)
	imageWidth  = int64(8.4 * emuPerInch)
	imageHeight = int64(4.2 * emuPerInch)
)

// Deck is a presentation under construction.
type Deck struct {
	pres  *ppt.Presentation
	theme branding.Theme
	// blank is set while the initial empty slide of a new presentation is unused.
	blank bool
	// Now stamps default subtitles.
	Now func() time.Time
}

// New starts a deck. When templatePath names an existing PPTX its slides and
// masters are kept and new slides are appended; otherwise a blank 16:9
// presentation is created.
func New(templatePath string, theme branding.Theme) (*Deck, error) {
	d := &Deck{theme: theme, Now: time.Now}
	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			reader := &ppt.PPTXReader{}
			pres, err := reader.Read(templatePath)
			if err != nil {
				return nil, fmt.Errorf("failed to open template %s: %w", templatePath, err)
			}
			d.pres = pres
			return d, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat template %s: %w", templatePath, err)
		}
		logrus.Warnf("template %s not found, using a blank presentation", templatePath)
	}
	d.pres = ppt.New()
	d.blank = true
	return d, nil
}

// SetProperties sets the document title and author.
func (d *Deck) SetProperties(title, creator string) {
	props := d.pres.GetDocumentProperties()
	props.Title = title
	props.Creator = creator
}

func (d *Deck) nextSlide() *ppt.Slide {
	if d.blank {
		d.blank = false
		return d.pres.GetActiveSlide()
	}
	return d.pres.CreateSlide()
}

// SlideCount returns the number of slides the deck will be written with.
func (d *Deck) SlideCount() int {
	if d.blank {
		return 0
	}
	return len(d.pres.GetAllSlides())
}

func (d *Deck) bar(slide *ppt.Slide, y, height int64, hex string) {
	shape := slide.CreateRichTextShape()
	shape.SetOffsetX(0).SetOffsetY(y)
	shape.SetWidth(slideWidth).SetHeight(height)
	shape.SetFill(ppt.NewFill().SetSolid(ppt.NewColor(branding.ARGB(hex))))
}

func alignCenter(p *ppt.Paragraph) {
	p.SetAlignment(ppt.NewAlignment().SetHorizontal(ppt.HorizontalCenter))
}

// AddTitleSlide adds the opening slide. An empty subtitle becomes "Generated on <date>".
func (d *Deck) AddTitleSlide(title, subtitle string) {
	if subtitle == "" {
		subtitle = "Generated on " + d.Now().Format("2006-01-02 15:04")
	}
	c := d.theme.Colors
	slide := d.nextSlide()
	d.bar(slide, 0, int64(0.15*emuPerInch), c.PrimaryBlue)

	titleShape := slide.CreateRichTextShape()
	titleShape.SetOffsetX(marginLeft).SetOffsetY(int64(1.6 * emuPerInch))
	titleShape.SetWidth(contentWidth).SetHeight(int64(1.0 * emuPerInch))
	tr := titleShape.CreateTextRun(title)
	tr.GetFont().SetSize(d.theme.FontSizes.Title * 3 / 2).SetBold(true).SetColor(ppt.NewColor(branding.ARGB(c.DarkBlue)))
	alignCenter(titleShape.GetActiveParagraph())

	accent := slide.CreateRichTextShape()
	accent.SetOffsetX(int64(4.0 * emuPerInch)).SetOffsetY(int64(2.7 * emuPerInch))
	accent.SetWidth(int64(2.0 * emuPerInch)).SetHeight(int64(0.06 * emuPerInch))
	accent.SetFill(ppt.NewFill().SetSolid(ppt.NewColor(branding.ARGB(c.AccentYellow))))

	sub := slide.CreateRichTextShape()
	sub.SetOffsetX(marginLeft).SetOffsetY(int64(3.0 * emuPerInch))
	sub.SetWidth(contentWidth).SetHeight(int64(0.6 * emuPerInch))
	str := sub.CreateTextRun(subtitle)
	str.GetFont().SetSize(d.theme.FontSizes.Subtitle).SetColor(ppt.NewColor(branding.ARGB(c.GrayDark)))
	alignCenter(sub.GetActiveParagraph())

	d.bar(slide, int64(5.5*emuPerInch), int64(0.125*emuPerInch), c.PrimaryBlue)
}

func (d *Deck) header(slide *ppt.Slide, title string) {
	c := d.theme.Colors
	d.bar(slide, 0, int64(0.08*emuPerInch), c.PrimaryBlue)
	shape := slide.CreateRichTextShape()
	shape.SetOffsetX(marginLeft).SetOffsetY(int64(0.25 * emuPerInch))
	shape.SetWidth(contentWidth).SetHeight(int64(0.6 * emuPerInch))
	tr := shape.CreateTextRun(title)
	tr.GetFont().SetSize(d.theme.FontSizes.Title).SetBold(true).SetColor(ppt.NewColor(branding.ARGB(c.DarkBlue)))
}

// SummaryLines renders the bullet lines of a summary slide.
func SummaryLines(in *models.Insights) []string {
	lines := []string{
		fmt.Sprintf("Dataset: %s", in.Name),
		fmt.Sprintf("Shape: %s rows × %s columns", humanize.Comma(int64(in.Rows)), humanize.Comma(int64(in.Columns))),
		columnLine("Numeric columns", in.NumericColumns),
		columnLine("Categorical columns", in.CategoricalColumns),
	}
	if len(in.TemporalColumns) > 0 {
		lines = append(lines, columnLine("Date columns", in.TemporalColumns))
	}
	lines = append(lines, fmt.Sprintf("Missing values: %s (%.1f%% complete)",
		humanize.Comma(int64(in.TotalMissing())), in.Quality.Completeness))
	if in.Primary.Kind != "" {
		lines = append(lines, fmt.Sprintf("Suggested chart: %s (%.0f%% confidence)",
			chart.KindTitle(in.Primary.Kind), 100*in.Primary.Confidence))
	} else if in.Primary.Error != "" {
		lines = append(lines, "Suggested chart: none, "+in.Primary.Error)
	}
	return lines
}

func columnLine(label string, names []string) string {
	const maxNames = 6
	if len(names) == 0 {
		return label + ": 0"
	}
	shown := names
	more := ""
	if len(shown) > maxNames {
		shown = shown[:maxNames]
		more = fmt.Sprintf(" and %d more", len(names)-maxNames)
	}
	return fmt.Sprintf("%s: %d (%s%s)", label, len(names), strings.Join(shown, ", "), more)
}

// AddSummarySlide adds a "Data Summary" slide describing in.
func (d *Deck) AddSummarySlide(in *models.Insights) {
	c := d.theme.Colors
	slide := d.nextSlide()
	d.header(slide, "Data Summary")

	body := slide.CreateRichTextShape()
	body.SetOffsetX(marginLeft).SetOffsetY(int64(1.1 * emuPerInch))
	body.SetWidth(contentWidth).SetHeight(int64(4.0 * emuPerInch))
	for i, line := range SummaryLines(in) {
		if i > 0 {
			body.CreateParagraph()
		}
		tr := body.CreateTextRun("• " + line)
		tr.GetFont().SetSize(d.theme.FontSizes.Body + 4).SetColor(ppt.NewColor(branding.ARGB(c.DarkBlue)))
	}
}

// ChartSlide is one chart image with its heading.
type ChartSlide struct {
	// Title defaults to "<Kind> Chart".
	Title   string
	Kind    models.ChartKind
	Caption string
	Image   []byte // PNG
}

// AddChartSlide adds a slide holding a chart image.
func (d *Deck) AddChartSlide(cs ChartSlide) error {
	if len(cs.Image) == 0 {
		return fmt.Errorf("chart slide %q has no image", cs.Title)
	}
	title := cs.Title
	if title == "" {
		title = chart.KindTitle(cs.Kind) + " Chart"
	}
	slide := d.nextSlide()
	d.header(slide, title)

	img := slide.CreateDrawingShape()
	img.SetImageData(cs.Image, "image/png")
	img.SetOffsetX(imageLeft).SetOffsetY(imageTop)
	img.SetWidth(imageWidth).SetHeight(imageHeight)

	if cs.Caption != "" {
		caption := slide.CreateRichTextShape()
		caption.SetOffsetX(marginLeft).SetOffsetY(int64(5.2 * emuPerInch))
		caption.SetWidth(contentWidth).SetHeight(int64(0.3 * emuPerInch))
		tr := caption.CreateTextRun(cs.Caption)
		tr.GetFont().SetSize(d.theme.FontSizes.Caption).SetColor(ppt.NewColor(branding.ARGB(d.theme.Colors.GrayDark)))
		alignCenter(caption.GetActiveParagraph())
	}
	return nil
}

// Bytes encodes the deck as PPTX.
func (d *Deck) Bytes() ([]byte, error) {
	w, err := ppt.NewWriter(d.pres, ppt.WriterPowerPoint2007)
	if err != nil {
		return nil, fmt.Errorf("failed to create PPT writer: %w", err)
	}
	var buf bytes.Buffer
	if err := w.(*ppt.PPTXWriter).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to save PPT: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the deck to location, a local path or any afs URL.
func (d *Deck) Save(ctx context.Context, location string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	fs := afs.New()
	if err := fs.Upload(ctx, location, 0o644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	return nil
}

// Outline reads a PPTX file and returns the text paragraphs of each slide.
func Outline(path string) ([][]string, error) {
	reader := &ppt.PPTXReader{}
	pres, err := reader.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PPT file: %w", err)
	}
	var out [][]string
	for _, slide := range pres.GetAllSlides() {
		var texts []string
		for _, shape := range slide.GetShapes() {
			rts, ok := shape.(*ppt.RichTextShape)
			if !ok {
				continue
			}
			for _, para := range rts.GetParagraphs() {
				var text string
				for _, elem := range para.GetElements() {
					if run, ok := elem.(*ppt.TextRun); ok {
						text += run.GetText()
					}
				}
				if text = strings.TrimSpace(text); text != "" {
					texts = append(texts, text)
				}
			}
		}
		out = append(out, texts)
	}
	return out, nil
}
