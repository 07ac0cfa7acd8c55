// Package generator turns data files into chart presentations: it loads the
// data, analyses it, picks charts, renders them and assembles the deck.
package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/user/chartdeck-go/internal/analyzer"
	"github.com/user/chartdeck-go/internal/chart"
	"github.com/user/chartdeck-go/internal/config"
	"github.com/user/chartdeck-go/internal/deck"
	"github.com/user/chartdeck-go/internal/loader"
	"github.com/user/chartdeck-go/internal/models"
	"github.com/user/chartdeck-go/internal/report"
	"github.com/user/chartdeck-go/internal/selector"
	"golang.org/x/sync/errgroup"
)

// DefaultTitle is the title of presentations built without one.
const DefaultTitle = "Data Visualization Report"

// ChartConfig is a caller-chosen chart.
type ChartConfig struct {
	Kind  models.ChartKind
	Roles models.RoleAssignment
	// Title overrides the slide heading.
	Title   string
	Stacked bool
}

// PresentationRequest describes a deck to build from the loaded data.
type PresentationRequest struct {
	// Output defaults to the title with spaces replaced by underscores, plus ".pptx".
	Output   string
	Title    string
	Subtitle string
	// Target focuses recommendations on one numeric column.
	Target string
	// Single limits the deck to the primary chart.
	Single bool
	// Charts replaces the recommended charts when non-empty.
	Charts []ChartConfig
}

// Generator holds one loaded dataset and the settings used to present it.
type Generator struct {
	cfg   *config.Config
	cache *InsightsCache
	log   *logrus.Entry

	data     []byte
	format   loader.Format
	dataset  *models.Dataset
	insights *models.Insights
}

// New creates a Generator. A nil cfg uses config.Default().
func New(cfg *config.Config) *Generator {
	if cfg == nil {
		cfg = config.Default()
	}
	g := &Generator{
		cfg: cfg,
		log: logrus.WithField("run", uuid.New().String()),
	}
	if cfg.CacheDir != "" {
		g.cache = &InsightsCache{Dir: cfg.CacheDir}
	}
	return g
}

// Config returns the generator settings.
func (g *Generator) Config() *config.Config {
	return g.cfg
}

// LoadData reads and parses the file at location, replacing any loaded dataset.
func (g *Generator) LoadData(ctx context.Context, location string) error {
	data, format, err := loader.Fetch(ctx, location)
	if err != nil {
		return err
	}
	ds, err := loader.Parse(loader.DatasetName(location), data, format, g.cfg.LoadOptions())
	if err != nil {
		return err
	}
	g.log.WithFields(logrus.Fields{"file": location, "rows": ds.Rows, "columns": len(ds.Columns)}).Info("data loaded")
	g.data = data
	g.format = format
	g.dataset = ds
	g.insights = nil
	return nil
}

// SetDataset uses an in-memory dataset. Its insights are never cached.
func (g *Generator) SetDataset(ds *models.Dataset) {
	g.data = nil
	g.format = ""
	g.dataset = ds
	g.insights = nil
}

// Dataset returns the loaded dataset, or nil.
func (g *Generator) Dataset() *models.Dataset {
	return g.dataset
}

func (g *Generator) requireData() error {
	if g.dataset == nil {
		return fmt.Errorf("no data loaded")
	}
	return nil
}

// Insights analyses the loaded dataset. Results are cached on disk by the
// hash of the input bytes and the parse and selection settings; an unreadable
// cache entry is rebuilt.
func (g *Generator) Insights() (*models.Insights, error) {
	if err := g.requireData(); err != nil {
		return nil, err
	}
	if g.insights != nil {
		return g.insights, nil
	}

	var key string
	if g.cache != nil && g.data != nil {
		k, err := g.cacheKey()
		if err != nil {
			g.log.Warnf("insights cache disabled: %v", err)
		} else {
			key = k
		}
	}
	if key != "" && g.cache.CacheExists(key) {
		in, err := g.cache.LoadCache(key)
		if err == nil {
			// the dataset name follows the file name, not the contents
			in.Name = g.dataset.Name
			g.insights = in
			return in, nil
		}
		g.log.Warnf("failed to load cached insights, re-analysing: %v", err)
	}

	g.insights = analyzer.Analyze(g.dataset, g.cfg.Selector)
	if key != "" {
		if err := g.cache.SaveCache(key, g.insights); err != nil {
			g.log.Warnf("failed to cache insights: %v", err)
		}
	}
	return g.insights, nil
}

func (g *Generator) cacheKey() (string, error) {
	return CacheKey(g.data, g.format, g.cfg.LoadOptions(), g.cfg.Selector)
}

// ClearCache removes the cached insights of the loaded data.
func (g *Generator) ClearCache() error {
	if g.cache == nil || g.data == nil {
		return nil
	}
	key, err := g.cacheKey()
	if err != nil {
		return err
	}
	return g.cache.ClearCache(key)
}

// Recommend suggests up to maxCharts charts for the loaded data, focused on
// target when it is set. maxCharts <= 0 uses the configured maximum.
func (g *Generator) Recommend(target string, maxCharts int) ([]models.Recommendation, error) {
	if err := g.requireData(); err != nil {
		return nil, err
	}
	if maxCharts <= 0 {
		maxCharts = g.cfg.MaxCharts
	}
	return selector.Recommend(g.dataset.Shape(), selector.RecommendOptions{
		Options:   g.cfg.Selector,
		Target:    target,
		MaxCharts: maxCharts,
	})
}

// Custom validates a caller-chosen chart against the loaded data.
func (g *Generator) Custom(cc ChartConfig) (models.Recommendation, error) {
	if err := g.requireData(); err != nil {
		return models.Recommendation{}, err
	}
	return selector.Custom(g.dataset.Shape(), cc.Kind, cc.Roles)
}

// RenderChart draws rec over the loaded data.
func (g *Generator) RenderChart(rec models.Recommendation, stacked bool) ([]byte, error) {
	if err := g.requireData(); err != nil {
		return nil, err
	}
	opts := g.cfg.RenderOptions()
	opts.Stacked = opts.Stacked || stacked
	return chart.Render(g.dataset, rec, g.cfg.Theme, opts)
}

type plannedChart struct {
	rec     models.Recommendation
	title   string
	stacked bool
}

func (g *Generator) plan(req PresentationRequest) ([]plannedChart, error) {
	if len(req.Charts) > 0 {
		planned := make([]plannedChart, 0, len(req.Charts))
		for _, cc := range req.Charts {
			rec, err := g.Custom(cc)
			if err != nil {
				return nil, err
			}
			planned = append(planned, plannedChart{rec: rec, title: cc.Title, stacked: cc.Stacked})
		}
		return planned, nil
	}

	maxCharts := g.cfg.MaxCharts
	if req.Single {
		maxCharts = 1
	}
	recs, err := g.Recommend(req.Target, maxCharts)
	if err != nil {
		return nil, err
	}
	planned := make([]plannedChart, len(recs))
	for i, rec := range recs {
		planned[i] = plannedChart{rec: rec}
	}
	return planned, nil
}

// OutputName derives a deck file name from a presentation title.
func OutputName(title string) string {
	return strings.ReplaceAll(strings.TrimSpace(title), " ", "_") + ".pptx"
}

// CreatePresentation builds a deck with a title slide, a data summary slide and
// one slide per chart, and saves it. It returns the output location.
// A chart that fails to render is logged and left out.
func (g *Generator) CreatePresentation(ctx context.Context, req PresentationRequest) (string, error) {
	if err := g.requireData(); err != nil {
		return "", err
	}
	if req.Title == "" {
		req.Title = DefaultTitle
	}
	if req.Output == "" {
		req.Output = OutputName(req.Title)
	}

	planned, err := g.plan(req)
	if err != nil {
		return "", fmt.Errorf("failed to choose charts: %w", err)
	}
	in, err := g.Insights()
	if err != nil {
		return "", err
	}

	d, err := deck.New(g.cfg.Template, g.cfg.Theme)
	if err != nil {
		return "", err
	}
	d.SetProperties(req.Title, g.cfg.Author)
	d.AddTitleSlide(req.Title, req.Subtitle)
	d.AddSummarySlide(in)

	rendered := 0
	for i, pc := range planned {
		img, err := g.RenderChart(pc.rec, pc.stacked)
		if err != nil {
			g.log.Warnf("skipping %s: %v", pc.rec, err)
			continue
		}
		title := pc.title
		if title == "" {
			title = fmt.Sprintf("%s Chart %d", chart.KindTitle(pc.rec.Kind), i+1)
		}
		if err := d.AddChartSlide(deck.ChartSlide{Title: title, Kind: pc.rec.Kind, Caption: pc.rec.Reason, Image: img}); err != nil {
			g.log.Warnf("skipping %s: %v", pc.rec, err)
			continue
		}
		rendered++
	}

	if err := d.Save(ctx, req.Output); err != nil {
		return "", err
	}
	g.log.WithFields(logrus.Fields{"output": req.Output, "charts": rendered, "slides": d.SlideCount()}).Info("presentation saved")
	return req.Output, nil
}

// CreateCustomChart builds a deck around a single caller-chosen chart.
// The title is "<Kind> Chart Analysis" and output defaults to "<kind>_chart.pptx".
func (g *Generator) CreateCustomChart(ctx context.Context, cc ChartConfig, output string) (string, error) {
	if output == "" {
		output = string(cc.Kind) + "_chart.pptx"
	}
	return g.CreatePresentation(ctx, PresentationRequest{
		Output: output,
		Title:  chart.KindTitle(cc.Kind) + " Chart Analysis",
		Charts: []ChartConfig{cc},
	})
}

// WriteReport exports the insights of the loaded data in format to output.
// HTML reports also embed the rendered recommended charts.
func (g *Generator) WriteReport(format, output string) error {
	in, err := g.Insights()
	if err != nil {
		return err
	}
	adapter, err := report.NewReportAdapter(format)
	if err != nil {
		return err
	}
	switch a := adapter.(type) {
	case *report.XLSXReportAdapter:
		a.Theme = g.cfg.Theme
	case *report.HTMLReportAdapter:
		a.Charts = g.chartImages()
	}
	if err := adapter.PrepareData(in); err != nil {
		return fmt.Errorf("failed to prepare report data: %w", err)
	}
	if err := adapter.Write(output); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (g *Generator) chartImages() []report.ChartImage {
	recs, err := g.Recommend("", 0)
	if err != nil {
		g.log.Warnf("report has no charts: %v", err)
		return nil
	}
	var images []report.ChartImage
	for _, rec := range recs {
		img, err := g.RenderChart(rec, false)
		if err != nil {
			g.log.Warnf("skipping %s: %v", rec, err)
			continue
		}
		images = append(images, report.ChartImage{Title: chart.DefaultTitle(rec), PNG: img})
	}
	return images
}

// BatchProcess builds "<name>_analysis.pptx" in outputDir for each file, running
// up to cfg.Workers files at once. Files sharing a base name are numbered. Files that fail are logged and skipped; the
// generated paths are returned in input order.
func BatchProcess(ctx context.Context, cfg *config.Config, files []string, outputDir string) ([]string, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	names := batchNames(files)
	outputs := make([]string, len(files))
	eg, egCtx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		eg.SetLimit(cfg.Workers)
	}
	for i, file := range files {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			name := names[i]
			g := New(cfg)
			g.log = g.log.WithField("file", file)
			if err := g.LoadData(egCtx, file); err != nil {
				g.log.Warnf("batch: %v", err)
				return nil
			}
			out, err := g.CreatePresentation(egCtx, PresentationRequest{
				Output: filepath.Join(outputDir, name+"_analysis.pptx"),
				Title:  name + " Analysis",
			})
			if err != nil {
				g.log.Warnf("batch: %v", err)
				return nil
			}
			outputs[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	generated := make([]string, 0, len(outputs))
	for _, out := range outputs {
		if out != "" {
			generated = append(generated, out)
		}
	}
	return generated, nil
}

// batchNames derives an output name per file from its base name. Repeated
// names get a numeric suffix, so q1/sales.csv and q2/sales.csv become "sales"
// and "sales_2".
func batchNames(files []string) []string {
	names := make([]string, len(files))
	taken := make(map[string]bool, len(files))
	for i, file := range files {
		base := loader.DatasetName(file)
		name := base
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		taken[name] = true
		names[i] = name
	}
	return names
}
