package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/chartdeck-go/internal/config"
	"github.com/user/chartdeck-go/internal/deck"
	"github.com/user/chartdeck-go/internal/loader"
	"github.com/user/chartdeck-go/internal/models"
	"github.com/user/chartdeck-go/internal/selector"
)

func writeMonthlyCSV(t *testing.T, dir, name string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Month,Revenue,Expenses\n")
	for i := 0; i < 24; i++ {
		month := time.Date(2023, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		fmt.Fprintf(&b, "%s,%d,%d\n", month.Format("2006-01"), 100+i*7, 80+i*3)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("Failed to write test data: %v", err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
	cfg.Workers = 2
	return cfg
}

func TestCacheOperations(t *testing.T) {
	cache := &InsightsCache{Dir: t.TempDir()}
	key, err := CacheKey([]byte("a,b\n1,2\n"), loader.FormatCSV, loader.Options{}, selector.DefaultOptions())
	if err != nil {
		t.Fatalf("CacheKey() error = %v", err)
	}

	in := &models.Insights{
		Name:               "sales",
		Rows:               2,
		Columns:            2,
		ColumnNames:        []string{"a", "b"},
		ColumnTypes:        map[string]models.ColumnType{"a": models.Numeric, "b": models.Categorical},
		NumericColumns:     []string{"a"},
		CategoricalColumns: []string{"b"},
		MissingValues:      map[string]int{"a": 0, "b": 1},
		UniqueCounts:       map[string]int{"a": 2, "b": 1},
		NumericStats:       map[string]models.NumericStats{"a": {Count: 2, Mean: 1.5, Min: 1, Max: 2}},
		Quality:            models.DataQuality{Completeness: 75, NumericRatio: 50, CategoricalRatio: 50},
		Primary:            models.PrimaryChart{Kind: models.Bar, Confidence: 0.7},
		AnalyzedAt:         time.Now().UTC().Truncate(time.Second),
	}

	// 1. CacheExists should be false initially
	if cache.CacheExists(key) {
		t.Errorf("CacheExists() returned true before saving, expected false. Path: %s", cache.cachePath(key))
	}

	// 2. SaveCache
	if err := cache.SaveCache(key, in); err != nil {
		t.Fatalf("SaveCache() error = %v", err)
	}
	if !cache.CacheExists(key) {
		t.Errorf("CacheExists() returned false after saving, expected true. Path: %s", cache.cachePath(key))
	}

	// 3. LoadCache
	loaded, err := cache.LoadCache(key)
	if err != nil {
		t.Fatalf("LoadCache() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, in) {
		t.Errorf("Loaded insights = %+v, want %+v", loaded, in)
	}

	// 4. ClearCache
	if err := cache.ClearCache(key); err != nil {
		t.Fatalf("ClearCache() error = %v", err)
	}
	if cache.CacheExists(key) {
		t.Errorf("CacheExists() returned true after ClearCache(), expected false")
	}
	if err := cache.ClearCache(key); err != nil {
		t.Errorf("ClearCache() on non-existent cache error = %v, want nil", err)
	}
}

func TestCacheKey(t *testing.T) {
	data := []byte("a,b\n1,2\n")
	key := func(data []byte, format loader.Format, load loader.Options, opts selector.Options) string {
		t.Helper()
		k, err := CacheKey(data, format, load, opts)
		require.NoError(t, err)
		return k
	}
	base := key(data, loader.FormatCSV, loader.Options{}, selector.DefaultOptions())
	assert.Equal(t, base, key(data, loader.FormatCSV, loader.Options{}, selector.DefaultOptions()))
	assert.Len(t, base, 64)

	testCases := []struct {
		name   string
		data   []byte
		format loader.Format
		load   loader.Options
		opts   selector.Options
	}{
		{"other contents", []byte("a,b\n1,3\n"), loader.FormatCSV, loader.Options{}, selector.DefaultOptions()},
		{"selector thresholds", data, loader.FormatCSV, loader.Options{}, selector.Options{PieMaxCategories: 3, HistogramMinRows: 20}},
		{"delimiter", data, loader.FormatCSV, loader.Options{Delimiter: ';'}, selector.DefaultOptions()},
		{"sheet", data, loader.FormatCSV, loader.Options{Sheet: "Data"}, selector.DefaultOptions()},
		{"format", data, loader.FormatJSON, loader.Options{}, selector.DefaultOptions()},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEqual(t, base, key(tc.data, tc.format, tc.load, tc.opts))
		})
	}
}

func TestLoadCache_Invalid(t *testing.T) {
	cache := &InsightsCache{Dir: t.TempDir()}
	require.NoError(t, os.WriteFile(cache.cachePath("junk"), []byte("not a zip"), 0644))
	_, err := cache.LoadCache("junk")
	assert.Error(t, err)

	require.NoError(t, cache.SaveCache("empty", &models.Insights{}))
	_, err = cache.LoadCache("empty")
	assert.ErrorContains(t, err, "incomplete")
}

func TestGenerator_Insights(t *testing.T) {
	cfg := testConfig(t)
	path := writeMonthlyCSV(t, t.TempDir(), "monthly.csv")
	ctx := context.Background()

	g := New(cfg)
	_, err := g.Insights()
	assert.ErrorContains(t, err, "no data loaded")

	require.NoError(t, g.LoadData(ctx, path))
	in, err := g.Insights()
	require.NoError(t, err)
	assert.Equal(t, "monthly", in.Name)
	assert.Equal(t, 24, in.Rows)
	assert.Equal(t, []string{"Month"}, in.TemporalColumns)
	assert.Equal(t, []string{"Revenue", "Expenses"}, in.NumericColumns)

	key, err := CacheKey(mustRead(t, path), loader.FormatCSV, cfg.LoadOptions(), cfg.Selector)
	require.NoError(t, err)
	cache := &InsightsCache{Dir: cfg.CacheDir}
	require.True(t, cache.CacheExists(key))

	// a fresh generator reads the cached analysis
	again := New(cfg)
	require.NoError(t, again.LoadData(ctx, path))
	cached, err := again.Insights()
	require.NoError(t, err)
	assert.True(t, in.AnalyzedAt.Equal(cached.AnalyzedAt))

	// a corrupt entry is rebuilt
	require.NoError(t, os.WriteFile(cache.cachePath(key), []byte("garbage"), 0644))
	rebuilt := New(cfg)
	require.NoError(t, rebuilt.LoadData(ctx, path))
	fresh, err := rebuilt.Insights()
	require.NoError(t, err)
	assert.Equal(t, in.NumericColumns, fresh.NumericColumns)
	_, err = cache.LoadCache(key)
	assert.NoError(t, err)

	require.NoError(t, rebuilt.ClearCache())
	assert.False(t, cache.CacheExists(key))
}

func TestGenerator_InsightsFollowParseSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.csv")
	require.NoError(t, os.WriteFile(path, []byte("a;b,c\n1;2,x\n3;4,y\n"), 0644))
	ctx := context.Background()

	commas := testConfig(t)
	g := New(commas)
	require.NoError(t, g.LoadData(ctx, path))
	in, err := g.Insights()
	require.NoError(t, err)
	assert.Equal(t, []string{"a;b", "c"}, in.ColumnNames)

	semicolons := *commas
	semicolons.Delimiter = ";"
	g = New(&semicolons)
	require.NoError(t, g.LoadData(ctx, path))
	in, err = g.Insights()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b,c"}, in.ColumnNames)
	for _, c := range g.Dataset().Columns {
		assert.Contains(t, in.ColumnNames, c.Name)
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestGenerator_Recommend(t *testing.T) {
	g := New(testConfig(t))
	require.NoError(t, g.LoadData(context.Background(), writeMonthlyCSV(t, t.TempDir(), "monthly.csv")))

	recs, err := g.Recommend("", 0)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.LessOrEqual(t, len(recs), 5)

	recs, err = g.Recommend("Expenses", 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Expenses", recs[0].Roles.Value)

	_, err = g.Recommend("Month", 0)
	assert.ErrorContains(t, err, "want numeric")
}

func TestGenerator_CreatePresentation(t *testing.T) {
	dir := t.TempDir()
	g := New(testConfig(t))
	ctx := context.Background()

	_, err := g.CreatePresentation(ctx, PresentationRequest{})
	assert.ErrorContains(t, err, "no data loaded")

	require.NoError(t, g.LoadData(ctx, writeMonthlyCSV(t, dir, "monthly.csv")))
	out, err := g.CreatePresentation(ctx, PresentationRequest{
		Output: filepath.Join(dir, "monthly.pptx"),
		Title:  "Monthly Review",
		Single: true,
	})
	require.NoError(t, err)

	outline, err := deck.Outline(out)
	require.NoError(t, err)
	require.Len(t, outline, 3)
	assert.Contains(t, outline[0], "Monthly Review")
	assert.Contains(t, outline[1], "Data Summary")
	assert.Contains(t, outline[2][0], "Chart 1")
}

func TestGenerator_CreateCustomChart(t *testing.T) {
	dir := t.TempDir()
	g := New(testConfig(t))
	ctx := context.Background()
	require.NoError(t, g.LoadData(ctx, writeMonthlyCSV(t, dir, "monthly.csv")))

	out, err := g.CreateCustomChart(ctx, ChartConfig{
		Kind:  models.Scatter,
		Roles: models.RoleAssignment{Category: "Revenue", Value: "Expenses"},
	}, filepath.Join(dir, "scatter.pptx"))
	require.NoError(t, err)

	outline, err := deck.Outline(out)
	require.NoError(t, err)
	require.Len(t, outline, 3)
	assert.Contains(t, outline[0], "Scatter Chart Analysis")
	assert.Contains(t, outline[2], "Scatter Chart 1")

	_, err = g.CreateCustomChart(ctx, ChartConfig{
		Kind:  models.Pie,
		Roles: models.RoleAssignment{Category: "Month", Value: "Revenue", Series: []string{"Expenses"}},
	}, filepath.Join(dir, "pie.pptx"))
	assert.ErrorIs(t, err, selector.ErrInvalidRecommendation)
}

func TestGenerator_WriteReport(t *testing.T) {
	dir := t.TempDir()
	g := New(testConfig(t))
	require.NoError(t, g.LoadData(context.Background(), writeMonthlyCSV(t, dir, "monthly.csv")))

	jsonPath := filepath.Join(dir, "out", "insights.json")
	require.NoError(t, g.WriteReport("json", jsonPath))
	assert.Contains(t, string(mustRead(t, jsonPath)), `"numeric_columns"`)

	htmlPath := filepath.Join(dir, "out", "insights.html")
	require.NoError(t, g.WriteReport("html", htmlPath))
	assert.Contains(t, string(mustRead(t, htmlPath)), "data:image/png;base64,")

	assert.Error(t, g.WriteReport("pdf", filepath.Join(dir, "out", "insights.pdf")))
}

func TestBatchProcess(t *testing.T) {
	dataDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "decks")
	files := []string{
		writeMonthlyCSV(t, dataDir, "north.csv"),
		filepath.Join(dataDir, "missing.csv"),
		filepath.Join(dataDir, "notes.pdf"),
		writeMonthlyCSV(t, dataDir, "south.csv"),
	}

	generated, err := BatchProcess(context.Background(), testConfig(t), files, outDir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(outDir, "north_analysis.pptx"),
		filepath.Join(outDir, "south_analysis.pptx"),
	}, generated)
	for _, out := range generated {
		_, err := os.Stat(out)
		assert.NoError(t, err)
	}
}

func TestBatchProcess_SharedBaseName(t *testing.T) {
	q1, q2 := filepath.Join(t.TempDir(), "q1"), filepath.Join(t.TempDir(), "q2")
	require.NoError(t, os.MkdirAll(q1, 0755))
	require.NoError(t, os.MkdirAll(q2, 0755))
	outDir := t.TempDir()
	files := []string{writeMonthlyCSV(t, q1, "sales.csv"), writeMonthlyCSV(t, q2, "sales.csv")}

	generated, err := BatchProcess(context.Background(), testConfig(t), files, outDir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(outDir, "sales_analysis.pptx"),
		filepath.Join(outDir, "sales_2_analysis.pptx"),
	}, generated)
	for _, out := range generated {
		_, err := os.Stat(out)
		assert.NoError(t, err)
	}
}

func TestBatchNames(t *testing.T) {
	files := []string{"q1/sales.csv", "q2/sales.csv", "sales_2.xlsx", "q3/sales.json", "north.csv"}
	assert.Equal(t, []string{"sales", "sales_2", "sales_2_2", "sales_3", "north"}, batchNames(files))
}

func TestBatchProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BatchProcess(ctx, testConfig(t), []string{"a.csv"}, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "Data_Visualization_Report.pptx", OutputName(DefaultTitle))
	assert.Equal(t, "Q3_Review.pptx", OutputName(" Q3 Review "))
}
