package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/chartdeck-go/internal/models"
)

func salesShape() models.Shape {
	return models.Shape{Rows: 20, Columns: []models.ColumnDescriptor{
		col("Region", models.Categorical, 5),
		col("Product", models.Categorical, 4),
		col("Sales", models.Numeric, 20),
		col("Quarter", models.Categorical, 4),
	}}
}

func TestRecommend_FallsBackToProjections(t *testing.T) {
	recs, err := Recommend(salesShape(), RecommendOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	// the full shape is ambiguous, so the first view is the first category against the value
	assert.Equal(t, models.Pie, recs[0].Kind)
	assert.Equal(t, "Region", recs[0].Roles.Category)
	assert.Equal(t, "Sales", recs[0].Roles.Value)
	assert.Equal(t, 0.8, recs[0].Confidence)

	require.Len(t, recs, 2)
	assert.Equal(t, models.Histogram, recs[1].Kind)
	assert.Equal(t, 5, recs[1].Bins)
	assert.Equal(t, 0.6, recs[1].Confidence)
}

func TestRecommend_TimeSeries(t *testing.T) {
	shape := models.Shape{Rows: 60, Columns: []models.ColumnDescriptor{
		col("Date", models.Temporal, 60),
		col("Revenue", models.Numeric, 60),
		col("Expenses", models.Numeric, 60),
	}}

	recs, err := Recommend(shape, RecommendOptions{})
	require.NoError(t, err)

	kinds := make([]models.ChartKind, 0, len(recs))
	for _, rec := range recs {
		kinds = append(kinds, rec.Kind)
	}
	assert.Equal(t, []models.ChartKind{models.Area, models.Line, models.Scatter, models.Histogram}, kinds)
	assert.Equal(t, 0.7, recs[2].Confidence)
	assert.Equal(t, 0.6, recs[3].Confidence)
	assert.Equal(t, 6, recs[3].Bins)
}

func TestRecommend_Target(t *testing.T) {
	shape := models.Shape{Rows: 60, Columns: []models.ColumnDescriptor{
		col("Date", models.Temporal, 60),
		col("Revenue", models.Numeric, 60),
		col("Expenses", models.Numeric, 60),
	}}

	recs, err := Recommend(shape, RecommendOptions{Target: "Expenses", MaxCharts: 2})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, models.Line, recs[0].Kind)
	assert.Equal(t, "Expenses", recs[0].Roles.Value)
	assert.Equal(t, models.Scatter, recs[1].Kind)
	assert.Equal(t, "Revenue", recs[1].Roles.Category)
	assert.Equal(t, "Expenses", recs[1].Roles.Value)
}

func TestRecommend_Errors(t *testing.T) {
	_, err := Recommend(models.Shape{}, RecommendOptions{})
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = Recommend(salesShape(), RecommendOptions{Target: "Region"})
	assert.ErrorContains(t, err, "want numeric")

	_, err = Recommend(salesShape(), RecommendOptions{Target: "Missing"})
	assert.ErrorContains(t, err, "not found")

	categorical := models.Shape{Rows: 10, Columns: []models.ColumnDescriptor{col("a", models.Categorical, 2), col("b", models.Categorical, 2)}}
	_, err = Recommend(categorical, RecommendOptions{})
	assert.ErrorIs(t, err, ErrAmbiguousShape)
}

func TestCustom(t *testing.T) {
	shape := models.Shape{Rows: 12, Columns: []models.ColumnDescriptor{
		col("Quarter", models.Categorical, 4),
		col("Wealth", models.Numeric, 12),
		col("Banking", models.Numeric, 12),
	}}

	rec, err := Custom(shape, models.Bar, models.RoleAssignment{Category: "Quarter", Value: "Wealth", Series: []string{"Banking"}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, rec.Confidence)

	rec, err = Custom(shape, models.Histogram, models.RoleAssignment{Value: "Banking"})
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Bins)

	rec, err = Custom(shape, models.Scatter, models.RoleAssignment{Category: "Wealth", Value: "Banking"})
	require.NoError(t, err)
	assert.Equal(t, models.Scatter, rec.Kind)

	invalid := []struct {
		name  string
		kind  models.ChartKind
		roles models.RoleAssignment
	}{
		{"unknown kind", models.ChartKind("radar"), models.RoleAssignment{Category: "Quarter", Value: "Wealth"}},
		{"missing column", models.Line, models.RoleAssignment{Category: "Month", Value: "Wealth"}},
		{"categorical value", models.Bar, models.RoleAssignment{Category: "Wealth", Value: "Quarter"}},
		{"histogram with category", models.Histogram, models.RoleAssignment{Category: "Quarter", Value: "Wealth"}},
		{"pie with series", models.Pie, models.RoleAssignment{Category: "Quarter", Value: "Wealth", Series: []string{"Banking"}}},
		{"scatter on categories", models.Scatter, models.RoleAssignment{Category: "Quarter", Value: "Wealth"}},
		{"line without category", models.Line, models.RoleAssignment{Value: "Wealth"}},
		{"column reused", models.Bar, models.RoleAssignment{Category: "Quarter", Value: "Wealth", Series: []string{"Wealth"}}},
		{"no value", models.Bar, models.RoleAssignment{Category: "Quarter"}},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Custom(shape, tc.kind, tc.roles)
			assert.ErrorIs(t, err, ErrInvalidRecommendation)
		})
	}
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind(" Histogram ")
	require.NoError(t, err)
	assert.Equal(t, models.Histogram, kind)

	_, err = ParseKind("donut")
	assert.ErrorContains(t, err, "valid types: bar, line, pie, scatter, area, histogram")
}
