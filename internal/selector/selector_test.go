package selector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/chartdeck-go/internal/models"
)

func col(name string, t models.ColumnType, distinct int) models.ColumnDescriptor {
	return models.ColumnDescriptor{Name: name, Type: t, Distinct: distinct}
}

func TestSelect(t *testing.T) {
	testCases := []struct {
		name  string
		shape models.Shape
		kind  models.ChartKind
		roles models.RoleAssignment
		bins  int
	}{
		{
			name:  "temporal and numeric gives line",
			shape: models.Shape{Rows: 12, Columns: []models.ColumnDescriptor{col("Month", models.Temporal, 12), col("Revenue", models.Numeric, 12)}},
			kind:  models.Line,
			roles: models.RoleAssignment{Category: "Month", Value: "Revenue"},
		},
		{
			name:  "numeric before temporal still maps roles by type",
			shape: models.Shape{Rows: 12, Columns: []models.ColumnDescriptor{col("Revenue", models.Numeric, 12), col("Month", models.Temporal, 12)}},
			kind:  models.Line,
			roles: models.RoleAssignment{Category: "Month", Value: "Revenue"},
		},
		{
			name:  "few categories gives pie",
			shape: models.Shape{Rows: 5, Columns: []models.ColumnDescriptor{col("Age_Group", models.Categorical, 5), col("Customers", models.Numeric, 5)}},
			kind:  models.Pie,
			roles: models.RoleAssignment{Category: "Age_Group", Value: "Customers"},
		},
		{
			name:  "eight categories is still a pie",
			shape: models.Shape{Rows: 40, Columns: []models.ColumnDescriptor{col("Region", models.Categorical, 8), col("Sales", models.Numeric, 40)}},
			kind:  models.Pie,
			roles: models.RoleAssignment{Category: "Region", Value: "Sales"},
		},
		{
			name:  "nine categories gives bar",
			shape: models.Shape{Rows: 40, Columns: []models.ColumnDescriptor{col("Region", models.Categorical, 9), col("Sales", models.Numeric, 40)}},
			kind:  models.Bar,
			roles: models.RoleAssignment{Category: "Region", Value: "Sales"},
		},
		{
			name:  "unknown distinct count falls back to rows",
			shape: models.Shape{Rows: 20, Columns: []models.ColumnDescriptor{col("State", models.Categorical, 0), col("Applications", models.Numeric, 0)}},
			kind:  models.Bar,
			roles: models.RoleAssignment{Category: "State", Value: "Applications"},
		},
		{
			name:  "two numerics give scatter",
			shape: models.Shape{Rows: 50, Columns: []models.ColumnDescriptor{col("Experience_Years", models.Numeric, 50), col("Performance_Score", models.Numeric, 50)}},
			kind:  models.Scatter,
			roles: models.RoleAssignment{Category: "Experience_Years", Value: "Performance_Score"},
		},
		{
			name:  "single numeric over many rows gives histogram",
			shape: models.Shape{Rows: 1000, Columns: []models.ColumnDescriptor{col("Credit_Score", models.Numeric, 400)}},
			kind:  models.Histogram,
			roles: models.RoleAssignment{Value: "Credit_Score"},
			bins:  30,
		},
		{
			name:  "multiple numerics over time give area",
			shape: models.Shape{Rows: 12, Columns: []models.ColumnDescriptor{col("Month", models.Temporal, 12), col("Revenue", models.Numeric, 12), col("Expenses", models.Numeric, 12), col("Profit", models.Numeric, 12)}},
			kind:  models.Area,
			roles: models.RoleAssignment{Category: "Month", Value: "Revenue", Series: []string{"Expenses", "Profit"}},
		},
		{
			name:  "multiple numerics across categories give multi-series bar",
			shape: models.Shape{Rows: 6, Columns: []models.ColumnDescriptor{col("Age_Group", models.Categorical, 6), col("Conservative", models.Numeric, 6), col("Moderate", models.Numeric, 6)}},
			kind:  models.Bar,
			roles: models.RoleAssignment{Category: "Age_Group", Value: "Conservative", Series: []string{"Moderate"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Select(tc.shape)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, rec.Kind)
			assert.True(t, tc.roles.Equal(rec.Roles), "roles = %+v, want %+v", rec.Roles, tc.roles)
			assert.Equal(t, tc.bins, rec.Bins)
			assert.NotEmpty(t, rec.Reason)
			assert.NoError(t, Validate(tc.shape, rec))
		})
	}
}

func TestSelect_InvalidShape(t *testing.T) {
	testCases := []struct {
		name  string
		shape models.Shape
	}{
		{"no columns", models.Shape{Rows: 10}},
		{"no rows", models.Shape{Rows: 0, Columns: []models.ColumnDescriptor{col("a", models.Numeric, 0)}}},
		{"negative rows", models.Shape{Rows: -1, Columns: []models.ColumnDescriptor{col("a", models.Numeric, 0)}}},
		{"empty name", models.Shape{Rows: 3, Columns: []models.ColumnDescriptor{col("", models.Numeric, 0)}}},
		{"duplicate name", models.Shape{Rows: 3, Columns: []models.ColumnDescriptor{col("a", models.Numeric, 0), col("a", models.Categorical, 0)}}},
		{"unknown type", models.Shape{Rows: 3, Columns: []models.ColumnDescriptor{col("a", models.ColumnType("boolean"), 0)}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Select(tc.shape)
			require.Error(t, err)
			var shapeErr *InvalidShapeError
			assert.True(t, errors.As(err, &shapeErr), "error %v is not *InvalidShapeError", err)
			assert.ErrorIs(t, err, ErrInvalidShape)
			assert.NotErrorIs(t, err, ErrAmbiguousShape)
		})
	}
}

func TestSelect_AmbiguousShape(t *testing.T) {
	testCases := []struct {
		name  string
		shape models.Shape
	}{
		{"three categorical", models.Shape{Rows: 10, Columns: []models.ColumnDescriptor{col("a", models.Categorical, 3), col("b", models.Categorical, 3), col("c", models.Categorical, 3)}}},
		{"single numeric with few rows", models.Shape{Rows: 19, Columns: []models.ColumnDescriptor{col("score", models.Numeric, 19)}}},
		{"three numerics without axis", models.Shape{Rows: 30, Columns: []models.ColumnDescriptor{col("a", models.Numeric, 0), col("b", models.Numeric, 0), col("c", models.Numeric, 0)}}},
		{"two axes and one numeric", models.Shape{Rows: 30, Columns: []models.ColumnDescriptor{col("when", models.Temporal, 0), col("where", models.Categorical, 0), col("n", models.Numeric, 0)}}},
		{"temporal only", models.Shape{Rows: 30, Columns: []models.ColumnDescriptor{col("when", models.Temporal, 0)}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Select(tc.shape)
			require.Error(t, err)
			var ambiguous *AmbiguousShapeError
			require.True(t, errors.As(err, &ambiguous), "error %v is not *AmbiguousShapeError", err)
			assert.ErrorIs(t, err, ErrAmbiguousShape)
			assert.Equal(t, tc.shape.Rows, ambiguous.Rows)
			assert.True(t, IsSelectionError(err))
		})
	}
}

func TestSelectWithOptions_Thresholds(t *testing.T) {
	shape := models.Shape{Rows: 12, Columns: []models.ColumnDescriptor{col("Product", models.Categorical, 6), col("Sales", models.Numeric, 12)}}

	rec, err := SelectWithOptions(shape, Options{PieMaxCategories: 5})
	require.NoError(t, err)
	assert.Equal(t, models.Bar, rec.Kind)

	rec, err = SelectWithOptions(shape, Options{})
	require.NoError(t, err)
	assert.Equal(t, models.Pie, rec.Kind, "zero options fall back to defaults")

	single := models.Shape{Rows: 10, Columns: []models.ColumnDescriptor{col("x", models.Numeric, 10)}}
	rec, err = SelectWithOptions(single, Options{HistogramMinRows: 10})
	require.NoError(t, err)
	assert.Equal(t, models.Histogram, rec.Kind)
	assert.Equal(t, 5, rec.Bins)
}

func TestHistogramBins(t *testing.T) {
	testCases := []struct {
		rows, want int
	}{
		{1, 5}, {49, 5}, {50, 5}, {60, 6}, {299, 29}, {300, 30}, {100000, 30},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, HistogramBins(tc.rows), "rows=%d", tc.rows)
	}
}
