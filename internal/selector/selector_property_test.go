package selector

import (
	"errors"
	"fmt"
	"testing"

	"github.com/user/chartdeck-go/internal/models"
	"pgregory.net/rapid"
)

var columnTypes = []models.ColumnType{models.Numeric, models.Categorical, models.Temporal}

func shapeGen() *rapid.Generator[models.Shape] {
	return rapid.Custom(func(t *rapid.T) models.Shape {
		n := rapid.IntRange(0, 6).Draw(t, "columns")
		shape := models.Shape{Rows: rapid.IntRange(0, 500).Draw(t, "rows")}
		for i := 0; i < n; i++ {
			shape.Columns = append(shape.Columns, models.ColumnDescriptor{
				Name:     fmt.Sprintf("col_%d", i),
				Type:     rapid.SampledFrom(columnTypes).Draw(t, fmt.Sprintf("type_%d", i)),
				Distinct: rapid.IntRange(0, 50).Draw(t, fmt.Sprintf("distinct_%d", i)),
			})
		}
		return shape
	})
}

// Selecting twice on the same shape yields the same outcome.
func TestProperty_SelectIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		shape := shapeGen().Draw(t, "shape")

		first, err1 := Select(shape)
		second, err2 := Select(shape)

		if (err1 == nil) != (err2 == nil) {
			t.Fatalf("errors differ: %v vs %v", err1, err2)
		}
		if err1 != nil {
			if err1.Error() != err2.Error() {
				t.Fatalf("error messages differ: %q vs %q", err1, err2)
			}
			return
		}
		if !first.Same(second) || first.Confidence != second.Confidence || first.Reason != second.Reason {
			t.Fatalf("recommendations differ: %+v vs %+v", first, second)
		}
	})
}

// Every successful selection only references columns of the input shape,
// and every failure is one of the two selection errors.
func TestProperty_SelectRolesReferenceShape(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		shape := shapeGen().Draw(t, "shape")

		rec, err := Select(shape)
		if err != nil {
			if !errors.Is(err, ErrInvalidShape) && !errors.Is(err, ErrAmbiguousShape) {
				t.Fatalf("unexpected error kind: %v", err)
			}
			if len(shape.Columns) == 0 || shape.Rows <= 0 {
				if !errors.Is(err, ErrInvalidShape) {
					t.Fatalf("empty shape must be invalid, got %v", err)
				}
			}
			return
		}
		if err := Validate(shape, rec); err != nil {
			t.Fatalf("recommendation %v does not fit shape: %v", rec, err)
		}
	})
}

// One categorical and one numeric column always give pie up to the threshold and bar above it.
func TestProperty_PieBarThreshold(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		distinct := rapid.IntRange(1, 40).Draw(t, "distinct")
		rows := rapid.IntRange(distinct, 400).Draw(t, "rows")
		shape := models.Shape{Rows: rows, Columns: []models.ColumnDescriptor{
			{Name: "label", Type: models.Categorical, Distinct: distinct},
			{Name: "amount", Type: models.Numeric},
		}}

		rec, err := Select(shape)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := models.Bar
		if distinct <= DefaultPieMaxCategories {
			want = models.Pie
		}
		if rec.Kind != want {
			t.Fatalf("distinct=%d: kind %s, want %s", distinct, rec.Kind, want)
		}
		if rec.Roles.Category != "label" || rec.Roles.Value != "amount" {
			t.Fatalf("unexpected roles %+v", rec.Roles)
		}
	})
}

// Recommend never exceeds its cap and never repeats a chart.
func TestProperty_RecommendDistinctAndBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		shape := shapeGen().Draw(t, "shape")
		maxCharts := rapid.IntRange(1, 6).Draw(t, "max")

		recs, err := Recommend(shape, RecommendOptions{MaxCharts: maxCharts})
		if err != nil {
			return
		}
		if len(recs) == 0 || len(recs) > maxCharts {
			t.Fatalf("got %d recommendations, cap %d", len(recs), maxCharts)
		}
		for i := range recs {
			if err := Validate(shape, recs[i]); err != nil {
				t.Fatalf("recommendation %v invalid: %v", recs[i], err)
			}
			for j := i + 1; j < len(recs); j++ {
				if recs[i].Same(recs[j]) {
					t.Fatalf("duplicate recommendation %v", recs[i])
				}
			}
		}
	})
}
