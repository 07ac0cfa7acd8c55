package selector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/user/chartdeck-go/internal/models"
)

// DefaultMaxCharts caps the number of recommendations returned by Recommend.
const DefaultMaxCharts = 5

// RecommendOptions controls Recommend.
type RecommendOptions struct {
	Options
	// Target focuses recommendations on one numeric column.
	Target    string
	MaxCharts int
}

type candidate struct {
	columns    []string
	confidence float64 // 0 keeps the selector's own confidence
}

// Recommend returns up to MaxCharts distinct charts for shape: the primary selection
// followed by alternative views computed on projections of the shape.
func Recommend(shape models.Shape, opts RecommendOptions) ([]models.Recommendation, error) {
	if err := checkShape(shape); err != nil {
		return nil, err
	}
	sel := opts.Options.withDefaults()
	maxCharts := opts.MaxCharts
	if maxCharts <= 0 {
		maxCharts = DefaultMaxCharts
	}

	numeric := shape.ColumnsOf(models.Numeric)
	categorical := shape.ColumnsOf(models.Categorical)
	temporal := shape.ColumnsOf(models.Temporal)

	value := ""
	if opts.Target != "" {
		col, ok := shape.Column(opts.Target)
		if !ok {
			return nil, fmt.Errorf("target column %q not found", opts.Target)
		}
		if col.Type != models.Numeric {
			return nil, fmt.Errorf("target column %q is %s, want numeric", opts.Target, col.Type)
		}
		value = opts.Target
	} else if len(numeric) > 0 {
		value = numeric[0]
	}

	var recs []models.Recommendation
	add := func(rec models.Recommendation, confidence float64) {
		if value != "" && rec.Roles.Value != value && !(rec.Kind == models.Scatter && rec.Roles.Category == value) {
			return
		}
		for _, existing := range recs {
			if existing.Same(rec) {
				return
			}
		}
		if confidence > 0 {
			rec.Confidence = confidence
		}
		recs = append(recs, rec)
	}

	primary, primaryErr := selectChart(shape, sel)
	if primaryErr == nil {
		add(primary, 0)
	}

	var candidates []candidate
	if value != "" {
		if len(temporal) > 0 {
			candidates = append(candidates, candidate{columns: []string{temporal[0], value}})
		}
		if len(numeric) >= 2 {
			other := numeric[0]
			if other == value {
				other = numeric[1]
			}
			candidates = append(candidates, candidate{columns: []string{other, value}, confidence: 0.7})
		}
		if len(categorical) > 0 {
			candidates = append(candidates, candidate{columns: []string{categorical[0], value}, confidence: 0.8})
		}
		candidates = append(candidates, candidate{columns: []string{value}, confidence: 0.6})
	}

	for _, cand := range candidates {
		rec, err := selectChart(shape.Project(cand.columns...), sel)
		if err != nil {
			continue
		}
		add(rec, cand.confidence)
	}

	if len(recs) == 0 {
		if primaryErr != nil {
			return nil, primaryErr
		}
		return nil, &AmbiguousShapeError{
			Numeric:     len(numeric),
			Categorical: len(categorical),
			Temporal:    len(temporal),
			Rows:        shape.Rows,
		}
	}
	if len(recs) > maxCharts {
		recs = recs[:maxCharts]
	}
	return recs, nil
}

// Custom validates a caller-chosen chart against shape and fills in derived settings.
func Custom(shape models.Shape, kind models.ChartKind, roles models.RoleAssignment) (models.Recommendation, error) {
	if err := checkShape(shape); err != nil {
		return models.Recommendation{}, err
	}
	rec := models.Recommendation{Kind: kind, Roles: roles, Confidence: 1, Reason: "custom chart"}
	if err := Validate(shape, rec); err != nil {
		return models.Recommendation{}, err
	}

	invalid := func(format string, args ...any) error {
		return &InvalidRecommendationError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
	}
	for _, name := range roles.ValueColumns() {
		col, _ := shape.Column(name)
		if col.Type != models.Numeric {
			return models.Recommendation{}, invalid("value column %q is %s, want numeric", name, col.Type)
		}
	}

	switch kind {
	case models.Histogram:
		if roles.Category != "" || len(roles.Series) > 0 {
			return models.Recommendation{}, invalid("takes a single value column")
		}
		rec.Bins = HistogramBins(shape.Rows)
	case models.Pie:
		if roles.Category == "" {
			return models.Recommendation{}, invalid("category column required")
		}
		if len(roles.Series) > 0 {
			return models.Recommendation{}, invalid("takes a single value column")
		}
	case models.Scatter:
		if roles.Category == "" {
			return models.Recommendation{}, invalid("x column required")
		}
		if col, _ := shape.Column(roles.Category); col.Type != models.Numeric {
			return models.Recommendation{}, invalid("x column %q is %s, want numeric", roles.Category, col.Type)
		}
	default:
		if roles.Category == "" {
			return models.Recommendation{}, invalid("category column required")
		}
	}
	return rec, nil
}

// Validate checks that rec has a known kind, a value column, and references only
// columns present in shape, each in at most one role.
func Validate(shape models.Shape, rec models.Recommendation) error {
	if _, err := ParseKind(string(rec.Kind)); err != nil {
		return &InvalidRecommendationError{Kind: rec.Kind, Reason: err.Error()}
	}
	if rec.Roles.Value == "" {
		return &InvalidRecommendationError{Kind: rec.Kind, Reason: "value column required"}
	}
	seen := make(map[string]bool)
	for _, name := range rec.Roles.Columns() {
		if _, ok := shape.Column(name); !ok {
			return &InvalidRecommendationError{Kind: rec.Kind, Reason: fmt.Sprintf("column %q not in dataset", name)}
		}
		if seen[name] {
			return &InvalidRecommendationError{Kind: rec.Kind, Reason: fmt.Sprintf("column %q used twice", name)}
		}
		seen[name] = true
	}
	return nil
}

// ParseKind parses a chart kind name, case-insensitively.
func ParseKind(s string) (models.ChartKind, error) {
	kind := models.ChartKind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range models.ChartKinds {
		if k == kind {
			return k, nil
		}
	}
	names := make([]string, len(models.ChartKinds))
	for i, k := range models.ChartKinds {
		names[i] = string(k)
	}
	return "", fmt.Errorf("unknown chart type %q, valid types: %s", s, strings.Join(names, ", "))
}

// IsSelectionError reports whether err came from shape validation or rule matching.
func IsSelectionError(err error) bool {
	return errors.Is(err, ErrInvalidShape) || errors.Is(err, ErrAmbiguousShape)
}
