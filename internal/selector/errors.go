package selector

import (
	"errors"
	"fmt"

	"github.com/user/chartdeck-go/internal/models"
)

var (
	// ErrInvalidShape matches any *InvalidShapeError via errors.Is.
	ErrInvalidShape = errors.New("invalid dataset shape")
	// ErrAmbiguousShape matches any *AmbiguousShapeError via errors.Is.
	ErrAmbiguousShape = errors.New("ambiguous dataset shape")
	// ErrInvalidRecommendation matches any *InvalidRecommendationError via errors.Is.
	ErrInvalidRecommendation = errors.New("invalid chart recommendation")
)

// InvalidShapeError reports a malformed or empty dataset shape.
type InvalidShapeError struct {
	Reason string
}

func (e *InvalidShapeError) Error() string {
	return fmt.Sprintf("invalid dataset shape: %s", e.Reason)
}

func (e *InvalidShapeError) Is(target error) bool { return target == ErrInvalidShape }

// AmbiguousShapeError reports a shape that no selection rule matches.
type AmbiguousShapeError struct {
	Numeric, Categorical, Temporal int
	Rows                           int
}

func (e *AmbiguousShapeError) Error() string {
	return fmt.Sprintf("no chart rule matches %d numeric, %d categorical and %d temporal columns over %d rows",
		e.Numeric, e.Categorical, e.Temporal, e.Rows)
}

func (e *AmbiguousShapeError) Is(target error) bool { return target == ErrAmbiguousShape }

// InvalidRecommendationError reports a chart whose roles do not fit the dataset.
type InvalidRecommendationError struct {
	Kind   models.ChartKind
	Reason string
}

func (e *InvalidRecommendationError) Error() string {
	return fmt.Sprintf("invalid %s chart: %s", e.Kind, e.Reason)
}

func (e *InvalidRecommendationError) Is(target error) bool { return target == ErrInvalidRecommendation }
