// Package loader reads CSV, Excel and JSON files into typed datasets.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strings"
	"time"

	"github.com/user/chartdeck-go/internal/models"
	"github.com/user/chartdeck-go/pkg/valueparse"
	"github.com/viant/afs"
)

// Format is a supported input file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for file extensions the loader cannot read.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// typeThreshold is the share of non-missing values that must parse as a type.
const typeThreshold = 0.8

// Options controls loading.
type Options struct {
	// Sheet selects an Excel worksheet by name; empty picks the first sheet with data.
	Sheet string
	// Delimiter overrides CSV delimiter sniffing.
	Delimiter rune
}

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(location string) (Format, error) {
	ext := strings.ToLower(path.Ext(location))
	switch ext {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Load reads location (a local path or any afs URL) and parses it according to its extension.
func Load(ctx context.Context, location string, opts Options) (*models.Dataset, error) {
	data, format, err := Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	return Parse(DatasetName(location), data, format, opts)
}

// Fetch returns the raw contents of location along with its format.
func Fetch(ctx context.Context, location string) ([]byte, Format, error) {
	format, err := FormatFromPath(location)
	if err != nil {
		return nil, "", err
	}
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", location, err)
	}
	return data, format, nil
}

// DatasetName derives a dataset name from a file location.
func DatasetName(location string) string {
	base := path.Base(strings.ReplaceAll(location, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// Parse decodes in-memory file contents.
func Parse(name string, data []byte, format Format, opts Options) (*models.Dataset, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)
	switch format {
	case FormatCSV:
		header, rows, err = readCSV(data, opts.Delimiter)
	case FormatXLSX:
		header, rows, err = readXLSX(data, opts.Sheet)
	case FormatXLS:
		header, rows, err = readXLS(data, opts.Sheet)
	case FormatJSON:
		header, rows, err = readJSON(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s as %s: %w", name, format, err)
	}
	return FromRecords(name, header, rows)
}

func readCSV(data []byte, delim rune) ([]string, [][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if delim == 0 {
		delim = valueparse.SniffDelimiter(data)
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("no header row")
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

// FromRecords builds a dataset from a header and string rows, inferring column types.
// Short rows are padded with missing values; surplus cells are dropped.
func FromRecords(name string, header []string, rows [][]string) (*models.Dataset, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("dataset %s has no columns", name)
	}
	names := uniqueHeaders(header)
	ds := &models.Dataset{Name: name, Rows: len(rows), Columns: make([]*models.Column, len(names))}
	for i, colName := range names {
		raw := make([]string, len(rows))
		for r, row := range rows {
			if i < len(row) {
				raw[r] = strings.TrimSpace(row[i])
			}
		}
		ds.Columns[i] = buildColumn(colName, raw)
	}
	return ds, nil
}

func uniqueHeaders(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		base := h
		for seen[h] > 0 {
			seen[base]++
			h = fmt.Sprintf("%s_%d", base, seen[base])
		}
		seen[h]++
		names[i] = h
	}
	return names
}

func buildColumn(name string, raw []string) *models.Column {
	col := &models.Column{Name: name, Raw: raw, Type: inferType(name, raw)}
	switch col.Type {
	case models.Numeric:
		col.Numbers = make([]float64, len(raw))
		for i, v := range raw {
			col.Numbers[i] = math.NaN()
			if models.IsMissing(v) {
				continue
			}
			if n, ok := valueparse.ParseNumber(v); ok {
				col.Numbers[i] = n
			}
		}
	case models.Temporal:
		col.Times = make([]time.Time, len(raw))
		hinted := valueparse.LooksTemporal(name)
		for i, v := range raw {
			if models.IsMissing(v) {
				continue
			}
			if t, ok := valueparse.ParseTime(v); ok {
				col.Times[i] = t
			} else if hinted {
				if t, ok := valueparse.ParseYear(v); ok {
					col.Times[i] = t
				}
			}
		}
	}
	return col
}

func inferType(name string, raw []string) models.ColumnType {
	var present, numbers, times, years int
	for _, v := range raw {
		if models.IsMissing(v) {
			continue
		}
		present++
		if _, ok := valueparse.ParseNumber(v); ok {
			numbers++
		}
		if _, ok := valueparse.ParseTime(v); ok {
			times++
		}
		if _, ok := valueparse.ParseYear(v); ok {
			years++
		}
	}
	if present == 0 {
		return models.Categorical
	}
	need := int(math.Ceil(float64(present) * typeThreshold))
	switch {
	case times >= need:
		return models.Temporal
	case valueparse.LooksTemporal(name) && times+years >= need:
		return models.Temporal
	case numbers >= need:
		return models.Numeric
	}
	return models.Categorical
}
