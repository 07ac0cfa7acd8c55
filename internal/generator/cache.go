package generator

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/highwayhash"
	"github.com/sirupsen/logrus"
	"github.com/user/chartdeck-go/internal/loader"
	"github.com/user/chartdeck-go/internal/models"
	"github.com/user/chartdeck-go/internal/selector"
)

// cacheFormat is bumped whenever the cached Insights layout changes.
const cacheFormat = "insights-v1"

var cacheHashKey = []byte("chartdeck-insights-cache-key-256")

// InsightsCache stores analysed insights on disk, one gob-encoded, zip-compressed
// file per input.
type InsightsCache struct {
	Dir string
}

// CacheKey identifies the insights of data parsed as format with load and
// analysed with opts.
func CacheKey(data []byte, format loader.Format, load loader.Options, opts selector.Options) (string, error) {
	h, err := highwayhash.New(cacheHashKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cache hash: %w", err)
	}
	fmt.Fprintf(h, "%s/%d/%d/%s/%q/%q/", cacheFormat, opts.PieMaxCategories, opts.HistogramMinRows,
		format, load.Sheet, load.Delimiter)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// cachePath returns the path to the cache file for key.
func (c *InsightsCache) cachePath(key string) string {
	return filepath.Join(c.Dir, key+".zip.gob")
}

// CacheExists checks if a cache file exists for key.
func (c *InsightsCache) CacheExists(key string) bool {
	_, err := os.Stat(c.cachePath(key))
	return !os.IsNotExist(err)
}

// SaveCache saves insights to a gob-encoded, zip-compressed file.
func (c *InsightsCache) SaveCache(key string, in *models.Insights) error {
	cacheFile := c.cachePath(key)
	if err := os.MkdirAll(filepath.Dir(cacheFile), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", filepath.Dir(cacheFile), err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(in); err != nil {
		return fmt.Errorf("failed to gob-encode insights: %w", err)
	}

	// concurrent runs may share a key, so the file is written aside and renamed into place
	zipFile, err := os.CreateTemp(filepath.Dir(cacheFile), ".insights-*")
	if err != nil {
		return fmt.Errorf("failed to create zip cache file %s: %w", cacheFile, err)
	}
	tmpName := zipFile.Name()
	defer os.Remove(tmpName)

	zipWriter := zip.NewWriter(zipFile)
	dataWriter, err := zipWriter.Create("data.gob")
	if err != nil {
		zipFile.Close()
		return fmt.Errorf("failed to create data.gob entry in zip: %w", err)
	}
	if _, err := dataWriter.Write(buf.Bytes()); err != nil {
		zipFile.Close()
		return fmt.Errorf("failed to write gob data to zip entry: %w", err)
	}
	if err := zipWriter.Close(); err != nil {
		zipFile.Close()
		return fmt.Errorf("failed to close zip writer: %w", err)
	}
	if err := zipFile.Close(); err != nil {
		return fmt.Errorf("failed to close zip cache file %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, cacheFile); err != nil {
		return fmt.Errorf("failed to move cache file into place: %w", err)
	}
	logrus.Debugf("insights cached to %s", cacheFile)
	return nil
}

// LoadCache loads insights from a gob-encoded, zip-compressed file.
func (c *InsightsCache) LoadCache(key string) (*models.Insights, error) {
	cacheFile := c.cachePath(key)
	zipReader, err := zip.OpenReader(cacheFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip cache file %s: %w", cacheFile, err)
	}
	defer zipReader.Close()

	if len(zipReader.File) == 0 || zipReader.File[0].Name != "data.gob" {
		return nil, fmt.Errorf("invalid cache file format: data.gob not found")
	}

	dataFile, err := zipReader.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open data.gob from zip: %w", err)
	}
	defer dataFile.Close()

	var in models.Insights
	if err := gob.NewDecoder(dataFile).Decode(&in); err != nil {
		return nil, fmt.Errorf("failed to gob-decode insights: %w", err)
	}
	// an incomplete entry is treated like a corrupt one
	if in.Name == "" || in.AnalyzedAt.IsZero() {
		return nil, fmt.Errorf("cache file %s is incomplete", cacheFile)
	}
	logrus.Debugf("insights loaded from %s", cacheFile)
	return &in, nil
}

// ClearCache removes the cache file for key. A missing file is not an error.
func (c *InsightsCache) ClearCache(key string) error {
	err := os.Remove(c.cachePath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache file %s: %w", c.cachePath(key), err)
	}
	return nil
}
