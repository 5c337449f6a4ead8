package fileutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// EnsureDir creates a directory (and parents) if it does not exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// SaveJSON writes v as indented JSON to dir/filename.json and returns the
// full path.
func SaveJSON(dir, filename string, v any) (string, error) {
	if err := EnsureDir(dir); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	outputPath := filepath.Join(dir, filename+".json")
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write json file: %w", err)
	}
	return outputPath, nil
}

// ReadJSON decodes a JSON file into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read json file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode json file: %w", err)
	}
	return nil
}

// OutputFilename derives a collision-free name (without extension) for a
// conversion's persisted output from the original filename, the conversion
// id and the current time.
func OutputFilename(originalName string, conversionID int64) string {
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	return fmt.Sprintf("%s_%d_%d", Slugify(base), conversionID, time.Now().UnixMilli())
}

// Slugify lowercases a name and collapses anything outside [a-z0-9] into
// single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "document"
	}
	return slug
}

// CleanupTempFile removes an uploaded file. Failure is logged, never
// surfaced: a leftover temp file must not fail a pipeline run.
func CleanupTempFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("cleanup temp file failed")
	}
}

// FileExists reports whether path refers to an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
