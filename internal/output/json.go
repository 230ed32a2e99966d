// Package output persists the collected repository records as a JSON document.
//
// The document is a top-level array of records in collection order, indented
// with two spaces. Non-ASCII text and HTML-sensitive characters are written
// verbatim. Writes go through a temp file that is synced and renamed over the
// destination, so a crash never leaves a half-written portfolio behind.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Kamar-Folarin/github-portfolio/internal/models"
)

// SaveToJSON writes records to filePath atomically, creating or replacing it.
// A nil collection is written as an empty array.
func SaveToJSON(filePath string, records []models.RepositoryRecord) (err error) {
	if records == nil {
		records = []models.RepositoryRecord{}
	}

	if dir := filepath.Dir(filePath); dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	tmpFile := filePath + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to create temp file %s: %w", tmpFile, err)
	}

	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(tmpFile)
		}
	}()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err = encoder.Encode(records); err != nil {
		return fmt.Errorf("failed to write JSON to %s: %w", tmpFile, err)
	}
	if err = file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file %s: %w", tmpFile, err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", tmpFile, err)
	}

	if err = os.Rename(tmpFile, filePath); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filePath, err)
	}
	return nil
}

// ReadJSON reads a collection previously written by SaveToJSON
func ReadJSON(filePath string) ([]models.RepositoryRecord, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file %s: %w", filePath, err)
	}

	records := []models.RepositoryRecord{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse JSON file %s: %w", filePath, err)
	}
	return records, nil
}
