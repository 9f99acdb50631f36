package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"ThreatMonitor/internal/domain"
	"ThreatMonitor/internal/ports"
)

// JSONArtifacts writes pipeline intermediates as indented JSON files.
type JSONArtifacts struct {
	extractedPath string
}

var _ ports.ArtifactStore = (*JSONArtifacts)(nil)

// NewJSONArtifacts targets the post-extract artifact path.
func NewJSONArtifacts(extractedPath string) *JSONArtifacts {
	return &JSONArtifacts{extractedPath: extractedPath}
}

// SaveExtracted overwrites the artifact with [{url, text}].
func (a *JSONArtifacts) SaveExtracted(_ context.Context, items []domain.ExtractedItem) error {
	if items == nil {
		items = []domain.ExtractedItem{}
	}
	return WriteJSON(a.extractedPath, items)
}

// WriteJSON replaces path atomically with the indented encoding of v.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
