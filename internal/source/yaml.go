package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"rentalsearch/internal/model"
	"rentalsearch/internal/utils"
)

// snapshotFile is the on-disk layout of a listing snapshot
type snapshotFile struct {
	Listings []model.Listing `yaml:"listings"`
}

// FileSource loads listings from a YAML snapshot
type FileSource struct {
	path string
}

// NewFileSource creates a YAML snapshot source
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// LoadListings reads and normalizes the snapshot file
func (f *FileSource) LoadListings(_ context.Context) ([]model.Listing, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing file %s: %w", f.path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML snapshot. Free-text housing types are normalized.
func Parse(data []byte) ([]model.Listing, error) {
	var snap snapshotFile
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse listing snapshot: %w", err)
	}

	for i := range snap.Listings {
		l := &snap.Listings[i]
		l.ID = strings.TrimSpace(l.ID)
		if t, ok := utils.NormalizeHousingType(string(l.HousingType)); ok {
			l.HousingType = t
		} else {
			l.HousingType = model.HousingUnknown
		}
		if l.Source == "" {
			l.Source = "file"
		}
	}
	return snap.Listings, nil
}
