package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"qr-extrude/internal/alignment"
	"qr-extrude/internal/region"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the settings file format version written by Save.
const CurrentVersion = 1

// Settings is the YAML settings file.
type Settings struct {
	Version    int                   `yaml:"version"`
	Fiducial   alignment.Dimensions  `yaml:"fiducial"`
	Extraction region.ExtractOptions `yaml:"extraction"`
	Capture    CaptureSettings       `yaml:"capture"`
	Overlay    OverlaySettings       `yaml:"overlay"`
	Categories []Category            `yaml:"categories"`
}

// CaptureSettings configures the camera loop.
type CaptureSettings struct {
	Device   int           `yaml:"device"`
	Interval time.Duration `yaml:"interval"`
}

// OverlaySettings configures the mesh hand-off.
type OverlaySettings struct {
	IDPrefix  string `yaml:"id_prefix"`
	OutputDir string `yaml:"output_dir"`
}

// Default returns the settings of the reference setup.
func Default() Settings {
	return Settings{
		Version:    CurrentVersion,
		Fiducial:   alignment.DefaultDimensions(),
		Extraction: region.DefaultExtractOptions(),
		Capture: CaptureSettings{
			Device:   0,
			Interval: 100 * time.Millisecond,
		},
		Overlay: OverlaySettings{
			IDPrefix:  "atelier-34",
			OutputDir: "out",
		},
		Categories: DefaultCategories(),
	}
}

// Validate checks every section.
func (s *Settings) Validate() error {
	if err := s.Fiducial.Validate(); err != nil {
		return fmt.Errorf("fiducial: %w", err)
	}
	if err := s.Extraction.Validate(); err != nil {
		return fmt.Errorf("extraction: %w", err)
	}
	if s.Capture.Interval <= 0 {
		return fmt.Errorf("capture: interval must be positive, got %v", s.Capture.Interval)
	}
	if s.Overlay.IDPrefix == "" {
		return fmt.Errorf("overlay: id_prefix is empty")
	}
	// NewTable does the per-category and duplicate checks.
	if _, err := NewTable(s.Categories); err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	return nil
}

// Load reads a settings file. Missing keys keep their default values.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.Version > CurrentVersion {
		return nil, fmt.Errorf("%s: unsupported settings version %d", path, s.Version)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// Save writes the settings to path, replacing the file atomically.
func (s *Settings) Save(path string) error {
	s.Version = CurrentVersion

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
