package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Manifest selects the units enabled for a registry owner.
//
//	owner: github.com/acme/shapes
//	units:
//	  - name: circle
//	  - name: square
//	    enabled: false
type Manifest struct {
	Owner string         `yaml:"owner,omitempty"`
	Units []ManifestUnit `yaml:"units"`
}

// ManifestUnit is one manifest entry. Enabled defaults to true.
type ManifestUnit struct {
	Name    string `yaml:"name"`
	Enabled *bool  `yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the unit is enabled.
func (u ManifestUnit) IsEnabled() bool {
	return u.Enabled == nil || *u.Enabled
}

// ParseManifest decodes a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse plugin manifest: %w", err)
	}
	for i, u := range m.Units {
		if u.Name == "" {
			return nil, fmt.Errorf("parse plugin manifest: unit %d has no name", i)
		}
	}
	return &m, nil
}

// ManifestSource filters another Source through a YAML manifest file. The
// file is re-read on every Discover so edits take effect on reload.
type ManifestSource struct {
	path   string
	inner  Source
	logger *zap.Logger
}

// NewManifestSource creates a ManifestSource reading path and selecting from
// inner.
func NewManifestSource(path string, inner Source, logger *zap.Logger) *ManifestSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManifestSource{
		path:   path,
		inner:  inner,
		logger: logger.With(zap.String("component", "plugin_manifest"), zap.String("path", path)),
	}
}

// Name implements Source.
func (s *ManifestSource) Name() string { return "manifest:" + s.path }

// Discover implements Source. Candidates are returned in manifest order.
func (s *ManifestSource) Discover(ctx context.Context, owner string) ([]Candidate, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("plugin manifest does not exist")
			return nil, nil
		}
		return nil, fmt.Errorf("read plugin manifest: %w", err)
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	if m.Owner != "" && m.Owner != owner {
		s.logger.Debug("plugin manifest belongs to another owner",
			zap.String("manifest_owner", m.Owner),
			zap.String("owner", owner))
		return nil, nil
	}

	all, err := s.inner.Discover(ctx, owner)
	if err != nil {
		return nil, err
	}
	byUnit := make(map[string]Candidate, len(all))
	for _, c := range all {
		byUnit[c.Unit] = c
	}

	var out []Candidate
	for _, u := range m.Units {
		if !u.IsEnabled() {
			s.logger.Debug("plugin unit disabled", zap.String("unit", u.Name))
			continue
		}
		c, ok := byUnit[u.Name]
		if !ok {
			s.logger.Warn("plugin unit listed in manifest was not found", zap.String("unit", u.Name))
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
