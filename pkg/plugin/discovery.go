/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package plugin

import (
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/albedosehen/dotwin/pkg/errors"
)

// ManifestFileNames are the file names Discover recognizes inside a plugin
// directory.
var ManifestFileNames = []string{"plugin.yaml", "plugin.yml"}

// Discover scans the manager's search paths for plugin manifests. Each
// immediate subdirectory holding a manifest file yields one Manifest.
// Missing search paths are skipped silently; a malformed manifest fails
// the scan.
func (m *Manager) Discover() ([]*Manifest, error) {
	m.mu.RLock()
	paths := make([]string, len(m.paths))
	copy(paths, m.paths)
	m.mu.RUnlock()

	var found []*Manifest
	for _, root := range paths {
		entries, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				slog.Debug("plugin search path does not exist, skipping", slog.String("path", root))
				continue
			}
			return nil, errors.WrapWithContext(errors.ErrCodeOperationFailure,
				"reading plugin search path", err,
				map[string]any{"path": root})
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			manifest, err := readManifestDir(filepath.Join(root, entry.Name()))
			if err != nil {
				return nil, err
			}
			if manifest != nil {
				found = append(found, manifest)
			}
		}
	}

	slog.Debug("plugin discovery complete", slog.Int("found", len(found)))
	return found, nil
}

// readManifestDir parses the manifest in dir, returning nil when the
// directory holds none.
func readManifestDir(dir string) (*Manifest, error) {
	for _, name := range ManifestFileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.WrapWithContext(errors.ErrCodeOperationFailure,
				"reading plugin manifest", err,
				map[string]any{"path": path})
		}

		var manifest Manifest
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
				"parsing plugin manifest", err,
				map[string]any{"path": path})
		}
		if err := manifest.Validate(); err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
				"invalid plugin manifest", err,
				map[string]any{"path": path})
		}
		return &manifest, nil
	}
	return nil, nil
}
