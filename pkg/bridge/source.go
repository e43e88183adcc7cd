/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package bridge

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/albedosehen/dotwin/pkg/errors"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Topic names a configuration domain served by the bridge.
type Topic string

const (
	TopicPackages Topic = "packages"
	TopicTerminal Topic = "terminal"
	TopicProfile  Topic = "profile"
)

// Topics is the list of built-in configuration topics.
var Topics = []Topic{TopicPackages, TopicTerminal, TopicProfile}

// String returns the string representation of the Topic.
func (t Topic) String() string {
	return string(t)
}

// Source supplies raw configuration for a topic. Sources are layered by the
// bridge in registration order, later sources overriding earlier ones. A
// source with nothing to contribute returns (nil, nil).
type Source interface {
	// Name identifies the source in logs and diagnostics.
	Name() string

	// Load returns the source's configuration tree for the topic.
	Load(ctx context.Context, topic Topic) (map[string]any, error)
}

// EmbeddedSource serves the built-in configuration data compiled into the
// binary, one YAML document per topic.
type EmbeddedSource struct{}

// NewEmbeddedSource creates the built-in data source.
func NewEmbeddedSource() *EmbeddedSource {
	return &EmbeddedSource{}
}

// Name returns "embedded".
func (s *EmbeddedSource) Name() string { return "embedded" }

// Load reads the embedded document for the topic. An unknown topic is a
// not-found error.
func (s *EmbeddedSource) Load(_ context.Context, topic Topic) (map[string]any, error) {
	data, err := dataFS.ReadFile(fmt.Sprintf("data/%s.yaml", topic))
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeNotFound,
			"no embedded data for topic", err,
			map[string]any{"topic": topic.String()})
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal,
			"parsing embedded topic data", err,
			map[string]any{"topic": topic.String()})
	}
	return out, nil
}

// FileSource serves user overrides from a configuration directory, one
// optional YAML document per topic (<root>/<topic>.yaml). A missing file
// means no contribution, not an error.
type FileSource struct {
	root string
}

// NewFileSource creates a source over the given configuration directory.
func NewFileSource(root string) *FileSource {
	return &FileSource{root: root}
}

// Name returns the source's directory path.
func (s *FileSource) Name() string { return s.root }

// Load reads <root>/<topic>.yaml when present.
func (s *FileSource) Load(_ context.Context, topic Topic) (map[string]any, error) {
	path := filepath.Join(s.root, fmt.Sprintf("%s.yaml", topic))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapWithContext(errors.ErrCodeOperationFailure,
			"reading topic override file", err,
			map[string]any{"path": path})
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
			"parsing topic override file", err,
			map[string]any{"path": path})
	}
	return out, nil
}
