/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package serializer

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.in/yaml.v3"
)

type sample struct {
	Name    string            `json:"name" yaml:"name"`
	Count   int               `json:"count" yaml:"count"`
	Tags    []string          `json:"tags" yaml:"tags"`
	Details map[string]string `json:"details" yaml:"details"`
}

func testSample() sample {
	return sample{
		Name:    "dotwin",
		Count:   3,
		Tags:    []string{"a", "b"},
		Details: map[string]string{"owner": "me"},
	}
}

func TestFormatIsUnknown(t *testing.T) {
	assert.False(t, FormatJSON.IsUnknown())
	assert.False(t, FormatYAML.IsUnknown())
	assert.False(t, FormatTable.IsUnknown())
	assert.True(t, Format("xml").IsUnknown())
	assert.Len(t, SupportedFormats(), 3)
}

func TestWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatJSON, &buf)
	require.NoError(t, w.Serialize(t.Context(), testSample()))

	var decoded sample
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, testSample(), decoded)
}

func TestWriterYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatYAML, &buf)
	require.NoError(t, w.Serialize(t.Context(), testSample()))

	var decoded sample
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, testSample(), decoded)
}

func TestWriterTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)
	require.NoError(t, w.Serialize(t.Context(), testSample()))

	out := buf.String()
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "dotwin")
	assert.Contains(t, out, "Tags.[0]")
	assert.Contains(t, out, "Details.owner")
}

func TestWriterTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)
	require.NoError(t, w.Serialize(t.Context(), struct{}{}))
	assert.Contains(t, buf.String(), "<empty>")
}

func TestWriterUnknownFormatDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(Format("xml"), &buf)
	require.NoError(t, w.Serialize(t.Context(), testSample()))
	assert.True(t, json.Valid(buf.Bytes()))
}

func TestFileWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")

	w := NewFileWriterOrStdout(FormatYAML, path)
	require.NoError(t, w.Serialize(t.Context(), testSample()))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	var decoded sample
	require.NoError(t, FromFile(path, &decoded))
	assert.Equal(t, testSample(), decoded)
}

func TestFileWriterEmptyPathFallsBackToStdout(t *testing.T) {
	w := NewFileWriterOrStdout(FormatJSON, "  ")
	assert.NoError(t, w.Close())
}

func TestReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(FormatJSON, &buf).Serialize(t.Context(), testSample()))

	r, err := NewReader(FormatJSON, &buf)
	require.NoError(t, err)
	var decoded sample
	require.NoError(t, r.Deserialize(&decoded))
	assert.Equal(t, testSample(), decoded)
}

func TestReaderRejectsTableAndUnknown(t *testing.T) {
	_, err := NewReader(FormatTable, strings.NewReader(""))
	assert.Error(t, err)
	_, err = NewReader(Format("xml"), strings.NewReader(""))
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("data.json"))
	assert.Equal(t, FormatYAML, FormatFromPath("data.YAML"))
	assert.Equal(t, FormatYAML, FormatFromPath("data.yml"))
	assert.Equal(t, FormatTable, FormatFromPath("data.txt"))
	assert.Equal(t, FormatJSON, FormatFromPath("data.bin"))
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	w := NewFileWriterOrStdout(FormatYAML, path)
	require.NoError(t, w.Serialize(t.Context(), testSample()))
	require.NoError(t, w.Close())

	var decoded sample
	require.NoError(t, FromFile(path, &decoded))
	assert.Equal(t, testSample(), decoded)

	assert.Error(t, FromFile(filepath.Join(t.TempDir(), "missing.yaml"), &decoded))
}
