/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package item

import (
	"context"
	"fmt"
)

// RegistryItem declares that a settings-store value should hold a specific
// value.
type RegistryItem struct {
	Base

	path      string
	valueName string
	value     string
	valueType string
	editor    RegistryEditor
}

// NewRegistryItem creates a registry item. valueType defaults to "string"
// when empty.
func NewRegistryItem(name, path, valueName, value, valueType string, editor RegistryEditor, opts ...BaseOption) *RegistryItem {
	if valueType == "" {
		valueType = "string"
	}
	return &RegistryItem{
		Base:      NewBase(name, TypeRegistry, opts...),
		path:      path,
		valueName: valueName,
		value:     value,
		valueType: valueType,
		editor:    editor,
	}
}

// Path returns the settings-store path the item manages.
func (r *RegistryItem) Path() string { return r.path }

// Test reports whether the stored value matches the desired value. A
// missing key or value is a clean false, never an error.
func (r *RegistryItem) Test(ctx context.Context) (bool, error) {
	if r.editor == nil {
		return false, fmt.Errorf("%w: registry item %q has no editor", ErrNotImplemented, r.Name())
	}
	current, exists, err := r.editor.Read(ctx, r.path, r.valueName)
	if err != nil {
		return false, fmt.Errorf("reading %s\\%s: %w", r.path, r.valueName, err)
	}
	return exists && current == r.value, nil
}

// Apply writes the desired value. Writes are idempotent at the store level,
// so no pre-check is needed.
func (r *RegistryItem) Apply(ctx context.Context) error {
	if r.editor == nil {
		return fmt.Errorf("%w: registry item %q has no editor", ErrNotImplemented, r.Name())
	}
	if err := r.editor.Write(ctx, r.path, r.valueName, r.value, r.valueType); err != nil {
		return fmt.Errorf("writing %s\\%s: %w", r.path, r.valueName, err)
	}
	return nil
}

// CurrentState snapshots the observed store value.
func (r *RegistryItem) CurrentState(ctx context.Context) map[string]any {
	state := map[string]any{
		"name":      r.Name(),
		"type":      r.Type().String(),
		"path":      r.path,
		"valueName": r.valueName,
		"desired":   r.value,
	}
	if r.editor == nil {
		state[StateErrorKey] = "no registry editor configured"
		return state
	}
	current, exists, err := r.editor.Read(ctx, r.path, r.valueName)
	if err != nil {
		state[StateErrorKey] = err.Error()
		return state
	}
	state["exists"] = exists
	if exists {
		state["current"] = current
	}
	return state
}
