/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package item

import (
	"context"
	"fmt"
)

// FeatureItem declares that an optional OS feature should be enabled or
// disabled.
type FeatureItem struct {
	Base

	feature string
	desired bool
	tog     FeatureToggler
}

// NewFeatureItem creates a feature item. desired is the target enablement
// state of the OS feature, not of the item itself.
func NewFeatureItem(name, feature string, desired bool, tog FeatureToggler, opts ...BaseOption) *FeatureItem {
	return &FeatureItem{
		Base:    NewBase(name, TypeFeature, opts...),
		feature: feature,
		desired: desired,
		tog:     tog,
	}
}

// Feature returns the managed feature name.
func (f *FeatureItem) Feature() string { return f.feature }

// Test reports whether the feature's enablement matches the desired state.
// An unknown feature reads as disabled, never as an error.
func (f *FeatureItem) Test(ctx context.Context) (bool, error) {
	if f.tog == nil {
		return false, fmt.Errorf("%w: feature item %q has no toggler", ErrNotImplemented, f.Name())
	}
	enabled, err := f.tog.IsEnabled(ctx, f.feature)
	if err != nil {
		return false, fmt.Errorf("checking feature %s: %w", f.feature, err)
	}
	return enabled == f.desired, nil
}

// Apply toggles the feature toward the desired state. Re-applying a
// satisfied item is a no-op.
func (f *FeatureItem) Apply(ctx context.Context) error {
	ok, err := f.Test(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if f.desired {
		err = f.tog.Enable(ctx, f.feature)
	} else {
		err = f.tog.Disable(ctx, f.feature)
	}
	if err != nil {
		return fmt.Errorf("toggling feature %s: %w", f.feature, err)
	}
	return nil
}

// CurrentState snapshots the observed feature state.
func (f *FeatureItem) CurrentState(ctx context.Context) map[string]any {
	state := map[string]any{
		"name":    f.Name(),
		"type":    f.Type().String(),
		"feature": f.feature,
		"desired": f.desired,
	}
	if f.tog == nil {
		state[StateErrorKey] = "no feature toggler configured"
		return state
	}
	enabled, err := f.tog.IsEnabled(ctx, f.feature)
	if err != nil {
		state[StateErrorKey] = err.Error()
		return state
	}
	state["enabled"] = enabled
	return state
}
