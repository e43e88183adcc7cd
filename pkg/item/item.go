/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package item

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotImplemented is returned when a contract operation is invoked on a
// variant that does not implement it. This signals a programming error (or a
// plugin-supplied variant missing a capability), distinct from a legitimate
// runtime failure during test or apply.
var ErrNotImplemented = errors.New("not implemented by item variant")

// StateErrorKey is the key under which CurrentState surfaces capture errors
// instead of propagating them.
const StateErrorKey = "error"

// Type discriminates the polymorphic configuration item variants.
type Type string

const (
	TypePackage  Type = "package"
	TypeRegistry Type = "registry"
	TypeService  Type = "service"
	TypeFeature  Type = "feature"
	TypeProfile  Type = "profile"
	TypeTerminal Type = "terminal"
)

// Types is the list of all built-in item types.
var Types = []Type{
	TypePackage,
	TypeRegistry,
	TypeService,
	TypeFeature,
	TypeProfile,
	TypeTerminal,
}

// String returns the string representation of the item Type.
func (t Type) String() string {
	return string(t)
}

// ParseType parses a string into an item Type.
// Returns the Type and true on success, or empty Type and false otherwise.
func ParseType(s string) (Type, bool) {
	for _, t := range Types {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Item is a single declarative unit of desired system state.
//
// Test reports whether the system already satisfies the item. It must not
// mutate anything, and "not installed/absent" is a false result, not an
// error; errors are reserved for genuine operational failure.
//
// Apply mutates the system toward the desired state and must be safe to
// invoke repeatedly.
//
// CurrentState returns a diagnostic snapshot. Capture failures are surfaced
// under StateErrorKey in the returned map rather than propagated.
type Item interface {
	Name() string
	Type() Type
	IsEnabled() bool
	IsCritical() bool

	Test(ctx context.Context) (bool, error)
	Apply(ctx context.Context) error
	CurrentState(ctx context.Context) map[string]any
}

// Base carries the attributes shared by every configuration item variant.
// Name and type are immutable after construction. Base satisfies the Item
// contract only nominally: its three operations fail loudly with
// ErrNotImplemented, so a variant that forgets to implement one is caught
// the first time it runs.
type Base struct {
	name         string
	itemType     Type
	properties   map[string]any
	enabled      bool
	critical     bool
	description  string
	lastModified time.Time
}

// BaseOption is a functional option for configuring a Base.
type BaseOption func(*Base)

// WithDescription sets the human-readable description.
func WithDescription(desc string) BaseOption {
	return func(b *Base) {
		b.description = desc
	}
}

// WithProperties seeds the free-form properties map. Keys are case-sensitive.
func WithProperties(props map[string]any) BaseOption {
	return func(b *Base) {
		for k, v := range props {
			b.properties[k] = v
		}
	}
}

// WithCritical marks the item's failures as critical: a failed apply aborts
// the remainder of a batch instead of being recorded and skipped.
func WithCritical() BaseOption {
	return func(b *Base) {
		b.critical = true
	}
}

// WithDisabled constructs the item disabled so bulk operations skip it.
func WithDisabled() BaseOption {
	return func(b *Base) {
		b.enabled = false
	}
}

// NewBase creates the shared base for an item variant. Items start enabled
// and non-critical unless options say otherwise.
func NewBase(name string, itemType Type, opts ...BaseOption) Base {
	b := Base{
		name:         name,
		itemType:     itemType,
		properties:   make(map[string]any),
		enabled:      true,
		lastModified: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Name returns the stable item name.
func (b *Base) Name() string { return b.name }

// Type returns the item's type tag.
func (b *Base) Type() Type { return b.itemType }

// IsEnabled reports whether the item participates in bulk operations.
func (b *Base) IsEnabled() bool { return b.enabled }

// IsCritical reports whether a failure of this item aborts the batch.
func (b *Base) IsCritical() bool { return b.critical }

// Description returns the optional human-readable description.
func (b *Base) Description() string { return b.description }

// LastModified returns the time of the most recent mutation.
func (b *Base) LastModified() time.Time { return b.lastModified }

// SetEnabled toggles the enabled flag and updates lastModified.
func (b *Base) SetEnabled(enabled bool) {
	b.enabled = enabled
	b.lastModified = time.Now().UTC()
}

// Property returns a property value and whether it exists. Keys are
// case-sensitive.
func (b *Base) Property(key string) (any, bool) {
	v, ok := b.properties[key]
	return v, ok
}

// SetProperty stores a property value and updates lastModified.
func (b *Base) SetProperty(key string, value any) {
	b.properties[key] = value
	b.lastModified = time.Now().UTC()
}

// Properties returns a copy of the properties map.
func (b *Base) Properties() map[string]any {
	out := make(map[string]any, len(b.properties))
	for k, v := range b.properties {
		out[k] = v
	}
	return out
}

// Test fails loudly: the base type implements no technology.
func (b *Base) Test(_ context.Context) (bool, error) {
	return false, fmt.Errorf("%w: test on item %q (type %s)", ErrNotImplemented, b.name, b.itemType)
}

// Apply fails loudly: the base type implements no technology.
func (b *Base) Apply(_ context.Context) error {
	return fmt.Errorf("%w: apply on item %q (type %s)", ErrNotImplemented, b.name, b.itemType)
}

// CurrentState surfaces the missing implementation as a state error field,
// per the CurrentState contract.
func (b *Base) CurrentState(_ context.Context) map[string]any {
	return map[string]any{
		"name":        b.name,
		"type":        b.itemType.String(),
		StateErrorKey: fmt.Sprintf("%v: state on item %q (type %s)", ErrNotImplemented, b.name, b.itemType),
	}
}
