/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/

// Package merge implements deep merging of loosely-typed configuration trees.
//
// A tree value is one of:
//   - map[string]any (object)
//   - []any (list)
//   - anything else (scalar)
//
// Merge semantics, with the override taking precedence:
//   - keys only in the override are added
//   - map vs map merges recursively
//   - list vs list merges by element identity (see mergeLists)
//   - any other pairing (scalar conflict, type mismatch) resolves override-wins
//
// Neither input is ever mutated: values are deep-cloned before merging, since
// callers reuse cached base trees across resolutions.
package merge

// identityKeys are the map keys, in priority order, used to match list
// elements across base and override lists.
var identityKeys = []string{"id", "name", "key"}

// Maps deep-merges override into base and returns a new map.
// Both inputs are left untouched.
func Maps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		result[k] = Clone(v)
	}
	for k, ov := range override {
		bv, exists := result[k]
		if !exists {
			result[k] = Clone(ov)
			continue
		}
		result[k] = mergeValues(bv, ov)
	}
	return result
}

// Values deep-merges two arbitrary tree values and returns a new value.
// Both inputs are left untouched.
func Values(base, override any) any {
	return mergeValues(Clone(base), override)
}

// mergeValues merges override into base. base must already be a private
// clone; override is cloned as needed.
func mergeValues(base, override any) any {
	switch ov := override.(type) {
	case map[string]any:
		if bm, ok := base.(map[string]any); ok {
			for k, v := range ov {
				existing, exists := bm[k]
				if !exists {
					bm[k] = Clone(v)
					continue
				}
				bm[k] = mergeValues(existing, v)
			}
			return bm
		}
	case []any:
		if bl, ok := base.([]any); ok {
			return mergeLists(bl, ov)
		}
	}
	// Scalar conflict or type mismatch: override wins.
	return Clone(override)
}

// mergeLists merges two lists by element identity. Elements carrying an
// identity key (id, name, or key) are matched across lists; a matched
// override element replaces the base element wholesale, preserving the
// base element's position. Elements without a match are kept: base
// elements first, then override-only elements in their original order.
//
// Replacement is deliberately whole-element, not a recursive per-field
// merge: an override entry fully redefines the element it targets.
func mergeLists(base, override []any) []any {
	result := make([]any, len(base))
	copy(result, base)

	consumed := make([]bool, len(override))

	for i, bv := range result {
		bid, ok := elementIdentity(bv)
		if !ok {
			continue
		}
		for j, ov := range override {
			if consumed[j] {
				continue
			}
			oid, ok := elementIdentity(ov)
			if !ok {
				continue
			}
			if bid == oid {
				result[i] = Clone(ov)
				consumed[j] = true
				break
			}
		}
	}

	for j, ov := range override {
		if consumed[j] {
			continue
		}
		if _, ok := elementIdentity(ov); ok {
			result = append(result, Clone(ov))
			continue
		}
		// Identity-less elements are kept only when not already present,
		// so repeated resolution stays idempotent for plain value lists.
		if !containsEqualScalar(base, ov) {
			result = append(result, Clone(ov))
		}
	}

	return result
}

// identity pairs the key that identified an element with its value, so an
// "id" match never collides with a "name" match of the same value.
type identity struct {
	key   string
	value any
}

// elementIdentity extracts the identity of a list element, if it has one.
// Only map elements with a comparable scalar under an identity key qualify.
func elementIdentity(v any) (identity, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return identity{}, false
	}
	for _, k := range identityKeys {
		if val, exists := m[k]; exists {
			switch val.(type) {
			case map[string]any, []any, nil:
				continue
			}
			return identity{key: k, value: val}, true
		}
	}
	return identity{}, false
}

// containsEqualScalar reports whether list contains a scalar equal to v.
// Non-scalar values never match.
func containsEqualScalar(list []any, v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	}
	for _, e := range list {
		switch e.(type) {
		case map[string]any, []any:
			continue
		}
		if e == v {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of a tree value. Maps and lists are copied
// recursively; scalars are returned as-is.
func Clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		cloned := make(map[string]any, len(val))
		for k, e := range val {
			cloned[k] = Clone(e)
		}
		return cloned
	case []any:
		cloned := make([]any, len(val))
		for i, e := range val {
			cloned[i] = Clone(e)
		}
		return cloned
	default:
		return v
	}
}

// CloneMap returns a deep copy of a map tree value. A nil input yields an
// empty, non-nil map so callers can merge into the result safely.
func CloneMap(m map[string]any) map[string]any {
	cloned := make(map[string]any, len(m))
	for k, v := range m {
		cloned[k] = Clone(v)
	}
	return cloned
}
