/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package document

import (
	"fmt"
	"time"
)

const (
	// IDField is the store-internal identifier field.
	IDField = "_id"
	// VersionField is the store-internal revision counter.
	VersionField = "__v"
	// PublicIDField replaces IDField on normalized documents.
	PublicIDField = "id"
	// DriverMarkerField is carried by driver-internal values that are not entities.
	DriverMarkerField = "_bsontype"
)

// Record is the raw, store-native representation of one entity.
//
// A Record nested inside another Record is a resolved reference. Plain
// map[string]any values are ordinary embedded data and are never normalized.
type Record map[string]any

// ID returns the internal identifier as a string, or "" when absent.
func (r Record) ID() string {
	return IDOf(r[IDField])
}

// Version returns the internal revision counter, or 0 when absent.
func (r Record) Version() int64 {
	switch v := r[VersionField].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	}
	return 0
}

// IDOf renders an identifier value as a string.
func IDOf(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case fmt.Stringer:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

// IsReference reports whether v is a resolved reference: a non-nil Record
// carrying the internal identifier.
func IsReference(v any) bool {
	switch r := v.(type) {
	case Record:
		if r == nil {
			return false
		}
		_, ok := r[IDField]
		return ok
	case *Record:
		if r == nil || *r == nil {
			return false
		}
		_, ok := (*r)[IDField]
		return ok
	}
	return false
}

// LooksLikeReference is the shape heuristic used by drivers when tagging
// store-native documents: the map carries the internal identifier and either
// a version marker or no driver marker.
func LooksLikeReference(m map[string]any, driverMarker string) bool {
	if m == nil {
		return false
	}
	if _, ok := m[IDField]; !ok {
		return false
	}
	if _, ok := m[VersionField]; ok {
		return true
	}
	if driverMarker == "" {
		return true
	}
	_, marked := m[driverMarker]
	return !marked
}

// FromNative converts a store-native document into a Record, tagging every
// nested document that looks like a store record.
func FromNative(m map[string]any) Record {
	if m == nil {
		return nil
	}
	out := make(Record, len(m))
	for k, v := range m {
		out[k] = tagValue(v)
	}
	return out
}

func tagValue(v any) any {
	switch val := v.(type) {
	case Record:
		return FromNative(val)
	case map[string]any:
		if LooksLikeReference(val, DriverMarkerField) {
			return FromNative(val)
		}
		plain := make(map[string]any, len(val))
		for k, inner := range val {
			plain[k] = tagValue(inner)
		}
		return plain
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = tagValue(inner)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = tagValue(inner)
		}
		return out
	case []Record:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = FromNative(inner)
		}
		return out
	default:
		return v
	}
}

// Clone returns a deep copy of r. Tags are preserved.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Record:
		return val.Clone()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	case []Record:
		out := make([]Record, len(val))
		for i, inner := range val {
			out[i] = inner.Clone()
		}
		return out
	case time.Time:
		return val
	default:
		return v
	}
}

// Lookup resolves a dotted path inside r. Arrays are not traversed.
func (r Record) Lookup(path string) (any, bool) {
	return lookup(map[string]any(r), splitPath(path))
}

func lookup(m map[string]any, parts []string) (any, bool) {
	v, ok := m[parts[0]]
	if !ok {
		return nil, false
	}
	if len(parts) == 1 {
		return v, true
	}
	switch next := v.(type) {
	case Record:
		return lookup(next, parts[1:])
	case map[string]any:
		return lookup(next, parts[1:])
	}
	return nil, false
}

func splitPath(path string) []string {
	parts := make([]string, 0, 2)
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			parts = append(parts, path[start:i])
			start = i + 1
		}
	}
	return append(parts, path[start:])
}
