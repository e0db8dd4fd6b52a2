/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package document

// Normalize converts a raw record into its public form: the internal
// identifier and version fields are dropped, the identifier is exposed as
// "id" and every resolved reference reachable from a top-level field is
// normalized the same way.
//
// An array field is normalized only when every element is a resolved
// reference; mixed arrays are returned untouched.
func Normalize(r Record) map[string]any {
	if r == nil {
		return nil
	}

	body := make(map[string]any, len(r))
	for k, v := range r {
		if k == IDField || k == VersionField {
			continue
		}
		body[k] = normalizeValue(v)
	}

	if id, ok := r[IDField]; ok {
		body[PublicIDField] = id
	}
	return body
}

// NormalizeAll normalizes every record. The result is never nil.
func NormalizeAll(records []Record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, Normalize(r))
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		if len(val) == 0 || !allReferences(val) {
			return val
		}
		out := make([]any, len(val))
		for i, el := range val {
			out[i] = normalizeReference(el)
		}
		return out
	case []Record:
		if len(val) == 0 {
			return val
		}
		out := make([]any, len(val))
		for i, el := range val {
			if !IsReference(el) {
				return val
			}
			out[i] = Normalize(el)
		}
		return out
	default:
		if IsReference(v) {
			return normalizeReference(v)
		}
		return v
	}
}

func normalizeReference(v any) any {
	switch r := v.(type) {
	case Record:
		return Normalize(r)
	case *Record:
		return Normalize(*r)
	}
	return v
}

func allReferences(values []any) bool {
	for _, v := range values {
		if !IsReference(v) {
			return false
		}
	}
	return true
}
