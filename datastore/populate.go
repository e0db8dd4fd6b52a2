/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"fmt"
	"strings"

	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/registry"
	"github.com/suparena/docrepo/storagemodels"
)

// Fetcher loads the records of collection with the given identifiers.
// Identifiers with no record are absent from the result.
type Fetcher func(ctx context.Context, collection string, ids []string) (map[string]document.Record, error)

// Populate resolves the population directives of a query against records
// of collection, in place.
//
// The collection a path points at comes from the reference registry. Stored
// identifiers are replaced by the fetched records, tagged as resolved
// references; a missing single reference becomes nil and missing array
// elements are dropped. Values that are already resolved are kept.
//
// A nested directive resolves its sub-path inside the object (or each object
// of the array) at the parent path. When the parent path is itself a
// reference the sub-path is looked up on its target collection; otherwise
// the reference must be registered as "path.sub" on collection.
//
// An unregistered path is a programmer error.
func Populate(ctx context.Context, collection string, records []document.Record, directives []storagemodels.Populate, fetch Fetcher) error {
	if len(directives) == 0 || len(records) == 0 {
		return nil
	}
	containers := make([]map[string]any, 0, len(records))
	for _, r := range records {
		if r != nil {
			containers = append(containers, r)
		}
	}
	for _, d := range directives {
		if err := populatePath(ctx, collection, "", containers, d, fetch); err != nil {
			return err
		}
	}
	return nil
}

func populatePath(ctx context.Context, collection, prefix string, containers []map[string]any, d storagemodels.Populate, fetch Fetcher) error {
	if d.Path == "" {
		return errors.NewValidationError("populate", "empty path")
	}

	refKey := prefix + d.Path
	parts := strings.Split(d.Path, ".")
	field := parts[len(parts)-1]
	holders := descend(containers, parts[:len(parts)-1])

	target, refErr := registry.ReferenceTarget(collection, refKey)
	isRef := refErr == nil
	if !isRef && d.Populate == nil {
		return refErr
	}

	if isRef {
		if err := resolveField(ctx, target, holders, field, fetch); err != nil {
			return err
		}
	}
	if d.Populate == nil {
		return nil
	}

	objects := descend(holders, []string{field})
	if isRef {
		return populatePath(ctx, target, "", objects, *d.Populate, fetch)
	}
	if !hasNestedReference(collection, refKey+".") {
		return errors.NewValidationError(refKey, fmt.Sprintf("no reference registered on collection %q", collection))
	}
	return populatePath(ctx, collection, refKey+".", objects, *d.Populate, fetch)
}

func hasNestedReference(collection, prefix string) bool {
	for path := range registry.References(collection) {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// descend collects the objects reached by following parts from every
// container. Arrays are flattened.
func descend(containers []map[string]any, parts []string) []map[string]any {
	current := containers
	for _, part := range parts {
		next := make([]map[string]any, 0, len(current))
		for _, c := range current {
			next = appendObjects(next, c[part])
		}
		current = next
	}
	return current
}

func appendObjects(dst []map[string]any, v any) []map[string]any {
	switch val := v.(type) {
	case document.Record:
		if val != nil {
			dst = append(dst, val)
		}
	case map[string]any:
		if val != nil {
			dst = append(dst, val)
		}
	case []any:
		for _, el := range val {
			dst = appendObjects(dst, el)
		}
	case []map[string]any:
		for _, el := range val {
			dst = appendObjects(dst, el)
		}
	case []document.Record:
		for _, el := range val {
			dst = appendObjects(dst, el)
		}
	}
	return dst
}

func resolveField(ctx context.Context, target string, holders []map[string]any, field string, fetch Fetcher) error {
	var ids []string
	seen := make(map[string]struct{})
	collect := func(v any) {
		if v == nil || document.IsReference(v) {
			return
		}
		id := document.IDOf(v)
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, h := range holders {
		switch val := h[field].(type) {
		case []any:
			for _, el := range val {
				collect(el)
			}
		case []string:
			for _, el := range val {
				collect(el)
			}
		default:
			collect(val)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	fetched, err := fetch(ctx, target, ids)
	if err != nil {
		return err
	}

	lookup := func(v any) (any, bool) {
		if document.IsReference(v) {
			return v, true
		}
		r, ok := fetched[document.IDOf(v)]
		if !ok {
			return nil, false
		}
		return r.Clone(), true
	}
	for _, h := range holders {
		v, present := h[field]
		if !present || v == nil {
			continue
		}
		switch val := v.(type) {
		case []any:
			resolved := make([]any, 0, len(val))
			for _, el := range val {
				if r, ok := lookup(el); ok {
					resolved = append(resolved, r)
				}
			}
			h[field] = resolved
		case []string:
			resolved := make([]any, 0, len(val))
			for _, el := range val {
				if r, ok := lookup(el); ok {
					resolved = append(resolved, r)
				}
			}
			h[field] = resolved
		default:
			r, _ := lookup(val)
			h[field] = r
		}
	}
	return nil
}

// FetchWith builds a Fetcher from a Factory by querying each target
// collection's driver by identifier.
func FetchWith(factory Factory) Fetcher {
	return func(ctx context.Context, collection string, ids []string) (map[string]document.Record, error) {
		d, err := factory.Driver(collection)
		if err != nil {
			return nil, err
		}
		out := make(map[string]document.Record, len(ids))
		for _, id := range ids {
			r, err := d.FindOne(ctx, storagemodels.ByID(id))
			if err != nil {
				return nil, err
			}
			if r != nil {
				out[id] = r
			}
		}
		return out, nil
	}
}
