/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sync"

	"github.com/suparena/docrepo/errors"
)

// referenceRegistry maps a collection and a field path to the collection the
// stored identifiers point at.
var (
	referenceRegistry = make(map[string]map[string]string)
	refMu             sync.RWMutex
)

// RegisterReference declares that field path of collection holds identifiers
// of records in target. Nested paths use dots ("address.city").
// Registering a different target for the same path panics to prevent
// accidental overrides.
func RegisterReference(collection, path, target string) {
	refMu.Lock()
	defer refMu.Unlock()

	refs, ok := referenceRegistry[collection]
	if !ok {
		refs = make(map[string]string)
		referenceRegistry[collection] = refs
	}
	if existing, exists := refs[path]; exists && existing != target {
		panic(fmt.Sprintf("reference registry: %s.%s already points at %q", collection, path, existing))
	}
	refs[path] = target
}

// ReferenceTarget returns the collection referenced by path. An unknown path
// is a programmer error.
func ReferenceTarget(collection, path string) (string, error) {
	refMu.RLock()
	defer refMu.RUnlock()

	target, ok := referenceRegistry[collection][path]
	if !ok {
		return "", errors.NewValidationError(path, fmt.Sprintf("no reference registered on collection %q", collection))
	}
	return target, nil
}

// HasReference reports whether path of collection is a registered reference.
func HasReference(collection, path string) bool {
	refMu.RLock()
	defer refMu.RUnlock()
	_, ok := referenceRegistry[collection][path]
	return ok
}

// References returns a copy of every reference declared on collection.
func References(collection string) map[string]string {
	refMu.RLock()
	defer refMu.RUnlock()

	out := make(map[string]string, len(referenceRegistry[collection]))
	for k, v := range referenceRegistry[collection] {
		out[k] = v
	}
	return out
}
