/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sync"
)

// The collection registry associates Go entity types with collection names.

var (
	collectionRegistry = make(map[reflect.Type]string)
	indexMapRegistry   = make(map[string]map[string]string)
	mu                 sync.RWMutex
)

// RegisterCollection associates the Go type T with a collection name.
func RegisterCollection[T any](name string) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	mu.Lock()
	defer mu.Unlock()
	collectionRegistry[t] = name
}

// CollectionOf retrieves the collection name for type T, if any.
func CollectionOf[T any]() (string, bool) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	mu.RLock()
	defer mu.RUnlock()
	name, ok := collectionRegistry[t]
	return name, ok
}

// RegisterIndexMap associates a collection with a key layout (PK, SK, GSI
// keys). Values may contain {field} macros expanded from the stored record.
func RegisterIndexMap(collection string, idxMap map[string]string) {
	copied := make(map[string]string, len(idxMap))
	for k, v := range idxMap {
		copied[k] = v
	}

	mu.Lock()
	defer mu.Unlock()
	indexMapRegistry[collection] = copied
}

// GetIndexMap retrieves the key layout for a collection, if any.
func GetIndexMap(collection string) (map[string]string, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMapRegistry[collection]
	return m, ok
}
