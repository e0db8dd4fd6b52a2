/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/registry"
)

// typedRepositories holds the repositories of one entity type, by collection.
type typedRepositories[T any] struct {
	mu    sync.RWMutex
	repos map[string]*MutableDocumentRepository[T]
}

func newTypedRepositories[T any]() *typedRepositories[T] {
	return &typedRepositories[T]{
		repos: make(map[string]*MutableDocumentRepository[T]),
	}
}

func (tr *typedRepositories[T]) get(collection string, create func() (*MutableDocumentRepository[T], error)) (*MutableDocumentRepository[T], error) {
	tr.mu.RLock()
	repo, exists := tr.repos[collection]
	tr.mu.RUnlock()
	if exists {
		return repo, nil
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if repo, exists := tr.repos[collection]; exists {
		return repo, nil
	}
	repo, err := create()
	if err != nil {
		return nil, err
	}
	tr.repos[collection] = repo
	return repo, nil
}

func (tr *typedRepositories[T]) remove(collection string) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if _, exists := tr.repos[collection]; !exists {
		return false
	}
	delete(tr.repos, collection)
	return true
}

func (tr *typedRepositories[T]) list() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	keys := make([]string, 0, len(tr.repos))
	for k := range tr.repos {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Database hands out repositories over the collections of one store.
// Repositories are created on first use and cached per entity type and
// collection; options given on later calls for the same pair are ignored.
type Database struct {
	factory datastore.Factory
	opts    []Option

	mu    sync.Mutex
	types map[reflect.Type]any
}

// NewDatabase returns a Database over factory. opts apply to every
// repository it creates, before per-call options.
func NewDatabase(factory datastore.Factory, opts ...Option) *Database {
	return &Database{
		factory: factory,
		opts:    opts,
		types:   make(map[reflect.Type]any),
	}
}

func repositoriesOf[T any](db *Database) *typedRepositories[T] {
	db.mu.Lock()
	defer db.mu.Unlock()

	typ := typeOf[T]()
	if tr, exists := db.types[typ]; exists {
		return tr.(*typedRepositories[T])
	}
	tr := newTypedRepositories[T]()
	db.types[typ] = tr
	return tr
}

// GetMutableRepository returns the read-write repository of T over
// collection. An empty collection falls back to the one registered for T.
func GetMutableRepository[T any](db *Database, collection string, opts ...Option) (MutableRepository[T], error) {
	return mutableRepository[T](db, collection, opts)
}

// GetRepository returns the read-only repository of T over collection.
func GetRepository[T any](db *Database, collection string, opts ...Option) (Repository[T], error) {
	repo, err := mutableRepository[T](db, collection, opts)
	if err != nil {
		return nil, err
	}
	return repo.Readonly(), nil
}

func mutableRepository[T any](db *Database, collection string, opts []Option) (*MutableDocumentRepository[T], error) {
	if collection == "" {
		name, ok := registry.CollectionOf[T]()
		if !ok {
			return nil, fmt.Errorf("%w: %s", errors.ErrNoCollection, typeOf[T]())
		}
		collection = name
	}

	return repositoriesOf[T](db).get(collection, func() (*MutableDocumentRepository[T], error) {
		driver, err := db.factory.Driver(collection)
		if err != nil {
			return nil, fmt.Errorf("failed to open collection %q: %w", collection, err)
		}
		if _, ok := registry.CollectionOf[T](); !ok {
			registry.RegisterCollection[T](collection)
		}
		all := append(append([]Option(nil), db.opts...), opts...)
		return NewMutableRepository[T](driver, all...), nil
	})
}

// ListRepositories returns the collections that have a repository of T, sorted.
func ListRepositories[T any](db *Database) []string {
	return repositoriesOf[T](db).list()
}

// RemoveRepository drops the cached repository of T over collection and
// reports whether there was one.
func RemoveRepository[T any](db *Database, collection string) bool {
	return repositoriesOf[T](db).remove(collection)
}
