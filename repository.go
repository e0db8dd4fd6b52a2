/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"context"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/storagemodels"
)

// Repository is the read capability over a collection of T.
//
// Every method that executes returns normalized entities: the store's
// internal identifier is exposed as the entity's "id" field and the
// version marker is hidden. Absence is never an error.
type Repository[T any] interface {
	// ErrorPolicy returns the policy applied to store failures.
	ErrorPolicy() ErrorPolicy

	// EstimatedSize returns a fast, approximate entity count.
	EstimatedSize(ctx context.Context) (int64, error)
	// EstimatedLength is an alias of EstimatedSize.
	EstimatedLength(ctx context.Context) (int64, error)
	// ExactSize counts the entities matching filter; nil counts all.
	ExactSize(ctx context.Context, filter storagemodels.Filter) (int64, error)
	// ExactLength is an alias of ExactSize.
	ExactLength(ctx context.Context, filter storagemodels.Filter) (int64, error)

	// GetByID returns the entity with id, or nil.
	GetByID(ctx context.Context, id string) (*T, error)
	// QueryByID returns a pending lookup of the entity with id.
	QueryByID(id string) *Query[T]

	// GetAll returns every entity.
	GetAll(ctx context.Context, opts ...storagemodels.QueryOption) ([]T, error)
	// QueryAll returns a pending lookup of every entity.
	QueryAll(opts ...storagemodels.QueryOption) *CollectionQuery[T]

	// Exists reports whether an entity matches filter.
	Exists(ctx context.Context, filter storagemodels.Filter) (bool, error)

	// FirstOrNull returns the first entity matching filter, or nil.
	FirstOrNull(ctx context.Context, filter storagemodels.Filter) (*T, error)
	// QueryFirstOrNull returns a pending first-match lookup.
	QueryFirstOrNull(filter storagemodels.Filter) *Query[T]

	// Filter returns every entity matching filter.
	Filter(ctx context.Context, filter storagemodels.Filter, opts ...storagemodels.QueryOption) ([]T, error)
	// FilterAndQuery returns a pending lookup of every entity matching filter.
	FilterAndQuery(filter storagemodels.Filter, opts ...storagemodels.QueryOption) *CollectionQuery[T]

	// GetDistinct returns, in sort order, the first entity for each
	// distinct value of key. Skip and limit apply after de-duplication.
	GetDistinct(ctx context.Context, key string, opts ...storagemodels.QueryOption) ([]T, error)
	// QueryDistinct returns a pending distinct lookup.
	QueryDistinct(key string, opts ...storagemodels.QueryOption) *CollectionQuery[T]
}

// Insertable creates entities.
type Insertable[T any] interface {
	// Add creates entity with a store-generated id and returns it.
	Add(ctx context.Context, entity T) (*T, error)
	// Insert is an alias of Add.
	Insert(ctx context.Context, entity T) (*T, error)
	// AddWithID creates entity under id.
	AddWithID(ctx context.Context, id string, entity T) (*T, error)
	// AddObjectWithID creates entity under the id carried by its "id" field.
	AddObjectWithID(ctx context.Context, entity T) (*T, error)
}

// Updatable replaces or merges entity fields.
type Updatable[T any] interface {
	// Update replaces the fields of the entity at id and returns its
	// previous state, or nil when there is no such entity.
	Update(ctx context.Context, id string, entity T) (*T, error)
	// Patch overrides the fields present in partial and keeps every other
	// stored field. It returns the previous state, or nil.
	Patch(ctx context.Context, id string, partial map[string]any) (*T, error)
}

// Deletable removes entities.
type Deletable[T any] interface {
	// Delete removes the entity at id and returns its last state, or nil.
	Delete(ctx context.Context, id string) (*T, error)
	// Remove is an alias of Delete.
	Remove(ctx context.Context, id string) (*T, error)
}

// CustomFunc is a driver-level operation run by MutableRepository.Custom.
type CustomFunc func(ctx context.Context, driver datastore.Driver) (any, error)

// MutableRepository is the full capability set over a collection of T.
type MutableRepository[T any] interface {
	Repository[T]
	Insertable[T]
	Updatable[T]
	Deletable[T]

	// Custom runs block against the underlying driver. A record result is
	// normalized, as is a slice made only of records; a nil result yields
	// fallback. Failures go through the error policy.
	Custom(ctx context.Context, block CustomFunc, fallback any) (any, error)

	// Readonly returns a read-only view over the same driver.
	Readonly() Repository[T]
}
