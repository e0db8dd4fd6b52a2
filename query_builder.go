/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"context"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

// Query is a pending single-result lookup whose result has shape T.
//
// A Query is immutable. The Inline functions return a new builder with one
// more population directive and a new result shape; the receiver is left
// untouched, so a Query may be shared and extended concurrently.
type Query[T any] struct {
	driver datastore.Driver
	query  storagemodels.Query
	policy ErrorPolicy
	err    error
}

// CollectionQuery is a pending multi-result lookup whose elements have shape T.
type CollectionQuery[T any] struct {
	driver datastore.Driver
	query  storagemodels.Query
	policy ErrorPolicy
	err    error
}

// Pending returns the query handed to the driver on execution.
func (q *Query[T]) Pending() storagemodels.Query { return q.query }

// Pending returns the query handed to the driver on execution.
func (q *CollectionQuery[T]) Pending() storagemodels.Query { return q.query }

// GetResult executes the query. It returns nil when nothing matched.
func (q *Query[T]) GetResult(ctx context.Context) (*T, error) {
	if q.err != nil {
		return nil, q.err
	}
	return guard[*T](q.policy, nil, func() (*T, error) {
		r, err := q.driver.FindOne(ctx, q.query)
		if err != nil || r == nil {
			return nil, err
		}
		return document.Decode[T](document.Normalize(r))
	})
}

// GetResult executes the query. The result is never nil.
func (q *CollectionQuery[T]) GetResult(ctx context.Context) ([]T, error) {
	if q.err != nil {
		return []T{}, q.err
	}
	return guard(q.policy, []T{}, func() ([]T, error) {
		records, err := q.driver.Find(ctx, q.query)
		if err != nil {
			return nil, err
		}
		return document.DecodeAll[T](document.NormalizeAll(records))
	})
}

// InlineReferencedObject populates the reference at key. S is the result
// shape: T with the field at key holding the referenced entity (or a slice
// of them) instead of its identifier.
//
//	type PostWithAuthor struct {
//	    ID     string `json:"id"`
//	    Title  string `json:"title"`
//	    Author User   `json:"author"`
//	}
//	q := docrepo.InlineReferencedObject[PostWithAuthor](posts.QueryByID("p1"), "author")
//
// A shape that does not follow from T is reported by GetResult.
func InlineReferencedObject[S, T any](q *Query[T], key string) *Query[S] {
	return &Query[S]{
		driver: q.driver,
		query:  q.query.WithPopulate(storagemodels.Populate{Path: key}),
		policy: q.policy,
		err:    firstError(q.err, checkInline[S, T](key, "")),
	}
}

// InlineReferencedSubObject populates the reference at subKey inside the
// object (or each object of the array) at key.
func InlineReferencedSubObject[S, T any](q *Query[T], key, subKey string) *Query[S] {
	return &Query[S]{
		driver: q.driver,
		query:  q.query.WithPopulate(subDirective(key, subKey)),
		policy: q.policy,
		err:    firstError(q.err, checkInline[S, T](key, subKey)),
	}
}

// InlineReferencedObjects is InlineReferencedObject for collection queries.
func InlineReferencedObjects[S, T any](q *CollectionQuery[T], key string) *CollectionQuery[S] {
	return &CollectionQuery[S]{
		driver: q.driver,
		query:  q.query.WithPopulate(storagemodels.Populate{Path: key}),
		policy: q.policy,
		err:    firstError(q.err, checkInline[S, T](key, "")),
	}
}

// InlineReferencedSubObjects is InlineReferencedSubObject for collection queries.
func InlineReferencedSubObjects[S, T any](q *CollectionQuery[T], key, subKey string) *CollectionQuery[S] {
	return &CollectionQuery[S]{
		driver: q.driver,
		query:  q.query.WithPopulate(subDirective(key, subKey)),
		policy: q.policy,
		err:    firstError(q.err, checkInline[S, T](key, subKey)),
	}
}

func subDirective(key, subKey string) storagemodels.Populate {
	return storagemodels.Populate{Path: key, Populate: &storagemodels.Populate{Path: subKey}}
}

func checkInline[S, T any](key, subKey string) error {
	if key == "" {
		return errors.NewValidationError("key", "population key cannot be empty")
	}
	path := splitKey(key)
	if subKey != "" {
		path = append(path, splitKey(subKey)...)
	}
	return checkShape(typeOf[T](), typeOf[S](), path)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
