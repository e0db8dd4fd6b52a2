/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/storagemodels"
)

// Driver executes raw-record operations against one collection of a store.
//
// Absence is never an error: FindOne, UpdateByID and DeleteByID return a nil
// record when nothing matched. Records returned by a driver carry the
// internal identifier and version fields and tag nested store records as
// document.Record.
type Driver interface {
	// Collection returns the collection this driver operates on.
	Collection() string

	// FindOne executes a by-id or first-match query, applying its population directives.
	FindOne(ctx context.Context, q storagemodels.Query) (document.Record, error)

	// Find executes a multi-result or distinct query, applying its population directives.
	Find(ctx context.Context, q storagemodels.Query) ([]document.Record, error)

	// Count returns the exact number of records matching filter (all when nil).
	Count(ctx context.Context, filter storagemodels.Filter) (int64, error)

	// EstimatedCount returns a fast approximation of the collection size.
	EstimatedCount(ctx context.Context) (int64, error)

	// Exists reports whether any record matches filter.
	Exists(ctx context.Context, filter storagemodels.Filter) (bool, error)

	// Create stores doc. A missing _id is generated by the store; __v starts at 0.
	Create(ctx context.Context, doc document.Record) (document.Record, error)

	// UpdateByID replaces the fields of the record at id and returns its previous state.
	UpdateByID(ctx context.Context, id string, doc document.Record) (document.Record, error)

	// DeleteByID removes the record at id and returns its last state.
	DeleteByID(ctx context.Context, id string) (document.Record, error)
}

// Factory hands out drivers per collection.
type Factory interface {
	Driver(collection string) (Driver, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(collection string) (Driver, error)

// Driver calls f.
func (f FactoryFunc) Driver(collection string) (Driver, error) {
	return f(collection)
}
