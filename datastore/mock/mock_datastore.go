/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides an in-memory implementation of the datastore
// contract for tests and local tooling.
package mock

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

// Store is an in-memory, multi-collection store. It implements
// datastore.Factory; every collection is created on first use.
//
// Records are deep-copied on the way in and out, so callers never share
// state with the store.
type Store struct {
	mu          sync.RWMutex
	data        map[string]map[string]document.Record
	order       map[string][]string
	lastUpdate  map[string]document.Record
	findError   error
	countError  error
	createError error
	updateError error
	deleteError error
}

var _ datastore.Factory = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		data:       make(map[string]map[string]document.Record),
		order:      make(map[string][]string),
		lastUpdate: make(map[string]document.Record),
	}
}

// WithFindError makes FindOne and Find operations return err.
func (s *Store) WithFindError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findError = err
	return s
}

// WithCountError makes Count, EstimatedCount and Exists operations return err.
func (s *Store) WithCountError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countError = err
	return s
}

// WithCreateError makes Create operations return err.
func (s *Store) WithCreateError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createError = err
	return s
}

// WithUpdateError makes UpdateByID operations return err.
func (s *Store) WithUpdateError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateError = err
	return s
}

// WithDeleteError makes DeleteByID operations return err.
func (s *Store) WithDeleteError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteError = err
	return s
}

// Driver returns the driver for collection.
func (s *Store) Driver(collection string) (datastore.Driver, error) {
	if collection == "" {
		return nil, errors.NewValidationError("collection", "must not be empty")
	}
	return &Collection{store: s, name: collection}, nil
}

// Helper methods for testing

// SetData replaces the content of collection. Records keep the given order
// and are keyed by their _id.
func (s *Store) SetData(collection string, records ...document.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[collection] = make(map[string]document.Record, len(records))
	s.order[collection] = make([]string, 0, len(records))
	for _, r := range records {
		s.put(collection, r.Clone())
	}
}

// GetData returns a copy of every record of collection, in insertion order.
func (s *Store) GetData(collection string) []document.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(collection)
}

// Count returns the number of records stored in collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[collection])
}

// Collections lists the collections holding data.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LastUpdate returns the document passed to the most recent UpdateByID on
// collection.
func (s *Store) LastUpdate(collection string) (document.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.lastUpdate[collection]
	return r.Clone(), ok
}

// Clear removes all data and injected errors.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]map[string]document.Record)
	s.order = make(map[string][]string)
	s.lastUpdate = make(map[string]document.Record)
	s.findError, s.countError, s.createError, s.updateError, s.deleteError = nil, nil, nil, nil, nil
}

func (s *Store) put(collection string, r document.Record) {
	if _, ok := r[document.IDField]; !ok {
		r[document.IDField] = primitive.NewObjectID().Hex()
	}
	if _, ok := r[document.VersionField]; !ok {
		r[document.VersionField] = int64(0)
	}
	records, ok := s.data[collection]
	if !ok {
		records = make(map[string]document.Record)
		s.data[collection] = records
	}
	id := r.ID()
	if _, exists := records[id]; !exists {
		s.order[collection] = append(s.order[collection], id)
	}
	records[id] = r
}

func (s *Store) snapshot(collection string) []document.Record {
	records := s.data[collection]
	out := make([]document.Record, 0, len(records))
	for _, id := range s.order[collection] {
		if r, ok := records[id]; ok {
			out = append(out, r.Clone())
		}
	}
	return out
}

func (s *Store) fetch(_ context.Context, collection string, ids []string) (map[string]document.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]document.Record, len(ids))
	for _, id := range ids {
		if r, ok := s.data[collection][id]; ok {
			out[id] = r.Clone()
		}
	}
	return out, nil
}

// Collection is the driver for one collection of a Store.
type Collection struct {
	store *Store
	name  string
}

var _ datastore.Driver = (*Collection)(nil)

// Collection returns the collection name.
func (c *Collection) Collection() string {
	return c.name
}

// FindOne executes a by-id or first-match query.
func (c *Collection) FindOne(ctx context.Context, q storagemodels.Query) (document.Record, error) {
	q.Options.Limit = 1
	records, err := c.find(ctx, q)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

// Find executes a multi-result or distinct query.
func (c *Collection) Find(ctx context.Context, q storagemodels.Query) ([]document.Record, error) {
	return c.find(ctx, q)
}

func (c *Collection) find(ctx context.Context, q storagemodels.Query) ([]document.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.store.mu.RLock()
	if c.store.findError != nil {
		defer c.store.mu.RUnlock()
		return nil, c.store.findError
	}
	records := datastore.Apply(c.store.snapshot(c.name), q)
	c.store.mu.RUnlock()

	if err := datastore.Populate(ctx, c.name, records, q.Populate, c.store.fetch); err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of records matching filter.
func (c *Collection) Count(ctx context.Context, filter storagemodels.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	if c.store.countError != nil {
		return 0, c.store.countError
	}

	var n int64
	for _, r := range c.store.data[c.name] {
		if datastore.Match(r, filter) {
			n++
		}
	}
	return n, nil
}

// EstimatedCount returns the collection size.
func (c *Collection) EstimatedCount(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	if c.store.countError != nil {
		return 0, c.store.countError
	}
	return int64(len(c.store.data[c.name])), nil
}

// Exists reports whether a record matches filter.
func (c *Collection) Exists(ctx context.Context, filter storagemodels.Filter) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	if c.store.countError != nil {
		return false, c.store.countError
	}
	for _, r := range c.store.data[c.name] {
		if datastore.Match(r, filter) {
			return true, nil
		}
	}
	return false, nil
}

// Create stores a copy of doc with a generated _id when absent and __v 0.
func (c *Collection) Create(ctx context.Context, doc document.Record) (document.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.store.createError != nil {
		return nil, c.store.createError
	}

	r := doc.Clone()
	if r == nil {
		r = document.Record{}
	}
	if id := r.ID(); id != "" {
		if _, exists := c.store.data[c.name][id]; exists {
			return nil, errors.NewAlreadyExistsError(c.name, id)
		}
	}
	r[document.VersionField] = int64(0)
	c.store.put(c.name, r)
	return r.Clone(), nil
}

// UpdateByID replaces the user fields of the record at id, increments its
// version and returns the previous state.
func (c *Collection) UpdateByID(ctx context.Context, id string, doc document.Record) (document.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.store.updateError != nil {
		return nil, c.store.updateError
	}
	c.store.lastUpdate[c.name] = doc.Clone()

	previous, ok := c.store.data[c.name][id]
	if !ok {
		return nil, nil
	}

	next := doc.Clone()
	if next == nil {
		next = document.Record{}
	}
	delete(next, document.PublicIDField)
	next[document.IDField] = previous[document.IDField]
	next[document.VersionField] = previous.Version() + 1
	c.store.data[c.name][id] = next
	return previous.Clone(), nil
}

// DeleteByID removes the record at id and returns it.
func (c *Collection) DeleteByID(ctx context.Context, id string) (document.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.store.deleteError != nil {
		return nil, c.store.deleteError
	}

	previous, ok := c.store.data[c.name][id]
	if !ok {
		return nil, nil
	}
	delete(c.store.data[c.name], id)
	order := c.store.order[c.name]
	for i, key := range order {
		if key == id {
			c.store.order[c.name] = append(order[:i:i], order[i+1:]...)
			break
		}
	}
	return previous, nil
}
