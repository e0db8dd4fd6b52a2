/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/document"
	dserrors "github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

// Store serves collections of one MongoDB database. It implements
// datastore.Factory.
type Store struct {
	db *mongo.Database
}

var _ datastore.Factory = (*Store)(nil)

// New creates a Store over db.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Driver returns the driver for collection.
func (s *Store) Driver(collection string) (datastore.Driver, error) {
	if collection == "" {
		return nil, dserrors.NewValidationError("collection", "must not be empty")
	}
	return &Collection{store: s, name: collection, coll: s.db.Collection(collection)}, nil
}

func (s *Store) fetch(ctx context.Context, collection string, ids []string) (map[string]document.Record, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, idsFilter(ids))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}

	out := make(map[string]document.Record, len(docs))
	for _, doc := range docs {
		r := fromBSON(doc)
		out[r.ID()] = r
	}
	return out, nil
}

// Collection is the driver for one MongoDB collection.
type Collection struct {
	store *Store
	name  string
	coll  *mongo.Collection
}

var _ datastore.Driver = (*Collection)(nil)

// Mongo returns the native collection handle.
func (c *Collection) Mongo() *mongo.Collection {
	return c.coll
}

// Collection returns the collection name.
func (c *Collection) Collection() string {
	return c.name
}

// FindOne executes a by-id or first-match query.
func (c *Collection) FindOne(ctx context.Context, q storagemodels.Query) (document.Record, error) {
	filter := toFilter(q.Filter)
	opts := options.FindOne()
	if q.Kind == storagemodels.KindByID {
		filter = idFilter(q.ID)
	} else if sort := sortSpec(q.Options.Sort); sort != nil {
		opts.SetSort(sort)
	}
	if q.Options.Skip > 0 {
		opts.SetSkip(q.Options.Skip)
	}

	var doc bson.M
	if err := c.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("findOne %s: %w", c.name, err)
	}

	records := []document.Record{fromBSON(doc)}
	if err := datastore.Populate(ctx, c.name, records, q.Populate, c.store.fetch); err != nil {
		return nil, err
	}
	return records[0], nil
}

// Find executes a multi-result or distinct query. Distinct keeps the first
// document per value in sort order, which the server cannot express without
// an aggregation, so it is evaluated in memory over the sorted result.
func (c *Collection) Find(ctx context.Context, q storagemodels.Query) ([]document.Record, error) {
	if q.Kind == storagemodels.KindByID || q.Kind == storagemodels.KindFirst {
		r, err := c.FindOne(ctx, q)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return []document.Record{}, nil
		}
		return []document.Record{r}, nil
	}

	opts := options.Find()
	if sort := sortSpec(q.Options.Sort); sort != nil {
		opts.SetSort(sort)
	}
	if q.Kind == storagemodels.KindMany {
		if q.Options.Skip > 0 {
			opts.SetSkip(q.Options.Skip)
		}
		if q.Options.Limit > 0 {
			opts.SetLimit(q.Options.Limit)
		}
	}

	cursor, err := c.coll.Find(ctx, toFilter(q.Filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.name, err)
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.name, err)
	}

	records := make([]document.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, fromBSON(doc))
	}
	if q.Kind == storagemodels.KindDistinct {
		records = datastore.Page(datastore.DistinctBy(records, q.Distinct), q.Options)
	}

	if err := datastore.Populate(ctx, c.name, records, q.Populate, c.store.fetch); err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of documents matching filter.
func (c *Collection) Count(ctx context.Context, filter storagemodels.Filter) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, toFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, err)
	}
	return n, nil
}

// EstimatedCount returns the collection size from its metadata.
func (c *Collection) EstimatedCount(ctx context.Context) (int64, error) {
	n, err := c.coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("estimated count %s: %w", c.name, err)
	}
	return n, nil
}

// Exists reports whether a document matches filter.
func (c *Collection) Exists(ctx context.Context, filter storagemodels.Filter) (bool, error) {
	n, err := c.coll.CountDocuments(ctx, toFilter(filter), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", c.name, err)
	}
	return n > 0, nil
}

// Create inserts doc. A missing _id is generated as an ObjectID.
func (c *Collection) Create(ctx context.Context, doc document.Record) (document.Record, error) {
	r := doc.Clone()
	if r == nil {
		r = document.Record{}
	}
	delete(r, document.PublicIDField)

	insert := toBSON(r)
	if r.ID() == "" {
		insert[document.IDField] = primitive.NewObjectID()
	}
	insert[document.VersionField] = int64(0)

	if _, err := c.coll.InsertOne(ctx, insert); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, dserrors.NewAlreadyExistsError(c.name, document.IDOf(plainValue(insert[document.IDField])))
		}
		return nil, fmt.Errorf("insert %s: %w", c.name, err)
	}
	return fromBSON(insert), nil
}

// UpdateByID replaces the document at id and returns its previous state.
// The replacement is conditioned on the version read.
func (c *Collection) UpdateByID(ctx context.Context, id string, doc document.Record) (document.Record, error) {
	var current bson.M
	if err := c.coll.FindOne(ctx, idFilter(id)).Decode(&current); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("findOne %s: %w", c.name, err)
	}
	version := fromBSON(current).Version()

	next := doc.Clone()
	if next == nil {
		next = document.Record{}
	}
	delete(next, document.PublicIDField)
	delete(next, document.IDField)
	replacement := toBSON(next)
	replacement[document.VersionField] = version + 1

	filter := bson.M{document.IDField: current[document.IDField]}
	if _, versioned := current[document.VersionField]; versioned {
		filter[document.VersionField] = current[document.VersionField]
	}

	var previous bson.M
	opts := options.FindOneAndReplace().SetReturnDocument(options.Before)
	if err := c.coll.FindOneAndReplace(ctx, filter, replacement, opts).Decode(&previous); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, dserrors.NewConditionFailedError("update", fmt.Sprintf("%s = %d", document.VersionField, version))
		}
		return nil, fmt.Errorf("findOneAndReplace %s: %w", c.name, err)
	}
	return fromBSON(previous), nil
}

// DeleteByID removes the document at id and returns it.
func (c *Collection) DeleteByID(ctx context.Context, id string) (document.Record, error) {
	var previous bson.M
	if err := c.coll.FindOneAndDelete(ctx, idFilter(id)).Decode(&previous); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("findOneAndDelete %s: %w", c.name, err)
	}
	return fromBSON(previous), nil
}
