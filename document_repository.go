/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"context"
	"fmt"
	"reflect"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

// DocumentRepository implements Repository over a store driver.
type DocumentRepository[T any] struct {
	driver datastore.Driver
	policy ErrorPolicy
}

// MutableDocumentRepository implements MutableRepository over a store driver.
type MutableDocumentRepository[T any] struct {
	DocumentRepository[T]
}

var (
	_ Repository[map[string]any]        = (*DocumentRepository[map[string]any])(nil)
	_ MutableRepository[map[string]any] = (*MutableDocumentRepository[map[string]any])(nil)
)

// NewRepository returns a read-only repository of T over driver.
func NewRepository[T any](driver datastore.Driver, opts ...Option) *DocumentRepository[T] {
	o := newOptions(opts)
	return &DocumentRepository[T]{driver: driver, policy: o.policy}
}

// NewMutableRepository returns a read-write repository of T over driver.
func NewMutableRepository[T any](driver datastore.Driver, opts ...Option) *MutableDocumentRepository[T] {
	return &MutableDocumentRepository[T]{DocumentRepository: *NewRepository[T](driver, opts...)}
}

// Collection returns the name of the underlying collection.
func (r *DocumentRepository[T]) Collection() string { return r.driver.Collection() }

func (r *DocumentRepository[T]) ErrorPolicy() ErrorPolicy { return r.policy }

func (r *DocumentRepository[T]) EstimatedSize(ctx context.Context) (int64, error) {
	return guard(r.policy, 0, func() (int64, error) {
		return r.driver.EstimatedCount(ctx)
	})
}

func (r *DocumentRepository[T]) EstimatedLength(ctx context.Context) (int64, error) {
	return r.EstimatedSize(ctx)
}

func (r *DocumentRepository[T]) ExactSize(ctx context.Context, filter storagemodels.Filter) (int64, error) {
	return guard(r.policy, 0, func() (int64, error) {
		return r.driver.Count(ctx, filter)
	})
}

func (r *DocumentRepository[T]) ExactLength(ctx context.Context, filter storagemodels.Filter) (int64, error) {
	return r.ExactSize(ctx, filter)
}

func (r *DocumentRepository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	return r.QueryByID(id).GetResult(ctx)
}

func (r *DocumentRepository[T]) QueryByID(id string) *Query[T] {
	q := r.single(storagemodels.ByID(id))
	if id == "" {
		q.err = errors.NewValidationError("id", "id cannot be empty")
	}
	return q
}

func (r *DocumentRepository[T]) GetAll(ctx context.Context, opts ...storagemodels.QueryOption) ([]T, error) {
	return r.QueryAll(opts...).GetResult(ctx)
}

func (r *DocumentRepository[T]) QueryAll(opts ...storagemodels.QueryOption) *CollectionQuery[T] {
	return r.many(storagemodels.Many(nil, opts...))
}

func (r *DocumentRepository[T]) Exists(ctx context.Context, filter storagemodels.Filter) (bool, error) {
	return guard(r.policy, false, func() (bool, error) {
		return r.driver.Exists(ctx, filter)
	})
}

func (r *DocumentRepository[T]) FirstOrNull(ctx context.Context, filter storagemodels.Filter) (*T, error) {
	return r.QueryFirstOrNull(filter).GetResult(ctx)
}

func (r *DocumentRepository[T]) QueryFirstOrNull(filter storagemodels.Filter) *Query[T] {
	return r.single(storagemodels.First(filter))
}

func (r *DocumentRepository[T]) Filter(ctx context.Context, filter storagemodels.Filter, opts ...storagemodels.QueryOption) ([]T, error) {
	return r.FilterAndQuery(filter, opts...).GetResult(ctx)
}

func (r *DocumentRepository[T]) FilterAndQuery(filter storagemodels.Filter, opts ...storagemodels.QueryOption) *CollectionQuery[T] {
	return r.many(storagemodels.Many(filter, opts...))
}

func (r *DocumentRepository[T]) GetDistinct(ctx context.Context, key string, opts ...storagemodels.QueryOption) ([]T, error) {
	return r.QueryDistinct(key, opts...).GetResult(ctx)
}

func (r *DocumentRepository[T]) QueryDistinct(key string, opts ...storagemodels.QueryOption) *CollectionQuery[T] {
	q := r.many(storagemodels.Distinct(key, opts...))
	if key == "" {
		q.err = errors.NewValidationError("key", "distinct key cannot be empty")
	}
	return q
}

func (r *DocumentRepository[T]) single(q storagemodels.Query) *Query[T] {
	return &Query[T]{driver: r.driver, query: q, policy: r.policy}
}

func (r *DocumentRepository[T]) many(q storagemodels.Query) *CollectionQuery[T] {
	return &CollectionQuery[T]{driver: r.driver, query: q, policy: r.policy}
}

// Readonly returns the read capability of r over the same driver.
func (r *MutableDocumentRepository[T]) Readonly() Repository[T] {
	return &r.DocumentRepository
}

func (r *MutableDocumentRepository[T]) Add(ctx context.Context, entity T) (*T, error) {
	doc, err := encode(entity)
	if err != nil {
		return nil, err
	}
	return r.create(ctx, doc)
}

func (r *MutableDocumentRepository[T]) Insert(ctx context.Context, entity T) (*T, error) {
	return r.Add(ctx, entity)
}

func (r *MutableDocumentRepository[T]) AddWithID(ctx context.Context, id string, entity T) (*T, error) {
	if id == "" {
		return nil, errors.NewValidationError("id", "id cannot be empty")
	}
	doc, err := encode(entity)
	if err != nil {
		return nil, err
	}
	doc[document.IDField] = id
	return r.create(ctx, doc)
}

func (r *MutableDocumentRepository[T]) AddObjectWithID(ctx context.Context, entity T) (*T, error) {
	doc, err := document.Encode(entity)
	if err != nil {
		return nil, err
	}
	id := document.IDOf(doc[document.PublicIDField])
	if id == "" {
		return nil, errors.NewValidationError(document.PublicIDField, fmt.Sprintf("%T carries no id", entity))
	}
	return r.AddWithID(ctx, id, entity)
}

func (r *MutableDocumentRepository[T]) create(ctx context.Context, doc document.Record) (*T, error) {
	return guard[*T](r.policy, nil, func() (*T, error) {
		created, err := r.driver.Create(ctx, doc)
		if err != nil || created == nil {
			return nil, err
		}
		return document.Decode[T](document.Normalize(created))
	})
}

func (r *MutableDocumentRepository[T]) Update(ctx context.Context, id string, entity T) (*T, error) {
	if id == "" {
		return nil, errors.NewValidationError("id", "id cannot be empty")
	}
	doc, err := encode(entity)
	if err != nil {
		return nil, err
	}
	return guard[*T](r.policy, nil, func() (*T, error) {
		return r.replace(ctx, id, doc)
	})
}

// Patch reads the entity at id, fills every field absent from partial with
// its current value and replaces the entity with the result. Fields present
// in partial win, including explicit nils. The read and the write form one
// operation for the error policy.
func (r *MutableDocumentRepository[T]) Patch(ctx context.Context, id string, partial map[string]any) (*T, error) {
	if id == "" {
		return nil, errors.NewValidationError("id", "id cannot be empty")
	}
	if partial == nil {
		partial = map[string]any{}
	}
	merged, err := document.Encode(partial)
	if err != nil {
		return nil, err
	}
	delete(merged, document.PublicIDField)

	return guard[*T](r.policy, nil, func() (*T, error) {
		current, err := r.driver.FindOne(ctx, storagemodels.ByID(id))
		if err != nil || current == nil {
			return nil, err
		}
		for k, v := range document.Normalize(current) {
			if k == document.PublicIDField {
				continue
			}
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
		return r.replace(ctx, id, merged)
	})
}

func (r *MutableDocumentRepository[T]) replace(ctx context.Context, id string, doc document.Record) (*T, error) {
	previous, err := r.driver.UpdateByID(ctx, id, doc)
	if err != nil || previous == nil {
		return nil, err
	}
	return document.Decode[T](document.Normalize(previous))
}

func (r *MutableDocumentRepository[T]) Delete(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, errors.NewValidationError("id", "id cannot be empty")
	}
	return guard[*T](r.policy, nil, func() (*T, error) {
		deleted, err := r.driver.DeleteByID(ctx, id)
		if err != nil || deleted == nil {
			return nil, err
		}
		return document.Decode[T](document.Normalize(deleted))
	})
}

func (r *MutableDocumentRepository[T]) Remove(ctx context.Context, id string) (*T, error) {
	return r.Delete(ctx, id)
}

func (r *MutableDocumentRepository[T]) Custom(ctx context.Context, block CustomFunc, fallback any) (any, error) {
	if block == nil {
		return fallback, errors.NewValidationError("block", "custom operation cannot be nil")
	}
	return guard(r.policy, fallback, func() (any, error) {
		out, err := block(ctx, r.driver)
		if err != nil {
			return nil, err
		}
		if isNil(out) {
			return fallback, nil
		}
		return normalizeResult(out), nil
	})
}

// isNil reports whether v is nil or a nil map, pointer or slice held in an
// interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// normalizeResult normalizes record-shaped values: a record carrying the
// internal identifier, a store-native map that looks like a record, or a
// non-empty slice made only of those. Anything else is returned unchanged.
func normalizeResult(v any) any {
	switch val := v.(type) {
	case *document.Record:
		if val == nil {
			return v
		}
		return normalizeResult(*val)
	case []document.Record:
		items := make([]any, len(val))
		for i, r := range val {
			items[i] = r
		}
		return normalizeSlice(v, items)
	case []map[string]any:
		items := make([]any, len(val))
		for i, m := range val {
			items[i] = m
		}
		return normalizeSlice(v, items)
	case []any:
		return normalizeSlice(v, val)
	}
	if r, ok := asRecord(v); ok {
		return document.Normalize(r)
	}
	return v
}

func normalizeSlice(original any, items []any) any {
	if len(items) == 0 {
		return original
	}
	records := make([]document.Record, 0, len(items))
	for _, e := range items {
		r, ok := asRecord(e)
		if !ok {
			return original
		}
		records = append(records, r)
	}
	return document.NormalizeAll(records)
}

// asRecord converts v into a Record when it is record-shaped.
func asRecord(v any) (document.Record, bool) {
	switch val := v.(type) {
	case document.Record:
		if !document.IsReference(val) {
			return nil, false
		}
		return val, true
	case map[string]any:
		if !document.LooksLikeReference(val, document.DriverMarkerField) {
			return nil, false
		}
		return document.FromNative(val), true
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Map && rv.Type().ConvertibleTo(nativeMapType) {
		return asRecord(rv.Convert(nativeMapType).Interface())
	}
	return nil, false
}

var nativeMapType = reflect.TypeOf(map[string]any(nil))

// encode converts entity into a store document without its public id.
func encode(entity any) (document.Record, error) {
	doc, err := document.Encode(entity)
	if err != nil {
		return nil, err
	}
	delete(doc, document.PublicIDField)
	return doc, nil
}
