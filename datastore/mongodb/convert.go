/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mongodb

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/storagemodels"
)

// fromBSON converts a decoded document into a tagged record. Object ids
// become their hex form, dates become time.Time and arrays become []any.
func fromBSON(m bson.M) document.Record {
	if m == nil {
		return nil
	}
	return document.FromNative(plainDocument(m))
}

func plainDocument(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	case int32:
		return int64(val)
	case primitive.D:
		m := make(map[string]any, len(val))
		for _, e := range val {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case primitive.M:
		return plainDocument(val)
	case map[string]any:
		return plainDocument(val)
	case primitive.A:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = plainValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = plainValue(inner)
		}
		return out
	default:
		return v
	}
}

// toBSON converts a record into a document for writing. Resolved references
// are stored as their identifier.
func toBSON(r document.Record) bson.M {
	out := make(bson.M, len(r))
	for k, v := range r {
		out[k] = bsonValue(v)
	}
	return out
}

func bsonValue(v any) any {
	switch val := v.(type) {
	case document.Record:
		if document.IsReference(val) {
			return storedID(val.ID())
		}
		return toBSON(val)
	case map[string]any:
		return toBSON(val)
	case []any:
		out := make(bson.A, len(val))
		for i, inner := range val {
			out[i] = bsonValue(inner)
		}
		return out
	default:
		return v
	}
}

// storedID returns the value an identifier is stored as: an ObjectID when
// id is its hex form, the string otherwise.
func storedID(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

// idFilter matches id in both its string and ObjectID forms.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{document.IDField: bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{document.IDField: id}
}

// idsFilter matches any of ids in both forms.
func idsFilter(ids []string) bson.M {
	values := make(bson.A, 0, 2*len(ids))
	for _, id := range ids {
		values = append(values, id)
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			values = append(values, oid)
		}
	}
	return bson.M{document.IDField: bson.M{"$in": values}}
}

// toFilter passes a filter through as a query document. The public "id"
// key addresses the internal identifier.
func toFilter(filter storagemodels.Filter) bson.M {
	out := make(bson.M, len(filter))
	for k, v := range filter {
		if k == document.PublicIDField || k == document.IDField {
			if id, ok := v.(string); ok {
				for ik, iv := range idFilter(id) {
					out[ik] = iv
				}
				continue
			}
			k = document.IDField
		}
		out[k] = bsonValue(v)
	}
	return out
}

// sortSpec renders sort keys in precedence order.
func sortSpec(keys []storagemodels.SortField) bson.D {
	if len(keys) == 0 {
		return nil
	}
	out := make(bson.D, 0, len(keys))
	for _, k := range keys {
		out = append(out, bson.E{Key: k.Field, Value: int(k.Order)})
	}
	return out
}
