/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package document

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Ref is a reference field on an entity: either an unresolved identifier or
// the resolved entity it points at.
//
//	type Post struct {
//	    ID     string         `json:"id"`
//	    Author document.Ref[User] `json:"author"`
//	}
//
// A Ref always encodes as its bare identifier, so an entity read with its
// references inlined can be written back without embedding them.
type Ref[E any] struct {
	ID     string
	Entity *E
}

// Unresolved returns a reference holding only an identifier.
func Unresolved[E any](id string) Ref[E] {
	return Ref[E]{ID: id}
}

// Resolved returns a reference holding the referenced entity.
func Resolved[E any](id string, entity *E) Ref[E] {
	return Ref[E]{ID: id, Entity: entity}
}

// IsResolved reports whether the referenced entity is present.
func (r Ref[E]) IsResolved() bool {
	return r.Entity != nil
}

// Get returns the referenced entity when resolved.
func (r Ref[E]) Get() (*E, bool) {
	return r.Entity, r.Entity != nil
}

func (r Ref[E]) String() string {
	return r.ID
}

// MarshalJSON encodes the reference as its identifier.
func (r Ref[E]) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

// UnmarshalJSON accepts either an identifier or an embedded entity object.
func (r *Ref[E]) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		*r = Unresolved[E](id)
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("reference must be an id or an object: %w", err)
	}
	return r.setReference(raw, decodeInto)
}

// setReference fills r from a decoded value: a string identifier or a
// normalized entity map.
func (r *Ref[E]) setReference(v any, decode func(in any, out any) error) error {
	switch val := v.(type) {
	case string:
		*r = Unresolved[E](val)
		return nil
	case Ref[E]:
		*r = val
		return nil
	case map[string]any:
		return r.fromMap(val, decode)
	case Record:
		return r.fromMap(Normalize(val), decode)
	default:
		*r = Unresolved[E](IDOf(v))
		return nil
	}
}

func (r *Ref[E]) fromMap(m map[string]any, decode func(in any, out any) error) error {
	entity := new(E)
	if err := decode(m, entity); err != nil {
		return fmt.Errorf("failed to decode referenced entity: %w", err)
	}
	*r = Resolved(IDOf(m[PublicIDField]), entity)
	return nil
}

func (Ref[E]) entityType() reflect.Type {
	return reflect.TypeOf((*E)(nil)).Elem()
}

// referenceField is implemented by *Ref[E] for every E.
type referenceField interface {
	setReference(v any, decode func(in any, out any) error) error
	entityType() reflect.Type
}

var referenceFieldType = reflect.TypeOf((*referenceField)(nil)).Elem()

// IsRefType reports whether t is a Ref[E] instantiation.
func IsRefType(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(referenceFieldType)
}

// RefEntityType returns E for t == Ref[E].
func RefEntityType(t reflect.Type) (reflect.Type, bool) {
	if !IsRefType(t) {
		return nil, false
	}
	return reflect.New(t).Interface().(referenceField).entityType(), true
}
