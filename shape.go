/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/errors"
)

// checkShape verifies that to is from with the field at path replaced by
// its resolved form. Shapes that are not structs (maps, interfaces) are
// dynamic and always accepted.
func checkShape(from, to reflect.Type, path []string) error {
	from, to = indirect(from), indirect(to)
	if from.Kind() != reflect.Struct || to.Kind() != reflect.Struct {
		return nil
	}
	return checkField(from, to, path)
}

func checkField(from, to reflect.Type, path []string) error {
	head := path[0]
	fromFields, toFields := jsonFields(from), jsonFields(to)

	fromField, ok := fromFields[head]
	if !ok {
		return shapeError(head, fmt.Sprintf("%s has no field %q", from, head))
	}
	toField, ok := toFields[head]
	if !ok {
		return shapeError(head, fmt.Sprintf("%s has no field %q", to, head))
	}

	for name, f := range toFields {
		if name == head {
			continue
		}
		g, ok := fromFields[name]
		if !ok {
			return shapeError(name, fmt.Sprintf("%s has no field %q", from, name))
		}
		if g != f {
			return shapeError(name, fmt.Sprintf("field %q is %s in %s but %s in %s", name, g, from, f, to))
		}
	}
	for name := range fromFields {
		if _, ok := toFields[name]; !ok {
			return shapeError(name, fmt.Sprintf("%s drops field %q", to, name))
		}
	}

	if len(path) == 1 {
		if !referenceCapable(fromField, true) {
			return shapeError(head, fmt.Sprintf("field %q of %s (%s) cannot hold a reference", head, from, fromField))
		}
		if !referenceCapable(toField, false) {
			return shapeError(head, fmt.Sprintf("field %q of %s (%s) cannot hold a resolved entity", head, to, toField))
		}
	}
	if isMany(fromField) != isMany(toField) && !isDynamic(toField) {
		return shapeError(head, fmt.Sprintf("field %q is %s in %s but %s in %s", head, fromField, from, toField, to))
	}
	if len(path) == 1 {
		return nil
	}

	fromElem, toElem := element(fromField), element(toField)
	if fromElem.Kind() != reflect.Struct || toElem.Kind() != reflect.Struct {
		return nil
	}
	return checkField(fromElem, toElem, path[1:])
}

func shapeError(field, message string) error {
	return errors.NewValidationError(field, "invalid population shape: "+message)
}

// referenceCapable reports whether t can hold a reference: an identifier
// (when ids is set), an embedded object, or a slice of either.
func referenceCapable(t reflect.Type, ids bool) bool {
	if document.IsRefType(t) {
		return true
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem().Kind() != reflect.Uint8 && referenceCapable(t.Elem(), ids)
	case reflect.Pointer:
		return referenceCapable(t.Elem(), ids)
	case reflect.String:
		return ids
	case reflect.Struct, reflect.Map, reflect.Interface:
		return true
	}
	return false
}

// isMany reports whether t holds a list once pointers are unwrapped.
func isMany(t reflect.Type) bool {
	t = indirect(t)
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem().Kind() != reflect.Uint8
	}
	return false
}

// isDynamic reports whether t accepts any value shape.
func isDynamic(t reflect.Type) bool {
	return indirect(t).Kind() == reflect.Interface
}

// element returns the object type held by a field: pointers and slices are
// unwrapped and Ref[E] yields E.
func element(t reflect.Type) reflect.Type {
	for {
		if e, ok := document.RefEntityType(t); ok {
			t = e
			continue
		}
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
			continue
		}
		return t
	}
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// jsonFields maps the json names of t's exported fields to their types.
// Untagged embedded structs are flattened.
func jsonFields(t reflect.Type) map[string]reflect.Type {
	out := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get(document.TagName)
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" && indirect(f.Type).Kind() == reflect.Struct {
			for k, v := range jsonFields(indirect(f.Type)) {
				out[k] = v
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out[name] = f.Type
	}
	return out
}

func splitKey(key string) []string {
	return strings.Split(key, ".")
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
