/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/mitchellh/mapstructure"

	"github.com/suparena/docrepo/errors"
)

// TagName is the struct tag consulted when mapping entity fields.
const TagName = "json"

var (
	timeType     = reflect.TypeOf(time.Time{})
	dateTimeType = reflect.TypeOf(strfmt.DateTime{})
)

// Decode maps a normalized document onto a new T.
func Decode[T any](dto map[string]any) (*T, error) {
	out := new(T)
	if err := decodeInto(dto, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeAll maps normalized documents onto a slice of T. The result is never nil.
func DecodeAll[T any](dtos []map[string]any) ([]T, error) {
	out := make([]T, 0, len(dtos))
	for i, dto := range dtos {
		v, err := Decode[T](dto)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, *v)
	}
	return out, nil
}

func decodeInto(in any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: TagName,
		Squash:  true,
		Result:  out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			referenceHook,
			dateTimeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(in); err != nil {
		return fmt.Errorf("failed to decode document into %T: %w", out, err)
	}
	return nil
}

func referenceHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if !IsRefType(to) {
		return data, nil
	}
	ref := reflect.New(to)
	if err := ref.Interface().(referenceField).setReference(data, decodeInto); err != nil {
		return nil, err
	}
	return ref.Elem().Interface(), nil
}

func dateTimeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != dateTimeType {
		return data, nil
	}
	switch {
	case from.Kind() == reflect.String:
		return strfmt.ParseDateTime(data.(string))
	case from == timeType:
		return strfmt.DateTime(data.(time.Time)), nil
	}
	return data, nil
}

// Encode converts an entity into a plain field map following its json tags.
// Numbers that fit an int64 are kept integral.
func Encode(v any) (Record, error) {
	if r, ok := v.(Record); ok {
		return r.Clone(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.NewValidationError("", fmt.Sprintf("%T does not encode to an object", v))
	}
	return Record(plainNumbers(m).(map[string]any)), nil
}

func plainNumbers(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			val[k] = plainNumbers(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = plainNumbers(inner)
		}
		return val
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	default:
		return v
	}
}
