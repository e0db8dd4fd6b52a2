/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/storagemodels"
)

// The helpers in this file evaluate queries in memory. They back the mock
// store and every driver whose store cannot express a query natively.

// Match reports whether r satisfies filter. Every filter key is a dotted
// field path compared for equality; a nil value matches an absent or null
// field, and a scalar value matches an array field containing it.
func Match(r document.Record, filter storagemodels.Filter) bool {
	for path, want := range filter {
		got, present := r.Lookup(path)
		if path == document.PublicIDField && !present {
			got, present = r[document.IDField], r[document.IDField] != nil
		}
		if !matchValue(got, present, want) {
			return false
		}
	}
	return true
}

func matchValue(got any, present bool, want any) bool {
	if want == nil {
		return !present || got == nil
	}
	if !present {
		return false
	}
	if arr, ok := got.([]any); ok {
		if _, wantArr := want.([]any); !wantArr {
			for _, el := range arr {
				if Equal(el, want) {
					return true
				}
			}
			return false
		}
	}
	return Equal(got, want)
}

// Equal compares two field values the way a document store would: numbers
// by value regardless of Go type, times by instant and resolved references
// by identifier.
func Equal(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	if at, ok := toTime(a); ok {
		bt, ok := toTime(b)
		return ok && at.Equal(bt)
	}
	if document.IsReference(a) || document.IsReference(b) {
		return referenceID(a) == referenceID(b)
	}
	return reflect.DeepEqual(a, b)
}

func referenceID(v any) string {
	switch r := v.(type) {
	case document.Record:
		return r.ID()
	case *document.Record:
		return r.ID()
	}
	return document.IDOf(v)
}

// Compare orders two field values. Values of different families order as
// null < numbers < strings < objects < arrays < booleans < times.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case rankNull:
		return 0
	case rankNumber:
		af, _ := toFloat(a)
		bf, _ := toFloat(b)
		return compareOrdered(af, bf)
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		if ab == bb {
			return 0
		}
		if !ab {
			return -1
		}
		return 1
	case rankTime:
		at, _ := toTime(a)
		bt, _ := toTime(b)
		return at.Compare(bt)
	case rankObject:
		return strings.Compare(referenceID(a), referenceID(b))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

const (
	rankNull = iota
	rankNumber
	rankString
	rankObject
	rankArray
	rankBool
	rankTime
	rankOther
)

func rank(v any) int {
	if v == nil {
		return rankNull
	}
	if _, ok := toFloat(v); ok {
		return rankNumber
	}
	if _, ok := toTime(v); ok {
		return rankTime
	}
	switch v.(type) {
	case string:
		return rankString
	case bool:
		return rankBool
	case document.Record, map[string]any:
		return rankObject
	case []any:
		return rankArray
	}
	return rankOther
}

func compareOrdered[T int | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case strfmt.DateTime:
		return time.Time(t), true
	}
	return time.Time{}, false
}

// Sort orders records in place by the given keys. The sort is stable, so
// records with equal keys keep their store order.
func Sort(records []document.Record, keys []storagemodels.SortField) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, key := range keys {
			a, _ := records[i].Lookup(key.Field)
			b, _ := records[j].Lookup(key.Field)
			c := Compare(a, b)
			if c == 0 {
				continue
			}
			if key.Order == storagemodels.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// DistinctBy keeps, in order, the first record for each distinct value of
// key. Records without the field form one group with null values.
func DistinctBy(records []document.Record, key string) []document.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]document.Record, 0, len(records))
	for _, r := range records {
		v, _ := r.Lookup(key)
		k := valueKey(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

func valueKey(v any) string {
	if f, ok := toFloat(v); ok {
		return fmt.Sprintf("n:%v", f)
	}
	if t, ok := toTime(v); ok {
		return "t:" + t.UTC().Format(time.RFC3339Nano)
	}
	if document.IsReference(v) {
		return "r:" + referenceID(v)
	}
	return fmt.Sprintf("%T:%v", v, v)
}

// Page applies skip and limit.
func Page(records []document.Record, opts storagemodels.Options) []document.Record {
	if opts.Skip > 0 {
		if opts.Skip >= int64(len(records)) {
			return []document.Record{}
		}
		records = records[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < int64(len(records)) {
		records = records[:opts.Limit]
	}
	return records
}

// Apply evaluates q over an unfiltered candidate set: filter, sort, distinct
// and paging, in that order. The input slice is not modified and the result
// is never nil.
func Apply(records []document.Record, q storagemodels.Query) []document.Record {
	out := make([]document.Record, 0, len(records))
	for _, r := range records {
		if q.Kind == storagemodels.KindByID {
			if r.ID() == q.ID {
				out = append(out, r)
			}
			continue
		}
		if Match(r, q.Filter) {
			out = append(out, r)
		}
	}

	Sort(out, q.Options.Sort)
	if q.Kind == storagemodels.KindDistinct {
		out = DistinctBy(out, q.Distinct)
	}
	return Page(out, q.Options)
}
