/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"strings"
)

// Filter is a store-native predicate over entity fields. Keys are field
// paths (dotted for nested fields); drivers decide how values are matched.
type Filter map[string]any

// Order is a sort direction.
type Order int

const (
	Ascending  Order = 1
	Descending Order = -1
)

// ParseOrder accepts 1/-1, asc/desc and ascending/descending.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "asc", "ascending", "":
		return Ascending, nil
	case "-1", "desc", "descending":
		return Descending, nil
	}
	return 0, fmt.Errorf("unknown sort order %q", s)
}

func (o Order) String() string {
	if o == Descending {
		return "descending"
	}
	return "ascending"
}

// SortField orders results by one field. Sort keys apply in slice order.
type SortField struct {
	Field string
	Order Order
}

// Options controls pagination and ordering of multi-result queries.
type Options struct {
	// Limit caps the number of results; 0 means no limit.
	Limit int64
	// Skip drops that many leading results.
	Skip int64
	// Sort lists sort keys by precedence.
	Sort []SortField
}

// QueryOption is a functional option for Options.
type QueryOption func(*Options)

// NewOptions applies opts to zero Options.
func NewOptions(opts ...QueryOption) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// IsZero reports whether no pagination or ordering was requested.
func (o Options) IsZero() bool {
	return o.Limit == 0 && o.Skip == 0 && len(o.Sort) == 0
}

// WithLimit caps the number of results.
func WithLimit(limit int64) QueryOption {
	return func(o *Options) {
		o.Limit = limit
	}
}

// WithSkip drops leading results.
func WithSkip(skip int64) QueryOption {
	return func(o *Options) {
		o.Skip = skip
	}
}

// WithSort appends a sort key.
func WithSort(field string, order Order) QueryOption {
	return func(o *Options) {
		o.Sort = append(o.Sort, SortField{Field: field, Order: order})
	}
}

// WithOptions replaces the options wholesale.
func WithOptions(opts Options) QueryOption {
	return func(o *Options) {
		*o = opts
		o.Sort = append([]SortField(nil), opts.Sort...)
	}
}

// Populate asks the driver to replace the reference stored at Path with the
// referenced record. A nested directive is resolved inside the object (or
// each object of the array) found at Path.
type Populate struct {
	Path     string
	Populate *Populate
}

func (p Populate) String() string {
	if p.Populate == nil {
		return p.Path
	}
	return p.Path + "." + p.Populate.String()
}

// QueryKind identifies the shape of a pending query.
type QueryKind int

const (
	KindByID QueryKind = iota
	KindFirst
	KindMany
	KindDistinct
)

func (k QueryKind) String() string {
	switch k {
	case KindByID:
		return "by-id"
	case KindFirst:
		return "first"
	case KindMany:
		return "many"
	case KindDistinct:
		return "distinct"
	}
	return "unknown"
}

// Query is a pending, not yet executed query. It is a value: WithPopulate
// returns a copy and never alters the receiver.
type Query struct {
	Kind     QueryKind
	ID       string
	Filter   Filter
	Options  Options
	Distinct string
	Populate []Populate
}

// ByID selects the record with the given identifier.
func ByID(id string) Query {
	return Query{Kind: KindByID, ID: id}
}

// First selects the first record matching filter.
func First(filter Filter) Query {
	return Query{Kind: KindFirst, Filter: filter}
}

// Many selects every record matching filter.
func Many(filter Filter, opts ...QueryOption) Query {
	return Query{Kind: KindMany, Filter: filter, Options: NewOptions(opts...)}
}

// Distinct selects, in sort order, the first record for each distinct value
// of key.
func Distinct(key string, opts ...QueryOption) Query {
	return Query{Kind: KindDistinct, Distinct: key, Options: NewOptions(opts...)}
}

// WithPopulate returns a copy of q with p appended.
func (q Query) WithPopulate(p Populate) Query {
	populate := make([]Populate, 0, len(q.Populate)+1)
	populate = append(populate, q.Populate...)
	q.Populate = append(populate, p)
	return q
}
