/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package document

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/docrepo/errors"
)

type pet struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

type owner struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Age     int             `json:"age,omitempty"`
	Pet     Ref[pet]        `json:"pet"`
	Friends []Ref[owner]    `json:"friends,omitempty"`
	Joined  time.Time       `json:"joined"`
	Updated strfmt.DateTime `json:"updated"`
}

func TestDecodeUnresolvedReference(t *testing.T) {
	dto := map[string]any{
		"id":      "u1",
		"name":    "Ann",
		"age":     int64(30),
		"pet":     "p1",
		"joined":  "2025-03-01T10:00:00Z",
		"updated": "2025-03-02T11:30:00.000Z",
	}

	got, err := Decode[owner](dto)
	require.NoError(t, err)

	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, 30, got.Age)
	assert.Equal(t, "p1", got.Pet.ID)
	assert.False(t, got.Pet.IsResolved())
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), got.Joined.UTC())
	assert.Equal(t, 2025, time.Time(got.Updated).Year())
}

func TestDecodeResolvedReference(t *testing.T) {
	dto := Normalize(Record{
		IDField: "u1",
		"name":  "Ann",
		"pet":   Record{IDField: "p1", VersionField: 0, "kind": "cat"},
		"friends": []any{
			Record{IDField: "u2", "name": "Bea", "pet": "p2"},
		},
	})

	got, err := Decode[owner](dto)
	require.NoError(t, err)

	p, ok := got.Pet.Get()
	require.True(t, ok)
	assert.Equal(t, pet{ID: "p1", Kind: "cat"}, *p)
	assert.Equal(t, "p1", got.Pet.ID)

	require.Len(t, got.Friends, 1)
	friend, ok := got.Friends[0].Get()
	require.True(t, ok)
	assert.Equal(t, "Bea", friend.Name)
	assert.Equal(t, "p2", friend.Pet.ID)
}

func TestDecodeAllNeverNil(t *testing.T) {
	got, err := DecodeAll[pet](nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDecodeIntoMap(t *testing.T) {
	dto := map[string]any{"id": "u1", "name": "Ann"}
	got, err := Decode[map[string]any](dto)
	require.NoError(t, err)
	assert.Equal(t, dto, *got)
}

func TestDecodeTypeMismatch(t *testing.T) {
	_, err := Decode[pet](map[string]any{"kind": []any{1, 2}})
	assert.Error(t, err)
}

func TestEncodeFollowsJSONTags(t *testing.T) {
	resolved := &pet{ID: "p1", Kind: "cat"}
	o := owner{
		ID:     "u1",
		Name:   "Ann",
		Age:    30,
		Pet:    Resolved("p1", resolved),
		Joined: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	r, err := Encode(o)
	require.NoError(t, err)

	assert.Equal(t, "u1", r["id"])
	assert.Equal(t, "Ann", r["name"])
	assert.Equal(t, int64(30), r["age"])
	assert.Equal(t, "p1", r["pet"], "references encode as their id")
	assert.Equal(t, "2025-03-01T10:00:00Z", r["joined"])
	assert.NotContains(t, r, "friends")
}

func TestEncodeRejectsNonObjects(t *testing.T) {
	_, err := Encode([]string{"a"})
	require.Error(t, err)
	assert.True(t, errors.IsProgrammerError(err))
}

func TestEncodeRecordIsCloned(t *testing.T) {
	in := Record{"name": "Ann"}
	out, err := Encode(in)
	require.NoError(t, err)
	out["name"] = "Bea"
	assert.Equal(t, "Ann", in["name"])
}

func TestRefJSON(t *testing.T) {
	b, err := json.Marshal(Resolved("p1", &pet{ID: "p1", Kind: "cat"}))
	require.NoError(t, err)
	assert.JSONEq(t, `"p1"`, string(b))

	b, err = json.Marshal(Ref[pet]{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var r Ref[pet]
	require.NoError(t, json.Unmarshal([]byte(`"p9"`), &r))
	assert.Equal(t, Unresolved[pet]("p9"), r)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"p2","kind":"dog"}`), &r))
	p, ok := r.Get()
	require.True(t, ok)
	assert.Equal(t, "dog", p.Kind)
	assert.Equal(t, "p2", r.ID)
}

func TestRefTypeIntrospection(t *testing.T) {
	typ, ok := RefEntityType(reflectTypeOf[Ref[pet]]())
	require.True(t, ok)
	assert.Equal(t, reflectTypeOf[pet](), typ)

	_, ok = RefEntityType(reflectTypeOf[pet]())
	assert.False(t, ok)
}

func reflectTypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
