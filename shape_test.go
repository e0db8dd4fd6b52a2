/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/errors"
)

type shapePet struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Vet  string `json:"vet"`
}

type shapeVet struct {
	ID string `json:"id"`
}

type shapePetWithVet struct {
	ID   string    `json:"id"`
	Kind string    `json:"kind"`
	Vet  *shapeVet `json:"vet"`
}

type shapeAudit struct {
	By string `json:"by"`
}

type shapeOwner struct {
	shapeAudit
	ID      string                 `json:"id"`
	Name    string                 `json:"name"`
	Pet     document.Ref[shapePet] `json:"pet"`
	Pets    []string               `json:"pets"`
	Age     int                    `json:"age"`
	Comment string                 `json:"-"`
}

type shapeOwnerResolved struct {
	shapeAudit
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Pet  document.Ref[shapePet] `json:"pet"`
	Pets []shapePet             `json:"pets"`
	Age  int                    `json:"age"`
}

type shapeOwnerWithVet struct {
	shapeAudit
	ID   string                        `json:"id"`
	Name string                        `json:"name"`
	Pet  document.Ref[shapePetWithVet] `json:"pet"`
	Pets []string                      `json:"pets"`
	Age  int                           `json:"age"`
}

type shapeOwnerRenamed struct {
	shapeAudit
	ID       string                 `json:"id"`
	FullName string                 `json:"fullName"`
	Pet      document.Ref[shapePet] `json:"pet"`
	Pets     []string               `json:"pets"`
	Age      int                    `json:"age"`
}

type shapeOwnerAgeAsString struct {
	shapeAudit
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Pet  document.Ref[shapePet] `json:"pet"`
	Pets []shapePet             `json:"pets"`
	Age  string                 `json:"age"`
}

type shapeOwnerPetsAsStrings struct {
	shapeAudit
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Pet  document.Ref[shapePet] `json:"pet"`
	Pets string                 `json:"pets"`
	Age  int                    `json:"age"`
}

type shapeOwnerOnePet struct {
	shapeAudit
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Pet  document.Ref[shapePet] `json:"pet"`
	Pets shapePet               `json:"pets"`
	Age  int                    `json:"age"`
}

type shapeOwnerPetList struct {
	shapeAudit
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Pet  []*shapePet `json:"pet"`
	Pets []string    `json:"pets"`
	Age  int         `json:"age"`
}

type shapeOwnerPetsPointer struct {
	shapeAudit
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Pet  document.Ref[shapePet] `json:"pet"`
	Pets *[]shapePet            `json:"pets"`
	Age  int                    `json:"age"`
}

func TestCheckInline(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		valid bool
	}{
		{"slice of ids to slice of entities", checkInline[shapeOwnerResolved, shapeOwner]("pets", ""), true},
		{"ref keeps its type", checkInline[shapeOwner, shapeOwner]("pet", ""), true},
		{"sub-object through ref", checkInline[shapeOwnerWithVet, shapeOwner]("pet", "vet"), true},
		{"dynamic result", checkInline[map[string]any, shapeOwner]("anything", ""), true},
		{"pointer shapes", checkInline[*shapeOwnerResolved, *shapeOwner]("pets", ""), true},
		{"empty key", checkInline[shapeOwner, shapeOwner]("", ""), false},
		{"unknown key", checkInline[shapeOwner, shapeOwner]("owner", ""), false},
		{"key not reference capable", checkInline[shapeOwner, shapeOwner]("age", ""), false},
		{"resolved field still a string", checkInline[shapeOwnerPetsAsStrings, shapeOwner]("pets", ""), false},
		{"other field changed type", checkInline[shapeOwnerAgeAsString, shapeOwner]("pets", ""), false},
		{"other field renamed", checkInline[shapeOwnerRenamed, shapeOwner]("pets", ""), false},
		{"sub-object on wrong key", checkInline[shapeOwnerWithVet, shapeOwner]("pets", "vet"), false},
		{"slice of ids to pointer to slice", checkInline[shapeOwnerPetsPointer, shapeOwner]("pets", ""), true},
		{"slice of ids to single entity", checkInline[shapeOwnerOnePet, shapeOwner]("pets", ""), false},
		{"single ref to slice of entities", checkInline[shapeOwnerPetList, shapeOwner]("pet", ""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.valid {
				assert.NoError(t, tt.err)
				return
			}
			assert.Error(t, tt.err)
			assert.True(t, errors.IsProgrammerError(tt.err))
		})
	}
}

func TestJSONFields(t *testing.T) {
	fields := jsonFields(typeOf[shapeOwner]())
	assert.Contains(t, fields, "by", "embedded structs are flattened")
	assert.Contains(t, fields, "pet")
	assert.NotContains(t, fields, "Comment")
	assert.NotContains(t, fields, "-")
}

func TestElement(t *testing.T) {
	assert.Equal(t, typeOf[shapePet](), element(typeOf[document.Ref[shapePet]]()))
	assert.Equal(t, typeOf[shapePet](), element(typeOf[[]*shapePet]()))
	assert.Equal(t, typeOf[string](), element(typeOf[[]string]()))
}
