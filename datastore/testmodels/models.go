/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package testmodels holds entity shapes shared by tests: owners own pets,
// pets are seen by vets.
package testmodels

import (
	"sync"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/docrepo/registry"
)

// Collection names used by the shapes in this package.
const (
	Owners = "owners"
	Pets   = "pets"
	Vets   = "vets"
)

var registerOnce sync.Once

// Register declares the collections and references of the test shapes.
func Register() {
	registerOnce.Do(func() {
		registry.RegisterCollection[Owner](Owners)
		registry.RegisterCollection[Pet](Pets)
		registry.RegisterCollection[Vet](Vets)

		registry.RegisterReference(Owners, "pet", Pets)
		registry.RegisterReference(Owners, "pets", Pets)
		registry.RegisterReference(Pets, "vet", Vets)
	})
}

type Owner struct {

	// Unique identifier for the owner.
	ID string `json:"id,omitempty"`

	// Name of the owner.
	// Required: true
	Name string `json:"name"`

	// age
	Age int64 `json:"age,omitempty"`

	// Identifier of the owner's main pet.
	Pet string `json:"pet,omitempty"`

	// Identifiers of every pet of the owner.
	Pets []string `json:"pets,omitempty"`
}

// OwnerWithPet is Owner with its main pet inlined.
type OwnerWithPet struct {
	ID   string   `json:"id,omitempty"`
	Name string   `json:"name"`
	Age  int64    `json:"age,omitempty"`
	Pet  *Pet     `json:"pet,omitempty"`
	Pets []string `json:"pets,omitempty"`
}

// OwnerWithPets is Owner with every pet inlined.
type OwnerWithPets struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Age  int64  `json:"age,omitempty"`
	Pet  string `json:"pet,omitempty"`
	Pets []Pet  `json:"pets,omitempty"`
}

// OwnerWithPetAndVet is OwnerWithPet with the pet's vet inlined.
type OwnerWithPetAndVet struct {
	ID   string      `json:"id,omitempty"`
	Name string      `json:"name"`
	Age  int64       `json:"age,omitempty"`
	Pet  *PetWithVet `json:"pet,omitempty"`
	Pets []string    `json:"pets,omitempty"`
}

type Pet struct {

	// Unique identifier for the pet.
	ID string `json:"id,omitempty"`

	// Kind of animal.
	// Required: true
	Kind string `json:"kind"`

	// Identifier of the vet seeing the pet.
	Vet string `json:"vet,omitempty"`
}

// PetWithVet is Pet with its vet inlined.
type PetWithVet struct {
	ID   string `json:"id,omitempty"`
	Kind string `json:"kind"`
	Vet  *Vet   `json:"vet,omitempty"`
}

type Vet struct {

	// Unique identifier for the vet.
	ID string `json:"id,omitempty"`

	// Name of the vet.
	// Required: true
	Name string `json:"name"`

	// Timestamp when the vet was licensed.
	// Format: date-time
	LicensedAt *strfmt.DateTime `json:"licensedAt,omitempty"`
}
