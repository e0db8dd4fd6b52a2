/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/docrepo/errors"
)

type registryUser struct {
	ID string `json:"id"`
}

func TestCollectionRegistry(t *testing.T) {
	_, ok := CollectionOf[registryUser]()
	assert.False(t, ok)

	RegisterCollection[registryUser]("registry-users")

	name, ok := CollectionOf[registryUser]()
	require.True(t, ok)
	assert.Equal(t, "registry-users", name)
}

func TestIndexMapRegistryCopies(t *testing.T) {
	idx := map[string]string{"PK": "USER", "SK": "USER#{_id}"}
	RegisterIndexMap("registry-index", idx)
	idx["PK"] = "CHANGED"

	got, ok := GetIndexMap("registry-index")
	require.True(t, ok)
	assert.Equal(t, "USER", got["PK"])

	_, ok = GetIndexMap("registry-missing")
	assert.False(t, ok)
}

func TestReferenceRegistry(t *testing.T) {
	RegisterReference("registry-owners", "pet", "registry-pets")
	RegisterReference("registry-owners", "pet", "registry-pets")
	RegisterReference("registry-owners", "address.landlord", "registry-owners")

	target, err := ReferenceTarget("registry-owners", "pet")
	require.NoError(t, err)
	assert.Equal(t, "registry-pets", target)
	assert.True(t, HasReference("registry-owners", "address.landlord"))
	assert.Len(t, References("registry-owners"), 2)

	_, err = ReferenceTarget("registry-owners", "vet")
	require.Error(t, err)
	assert.True(t, errors.IsProgrammerError(err))

	assert.Panics(t, func() {
		RegisterReference("registry-owners", "pet", "registry-vets")
	})
}
