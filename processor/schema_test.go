/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package processor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/registry"
)

const schemaYAML = `
version: "1"
collections:
  sch-owners:
    references:
      pet: sch-pets
      address.city: sch-cities
  sch-pets:
    references:
      vet: sch-vets
    indexMap:
      PK: "PET"
      SK: "PET#{_id}"
      GSI1PK: "KIND#{kind}"
      GSI1SK: "PET#{_id}"
  sch-vets: {}
  sch-cities:
`

func TestParseAndRegister(t *testing.T) {
	s, err := Parse([]byte(schemaYAML))
	require.NoError(t, err)

	assert.Equal(t, "1", s.Version)
	assert.Equal(t, []string{"sch-cities", "sch-owners", "sch-pets", "sch-vets"}, s.Names())
	assert.Equal(t, "sch-pets", s.Collections["sch-owners"].References["pet"])

	require.NoError(t, s.Register())

	target, err := registry.ReferenceTarget("sch-owners", "address.city")
	require.NoError(t, err)
	assert.Equal(t, "sch-cities", target)
	assert.True(t, registry.HasReference("sch-pets", "vet"))

	idx, ok := registry.GetIndexMap("sch-pets")
	require.True(t, ok)
	assert.Equal(t, "KIND#{kind}", idx["GSI1PK"])

	_, ok = registry.GetIndexMap("sch-owners")
	assert.False(t, ok)

	// Registering the same schema twice is harmless.
	assert.NoError(t, s.Register())
}

func TestRegisterConflict(t *testing.T) {
	registry.RegisterReference("sch-conflict", "pet", "sch-a")

	s, err := Parse([]byte(`
collections:
  sch-conflict:
    references:
      pet: sch-b
      vet: sch-b
  sch-b: {}
`))
	require.NoError(t, err)

	err = s.Register()
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.False(t, registry.HasReference("sch-conflict", "vet"), "nothing is registered on conflict")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "collections: [unterminated"},
		{"empty", "version: \"1\"\n"},
		{"undeclared target", "collections:\n  a:\n    references:\n      b: missing\n"},
		{"incomplete index map", "collections:\n  a:\n    indexMap:\n      PK: A\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.IsProgrammerError(err))
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(schemaYAML), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Collections, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
