/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package processor

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/registry"
)

// Schema is the YAML file structure.
type Schema struct {
	Version     string                       `yaml:"version"`
	Collections map[string]*CollectionSchema `yaml:"collections"`
}

// CollectionSchema declares one collection.
type CollectionSchema struct {
	// References maps a field path to the collection its identifiers point at.
	References map[string]string `yaml:"references,omitempty"`
	// IndexMap is the DynamoDB key layout; values may hold {field} macros.
	IndexMap map[string]string `yaml:"indexMap,omitempty"`
}

// Load reads and validates a schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	return Parse(data)
}

// Parse parses and validates a schema.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.NewValidationError("schema", fmt.Sprintf("failed to parse YAML: %v", err))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every reference targets a declared collection and
// that index maps carry both primary key attributes.
func (s *Schema) Validate() error {
	if len(s.Collections) == 0 {
		return errors.NewValidationError("collections", "schema declares no collections")
	}
	for _, name := range s.Names() {
		c := s.Collections[name]
		if c == nil {
			continue
		}
		for path, target := range c.References {
			if path == "" {
				return errors.NewValidationError(name, "empty reference path")
			}
			if _, ok := s.Collections[target]; !ok {
				return errors.NewValidationError(name+"."+path, fmt.Sprintf("references undeclared collection %q", target))
			}
		}
		if len(c.IndexMap) > 0 {
			for _, key := range []string{"PK", "SK"} {
				if c.IndexMap[key] == "" {
					return errors.NewValidationError(name+".indexMap", fmt.Sprintf("missing %s", key))
				}
			}
		}
	}
	return nil
}

// Names returns the declared collection names, sorted.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.Collections))
	for name := range s.Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register declares the references and index maps of s in the registry.
// A reference already registered with another target is an error and
// nothing is registered.
func (s *Schema) Register() error {
	for _, name := range s.Names() {
		c := s.Collections[name]
		if c == nil {
			continue
		}
		for path, target := range c.References {
			if existing, err := registry.ReferenceTarget(name, path); err == nil && existing != target {
				return errors.NewValidationError(name+"."+path, fmt.Sprintf("already references %q", existing))
			}
		}
	}

	for _, name := range s.Names() {
		c := s.Collections[name]
		if c == nil {
			continue
		}
		for path, target := range c.References {
			registry.RegisterReference(name, path, target)
		}
		if len(c.IndexMap) > 0 {
			registry.RegisterIndexMap(name, c.IndexMap)
		}
	}
	return nil
}
