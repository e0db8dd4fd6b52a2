/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"fmt"
	"sort"
	"sync"
)

// DriverSet is a thread-safe Factory over explicitly registered drivers.
type DriverSet struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

// NewDriverSet creates an empty DriverSet.
func NewDriverSet() *DriverSet {
	return &DriverSet{
		drivers: make(map[string]Driver),
	}
}

// Register stores d under its collection name.
func (s *DriverSet) Register(d Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := d.Collection()
	if _, exists := s.drivers[key]; exists {
		return fmt.Errorf("driver for collection %q already registered", key)
	}
	s.drivers[key] = d
	return nil
}

// Driver retrieves the driver registered for collection.
func (s *DriverSet) Driver(collection string) (Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.drivers[collection]
	if !exists {
		return nil, fmt.Errorf("driver for collection %q not found", collection)
	}
	return d, nil
}

// Remove deletes the driver registered for collection.
func (s *DriverSet) Remove(collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.drivers[collection]; !exists {
		return fmt.Errorf("driver for collection %q not found", collection)
	}
	delete(s.drivers, collection)
	return nil
}

// List returns the registered collection names in sorted order.
func (s *DriverSet) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.drivers))
	for k := range s.drivers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
