/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"github.com/suparena/docrepo/errors"
)

// ErrorPolicy decides what happens to a store failure. Returning true
// swallows the error and the operation returns its fallback; returning
// false hands the original error back to the caller.
//
// The policy is consulted exactly once per failing call and never for
// programmer errors, which always propagate.
type ErrorPolicy func(err error) bool

// SwallowAll swallows every store failure. It is the default policy.
func SwallowAll(error) bool { return true }

// RethrowAll returns every store failure to the caller.
func RethrowAll(error) bool { return false }

// guard runs call and routes its failure through policy. Fallbacks by
// operation: counts 0, existence false, single lookups nil, collections an
// empty slice, writes nil.
func guard[R any](policy ErrorPolicy, fallback R, call func() (R, error)) (R, error) {
	out, err := call()
	if err == nil {
		return out, nil
	}
	if errors.IsProgrammerError(err) {
		return fallback, err
	}
	if policy(err) {
		return fallback, nil
	}
	return fallback, err
}

type options struct {
	policy ErrorPolicy
}

// Option configures a repository.
type Option func(*options)

// WithErrorPolicy sets the error policy. A nil policy keeps the default.
func WithErrorPolicy(policy ErrorPolicy) Option {
	return func(o *options) {
		if policy != nil {
			o.policy = policy
		}
	}
}

func newOptions(opts []Option) options {
	o := options{policy: SwallowAll}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
