/*
Package errors provides semantic error types for the docrepo library.

The package defines common error scenarios with specific types that can be
checked using the standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrNotFound        = errors.New("entity not found")
	    ErrAlreadyExists   = errors.New("entity already exists")
	    ErrInvalidInput    = errors.New("invalid input")
	    ErrConditionFailed = errors.New("condition check failed")
	    ErrNoCollection    = errors.New("no collection registered for type")
	)

Error kinds:

Repositories split failures in two kinds. Programmer errors (anything that
matches ErrInvalidInput or ErrNoCollection) indicate a defect in the calling
code and always propagate. Every other error is a store error and is handed
to the repository's error policy, which either swallows it in favour of a
fallback value or returns it untouched.

	if errors.Classify(err) == errors.KindProgrammer {
	    panic(err)
	}

Usage:

	err := errors.NewAlreadyExistsError("users", "u1")
	if errors.IsAlreadyExists(err) {
	    // pick another id
	}

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors
