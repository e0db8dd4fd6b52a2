/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suparena/docrepo"
	"github.com/suparena/docrepo/datastore/mock"
	"github.com/suparena/docrepo/datastore/testmodels"
	"github.com/suparena/docrepo/document"
)

var errBoom = fmt.Errorf("store unavailable")

func init() {
	testmodels.Register()
}

// countingPolicy records every invocation and answers with swallow.
type countingPolicy struct {
	swallow bool
	calls   int
	seen    error
}

func (p *countingPolicy) decide(err error) bool {
	p.calls++
	p.seen = err
	return p.swallow
}

func seed(store *mock.Store) {
	store.SetData(testmodels.Vets,
		document.Record{document.IDField: "v1", "name": "Dr. Ruiz"},
	)
	store.SetData(testmodels.Pets,
		document.Record{document.IDField: "p1", "kind": "cat", "vet": "v1"},
		document.Record{document.IDField: "p2", "kind": "dog"},
	)
	store.SetData(testmodels.Owners,
		document.Record{document.IDField: "u1", "name": "Ann", "age": int64(30), "pet": "p1", "pets": []any{"p1", "p2"}},
		document.Record{document.IDField: "u2", "name": "Bob", "age": int64(41), "pet": "p9"},
	)
}

func owners(t *testing.T, store *mock.Store, opts ...docrepo.Option) *docrepo.MutableDocumentRepository[testmodels.Owner] {
	t.Helper()
	driver, err := store.Driver(testmodels.Owners)
	require.NoError(t, err)
	return docrepo.NewMutableRepository[testmodels.Owner](driver, opts...)
}
