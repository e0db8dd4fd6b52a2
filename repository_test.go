/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/suparena/docrepo"
	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/datastore/mock"
	"github.com/suparena/docrepo/datastore/testmodels"
	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

type RepositorySuite struct {
	suite.Suite

	ctx    context.Context
	store  *mock.Store
	owners *docrepo.MutableDocumentRepository[testmodels.Owner]
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = mock.New()
	seed(s.store)
	s.owners = owners(s.T(), s.store, docrepo.WithErrorPolicy(docrepo.RethrowAll))
}

func (s *RepositorySuite) TestCounts() {
	n, err := s.owners.EstimatedSize(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	n, err = s.owners.EstimatedLength(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	n, err = s.owners.ExactSize(s.ctx, nil)
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	n, err = s.owners.ExactLength(s.ctx, storagemodels.Filter{"name": "Ann"})
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *RepositorySuite) TestGetByID() {
	got, err := s.owners.GetByID(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(testmodels.Owner{ID: "u1", Name: "Ann", Age: 30, Pet: "p1", Pets: []string{"p1", "p2"}}, *got)

	missing, err := s.owners.GetByID(s.ctx, "nope")
	s.NoError(err)
	s.Nil(missing)
}

func (s *RepositorySuite) TestReadQueries() {
	all, err := s.owners.GetAll(s.ctx, storagemodels.WithSort("age", storagemodels.Descending))
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("Bob", all[0].Name)

	exists, err := s.owners.Exists(s.ctx, storagemodels.Filter{"pet": "p1"})
	s.Require().NoError(err)
	s.True(exists)

	first, err := s.owners.FirstOrNull(s.ctx, storagemodels.Filter{"pets": "p2"})
	s.Require().NoError(err)
	s.Require().NotNil(first)
	s.Equal("u1", first.ID)

	none, err := s.owners.FirstOrNull(s.ctx, storagemodels.Filter{"name": "Zed"})
	s.Require().NoError(err)
	s.Nil(none)

	filtered, err := s.owners.Filter(s.ctx, storagemodels.Filter{"age": 41})
	s.Require().NoError(err)
	s.Require().Len(filtered, 1)
	s.Equal("u2", filtered[0].ID)
}

func (s *RepositorySuite) TestFilterWithoutMatchesIsEmpty() {
	pets, err := s.store.Driver(testmodels.Pets)
	s.Require().NoError(err)
	repo := docrepo.NewRepository[testmodels.Pet](pets)

	got, err := repo.Filter(s.ctx, storagemodels.Filter{"kind": "parrot"})
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *RepositorySuite) TestGetDistinct() {
	s.store.SetData(testmodels.Owners,
		document.Record{document.IDField: "u1", "name": "Ann", "age": int64(30)},
		document.Record{document.IDField: "u2", "name": "Bob", "age": int64(41)},
		document.Record{document.IDField: "u3", "name": "Cid", "age": int64(30)},
	)

	got, err := s.owners.GetDistinct(s.ctx, "age", storagemodels.WithSort("name", storagemodels.Ascending))
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Ann", got[0].Name)
	s.Equal("Bob", got[1].Name)

	paged, err := s.owners.GetDistinct(s.ctx, "age",
		storagemodels.WithSort("name", storagemodels.Ascending),
		storagemodels.WithSkip(1),
	)
	s.Require().NoError(err)
	s.Require().Len(paged, 1)
	s.Equal("Bob", paged[0].Name)

	_, err = s.owners.GetDistinct(s.ctx, "")
	s.True(errors.IsProgrammerError(err))
}

func (s *RepositorySuite) TestAdd() {
	created, err := s.owners.Add(s.ctx, testmodels.Owner{ID: "ignored", Name: "Dee", Age: 22})
	s.Require().NoError(err)
	s.Require().NotNil(created)
	s.NotEmpty(created.ID)
	s.NotEqual("ignored", created.ID)
	s.Equal("Dee", created.Name)

	inserted, err := s.owners.Insert(s.ctx, testmodels.Owner{Name: "Eve"})
	s.Require().NoError(err)
	s.NotEqual(created.ID, inserted.ID)
	s.Equal(4, s.store.Count(testmodels.Owners))
}

func (s *RepositorySuite) TestAddWithID() {
	created, err := s.owners.AddWithID(s.ctx, "u7", testmodels.Owner{Name: "Gus"})
	s.Require().NoError(err)
	s.Equal("u7", created.ID)

	created, err = s.owners.AddObjectWithID(s.ctx, testmodels.Owner{ID: "u8", Name: "Hal"})
	s.Require().NoError(err)
	s.Equal("u8", created.ID)

	stored, err := s.owners.GetByID(s.ctx, "u8")
	s.Require().NoError(err)
	s.Equal("Hal", stored.Name)

	_, err = s.owners.AddWithID(s.ctx, "u1", testmodels.Owner{Name: "Dup"})
	s.True(errors.IsAlreadyExists(err))

	_, err = s.owners.AddObjectWithID(s.ctx, testmodels.Owner{Name: "NoID"})
	s.True(errors.IsProgrammerError(err))
}

func (s *RepositorySuite) TestUpdate() {
	previous, err := s.owners.Update(s.ctx, "u2", testmodels.Owner{Name: "Bobby"})
	s.Require().NoError(err)
	s.Require().NotNil(previous)
	s.Equal("Bob", previous.Name)
	s.Equal(int64(41), previous.Age)

	current, err := s.owners.GetByID(s.ctx, "u2")
	s.Require().NoError(err)
	s.Equal(testmodels.Owner{ID: "u2", Name: "Bobby"}, *current, "update replaces every field")

	missing, err := s.owners.Update(s.ctx, "nope", testmodels.Owner{Name: "X"})
	s.NoError(err)
	s.Nil(missing)
}

func (s *RepositorySuite) TestPatchMergesCurrentFields() {
	s.store.Clear()
	s.store.SetData(testmodels.Owners,
		document.Record{document.IDField: "u1", "name": "Ann", "age": int64(30)},
	)

	previous, err := s.owners.Patch(s.ctx, "u1", map[string]any{"name": "Bea"})
	s.Require().NoError(err)
	s.Require().NotNil(previous)
	s.Equal(testmodels.Owner{ID: "u1", Name: "Ann", Age: 30}, *previous)

	sent, ok := s.store.LastUpdate(testmodels.Owners)
	s.Require().True(ok)
	s.Equal(document.Record{"name": "Bea", "age": int64(30)}, sent)
}

func (s *RepositorySuite) TestPatchEqualsUpdateWithMergedEntity() {
	_, err := s.owners.Patch(s.ctx, "u1", map[string]any{"age": 31, "pets": nil, "id": "hijack"})
	s.Require().NoError(err)
	patched, _ := s.store.LastUpdate(testmodels.Owners)

	s.SetupTest()
	_, err = s.owners.Update(s.ctx, "u1", testmodels.Owner{Name: "Ann", Age: 31, Pet: "p1"})
	s.Require().NoError(err)
	updated, _ := s.store.LastUpdate(testmodels.Owners)

	s.Equal(document.Record{"name": "Ann", "age": int64(31), "pet": "p1", "pets": nil}, patched)
	s.Equal(document.Record{"name": "Ann", "age": int64(31), "pet": "p1"}, updated)

	got, err := s.owners.GetByID(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("u1", got.ID, "patch never moves an entity")
}

func (s *RepositorySuite) TestPatchMissingEntity() {
	previous, err := s.owners.Patch(s.ctx, "nope", map[string]any{"name": "X"})
	s.NoError(err)
	s.Nil(previous)
	_, updated := s.store.LastUpdate(testmodels.Owners)
	s.False(updated, "a missing entity short-circuits before the write")
}

func (s *RepositorySuite) TestDelete() {
	deleted, err := s.owners.Delete(s.ctx, "u2")
	s.Require().NoError(err)
	s.Require().NotNil(deleted)
	s.Equal("Bob", deleted.Name)

	again, err := s.owners.Remove(s.ctx, "u2")
	s.NoError(err)
	s.Nil(again)
	s.Equal(1, s.store.Count(testmodels.Owners))
}

func (s *RepositorySuite) TestEmptyIDsArePropagated() {
	_, err := s.owners.GetByID(s.ctx, "")
	s.True(errors.IsValidationError(err))
	_, err = s.owners.Update(s.ctx, "", testmodels.Owner{})
	s.True(errors.IsValidationError(err))
	_, err = s.owners.Patch(s.ctx, "", nil)
	s.True(errors.IsValidationError(err))
	_, err = s.owners.Delete(s.ctx, "")
	s.True(errors.IsValidationError(err))
	_, err = s.owners.AddWithID(s.ctx, "", testmodels.Owner{})
	s.True(errors.IsValidationError(err))
}

func (s *RepositorySuite) TestCustom() {
	out, err := s.owners.Custom(s.ctx, func(ctx context.Context, d datastore.Driver) (any, error) {
		return d.FindOne(ctx, storagemodels.ByID("u2"))
	}, "fallback")
	s.Require().NoError(err)
	s.Equal(map[string]any{"id": "u2", "name": "Bob", "age": int64(41), "pet": "p9"}, out)

	out, err = s.owners.Custom(s.ctx, func(ctx context.Context, d datastore.Driver) (any, error) {
		records, err := d.Find(ctx, storagemodels.Many(nil, storagemodels.WithSort("name", storagemodels.Ascending)))
		return records, err
	}, nil)
	s.Require().NoError(err)
	s.Require().IsType([]map[string]any{}, out)
	s.Equal("u1", out.([]map[string]any)[0]["id"])

	mixed := []any{document.Record{document.IDField: "a"}, "b"}
	out, err = s.owners.Custom(s.ctx, func(context.Context, datastore.Driver) (any, error) {
		return mixed, nil
	}, nil)
	s.Require().NoError(err)
	s.Equal(mixed, out)

	out, err = s.owners.Custom(s.ctx, func(ctx context.Context, d datastore.Driver) (any, error) {
		return d.Count(ctx, nil)
	}, int64(-1))
	s.Require().NoError(err)
	s.Equal(int64(2), out)

	out, err = s.owners.Custom(s.ctx, func(context.Context, datastore.Driver) (any, error) {
		return nil, nil
	}, "fallback")
	s.Require().NoError(err)
	s.Equal("fallback", out)

	out, err = s.owners.Custom(s.ctx, func(ctx context.Context, d datastore.Driver) (any, error) {
		return d.FindOne(ctx, storagemodels.ByID("missing"))
	}, "fallback")
	s.Require().NoError(err)
	s.Equal("fallback", out, "a nil record is no result")

	out, err = s.owners.Custom(s.ctx, func(context.Context, datastore.Driver) (any, error) {
		return map[string]any{"_id": "x1", "__v": 3, "name": "Raw"}, nil
	}, nil)
	s.Require().NoError(err)
	s.Equal(map[string]any{"id": "x1", "name": "Raw"}, out)

	out, err = s.owners.Custom(s.ctx, func(context.Context, datastore.Driver) (any, error) {
		return []map[string]any{{"_id": "x1", "__v": 0}, {"_id": "x2", "__v": 1}}, nil
	}, nil)
	s.Require().NoError(err)
	s.Equal([]map[string]any{{"id": "x1"}, {"id": "x2"}}, out)

	plain := document.Record{"total": int64(3)}
	out, err = s.owners.Custom(s.ctx, func(context.Context, datastore.Driver) (any, error) {
		return plain, nil
	}, nil)
	s.Require().NoError(err)
	s.Equal(plain, out, "a record without an identifier is not a store record")
}

func (s *RepositorySuite) TestReadonlySharesTheDriver() {
	ro := s.owners.Readonly()
	_, isMutable := ro.(docrepo.MutableRepository[testmodels.Owner])
	s.False(isMutable)

	_, err := s.owners.AddWithID(s.ctx, "u9", testmodels.Owner{Name: "Ivy"})
	s.Require().NoError(err)

	got, err := ro.GetByID(s.ctx, "u9")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("Ivy", got.Name)
}

func (s *RepositorySuite) TestMapEntities() {
	driver, err := s.store.Driver(testmodels.Owners)
	s.Require().NoError(err)
	repo := docrepo.NewMutableRepository[map[string]any](driver)

	got, err := repo.GetByID(s.ctx, "u2")
	s.Require().NoError(err)
	s.Equal(map[string]any{"id": "u2", "name": "Bob", "age": int64(41), "pet": "p9"}, *got)
	s.NotContains(*got, document.VersionField)
}
