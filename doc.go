/*
Package docrepo provides typed repositories over document stores.

A repository reads and writes entities of one Go type in one collection of a
store. Store drivers (DynamoDB, MongoDB, in-memory) speak raw records that
carry an internal identifier and revision counter; repositories hand out
normalized entities with a plain "id" field and nothing else.

The library is organized by capability:
  - Repository: counts, lookups by id or filter, distinct queries
  - Insertable, Updatable, Deletable: writes, including merge-style Patch
  - MutableRepository: all of the above plus a driver-level escape hatch

Store failures go through an ErrorPolicy chosen at construction. The default
swallows them and returns a documented fallback (0, false, nil or an empty
slice); RethrowAll returns the driver's error unchanged. Programmer errors,
such as an empty id or an impossible population path, always propagate.

Basic Usage:

	store := mock.New() // or ddb.New, mongodb.New
	db := docrepo.NewDatabase(store, docrepo.WithErrorPolicy(docrepo.RethrowAll))

	users, _ := docrepo.GetMutableRepository[User](db, "users")
	created, err := users.Add(ctx, User{Name: "Ann", Pet: document.Unresolved[Pet]("p1")})

	// Inline the referenced pet.
	q := docrepo.InlineReferencedObject[UserWithPet](users.QueryByID(created.ID), "pet")
	withPet, err := q.GetResult(ctx)

References between collections are declared in the registry (or loaded from
a YAML schema by package processor) so drivers know which collection a
populated path points at.
*/
package docrepo
