/*
Package storagemodels defines the data structures shared by repositories and
store drivers.

Query:
A pending query is a plain value. Constructors pick its shape and options
tune multi-result queries:

	q := storagemodels.Many(storagemodels.Filter{"kind": "cat"},
	    storagemodels.WithSort("name", storagemodels.Ascending),
	    storagemodels.WithLimit(20),
	)
	q = q.WithPopulate(storagemodels.Populate{Path: "owner"})

Population directives mirror the nested form used by document stores:

	storagemodels.Populate{Path: "owner", Populate: &storagemodels.Populate{Path: "pet"}}

PageOptions:
Configuration for drivers that read paged results:

	opts := storagemodels.NewPageOptions(
	    storagemodels.WithPageSize(25),
	    storagemodels.WithMaxRetries(3),
	)
*/
package storagemodels
