/*
Package datastore defines the driver contract the repositories are built on.

A Driver executes raw-record operations against one collection and returns
document.Record values that still carry the internal identifier and version
fields:

	type Driver interface {
	    Collection() string
	    FindOne(ctx context.Context, q storagemodels.Query) (document.Record, error)
	    Find(ctx context.Context, q storagemodels.Query) ([]document.Record, error)
	    Count(ctx context.Context, filter storagemodels.Filter) (int64, error)
	    EstimatedCount(ctx context.Context) (int64, error)
	    Exists(ctx context.Context, filter storagemodels.Filter) (bool, error)
	    Create(ctx context.Context, doc document.Record) (document.Record, error)
	    UpdateByID(ctx context.Context, id string, doc document.Record) (document.Record, error)
	    DeleteByID(ctx context.Context, id string) (document.Record, error)
	}

Implementations:
  - ddb: DynamoDB single-table implementation
  - mongodb: MongoDB implementation
  - mock: in-memory implementation for tests and local tooling

The package also carries the in-memory query evaluation (Match, Sort,
DistinctBy, Apply) and the shared population resolver (Populate) used by
drivers whose store cannot evaluate a query natively.
*/
package datastore
