/*
Package ddb provides a DynamoDB implementation of the datastore driver
contract.

Every collection lives in one table (single-table design). A collection's
key layout comes from its index map, registered with
registry.RegisterIndexMap; templates use {field} macros expanded from the
stored record:

	registry.RegisterIndexMap("users", map[string]string{
	    "PK":     "USER",             // Static partition: one Query lists the collection
	    "SK":     "USER#{_id}",       // Becomes "USER#123"
	    "GSI1PK": "EMAIL#{email}",    // Filters on email are routed to GSI1
	    "GSI1SK": "USER",
	})

Collections without an index map use PK=<collection> and
SK=<collection>#{_id}. Key attributes and the injected EntityType attribute
are stripped from records on the way out.

Reads page through Query (or Scan when no partition can be derived) with
retry on throttling, configured through storagemodels.PageOptions:

	store := ddb.New(client, "entities",
	    ddb.WithPageOptions(
	        storagemodels.WithPageSize(25),
	        storagemodels.WithMaxRetries(3),
	    ),
	)

Equality filters are pushed down as filter expressions and re-checked in
memory; sorting, distinct and paging are evaluated client-side. Updates are
conditioned on the stored version for optimistic locking, and population
reads referenced records with BatchGetItem.
*/
package ddb
