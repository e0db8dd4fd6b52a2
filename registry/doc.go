/*
Package registry holds the process-wide metadata drivers and repositories
need about collections.

Collection Registry:
Maps Go entity types to collection names:

	registry.RegisterCollection[User]("users")

Reference Registry:
Declares which fields hold identifiers of other collections. Population
uses it to find the collection to resolve against:

	registry.RegisterReference("users", "pet", "pets")
	registry.RegisterReference("users", "address.landlord", "users")

Index Map Registry:
Associates a collection with a DynamoDB key layout:

	registry.RegisterIndexMap("users", map[string]string{
	    "PK":     "USER",
	    "SK":     "USER#{_id}",
	    "GSI1PK": "EMAIL#{email}",
	    "GSI1SK": "USER",
	})

The registry is thread-safe and should be populated during initialization,
typically from a schema file (see package processor) or init() functions.
*/
package registry
