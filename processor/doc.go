/*
Package processor loads collection schemas declared in YAML and registers
them with the registry.

A schema names the collections of a store, the reference fields of each
collection and, for DynamoDB, the key layout:

	version: "1"
	collections:
	  owners:
	    references:
	      pet: pets
	      pets: pets
	      address.city: cities
	  pets:
	    references:
	      vet: vets
	    indexMap:
	      PK: "PET"
	      SK: "PET#{_id}"
	      GSI1PK: "KIND#{kind}"
	      GSI1SK: "PET#{_id}"
	  vets: {}
	  cities: {}

Reference paths are dotted field paths; targets must be declared
collections. Registering the schema lets drivers resolve population
directives on those paths.
*/
package processor
