/*
Package document converts between raw store records and public entities.

A Record is the store-native form of an entity. It carries the internal
identifier (_id), the internal revision counter (__v) and user fields. A
Record nested inside another Record is a resolved reference; drivers tag
nested documents when decoding store output with FromNative.

Normalize strips the bookkeeping fields, exposes the identifier as "id" and
recursively normalizes resolved references, including arrays whose elements
are all references:

	raw := document.Record{
	    "_id": "u1", "__v": 0, "name": "Ann",
	    "pet": document.Record{"_id": "p1", "__v": 0, "kind": "cat"},
	}
	dto := document.Normalize(raw)
	// {"id": "u1", "name": "Ann", "pet": {"id": "p1", "kind": "cat"}}

Decode maps a normalized document onto a typed entity using json tags.
Ref[E] models a reference field that is either an identifier or the
resolved entity.
*/
package document
