/*
Package mongodb provides a MongoDB implementation of the datastore driver
contract on top of the official Go driver.

	client, err := mongodb.Connect(ctx, "mongodb://localhost:27017",
	    mongodb.WithMaxAttempts(10),
	    mongodb.WithLogger(logger),
	)
	if err != nil {
	    return err
	}
	store := mongodb.New(client.Database("app"))

Filters are passed through as query documents, so operators such as $in or
$gt work as the server defines them. Identifiers are matched in both their
string and ObjectID forms; generated identifiers are ObjectIDs, surfaced as
their hex string.
*/
package mongodb
