/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/suparena/docrepo"
	"github.com/suparena/docrepo/config"
	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/datastore/ddb"
	"github.com/suparena/docrepo/datastore/mock"
	"github.com/suparena/docrepo/datastore/mongodb"
	"github.com/suparena/docrepo/document"
	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/processor"
	"github.com/suparena/docrepo/registry"
	"github.com/suparena/docrepo/storagemodels"
)

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type options struct {
	version    bool
	envFiles   listFlag
	backend    string
	schema     string
	seed       string
	collection string
	id         string
	filters    listFlag
	sorts      listFlag
	limit      int64
	skip       int64
	distinct   string
	populate   listFlag
	count      bool
}

func parseFlags(args []string) (*options, error) {
	var o options
	fs := flag.NewFlagSet("docrepo", flag.ContinueOnError)
	fs.BoolVar(&o.version, "version", false, "Show version information")
	fs.BoolVar(&o.version, "v", false, "Show version information (short)")
	fs.Var(&o.envFiles, "env", "Load environment from `file` (repeatable, default .env)")
	fs.StringVar(&o.backend, "backend", "", "Store backend: ddb, mongodb or memory (overrides DOCREPO_BACKEND)")
	fs.StringVar(&o.schema, "schema", "", "YAML schema `file` declaring references (overrides DOCREPO_SCHEMA)")
	fs.StringVar(&o.seed, "seed", "", "YAML `file` of records loaded into the memory backend")
	fs.StringVar(&o.collection, "collection", "", "Collection to read")
	fs.StringVar(&o.id, "id", "", "Read the document with this id")
	fs.Var(&o.filters, "filter", "Equality filter `key=value` (repeatable)")
	fs.Var(&o.sorts, "sort", "Sort key `field[:desc]` (repeatable)")
	fs.Int64Var(&o.limit, "limit", 0, "Maximum number of documents")
	fs.Int64Var(&o.skip, "skip", 0, "Number of leading documents to skip")
	fs.StringVar(&o.distinct, "distinct", "", "Return the first document for each distinct value of `key`")
	fs.Var(&o.populate, "populate", "Inline the reference at `path` or path.sub (repeatable)")
	fs.BoolVar(&o.count, "count", false, "Print the number of matching documents")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return &o, nil
}

func run(ctx context.Context, args []string, stdout io.Writer, logger *slog.Logger) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}

	if o.version {
		info := docrepo.GetVersionInfo()
		fmt.Fprintf(stdout, "docrepo version %s\n", info.Version)
		fmt.Fprintf(stdout, "Git commit: %s\n", info.GitCommit)
		fmt.Fprintf(stdout, "Build date: %s\n", info.BuildDate)
		fmt.Fprintf(stdout, "Go version: %s\n", info.GoVersion)
		return nil
	}

	if o.backend != "" {
		if err := os.Setenv("DOCREPO_BACKEND", o.backend); err != nil {
			return err
		}
	}
	cfg, err := config.Load(o.envFiles...)
	if err != nil {
		return err
	}
	if o.collection == "" {
		return errors.NewValidationError("collection", "-collection is required")
	}

	schema := o.schema
	if schema == "" {
		schema = cfg.Schema
	}
	if schema != "" {
		s, err := processor.Load(schema)
		if err != nil {
			return err
		}
		if err := s.Register(); err != nil {
			return err
		}
	}

	factory, closeFn, err := open(ctx, cfg, o.seed, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	driver, err := factory.Driver(o.collection)
	if err != nil {
		return err
	}
	repo := docrepo.NewRepository[map[string]any](driver, docrepo.WithErrorPolicy(docrepo.RethrowAll))

	result, err := query(ctx, repo, o)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return enc.Close()
}

func query(ctx context.Context, repo *docrepo.DocumentRepository[map[string]any], o *options) (any, error) {
	filter, err := parseFilter(o.filters)
	if err != nil {
		return nil, err
	}
	queryOpts, err := parseOptions(o)
	if err != nil {
		return nil, err
	}

	if o.count {
		return repo.ExactSize(ctx, filter)
	}

	if o.id != "" {
		q := repo.QueryByID(o.id)
		for _, p := range o.populate {
			key, sub := splitPopulate(repo.Collection(), p)
			if sub == "" {
				q = docrepo.InlineReferencedObject[map[string]any](q, key)
			} else {
				q = docrepo.InlineReferencedSubObject[map[string]any](q, key, sub)
			}
		}
		got, err := q.GetResult(ctx)
		if err != nil {
			return nil, err
		}
		if got == nil {
			return nil, errors.NewNotFoundError(repo.Collection(), o.id)
		}
		return *got, nil
	}

	var q *docrepo.CollectionQuery[map[string]any]
	if o.distinct != "" {
		q = repo.QueryDistinct(o.distinct, queryOpts...)
	} else {
		q = repo.FilterAndQuery(filter, queryOpts...)
	}
	for _, p := range o.populate {
		key, sub := splitPopulate(repo.Collection(), p)
		if sub == "" {
			q = docrepo.InlineReferencedObjects[map[string]any](q, key)
		} else {
			q = docrepo.InlineReferencedSubObjects[map[string]any](q, key, sub)
		}
	}
	return q.GetResult(ctx)
}

// splitPopulate reads "path.sub" as a nested directive unless the whole
// path is itself a registered reference.
func splitPopulate(collection, p string) (key, sub string) {
	if registry.HasReference(collection, p) {
		return p, ""
	}
	key, sub, _ = strings.Cut(p, ".")
	return key, sub
}

// parseFilter reads key=value pairs. Values are YAML scalars, so numbers
// and booleans keep their type.
func parseFilter(pairs []string) (storagemodels.Filter, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filter := make(storagemodels.Filter, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, errors.NewValidationError("filter", fmt.Sprintf("expected key=value, got %q", pair))
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		filter[key] = v
	}
	return filter, nil
}

func parseOptions(o *options) ([]storagemodels.QueryOption, error) {
	var opts []storagemodels.QueryOption
	for _, s := range o.sorts {
		field, dir, _ := strings.Cut(s, ":")
		order, err := storagemodels.ParseOrder(dir)
		if err != nil {
			return nil, errors.NewValidationError("sort", err.Error())
		}
		opts = append(opts, storagemodels.WithSort(field, order))
	}
	if o.limit < 0 || o.skip < 0 {
		return nil, errors.NewValidationError("limit", "limit and skip cannot be negative")
	}
	if o.limit > 0 {
		opts = append(opts, storagemodels.WithLimit(o.limit))
	}
	if o.skip > 0 {
		opts = append(opts, storagemodels.WithSkip(o.skip))
	}
	return opts, nil
}

// open returns the configured store and a function releasing it.
func open(ctx context.Context, cfg *config.Config, seed string, logger *slog.Logger) (datastore.Factory, func(), error) {
	switch cfg.Backend {
	case config.BackendDynamoDB:
		client, err := ddb.NewDynamoDBClient(ctx, ddb.ClientConfig{
			AccessKey: cfg.DynamoDB.AccessKey,
			SecretKey: cfg.DynamoDB.SecretKey,
			Region:    cfg.DynamoDB.Region,
			Endpoint:  cfg.DynamoDB.Endpoint,
			Logger:    logger,
		})
		if err != nil {
			return nil, nil, err
		}
		var opts []ddb.Option
		if cfg.DynamoDB.DedicatedTable {
			opts = append(opts, ddb.WithDedicatedTable())
		}
		return ddb.New(client, cfg.DynamoDB.Table, opts...), func() {}, nil

	case config.BackendMongoDB:
		client, err := mongodb.Connect(ctx, cfg.MongoDB.URL,
			mongodb.WithMaxAttempts(cfg.MongoDB.ConnectAttempts),
			mongodb.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, err
		}
		release := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("failed to disconnect from MongoDB", "error", err)
			}
		}
		return mongodb.New(client.Database(cfg.MongoDB.Database)), release, nil

	default:
		store := mock.New()
		if seed != "" {
			if err := loadSeed(store, seed); err != nil {
				return nil, nil, err
			}
		}
		return store, func() {}, nil
	}
}

// loadSeed fills store from a YAML map of collection name to records. A
// record's "id" becomes its store identifier.
func loadSeed(store *mock.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed: %w", err)
	}
	var seed map[string][]map[string]any
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return errors.NewValidationError("seed", fmt.Sprintf("failed to parse YAML: %v", err))
	}
	for collection, docs := range seed {
		records := make([]document.Record, 0, len(docs))
		for _, doc := range docs {
			r := document.Record(doc)
			if id, ok := r[document.PublicIDField]; ok {
				delete(r, document.PublicIDField)
				r[document.IDField] = document.IDOf(id)
			}
			records = append(records, r)
		}
		store.SetData(collection, records...)
	}
	return nil
}
