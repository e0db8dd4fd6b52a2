/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/docrepo/datastore"
	"github.com/suparena/docrepo/document"
	dserrors "github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/registry"
	"github.com/suparena/docrepo/storagemodels"
)

const (
	// PartitionKey and SortKey are the table's primary key attributes.
	PartitionKey = "PK"
	SortKey      = "SK"
	// EntityTypeAttribute carries the collection name on every item.
	EntityTypeAttribute = "EntityType"
)

// Client is the subset of the DynamoDB API the driver uses.
// *dynamodb.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error)
	BatchGetItem(ctx context.Context, params *sdk.BatchGetItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchGetItemOutput, error)
	DescribeTable(ctx context.Context, params *sdk.DescribeTableInput, optFns ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error)
}

// ClientConfig holds the coordinates of a DynamoDB endpoint.
type ClientConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	// Endpoint overrides the service endpoint (DynamoDB Local, LocalStack).
	Endpoint string
	Logger   *slog.Logger
}

// NewDynamoDBClient initializes a DynamoDB client using static AWS credentials.
func NewDynamoDBClient(ctx context.Context, cfg ClientConfig) (*sdk.Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	logger.Info("dynamodb client initialized", "region", cfg.Region, "endpoint", cfg.Endpoint)
	return client, nil
}

// Store is a single-table DynamoDB store. It implements datastore.Factory;
// every collection lives in the same table, told apart by its key layout
// and the EntityType attribute.
type Store struct {
	client      Client
	tableName   string
	dedicated   bool
	pageOptions storagemodels.PageOptions
}

var _ datastore.Factory = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithDedicatedTable declares that the table holds a single collection, so
// estimated counts can use the table's item count.
func WithDedicatedTable() Option {
	return func(s *Store) {
		s.dedicated = true
	}
}

// WithPageOptions configures paging and retries for queries and scans.
func WithPageOptions(opts ...storagemodels.PageOption) Option {
	return func(s *Store) {
		s.pageOptions = storagemodels.NewPageOptions(opts...)
	}
}

// New creates a Store over tableName.
func New(client Client, tableName string, opts ...Option) *Store {
	s := &Store{
		client:      client,
		tableName:   tableName,
		pageOptions: storagemodels.DefaultPageOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Driver returns the driver for collection.
func (s *Store) Driver(collection string) (datastore.Driver, error) {
	return s.collection(collection)
}

func (s *Store) collection(name string) (*Collection, error) {
	if name == "" {
		return nil, dserrors.NewValidationError("collection", "must not be empty")
	}
	indexMap := IndexMapFor(name)
	if indexMap[PartitionKey] == "" || indexMap[SortKey] == "" {
		return nil, dserrors.NewValidationError("indexMap", fmt.Sprintf("collection %q needs both %s and %s", name, PartitionKey, SortKey))
	}
	return &Collection{store: s, name: name, indexMap: indexMap}, nil
}

// IndexMapFor returns the registered key layout of collection, or the
// default one: the collection name as partition and "<collection>#{_id}"
// as sort key.
func IndexMapFor(collection string) map[string]string {
	if m, ok := registry.GetIndexMap(collection); ok {
		return m
	}
	return map[string]string{
		PartitionKey: collection,
		SortKey:      collection + "#{" + document.IDField + "}",
	}
}

// Collection is the driver for one collection of a Store.
type Collection struct {
	store    *Store
	name     string
	indexMap map[string]string
}

var _ datastore.Driver = (*Collection)(nil)

// Collection returns the collection name.
func (c *Collection) Collection() string {
	return c.name
}

// Client returns the DynamoDB client shared by the store.
func (c *Collection) Client() Client {
	return c.store.client
}

// TableName returns the table holding the collection.
func (c *Collection) TableName() string {
	return c.store.tableName
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandMacros replaces every {field} in the index map templates with the
// value of field in keysInput. complete is false when a referenced field is
// absent or not representable in a key.
func expandMacros(indexMap map[string]string, keysInput any) (expanded map[string]string, complete bool, err error) {
	av, err := attributevalue.MarshalMap(keysInput)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal keysInput: %w", err)
	}

	complete = true
	expanded = make(map[string]string, len(indexMap))
	for fieldName, template := range indexMap {
		expanded[fieldName] = macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			key := strings.Trim(macro, "{}")
			if key == document.PublicIDField {
				key = document.IDField
			}

			switch tv := av[key].(type) {
			case *types.AttributeValueMemberS:
				return tv.Value
			case *types.AttributeValueMemberN:
				return tv.Value
			case *types.AttributeValueMemberBOOL:
				return fmt.Sprintf("%v", tv.Value)
			default:
				complete = false
				return ""
			}
		})
	}
	return expanded, complete, nil
}

func hasMacros(template string) bool {
	return macroPattern.MatchString(template)
}

// primaryKey picks the table key attributes out of an expanded index map.
func primaryKey(expanded map[string]string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		PartitionKey: &types.AttributeValueMemberS{Value: expanded[PartitionKey]},
		SortKey:      &types.AttributeValueMemberS{Value: expanded[SortKey]},
	}
}

// keyOf extracts the primary key of a stored item.
func keyOf(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		PartitionKey: item[PartitionKey],
		SortKey:      item[SortKey],
	}
}

// keyForID builds the primary key of the record with id, when the key
// layout derives only from the identifier.
func (c *Collection) keyForID(id string) (map[string]types.AttributeValue, bool, error) {
	layout := map[string]string{
		PartitionKey: c.indexMap[PartitionKey],
		SortKey:      c.indexMap[SortKey],
	}
	expanded, complete, err := expandMacros(layout, map[string]any{document.IDField: id})
	if err != nil || !complete {
		return nil, false, err
	}
	return primaryKey(expanded), true, nil
}

// toItem converts a record into a table item with its key attributes.
func (c *Collection) toItem(r document.Record) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(map[string]any(r))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	expanded, complete, err := expandMacros(c.indexMap, map[string]any(r))
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, dserrors.NewValidationError("indexMap", fmt.Sprintf("record of %q lacks a field its key layout needs", c.name))
	}
	for k, v := range expanded {
		item[k] = &types.AttributeValueMemberS{Value: v}
	}
	item[EntityTypeAttribute] = &types.AttributeValueMemberS{Value: c.name}
	return item, nil
}

// fromItem converts a table item into a record, dropping key attributes.
func (c *Collection) fromItem(item map[string]types.AttributeValue) (document.Record, error) {
	if len(item) == 0 {
		return nil, nil
	}
	var m map[string]any
	err := attributevalue.UnmarshalMapWithOptions(item, &m, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	for k := range c.indexMap {
		delete(m, k)
	}
	delete(m, EntityTypeAttribute)
	return document.FromNative(plainNumbers(m).(map[string]any)), nil
}

func plainNumbers(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			val[k] = plainNumbers(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = plainNumbers(inner)
		}
		return val
	case attributevalue.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	default:
		return v
	}
}

func isConditionalCheckFailed(err error) bool {
	var cfe *types.ConditionalCheckFailedException
	return errors.As(err, &cfe)
}
